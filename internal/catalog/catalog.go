// Package catalog holds the validated, read-only collection of earning
// methods the recommendation engine ranks.
package catalog

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/cespare/xxhash/v2"

	"github.com/earningbee/bee-engine/internal/models"
)

// Catalog is an immutable, validated list of earning methods. The only way to
// obtain one is New (or a loader built on it), so holding a *Catalog means
// every entry passed validation.
type Catalog struct {
	methods []*models.EarningMethod
	byID    map[string]*models.EarningMethod
	version string
}

// New validates methods and builds a catalog. Insertion order is preserved
// and is the tie-break order used by ranking. The first malformed entry
// aborts the whole load.
func New(methods []models.EarningMethod) (*Catalog, error) {
	c := &Catalog{
		methods: make([]*models.EarningMethod, 0, len(methods)),
		byID:    make(map[string]*models.EarningMethod, len(methods)),
	}

	for i := range methods {
		if err := Validate(&methods[i]); err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		if _, dup := c.byID[methods[i].ID]; dup {
			return nil, fmt.Errorf("entry %d: %w: duplicate id %q", i, ErrMalformedEntry, methods[i].ID)
		}

		m := methods[i]
		if m.Requirements != nil {
			m.Requirements = append([]string(nil), m.Requirements...)
		}
		c.methods = append(c.methods, &m)
		c.byID[m.ID] = &m
	}

	version, err := fingerprint(c.methods)
	if err != nil {
		return nil, err
	}
	c.version = version

	return c, nil
}

// Len returns the number of entries
func (c *Catalog) Len() int {
	return len(c.methods)
}

// Methods returns the entries in catalog order. The slice is a fresh copy;
// the entries themselves are shared and must not be modified.
func (c *Catalog) Methods() []*models.EarningMethod {
	out := make([]*models.EarningMethod, len(c.methods))
	copy(out, c.methods)
	return out
}

// Get returns the entry with the given id, or nil
func (c *Catalog) Get(id string) *models.EarningMethod {
	return c.byID[id]
}

// ByCategory returns entries of one category in catalog order
func (c *Catalog) ByCategory(cat models.Category) []*models.EarningMethod {
	var out []*models.EarningMethod
	for _, m := range c.methods {
		if m.Category == cat {
			out = append(out, m)
		}
	}
	return out
}

// Version is a content fingerprint; two catalogs with the same entries in
// the same order share a version.
func (c *Catalog) Version() string {
	return c.version
}

func fingerprint(methods []*models.EarningMethod) (string, error) {
	data, err := json.Marshal(methods)
	if err != nil {
		return "", fmt.Errorf("failed to fingerprint catalog: %w", err)
	}
	return strconv.FormatUint(xxhash.Sum64(data), 16), nil
}
