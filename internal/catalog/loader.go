package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/earningbee/bee-engine/internal/models"
)

//go:embed data/earning_methods.yaml
var defaultCatalog []byte

// ErrNotLoaded is returned when no catalog has been loaded yet
var ErrNotLoaded = errors.New("catalog not loaded")

// Loader loads catalogs from YAML and holds the current one
type Loader struct {
	mu      sync.RWMutex
	current *Catalog
	source  string
	logger  *zap.Logger
}

// NewLoader creates a new catalog loader
func NewLoader(logger *zap.Logger) *Loader {
	return &Loader{logger: logger}
}

// Load loads the catalog at path, or the embedded default when path is empty
func (l *Loader) Load(path string) error {
	if path == "" {
		return l.LoadDefault()
	}
	return l.LoadFromFile(path)
}

// LoadFromFile parses and validates a YAML catalog file and makes it current
func (l *Loader) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read catalog file: %w", err)
	}
	return l.load(data, path)
}

// LoadDefault loads the catalog compiled into the binary
func (l *Loader) LoadDefault() error {
	return l.load(defaultCatalog, "embedded")
}

func (l *Loader) load(data []byte, source string) error {
	cat, err := Parse(data)
	if err != nil {
		l.logger.Error("catalog rejected", zap.String("source", source), zap.Error(err))
		return err
	}

	l.mu.Lock()
	l.current = cat
	l.source = source
	l.mu.Unlock()

	l.logger.Info("catalog loaded",
		zap.String("source", source),
		zap.Int("methods", cat.Len()),
		zap.String("version", cat.Version()),
	)
	return nil
}

// Current returns the active catalog
func (l *Loader) Current() (*Catalog, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.current == nil {
		return nil, ErrNotLoaded
	}
	return l.current, nil
}

// Source returns where the active catalog was loaded from
func (l *Loader) Source() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.source
}

// Parse decodes a YAML catalog document, checks it against the document
// schema and builds a validated Catalog.
func Parse(data []byte) (*Catalog, error) {
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := validateDocument(doc); err != nil {
		return nil, err
	}

	var cf catalogFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}

	return New(cf.Methods)
}

// Default parses the embedded catalog
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// catalogFile represents the YAML structure of a catalog file
type catalogFile struct {
	Version string                 `yaml:"version"`
	Methods []models.EarningMethod `yaml:"methods"`
}
