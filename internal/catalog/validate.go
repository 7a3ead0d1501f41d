package catalog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/earningbee/bee-engine/internal/models"
)

// ErrMalformedEntry is returned when a catalog entry breaks the schema
var ErrMalformedEntry = errors.New("malformed catalog entry")

// Validate checks a single entry against the catalog rules
func Validate(m *models.EarningMethod) error {
	if strings.TrimSpace(m.ID) == "" {
		return fmt.Errorf("%w: id is required", ErrMalformedEntry)
	}
	if !m.Category.Valid() {
		return fmt.Errorf("%w: %s: unknown category %q", ErrMalformedEntry, m.ID, m.Category)
	}
	if !m.Difficulty.Valid() {
		return fmt.Errorf("%w: %s: unknown difficulty %q", ErrMalformedEntry, m.ID, m.Difficulty)
	}
	if m.MinInvestment < 0 || m.MinInvestment > m.MaxInvestment {
		return fmt.Errorf("%w: %s: investment range [%d, %d] is invalid",
			ErrMalformedEntry, m.ID, m.MinInvestment, m.MaxInvestment)
	}
	if m.MinEarning < 0 || m.MinEarning > m.MaxEarning {
		return fmt.Errorf("%w: %s: earning range [%d, %d] is invalid",
			ErrMalformedEntry, m.ID, m.MinEarning, m.MaxEarning)
	}
	return nil
}

// documentSchema describes the YAML catalog document. Range ordering
// (min <= max) cannot be expressed here and is left to Validate.
const documentSchema = `{
  "type": "object",
  "required": ["methods"],
  "properties": {
    "version": {"type": "string"},
    "methods": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "name", "category", "min_investment", "max_investment", "min_earning", "max_earning", "difficulty"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "name": {"type": "string", "minLength": 1},
          "category": {"type": "string", "enum": ["online", "offline"]},
          "min_investment": {"type": "integer", "minimum": 0},
          "max_investment": {"type": "integer", "minimum": 0},
          "min_earning": {"type": "integer", "minimum": 0},
          "max_earning": {"type": "integer", "minimum": 0},
          "difficulty": {"type": "string", "enum": ["beginner", "intermediate", "advanced"]},
          "description": {"type": "string"},
          "image": {"type": "string"},
          "learning_link": {"type": "string"},
          "platform_link": {"type": "string"},
          "time_to_start": {"type": "string"},
          "requirements": {"type": "array", "items": {"type": "string"}}
        }
      }
    }
  }
}`

var schemaLoader = gojsonschema.NewStringLoader(documentSchema)

// validateDocument runs the JSON schema over a decoded catalog document
func validateDocument(doc interface{}) error {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewGoLoader(doc))
	if err != nil {
		return fmt.Errorf("failed to run catalog schema: %w", err)
	}
	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("%w: %s", ErrMalformedEntry, strings.Join(msgs, "; "))
}
