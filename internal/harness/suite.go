package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/roach88/dbassert/internal/queryir"
	"github.com/roach88/dbassert/pkg/dbassert"
)

// Suite is a named list of database checks.
// A suite runs against one database after its fixtures are applied.
type Suite struct {
	// Name uniquely identifies this suite.
	Name string `yaml:"name" json:"name"`

	// Description explains what this suite validates.
	Description string `yaml:"description" json:"description"`

	// Database is the SQLite path the suite runs against.
	// Empty means a private in-memory database.
	Database string `yaml:"database,omitempty" json:"database,omitempty"`

	// Fixtures are SQL statements applied, in order, before any check runs.
	Fixtures []string `yaml:"fixtures,omitempty" json:"fixtures,omitempty"`

	// Checks are evaluated in order.
	Checks []Check `yaml:"checks" json:"checks"`
}

// Check is one assertion against one table.
type Check struct {
	// Name identifies the check in reports.
	Name string `yaml:"name" json:"name"`

	// Table is the table the query reads from.
	Table string `yaml:"table" json:"table"`

	// Verb selects the assertion: exists, missing, count or empty.
	Verb string `yaml:"verb" json:"verb"`

	// Where holds equality filters, applied in key order.
	Where map[string]any `yaml:"where,omitempty" json:"where,omitempty"`

	// Filters holds comparison filters, applied after Where in list order.
	Filters []Filter `yaml:"filters,omitempty" json:"filters,omitempty"`

	// Count is the expected row count (count only).
	Count *int64 `yaml:"count,omitempty" json:"count,omitempty"`

	// Comparator compares the actual count against Count. Defaults to "==".
	// Unlike dbassert.Comparator, which compares unknown operators with
	// "==", a suite rejects them so a typo in a file is reported instead
	// of silently checking equality.
	Comparator string `yaml:"comparator,omitempty" json:"comparator,omitempty"`

	// Show caps the failure sample. Nil uses dbassert.DefaultShow.
	Show *int `yaml:"show,omitempty" json:"show,omitempty"`

	// Fields overrides the columns shown in the failure sample.
	Fields []string `yaml:"fields,omitempty" json:"fields,omitempty"`
}

// Filter is a single comparison: field op value.
type Filter struct {
	Field string `yaml:"field" json:"field"`
	Op    string `yaml:"op" json:"op"`
	Value any    `yaml:"value" json:"value"`
}

// Verb constants.
const (
	VerbExists  = "exists"
	VerbMissing = "missing"
	VerbCount   = "count"
	VerbEmpty   = "empty"
)

// LoadSuite reads and parses a suite file. The format follows the
// extension: .yaml and .yml are YAML, .cue is CUE.
// Returns an error if the file doesn't exist, is malformed, contains
// unknown fields, or is missing required fields.
func LoadSuite(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read suite file: %w", err)
	}

	var suite *Suite
	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		suite, err = parseYAML(data)
	case ".cue":
		suite, err = parseCUE(path, data)
	default:
		return nil, fmt.Errorf("unsupported suite format %q: want .yaml, .yml or .cue", ext)
	}
	if err != nil {
		return nil, err
	}

	if err := suite.Validate(); err != nil {
		return nil, fmt.Errorf("invalid suite: %w", err)
	}

	return suite, nil
}

func parseYAML(data []byte) (*Suite, error) {
	var suite Suite
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&suite); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return &suite, nil
}

// parseCUE evaluates a CUE suite. The file's top level is the suite.
func parseCUE(path string, data []byte) (*Suite, error) {
	ctx := cuecontext.New()
	value := ctx.CompileBytes(data, cue.Filename(path))
	if err := value.Err(); err != nil {
		return nil, fmt.Errorf("failed to build CUE value: %w", err)
	}
	if err := value.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("CUE suite is not concrete: %w", err)
	}

	var suite Suite
	if err := value.Decode(&suite); err != nil {
		return nil, fmt.Errorf("failed to decode CUE suite: %w", err)
	}
	return &suite, nil
}

// Validate checks that required fields are present and valid.
func (s *Suite) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if len(s.Checks) == 0 {
		return fmt.Errorf("checks list is required and must be non-empty")
	}

	for i := range s.Checks {
		if err := validateCheck(i, &s.Checks[i]); err != nil {
			return err
		}
	}

	return nil
}

// validateCheck validates a single check based on its verb.
func validateCheck(index int, c *Check) error {
	if c.Name == "" {
		return fmt.Errorf("checks[%d]: name is required", index)
	}
	if c.Table == "" {
		return fmt.Errorf("checks[%d]: table is required", index)
	}

	switch c.Verb {
	case VerbExists, VerbMissing, VerbEmpty:
		if c.Count != nil {
			return fmt.Errorf("checks[%d]: count is only valid for verb %q", index, VerbCount)
		}
	case VerbCount:
		if c.Count == nil {
			return fmt.Errorf("checks[%d]: count is required for verb %q", index, VerbCount)
		}
		if c.Comparator != "" && dbassert.Comparator(c.Comparator).Normalize() != dbassert.Comparator(c.Comparator) {
			return fmt.Errorf("checks[%d]: unknown comparator %q", index, c.Comparator)
		}
	case "":
		return fmt.Errorf("checks[%d]: verb is required", index)
	default:
		return fmt.Errorf("checks[%d]: unknown verb %q", index, c.Verb)
	}

	for j, f := range c.Filters {
		if f.Field == "" {
			return fmt.Errorf("checks[%d].filters[%d]: field is required", index, j)
		}
		if !queryir.ValidOperator(f.Op) {
			return fmt.Errorf("checks[%d].filters[%d]: unsupported operator %q", index, j, f.Op)
		}
	}

	if c.Show != nil && *c.Show < 0 {
		return fmt.Errorf("checks[%d]: show must be non-negative", index)
	}

	return nil
}
