package config

import (
	"fmt"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
)

// Catalog describes the analytical schema: which tables back each entity
// family, their key and projected columns, and per-relation ordering. It is
// the typed source the schema registry resolves child-relation descriptors
// from at process start.
type Catalog struct {
	// Schema holding the analytical tables. The file value can be
	// overridden with WAREHOUSE_SCHEMA.
	Schema string `yaml:"schema" env:"WAREHOUSE_SCHEMA" env-default:"eport_gold"`

	Defaults CatalogDefaults `yaml:"defaults"`

	Student        EntitySpec `yaml:"student"`
	Role           EntitySpec `yaml:"role"`
	JobDescription EntitySpec `yaml:"job_description"`
	Template       EntitySpec `yaml:"template"`
}

// CatalogDefaults holds catalog-wide settings.
type CatalogDefaults struct {
	// Core-row limit; nested aggregation queries always select at most
	// this many rows (one).
	LimitSingleRow int `yaml:"limit_single_row" env-default:"1"`
}

// EntitySpec describes one entity family's core table and child relations.
type EntitySpec struct {
	Table     string         `yaml:"table"`
	KeyColumn string         `yaml:"key_column"`
	Columns   []string       `yaml:"columns"`
	Relations []RelationSpec `yaml:"relations"`
}

// RelationSpec describes one child relation of an entity family.
type RelationSpec struct {
	// Name is the array field the relation contributes to the nested row.
	Name string `yaml:"name"`

	// Table backing the relation.
	Table string `yaml:"table"`

	// JoinKey is the child column matched against the parent key.
	JoinKey string `yaml:"join_key"`

	// Columns projected into each array element.
	Columns []string `yaml:"columns"`

	// OrderBy is the aggregation ordering clause; empty means unordered.
	OrderBy string `yaml:"order_by"`
}

// Ordered reports whether the relation declares an aggregation ordering.
func (r RelationSpec) Ordered() bool {
	return r.OrderBy != ""
}

// LoadCatalog reads and validates the catalog file at path.
func LoadCatalog(path string) (*Catalog, error) {
	var cat Catalog
	if err := cleanenv.ReadConfig(path, &cat); err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	if err := cat.Validate(); err != nil {
		return nil, fmt.Errorf("catalog validation: %w", err)
	}
	return &cat, nil
}

// Validate checks the catalog for structural completeness.
func (c *Catalog) Validate() error {
	var errs []string

	if c.Schema == "" {
		errs = append(errs, "schema must not be empty")
	}
	if c.Defaults.LimitSingleRow != 1 {
		errs = append(errs, "defaults.limit_single_row must be 1")
	}

	entities := map[string]EntitySpec{
		"student":         c.Student,
		"role":            c.Role,
		"job_description": c.JobDescription,
		"template":        c.Template,
	}
	for name, spec := range entities {
		if spec.Table == "" {
			errs = append(errs, fmt.Sprintf("%s.table must not be empty", name))
		}
		if spec.KeyColumn == "" {
			errs = append(errs, fmt.Sprintf("%s.key_column must not be empty", name))
		}
		if len(spec.Columns) == 0 {
			errs = append(errs, fmt.Sprintf("%s.columns must not be empty", name))
		}
		for _, rel := range spec.Relations {
			if rel.Name == "" || rel.Table == "" || rel.JoinKey == "" {
				errs = append(errs, fmt.Sprintf("%s relation %q: name, table and join_key are required", name, rel.Name))
			}
			if len(rel.Columns) == 0 {
				errs = append(errs, fmt.Sprintf("%s relation %q: columns must not be empty", name, rel.Name))
			}
		}
	}

	if len(c.Student.Relations) == 0 {
		errs = append(errs, "student must declare child relations")
	}

	if len(errs) > 0 {
		return fmt.Errorf("catalog errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
