package warehouse

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/eportlabs/eport-data-api/config"
	"github.com/eportlabs/eport-data-api/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// SCHEMA REGISTRY
// ══════════════════════════════════════════════════════════════════════════════

// RelationDescriptor is a resolved child relation: which table backs it, how
// it joins to the parent and which columns each array element carries.
// Descriptors are immutable after resolution.
type RelationDescriptor struct {
	Name    string
	Table   string
	JoinKey string
	Columns []string
	OrderBy string
}

// Ordered reports whether the relation aggregates as an ordered array.
func (r RelationDescriptor) Ordered() bool {
	return r.OrderBy != ""
}

// EntityDescriptor is a resolved entity family: core table, key column,
// projected columns and child relations.
type EntityDescriptor struct {
	Type      shared.EntityType
	Table     string
	KeyColumn string
	Columns   []string
	Relations []RelationDescriptor
}

// Registry resolves the catalog into typed descriptors at construction and
// tracks which relation tables are known to be absent from the warehouse.
//
// Absence flags change only through Refresh; the query path reads them
// without ever probing the warehouse itself. A relation flagged absent is
// composed as a literal empty array so hydrated objects keep a uniform
// shape regardless of which optional tables a deployment carries.
type Registry struct {
	mu        sync.RWMutex
	schema    string
	limit     int
	entities  map[shared.EntityType]EntityDescriptor
	template  EntityDescriptor
	absent    map[string]bool
	refreshed time.Time
}

// NewRegistry resolves descriptors from a validated catalog.
func NewRegistry(cat *config.Catalog) (*Registry, error) {
	if cat == nil {
		return nil, fmt.Errorf("warehouse: catalog is nil")
	}
	if err := cat.Validate(); err != nil {
		return nil, fmt.Errorf("warehouse: %w", err)
	}

	r := &Registry{
		schema:   cat.Schema,
		limit:    cat.Defaults.LimitSingleRow,
		entities: make(map[shared.EntityType]EntityDescriptor, 3),
		absent:   make(map[string]bool),
	}

	r.entities[shared.EntityStudent] = resolveEntity(shared.EntityStudent, cat.Student)
	r.entities[shared.EntityRole] = resolveEntity(shared.EntityRole, cat.Role)
	r.entities[shared.EntityJobDescription] = resolveEntity(shared.EntityJobDescription, cat.JobDescription)
	r.template = resolveEntity("", cat.Template)

	return r, nil
}

func resolveEntity(t shared.EntityType, spec config.EntitySpec) EntityDescriptor {
	desc := EntityDescriptor{
		Type:      t,
		Table:     spec.Table,
		KeyColumn: spec.KeyColumn,
		Columns:   append([]string(nil), spec.Columns...),
	}
	for _, rel := range spec.Relations {
		desc.Relations = append(desc.Relations, RelationDescriptor{
			Name:    rel.Name,
			Table:   rel.Table,
			JoinKey: rel.JoinKey,
			Columns: append([]string(nil), rel.Columns...),
			OrderBy: rel.OrderBy,
		})
	}
	return desc
}

// Schema returns the analytical schema name.
func (r *Registry) Schema() string {
	return r.schema
}

// Entity returns the descriptor for one of the hydratable entity families.
func (r *Registry) Entity(t shared.EntityType) (EntityDescriptor, bool) {
	desc, ok := r.entities[t]
	return desc, ok
}

// Template returns the descriptor for the template metadata table. Templates
// have no child relations and are not part of the composable entity set.
func (r *Registry) Template() EntityDescriptor {
	return r.template
}

// IsAbsent reports whether a relation table was missing from the warehouse
// at the last schema check.
func (r *Registry) IsAbsent(table string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.absent[table]
}

// LastRefreshed returns when the absence flags were last recomputed, zero
// if Refresh has never run.
func (r *Registry) LastRefreshed() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.refreshed
}

// RelationTables returns the distinct relation table names the catalog
// declares, sorted.
func (r *Registry) RelationTables() []string {
	seen := make(map[string]struct{})
	for _, desc := range r.entities {
		for _, rel := range desc.Relations {
			seen[rel.Table] = struct{}{}
		}
	}
	tables := make([]string, 0, len(seen))
	for t := range seen {
		tables = append(tables, t)
	}
	sort.Strings(tables)
	return tables
}

// Refresh recomputes the known-absent flags by listing the schema's tables
// from information_schema. It is the only operation that changes the flags;
// call it once during boot and afterwards from the schema refresh job or
// the admin endpoint.
func (r *Registry) Refresh(ctx context.Context, q Querier) error {
	const query = `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = $1
	`

	rows, err := q.Query(ctx, query, r.schema)
	if err != nil {
		return Classify("Refresh", err)
	}
	defer rows.Close()

	present := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return Classify("Refresh", err)
		}
		present[name] = true
	}
	if err := rows.Err(); err != nil {
		return Classify("Refresh", err)
	}

	absent := make(map[string]bool)
	for _, table := range r.RelationTables() {
		if !present[table] {
			absent[table] = true
		}
	}

	r.mu.Lock()
	r.absent = absent
	r.refreshed = time.Now().UTC()
	r.mu.Unlock()

	return nil
}

// Snapshot describes the registry state for health and admin responses.
type Snapshot struct {
	Schema         string    `json:"schema"`
	LastRefreshed  time.Time `json:"last_refreshed"`
	RelationTables int       `json:"relation_tables"`
	AbsentTables   []string  `json:"absent_tables"`
}

// Snapshot returns the current registry state.
func (r *Registry) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	absent := make([]string, 0, len(r.absent))
	for t := range r.absent {
		absent = append(absent, t)
	}
	sort.Strings(absent)

	return Snapshot{
		Schema:         r.schema,
		LastRefreshed:  r.refreshed,
		RelationTables: len(r.RelationTables()),
		AbsentTables:   absent,
	}
}
