package warehouse

import (
	"context"
	"testing"

	"github.com/eportlabs/eport-data-api/config"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Shared test doubles: an in-memory Querier and pgx.Rows so the composer,
// client and repositories can be exercised without a warehouse.

// ─────────────────────────────────────────────────────────────────────────────
// Catalog fixture
// ─────────────────────────────────────────────────────────────────────────────

func testCatalog() *config.Catalog {
	return &config.Catalog{
		Schema:   "eport_gold",
		Defaults: config.CatalogDefaults{LimitSingleRow: 1},
		Student: config.EntitySpec{
			Table:     "student",
			KeyColumn: "user_id",
			Columns: []string{
				"user_id", "first_name", "last_name", "email", "phone",
				"city", "country", "headline", "summary",
			},
			Relations: []config.RelationSpec{
				{
					Name: "education", Table: "education", JoinKey: "user_id",
					Columns: []string{"institution", "degree", "field_of_study", "start_year", "end_year", "gpa"},
					OrderBy: "start_year DESC, end_year DESC",
				},
				{
					Name: "experience", Table: "experience", JoinKey: "user_id",
					Columns: []string{"company", "title", "location", "start_year", "end_year", "description"},
					OrderBy: "start_year DESC, end_year DESC",
				},
				{
					Name: "skills", Table: "skills", JoinKey: "user_id",
					Columns: []string{"skill_name", "proficiency", "category"},
				},
				{
					Name: "awards", Table: "awards", JoinKey: "user_id",
					Columns: []string{"award_name", "issuer", "year", "description"},
				},
				{
					Name: "extracurriculars", Table: "extracurriculars", JoinKey: "user_id",
					Columns: []string{"activity_name", "organization", "role", "description"},
				},
				{
					Name: "publications", Table: "publications", JoinKey: "user_id",
					Columns: []string{"title", "venue", "year", "url"},
				},
				{
					Name: "training", Table: "training", JoinKey: "user_id",
					Columns: []string{"course_name", "provider", "year"},
				},
				{
					Name: "references", Table: "references", JoinKey: "user_id",
					Columns: []string{"referee_name", "referee_title", "company", "email", "relationship"},
				},
				{
					Name: "additional_info", Table: "additional_info", JoinKey: "user_id",
					Columns: []string{"info_type", "content"},
				},
			},
		},
		Role: config.EntitySpec{
			Table:     "role_taxonomy_roles",
			KeyColumn: "role_id",
			Columns:   []string{"role_id", "role_title", "role_description"},
			Relations: []config.RelationSpec{
				{
					Name: "role_required_skills", Table: "role_taxonomy_required_skills", JoinKey: "role_id",
					Columns: []string{"skill_id", "skill_name", "proficiency_level", "skill_rank"},
					OrderBy: "skill_rank ASC",
				},
			},
		},
		JobDescription: config.EntitySpec{
			Table:     "jd_taxonomy",
			KeyColumn: "jd_id",
			Columns:   []string{"jd_id", "job_title", "company_name", "company_industry", "job_description"},
			Relations: []config.RelationSpec{
				{
					Name: "job_required_skills", Table: "jd_taxonomy_required_skills", JoinKey: "jd_id",
					Columns: []string{"skill_name", "proficiency_level"},
				},
				{
					Name: "job_responsibilities", Table: "jd_taxonomy_responsibilities", JoinKey: "jd_id",
					Columns: []string{"responsibility_text", "responsibility_index"},
					OrderBy: "responsibility_index ASC",
				},
			},
		},
		Template: config.EntitySpec{
			Table:     "template_info",
			KeyColumn: "template_id",
			Columns: []string{
				"template_id", "name", "style", "font_family", "color_scheme",
				"max_chars_per_section", "max_pages",
			},
		},
	}
}

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	reg, err := NewRegistry(testCatalog())
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	return reg
}

func markAbsent(reg *Registry, tables ...string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if reg.absent == nil {
		reg.absent = make(map[string]bool)
	}
	for _, table := range tables {
		reg.absent[table] = true
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Fake rows
// ─────────────────────────────────────────────────────────────────────────────

type fakeRows struct {
	cols      []string
	rows      [][]any
	pos       int
	rowsErr   error // surfaced by Err after the rows are drained
	valuesErr error // surfaced by the first Values call
	closed    bool
}

func newFakeRows(cols []string, rows ...[]any) *fakeRows {
	return &fakeRows{cols: cols, rows: rows, pos: -1}
}

func (r *fakeRows) Close()     { r.closed = true }
func (r *fakeRows) Err() error { return r.rowsErr }

func (r *fakeRows) CommandTag() pgconn.CommandTag { return pgconn.CommandTag{} }

func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription {
	fields := make([]pgconn.FieldDescription, len(r.cols))
	for i, c := range r.cols {
		fields[i] = pgconn.FieldDescription{Name: c}
	}
	return fields
}

func (r *fakeRows) Next() bool {
	if r.pos+1 >= len(r.rows) {
		return false
	}
	r.pos++
	return true
}

func (r *fakeRows) Scan(dest ...any) error { return nil }

func (r *fakeRows) Values() ([]any, error) {
	if r.valuesErr != nil {
		return nil, r.valuesErr
	}
	if r.pos < 0 || r.pos >= len(r.rows) {
		return nil, pgx.ErrNoRows
	}
	return r.rows[r.pos], nil
}

func (r *fakeRows) RawValues() [][]byte { return nil }
func (r *fakeRows) Conn() *pgx.Conn     { return nil }

// ─────────────────────────────────────────────────────────────────────────────
// Fake querier
// ─────────────────────────────────────────────────────────────────────────────

// queryStep is one scripted response; the last step repeats once the
// script runs out.
type queryStep struct {
	rows func() pgx.Rows
	err  error
}

func rowsStep(cols []string, rows ...[]any) queryStep {
	return queryStep{rows: func() pgx.Rows { return newFakeRows(cols, rows...) }}
}

func errStep(err error) queryStep {
	return queryStep{err: err}
}

type fakeQuerier struct {
	steps    []queryStep
	calls    int
	lastSQL  string
	lastArgs []any
}

func (q *fakeQuerier) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	q.calls++
	q.lastSQL = sql
	q.lastArgs = args

	idx := q.calls - 1
	if idx >= len(q.steps) {
		idx = len(q.steps) - 1
	}
	step := q.steps[idx]
	if step.err != nil {
		return nil, step.err
	}
	return step.rows(), nil
}

func (q *fakeQuerier) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (q *fakeQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}
