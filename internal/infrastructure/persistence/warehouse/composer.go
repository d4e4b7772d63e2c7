package warehouse

import (
	"fmt"
	"strings"

	"github.com/eportlabs/eport-data-api/internal/domain/shared"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// QUERY COMPOSER
// ══════════════════════════════════════════════════════════════════════════════

// Query is a composed warehouse statement with its positional parameters.
// Name labels the statement for logging and metrics.
type Query struct {
	Name   string
	Text   string
	Params []any
}

// Composer builds single-statement nested queries from registry descriptors.
// One composed statement fetches an entity's core row and every child
// relation aggregated as a JSONB array, so a hydrated read costs exactly
// one warehouse round trip.
//
// Composition is pure string assembly over resolved descriptors. It never
// contacts the warehouse; a relation whose table is flagged absent is
// composed as a literal empty array instead of a subquery.
type Composer struct {
	registry *Registry
}

// NewComposer creates a composer over the given registry.
func NewComposer(registry *Registry) *Composer {
	return &Composer{registry: registry}
}

// Compose builds the full hydration query for an entity: core columns plus
// one aggregated array per child relation, in catalog order. The only
// composition failure is an unknown entity type; the id is passed through
// as a parameter and never validated here.
func (c *Composer) Compose(entityType shared.EntityType, entityID string) (Query, error) {
	desc, ok := c.registry.Entity(entityType)
	if !ok {
		return Query{}, shared.WrapError("warehouse", "Compose", shared.ErrInvalidInput,
			fmt.Sprintf("unknown entity type %q", entityType), shared.ErrUnknownEntityType)
	}

	return Query{
		Name:   string(entityType) + ".hydrate",
		Text:   c.buildSelect(desc, true),
		Params: []any{entityID},
	}, nil
}

// ComposeCore builds the core-row query for an entity: projected columns
// only, no child relations.
func (c *Composer) ComposeCore(entityType shared.EntityType, entityID string) (Query, error) {
	desc, ok := c.registry.Entity(entityType)
	if !ok {
		return Query{}, shared.WrapError("warehouse", "ComposeCore", shared.ErrInvalidInput,
			fmt.Sprintf("unknown entity type %q", entityType), shared.ErrUnknownEntityType)
	}

	return Query{
		Name:   string(entityType) + ".core",
		Text:   c.buildSelect(desc, false),
		Params: []any{entityID},
	}, nil
}

// ComposeTemplate builds the template metadata query. Templates sit outside
// the composable entity set: a flat single-row read with no relations.
func (c *Composer) ComposeTemplate(templateID string) Query {
	desc := c.registry.Template()
	return Query{
		Name:   "template.core",
		Text:   c.buildSelect(desc, false),
		Params: []any{templateID},
	}
}

// buildSelect assembles the statement. The shape is uniform across
// entities: every relation contributes exactly one array column, present
// tables through an aggregating subquery and absent tables through a
// literal, so result rows always carry the same fields.
func (c *Composer) buildSelect(desc EntityDescriptor, withRelations bool) string {
	var b strings.Builder

	b.WriteString("SELECT\n")
	for i, col := range desc.Columns {
		if i > 0 {
			b.WriteString(",\n")
		}
		b.WriteString("\tp.")
		b.WriteString(quoteIdent(col))
	}

	if withRelations {
		for _, rel := range desc.Relations {
			b.WriteString(",\n\t")
			b.WriteString(c.relationExpr(rel, desc.KeyColumn))
			b.WriteString(" AS ")
			b.WriteString(quoteIdent(rel.Name))
		}
	}

	b.WriteString("\nFROM ")
	b.WriteString(c.qualified(desc.Table))
	b.WriteString(" p\nWHERE p.")
	b.WriteString(quoteIdent(desc.KeyColumn))
	b.WriteString(" = $1\nLIMIT 1")

	return b.String()
}

// relationExpr builds the array expression for one child relation.
func (c *Composer) relationExpr(rel RelationDescriptor, parentKey string) string {
	if c.registry.IsAbsent(rel.Table) {
		return "'[]'::jsonb"
	}

	var b strings.Builder
	b.WriteString("COALESCE((SELECT jsonb_agg(jsonb_build_object(")
	for i, col := range rel.Columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(quoteLiteral(col))
		b.WriteString(", c.")
		b.WriteString(quoteIdent(col))
	}
	b.WriteString(")")
	if rel.Ordered() {
		b.WriteString(" ORDER BY ")
		b.WriteString(qualifyOrderBy(rel.OrderBy, "c"))
	}
	b.WriteString(") FROM ")
	b.WriteString(c.qualified(rel.Table))
	b.WriteString(" c WHERE c.")
	b.WriteString(quoteIdent(rel.JoinKey))
	b.WriteString(" = p.")
	b.WriteString(quoteIdent(parentKey))
	b.WriteString("), '[]'::jsonb)")

	return b.String()
}

func (c *Composer) qualified(table string) string {
	return pgx.Identifier{c.registry.Schema(), table}.Sanitize()
}

// quoteIdent quotes a single identifier. Some child tables have reserved
// names ("references"), so every identifier is quoted.
func quoteIdent(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

// quoteLiteral quotes a string literal for use as a jsonb_build_object key.
func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// qualifyOrderBy prefixes each column in an ORDER BY clause with the child
// alias. Directions and NULLS modifiers pass through untouched.
func qualifyOrderBy(orderBy, alias string) string {
	terms := strings.Split(orderBy, ",")
	out := make([]string, 0, len(terms))
	for _, term := range terms {
		fields := strings.Fields(term)
		if len(fields) == 0 {
			continue
		}
		q := alias + "." + quoteIdent(fields[0])
		if len(fields) > 1 {
			q += " " + strings.Join(fields[1:], " ")
		}
		out = append(out, q)
	}
	return strings.Join(out, ", ")
}
