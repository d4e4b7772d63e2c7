package warehouse

import (
	"context"

	"github.com/eportlabs/eport-data-api/internal/domain/shared"
	"github.com/eportlabs/eport-data-api/internal/domain/template"
)

// ══════════════════════════════════════════════════════════════════════════════
// TEMPLATE REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// TemplateRepository implements template.Repository over the warehouse.
// Templates are flat rows, so both reads run the same statement; a missing
// template is always not-found, never an empty record.
type TemplateRepository struct {
	composer *Composer
	client   *Client
}

// NewTemplateRepository creates a new TemplateRepository.
func NewTemplateRepository(composer *Composer, client *Client) *TemplateRepository {
	return &TemplateRepository{composer: composer, client: client}
}

var _ template.Repository = (*TemplateRepository)(nil)

// GetCore returns the template metadata row.
func (r *TemplateRepository) GetCore(ctx context.Context, id shared.TemplateID) (*template.Metadata, error) {
	return r.get(ctx, id)
}

// GetHydrated returns the same flat record as GetCore.
func (r *TemplateRepository) GetHydrated(ctx context.Context, id shared.TemplateID) (*template.Metadata, error) {
	return r.get(ctx, id)
}

func (r *TemplateRepository) get(ctx context.Context, id shared.TemplateID) (*template.Metadata, error) {
	if !id.IsValid() {
		return nil, shared.ErrInvalidTemplateID
	}

	q := r.composer.ComposeTemplate(id.String())

	rows, err := r.client.Execute(ctx, q)
	if err != nil {
		return nil, err
	}

	rec, ok := rows.One()
	if !ok {
		return nil, shared.ErrTemplateNotFound
	}

	return HydrateTemplate(rec)
}
