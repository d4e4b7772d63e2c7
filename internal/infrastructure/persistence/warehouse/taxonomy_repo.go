package warehouse

import (
	"context"

	"github.com/eportlabs/eport-data-api/internal/domain/shared"
	"github.com/eportlabs/eport-data-api/internal/domain/taxonomy"
)

// ══════════════════════════════════════════════════════════════════════════════
// ROLE REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// RoleRepository implements taxonomy.RoleRepository over the warehouse.
type RoleRepository struct {
	composer *Composer
	client   *Client
}

// NewRoleRepository creates a new RoleRepository.
func NewRoleRepository(composer *Composer, client *Client) *RoleRepository {
	return &RoleRepository{composer: composer, client: client}
}

var _ taxonomy.RoleRepository = (*RoleRepository)(nil)

// GetCore returns the scalar role row.
func (r *RoleRepository) GetCore(ctx context.Context, id shared.RoleID) (*taxonomy.Role, error) {
	if !id.IsValid() {
		return nil, shared.ErrInvalidRoleID
	}

	q, err := r.composer.ComposeCore(shared.EntityRole, id.String())
	if err != nil {
		return nil, err
	}

	rows, err := r.client.Execute(ctx, q)
	if err != nil {
		return nil, err
	}

	rec, ok := rows.One()
	if !ok {
		return nil, shared.ErrRoleNotFound
	}

	return HydrateRole(rec)
}

// GetHydrated returns the role with its required skills, rank ascending.
func (r *RoleRepository) GetHydrated(ctx context.Context, id shared.RoleID) (*taxonomy.RoleTaxonomy, error) {
	if !id.IsValid() {
		return nil, shared.ErrInvalidRoleID
	}

	q, err := r.composer.Compose(shared.EntityRole, id.String())
	if err != nil {
		return nil, err
	}

	rows, err := r.client.Execute(ctx, q)
	if err != nil {
		return nil, err
	}

	rec, ok := rows.One()
	if !ok {
		return nil, shared.ErrRoleNotFound
	}

	return HydrateRoleTaxonomy(rec)
}

// ══════════════════════════════════════════════════════════════════════════════
// JOB DESCRIPTION REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// JDRepository implements taxonomy.JDRepository over the warehouse.
type JDRepository struct {
	composer *Composer
	client   *Client
}

// NewJDRepository creates a new JDRepository.
func NewJDRepository(composer *Composer, client *Client) *JDRepository {
	return &JDRepository{composer: composer, client: client}
}

var _ taxonomy.JDRepository = (*JDRepository)(nil)

// GetCore returns the scalar job description row.
func (r *JDRepository) GetCore(ctx context.Context, id shared.JDID) (*taxonomy.JobDescription, error) {
	if !id.IsValid() {
		return nil, shared.ErrInvalidJDID
	}

	q, err := r.composer.ComposeCore(shared.EntityJobDescription, id.String())
	if err != nil {
		return nil, err
	}

	rows, err := r.client.Execute(ctx, q)
	if err != nil {
		return nil, err
	}

	rec, ok := rows.One()
	if !ok {
		return nil, shared.ErrJDNotFound
	}

	return HydrateJobDescription(rec)
}

// GetHydrated returns the job description with its skills and its
// responsibilities in posting order.
func (r *JDRepository) GetHydrated(ctx context.Context, id shared.JDID) (*taxonomy.JDTaxonomy, error) {
	if !id.IsValid() {
		return nil, shared.ErrInvalidJDID
	}

	q, err := r.composer.Compose(shared.EntityJobDescription, id.String())
	if err != nil {
		return nil, err
	}

	rows, err := r.client.Execute(ctx, q)
	if err != nil {
		return nil, err
	}

	rec, ok := rows.One()
	if !ok {
		return nil, shared.ErrJDNotFound
	}

	return HydrateJDTaxonomy(rec)
}
