package taxonomy

import (
	"context"

	"github.com/eportlabs/eport-data-api/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Implementations live in infrastructure/persistence/warehouse.
// ══════════════════════════════════════════════════════════════════════════════

// RoleRepository exposes the read operations for the role entity family.
// GetCore and GetHydrated never disagree about existence.
type RoleRepository interface {
	// GetCore returns the scalar role row. Returns shared.ErrNotFound when
	// no row matches.
	GetCore(ctx context.Context, id shared.RoleID) (*Role, error)

	// GetHydrated returns the role with its required skills sorted by rank.
	// Returns shared.ErrNotFound when no core row matches.
	GetHydrated(ctx context.Context, id shared.RoleID) (*RoleTaxonomy, error)
}

// JDRepository exposes the read operations for the job-description entity
// family. GetCore and GetHydrated never disagree about existence.
type JDRepository interface {
	// GetCore returns the scalar JD row. Returns shared.ErrNotFound when
	// no row matches.
	GetCore(ctx context.Context, id shared.JDID) (*JobDescription, error)

	// GetHydrated returns the JD with required skills and responsibilities
	// (responsibilities sorted by sequence). Returns shared.ErrNotFound
	// when no core row matches.
	GetHydrated(ctx context.Context, id shared.JDID) (*JDTaxonomy, error)
}
