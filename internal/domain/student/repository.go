package student

import (
	"context"

	"github.com/eportlabs/eport-data-api/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACE
// The implementation lives in infrastructure/persistence/warehouse.
// ══════════════════════════════════════════════════════════════════════════════

// Repository exposes the read operations for the student entity family.
//
// GetCore and GetHydrated must agree about existence: whenever GetCore
// reports shared.ErrNotFound for an id, GetHydrated reports it too, and
// vice versa.
type Repository interface {
	// GetCore returns the scalar student row without child collections.
	// It is the cheap existence probe. Returns shared.ErrNotFound when no
	// row matches.
	GetCore(ctx context.Context, id shared.UserID) (*StudentCore, error)

	// GetHydrated returns the full profile with all nine child collections
	// populated (empty, never nil, when a relation has no rows or is absent
	// from the schema). Returns shared.ErrNotFound when no core row matches.
	GetHydrated(ctx context.Context, id shared.UserID) (*StudentProfile, error)
}
