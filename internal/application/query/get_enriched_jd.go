// Package query contains read operations (CQRS - Queries).
package query

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/eportlabs/eport-data-api/internal/domain/shared"
	"github.com/eportlabs/eport-data-api/internal/domain/taxonomy"

	"golang.org/x/sync/errgroup"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET ENRICHED JD QUERY
// Returns a JD taxonomy with an optional role-taxonomy overlay: the JD is
// required, the overlay is best-effort and degrades to absent on failure.
// ══════════════════════════════════════════════════════════════════════════════

// GetEnrichedJDQuery carries the JD identifier and the optional role to
// overlay.
type GetEnrichedJDQuery struct {
	// JDID - the job description to enrich.
	JDID string

	// RoleID - optional role whose taxonomy is overlaid when resolvable.
	RoleID string
}

// Validate checks the required identifier.
func (q *GetEnrichedJDQuery) Validate() error {
	if q.JDID == "" {
		return errors.New("jd_id is required")
	}
	return nil
}

// GetEnrichedJDResult is the JD taxonomy plus the overlay, when applied.
type GetEnrichedJDResult struct {
	// JDTaxonomy - the hydrated job description.
	JDTaxonomy *taxonomy.JDTaxonomy `json:"jd_taxonomy"`

	// RoleTaxonomy - the overlay; nil when no role was requested or the
	// overlay could not be resolved.
	RoleTaxonomy *taxonomy.RoleTaxonomy `json:"role_taxonomy,omitempty"`

	// OverlayApplied - whether the role overlay made it into the result.
	OverlayApplied bool `json:"overlay_applied"`

	// GeneratedAt - when the result was assembled.
	GeneratedAt time.Time `json:"generated_at"`
}

// GetEnrichedJDHandler composes the JD read with the best-effort overlay.
type GetEnrichedJDHandler struct {
	jds    taxonomy.JDRepository
	roles  taxonomy.RoleRepository
	logger *slog.Logger
}

// NewGetEnrichedJDHandler creates a new handler.
func NewGetEnrichedJDHandler(jds taxonomy.JDRepository, roles taxonomy.RoleRepository, logger *slog.Logger) *GetEnrichedJDHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &GetEnrichedJDHandler{jds: jds, roles: roles, logger: logger}
}

// Handle fetches the JD and, when a role is requested, its taxonomy
// concurrently. An overlay failure degrades the overlay to absent rather
// than failing the composition; a JD failure fails it outright.
func (h *GetEnrichedJDHandler) Handle(ctx context.Context, query GetEnrichedJDQuery) (*GetEnrichedJDResult, error) {
	if err := query.Validate(); err != nil {
		return nil, shared.WrapError("query", "GetEnrichedJD", shared.ErrValidation, err.Error(), err)
	}

	var (
		jd   *taxonomy.JDTaxonomy
		role *taxonomy.RoleTaxonomy
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		j, err := h.jds.GetHydrated(gctx, shared.JDID(query.JDID))
		if err != nil {
			return fmt.Errorf("job description %s: %w", query.JDID, err)
		}
		jd = j
		return nil
	})

	if query.RoleID != "" {
		g.Go(func() error {
			r, err := h.roles.GetHydrated(gctx, shared.RoleID(query.RoleID))
			if err != nil {
				h.logger.Warn("role overlay unavailable, serving JD without it",
					slog.String("jd_id", query.JDID),
					slog.String("role_id", query.RoleID),
					slog.String("error", err.Error()),
				)
				return nil
			}
			role = r
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &GetEnrichedJDResult{
		JDTaxonomy:     jd,
		RoleTaxonomy:   role,
		OverlayApplied: role != nil,
		GeneratedAt:    time.Now().UTC(),
	}, nil
}
