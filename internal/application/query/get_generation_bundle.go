// Package query contains read operations (CQRS - Queries).
package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/eportlabs/eport-data-api/internal/domain/shared"
	"github.com/eportlabs/eport-data-api/internal/domain/student"
	"github.com/eportlabs/eport-data-api/internal/domain/taxonomy"
	"github.com/eportlabs/eport-data-api/internal/domain/template"

	"golang.org/x/sync/errgroup"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET GENERATION BUNDLE QUERY
// Resolves the four inputs of one CV generation run in a single call:
// student profile, role taxonomy, JD taxonomy, and template metadata.
// ══════════════════════════════════════════════════════════════════════════════

// GetGenerationBundleQuery carries the four identifiers of a generation run.
type GetGenerationBundleQuery struct {
	// UserID - the student whose profile anchors the bundle.
	UserID string

	// RoleID - the target role taxonomy.
	RoleID string

	// JDID - the job description taxonomy.
	JDID string

	// TemplateID - the rendering template.
	TemplateID string
}

// Validate checks that every leg of the bundle is addressed.
func (q *GetGenerationBundleQuery) Validate() error {
	if q.UserID == "" {
		return errors.New("user_id is required")
	}
	if q.RoleID == "" {
		return errors.New("role_id is required")
	}
	if q.JDID == "" {
		return errors.New("jd_id is required")
	}
	if q.TemplateID == "" {
		return errors.New("template_id is required")
	}
	return nil
}

// GetGenerationBundleResult is the four-part payload the generation
// pipeline consumes. Key names are the downstream fetcher's contract.
type GetGenerationBundleResult struct {
	// UserID - echoed so the pipeline can correlate the bundle.
	UserID string `json:"user_id"`

	// StudentProfile - the hydrated profile with all nine collections.
	StudentProfile *student.StudentProfile `json:"student_profile"`

	// RoleTaxonomy - the target role with ranked required skills.
	RoleTaxonomy *taxonomy.RoleTaxonomy `json:"role_taxonomy"`

	// JDTaxonomy - the job description with skills and responsibilities.
	JDTaxonomy *taxonomy.JDTaxonomy `json:"jd_taxonomy"`

	// TemplateInfo - rendering limits and styling for the template.
	TemplateInfo *template.Metadata `json:"template_info"`

	// GeneratedAt - when the bundle was assembled.
	GeneratedAt time.Time `json:"generated_at"`
}

// GetGenerationBundleHandler fetches all four entity families concurrently.
type GetGenerationBundleHandler struct {
	students  student.Repository
	roles     taxonomy.RoleRepository
	jds       taxonomy.JDRepository
	templates template.Repository
}

// NewGetGenerationBundleHandler creates a new handler.
func NewGetGenerationBundleHandler(
	students student.Repository,
	roles taxonomy.RoleRepository,
	jds taxonomy.JDRepository,
	templates template.Repository,
) *GetGenerationBundleHandler {
	return &GetGenerationBundleHandler{
		students:  students,
		roles:     roles,
		jds:       jds,
		templates: templates,
	}
}

// Handle resolves the bundle. The four reads carry no data dependency, so
// they run concurrently and total latency tracks the slowest leg. All four
// are required: any failure, not-found included, fails the whole bundle
// and names the leg that failed. Cancellation abandons in-flight legs; a
// partial bundle is never returned.
func (h *GetGenerationBundleHandler) Handle(ctx context.Context, query GetGenerationBundleQuery) (*GetGenerationBundleResult, error) {
	if err := query.Validate(); err != nil {
		return nil, shared.WrapError("query", "GetGenerationBundle", shared.ErrValidation, err.Error(), err)
	}

	var (
		profile *student.StudentProfile
		role    *taxonomy.RoleTaxonomy
		jd      *taxonomy.JDTaxonomy
		tmpl    *template.Metadata
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		p, err := h.students.GetHydrated(gctx, shared.UserID(query.UserID))
		if err != nil {
			return fmt.Errorf("student %s: %w", query.UserID, err)
		}
		profile = p
		return nil
	})

	g.Go(func() error {
		r, err := h.roles.GetHydrated(gctx, shared.RoleID(query.RoleID))
		if err != nil {
			return fmt.Errorf("role %s: %w", query.RoleID, err)
		}
		role = r
		return nil
	})

	g.Go(func() error {
		j, err := h.jds.GetHydrated(gctx, shared.JDID(query.JDID))
		if err != nil {
			return fmt.Errorf("job description %s: %w", query.JDID, err)
		}
		jd = j
		return nil
	})

	g.Go(func() error {
		t, err := h.templates.GetHydrated(gctx, shared.TemplateID(query.TemplateID))
		if err != nil {
			return fmt.Errorf("template %s: %w", query.TemplateID, err)
		}
		tmpl = t
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &GetGenerationBundleResult{
		UserID:         query.UserID,
		StudentProfile: profile,
		RoleTaxonomy:   role,
		JDTaxonomy:     jd,
		TemplateInfo:   tmpl,
		GeneratedAt:    time.Now().UTC(),
	}, nil
}
