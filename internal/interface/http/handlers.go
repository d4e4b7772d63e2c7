// Package http implements the REST surface of the e-portfolio data API.
package http

import (
	"net/http"

	"github.com/eportlabs/eport-data-api/internal/application/query"
	"github.com/eportlabs/eport-data-api/internal/domain/shared"
	"github.com/eportlabs/eport-data-api/internal/domain/student"
	"github.com/eportlabs/eport-data-api/internal/domain/taxonomy"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleRoot serves the root endpoint with basic API information.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	info := map[string]interface{}{
		"name":        "e-Portfolio Data API",
		"version":     "v1",
		"description": "Read-only aggregation API over the analytical warehouse",
		"endpoints": map[string]string{
			"health":          "/health",
			"student_core":    "/v1/students/{id}/core",
			"student_profile": "/v1/students/{id}/full-profile",
			"role_taxonomy":   "/v1/roles/{id}/taxonomy",
			"jd_taxonomy":     "/v1/jds/{id}/taxonomy",
			"template":        "/v1/templates/{id}",
			"bundle":          "/v1/bundles/generation",
		},
	}

	writeJSON(w, r, http.StatusOK, info)
}

// handleHealth handles the health check endpoint.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		if !status.Healthy {
			writeJSON(w, r, http.StatusServiceUnavailable, status)
			return
		}
		writeJSON(w, r, http.StatusOK, status)
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]interface{}{
		"healthy": true,
		"ready":   true,
		"uptime":  s.Uptime().String(),
		"version": "v1",
	})
}

// handleReady handles the readiness probe endpoint (for Kubernetes).
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		if !status.Ready {
			writeJSON(w, r, http.StatusServiceUnavailable, map[string]string{
				"status": "not_ready",
				"reason": status.Message,
			})
			return
		}
	}

	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ready"})
}

// handleLive handles the liveness probe endpoint (for Kubernetes).
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "alive"})
}

// ══════════════════════════════════════════════════════════════════════════════
// STUDENT HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// studentProfileResponse mirrors the shape downstream generation pipelines
// consume: the id beside the hydrated profile.
type studentProfileResponse struct {
	UserID         shared.UserID           `json:"user_id"`
	StudentProfile *student.StudentProfile `json:"student_profile"`
}

// handleGetStudentCore handles GET /v1/students/{id}/core
func (s *Server) handleGetStudentCore(w http.ResponseWriter, r *http.Request) {
	if s.deps.Students == nil {
		writeJSONError(w, r, http.StatusNotImplemented, "not_implemented", "Student repository not configured")
		return
	}

	id, err := shared.NewUserID(r.PathValue("id"))
	if err != nil {
		s.respondError(w, r, err, "")
		return
	}

	core, err := s.deps.Students.GetCore(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err, "Student not found")
		return
	}

	writeJSON(w, r, http.StatusOK, core)
}

// handleGetStudentProfile handles GET /v1/students/{id}/full-profile
func (s *Server) handleGetStudentProfile(w http.ResponseWriter, r *http.Request) {
	if s.deps.Students == nil {
		writeJSONError(w, r, http.StatusNotImplemented, "not_implemented", "Student repository not configured")
		return
	}

	id, err := shared.NewUserID(r.PathValue("id"))
	if err != nil {
		s.respondError(w, r, err, "")
		return
	}

	profile, err := s.deps.Students.GetHydrated(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err, "Student not found")
		return
	}

	writeJSON(w, r, http.StatusOK, studentProfileResponse{
		UserID:         id,
		StudentProfile: profile,
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// ROLE HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// roleTaxonomyResponse mirrors the original role taxonomy payload: the
// scalar role beside its ordered required skills.
type roleTaxonomyResponse struct {
	Role           taxonomy.Role            `json:"role"`
	RequiredSkills []taxonomy.RequiredSkill `json:"required_skills"`
}

// handleGetRoleCore handles GET /v1/roles/{id}/core
func (s *Server) handleGetRoleCore(w http.ResponseWriter, r *http.Request) {
	if s.deps.Roles == nil {
		writeJSONError(w, r, http.StatusNotImplemented, "not_implemented", "Role repository not configured")
		return
	}

	id, err := shared.NewRoleID(r.PathValue("id"))
	if err != nil {
		s.respondError(w, r, err, "")
		return
	}

	core, err := s.deps.Roles.GetCore(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err, "Role not found")
		return
	}

	writeJSON(w, r, http.StatusOK, core)
}

// handleGetRoleTaxonomy handles GET /v1/roles/{id}/taxonomy
func (s *Server) handleGetRoleTaxonomy(w http.ResponseWriter, r *http.Request) {
	if s.deps.Roles == nil {
		writeJSONError(w, r, http.StatusNotImplemented, "not_implemented", "Role repository not configured")
		return
	}

	id, err := shared.NewRoleID(r.PathValue("id"))
	if err != nil {
		s.respondError(w, r, err, "")
		return
	}

	tax, err := s.deps.Roles.GetHydrated(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err, "Role not found")
		return
	}

	writeJSON(w, r, http.StatusOK, roleTaxonomyResponse{
		Role:           tax.Role,
		RequiredSkills: tax.RequiredSkills,
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// JOB DESCRIPTION HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleGetJDCore handles GET /v1/jds/{id}/core
func (s *Server) handleGetJDCore(w http.ResponseWriter, r *http.Request) {
	if s.deps.JDs == nil {
		writeJSONError(w, r, http.StatusNotImplemented, "not_implemented", "Job description repository not configured")
		return
	}

	id, err := shared.NewJDID(r.PathValue("id"))
	if err != nil {
		s.respondError(w, r, err, "")
		return
	}

	core, err := s.deps.JDs.GetCore(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err, "Job description not found")
		return
	}

	writeJSON(w, r, http.StatusOK, core)
}

// handleGetJDTaxonomy handles GET /v1/jds/{id}/taxonomy
func (s *Server) handleGetJDTaxonomy(w http.ResponseWriter, r *http.Request) {
	if s.deps.JDs == nil {
		writeJSONError(w, r, http.StatusNotImplemented, "not_implemented", "Job description repository not configured")
		return
	}

	id, err := shared.NewJDID(r.PathValue("id"))
	if err != nil {
		s.respondError(w, r, err, "")
		return
	}

	tax, err := s.deps.JDs.GetHydrated(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err, "Job description not found")
		return
	}

	writeJSON(w, r, http.StatusOK, tax)
}

// handleGetEnrichedJD handles GET /v1/jds/{id}/enriched?role_id=...
func (s *Server) handleGetEnrichedJD(w http.ResponseWriter, r *http.Request) {
	if s.deps.EnrichedJDHandler == nil {
		writeJSONError(w, r, http.StatusNotImplemented, "not_implemented", "Enriched JD handler not configured")
		return
	}

	id, err := shared.NewJDID(r.PathValue("id"))
	if err != nil {
		s.respondError(w, r, err, "")
		return
	}

	q := query.GetEnrichedJDQuery{
		JDID:   id.String(),
		RoleID: r.URL.Query().Get("role_id"),
	}

	result, err := s.deps.EnrichedJDHandler.Handle(r.Context(), q)
	if err != nil {
		s.respondError(w, r, err, "Job description not found")
		return
	}

	writeJSON(w, r, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// TEMPLATE HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// handleGetTemplate handles GET /v1/templates/{id}
func (s *Server) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	if s.deps.Templates == nil {
		writeJSONError(w, r, http.StatusNotImplemented, "not_implemented", "Template repository not configured")
		return
	}

	id, err := shared.NewTemplateID(r.PathValue("id"))
	if err != nil {
		s.respondError(w, r, err, "")
		return
	}

	meta, err := s.deps.Templates.GetHydrated(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err, "Template not found")
		return
	}

	writeJSON(w, r, http.StatusOK, meta)
}

// ══════════════════════════════════════════════════════════════════════════════
// BUNDLE HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// handleGetGenerationBundle handles GET /v1/bundles/generation
func (s *Server) handleGetGenerationBundle(w http.ResponseWriter, r *http.Request) {
	if s.deps.BundleHandler == nil {
		writeJSONError(w, r, http.StatusNotImplemented, "not_implemented", "Bundle handler not configured")
		return
	}

	params := r.URL.Query()
	q := query.GetGenerationBundleQuery{
		UserID:     params.Get("user_id"),
		RoleID:     params.Get("role_id"),
		JDID:       params.Get("jd_id"),
		TemplateID: params.Get("template_id"),
	}

	result, err := s.deps.BundleHandler.Handle(r.Context(), q)
	if err != nil {
		s.respondError(w, r, err, "Bundle entity not found")
		return
	}

	writeJSON(w, r, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// ADMIN HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleAdminSchemaRefresh handles POST /v1/admin/schema/refresh
func (s *Server) handleAdminSchemaRefresh(w http.ResponseWriter, r *http.Request) {
	if s.deps.RefreshRunner == nil {
		writeJSONError(w, r, http.StatusNotImplemented, "not_implemented", "Schema refresh not configured")
		return
	}

	result, err := s.deps.RefreshRunner.RunNow(r.Context(), refreshJobName)
	if err != nil {
		s.respondError(w, r, err, "")
		return
	}

	data := map[string]interface{}{
		"job":          result.JobName,
		"success":      result.Success,
		"duration_ms":  result.Duration.Milliseconds(),
		"completed_at": result.CompletedAt,
	}
	if s.deps.Registry != nil {
		data["registry"] = s.deps.Registry.Snapshot()
	}

	writeJSON(w, r, http.StatusOK, data)
}
