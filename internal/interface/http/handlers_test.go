// Package http implements the REST surface of the e-portfolio data API.
package http

import (
	"net/http"
	"testing"

	"github.com/eportlabs/eport-data-api/internal/domain/shared"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ══════════════════════════════════════════════════════════════════════════════
// STUDENT ENDPOINTS
// ══════════════════════════════════════════════════════════════════════════════

func TestHandlers_GetStudentCore(t *testing.T) {
	srv, backend := newTestServer(t)

	rec := doRequest(srv, http.MethodGet, "/v1/students/user-1/core", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeEnvelope(t, rec)
	require.True(t, resp.Success)

	data := envelopeData(t, resp)
	assert.Equal(t, "user-1", data["user_id"])
	assert.Equal(t, "Aliya", data["first_name"])
	assert.NotContains(t, data, "education", "the core payload must not carry child collections")
	assert.Equal(t, shared.UserID("user-1"), backend.students.gotID)
}

func TestHandlers_GetStudentProfile(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(srv, http.MethodGet, "/v1/students/user-1/full-profile", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	data := envelopeData(t, decodeEnvelope(t, rec))
	assert.Equal(t, "user-1", data["user_id"])

	profile, ok := data["student_profile"].(map[string]interface{})
	require.True(t, ok, "full profile must nest the hydrated profile")
	assert.Equal(t, "user-1", profile["user_id"])

	education, ok := profile["education"].([]interface{})
	require.True(t, ok)
	assert.Len(t, education, 2)

	// Empty collections serialize as [], never null.
	awards, ok := profile["awards"].([]interface{})
	require.True(t, ok, "awards must be an empty array, not null")
	assert.Empty(t, awards)
}

func TestHandlers_StudentNotFound(t *testing.T) {
	srv, backend := newTestServer(t)
	backend.students.err = shared.ErrStudentNotFound

	rec := doRequest(srv, http.MethodGet, "/v1/students/nobody/full-profile", nil)

	require.Equal(t, http.StatusNotFound, rec.Code)
	resp := decodeEnvelope(t, rec)
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "not_found", resp.Error.Code)
	assert.Equal(t, "Student not found", resp.Error.Message)
}

func TestHandlers_InvalidStudentID(t *testing.T) {
	srv, _ := newTestServer(t)

	// Whitespace-only ids are rejected before any repository call.
	rec := doRequest(srv, http.MethodGet, "/v1/students/%20/core", nil)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeEnvelope(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "invalid_request", resp.Error.Code)
	assert.NotEmpty(t, resp.Error.Details)
}

// ══════════════════════════════════════════════════════════════════════════════
// TAXONOMY ENDPOINTS
// ══════════════════════════════════════════════════════════════════════════════

func TestHandlers_GetRoleCore(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(srv, http.MethodGet, "/v1/roles/role-1/core", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	data := envelopeData(t, decodeEnvelope(t, rec))
	assert.Equal(t, "role-1", data["role_id"])
	assert.Equal(t, "Data Engineer", data["role_title"])
}

func TestHandlers_GetRoleTaxonomy(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(srv, http.MethodGet, "/v1/roles/role-1/taxonomy", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	data := envelopeData(t, decodeEnvelope(t, rec))

	role, ok := data["role"].(map[string]interface{})
	require.True(t, ok, "taxonomy payload must nest the role")
	assert.Equal(t, "role-1", role["role_id"])

	skills, ok := data["required_skills"].([]interface{})
	require.True(t, ok)
	require.Len(t, skills, 2)
	first := skills[0].(map[string]interface{})
	assert.Equal(t, "SQL", first["skill_name"])
	assert.Equal(t, float64(1), first["rank"])
}

func TestHandlers_RoleNotFound(t *testing.T) {
	srv, backend := newTestServer(t)
	backend.roles.err = shared.ErrRoleNotFound

	rec := doRequest(srv, http.MethodGet, "/v1/roles/missing/taxonomy", nil)

	require.Equal(t, http.StatusNotFound, rec.Code)
	resp := decodeEnvelope(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "Role not found", resp.Error.Message)
}

func TestHandlers_GetJDTaxonomy(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(srv, http.MethodGet, "/v1/jds/jd-1/taxonomy", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	data := envelopeData(t, decodeEnvelope(t, rec))
	assert.Equal(t, "jd-1", data["jd_id"])
	assert.Equal(t, "Backend Engineer", data["job_title"])

	skills, ok := data["job_required_skills"].([]interface{})
	require.True(t, ok, "JD skills must be an empty array, not null")
	assert.Empty(t, skills)

	responsibilities, ok := data["job_responsibilities"].([]interface{})
	require.True(t, ok)
	assert.Len(t, responsibilities, 1)
}

func TestHandlers_GetJDCore(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(srv, http.MethodGet, "/v1/jds/jd-1/core", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	data := envelopeData(t, decodeEnvelope(t, rec))
	assert.Equal(t, "jd-1", data["jd_id"])
	assert.NotContains(t, data, "job_required_skills")
}

// ══════════════════════════════════════════════════════════════════════════════
// TEMPLATE ENDPOINT
// ══════════════════════════════════════════════════════════════════════════════

func TestHandlers_GetTemplate(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(srv, http.MethodGet, "/v1/templates/tpl-1", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	data := envelopeData(t, decodeEnvelope(t, rec))
	assert.Equal(t, "tpl-1", data["template_id"])
	assert.Equal(t, "Classic", data["name"])
}

func TestHandlers_TemplateNotFound(t *testing.T) {
	srv, backend := newTestServer(t)
	backend.templates.err = shared.ErrTemplateNotFound

	rec := doRequest(srv, http.MethodGet, "/v1/templates/ghost", nil)

	require.Equal(t, http.StatusNotFound, rec.Code)
	resp := decodeEnvelope(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "not_found", resp.Error.Code)
	assert.Equal(t, "Template not found", resp.Error.Message)
}

// ══════════════════════════════════════════════════════════════════════════════
// ERROR TAXONOMY MAPPING
// ══════════════════════════════════════════════════════════════════════════════

func TestHandlers_TransientMapsTo503(t *testing.T) {
	srv, backend := newTestServer(t)
	backend.students.err = shared.ErrWarehouseUnavailable

	rec := doRequest(srv, http.MethodGet, "/v1/students/user-1/core", nil)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	resp := decodeEnvelope(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "warehouse_unavailable", resp.Error.Code)
}

func TestHandlers_SchemaMismatchMapsTo500(t *testing.T) {
	srv, backend := newTestServer(t)
	backend.students.err = shared.ErrRelationShape

	rec := doRequest(srv, http.MethodGet, "/v1/students/user-1/full-profile", nil)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	resp := decodeEnvelope(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "schema_mismatch", resp.Error.Code)
}

func TestHandlers_QuerySyntaxMapsTo500(t *testing.T) {
	srv, backend := newTestServer(t)
	backend.jds.err = shared.WrapError("warehouse", "Execute", shared.ErrQuerySyntax, "bad relation column", nil)

	rec := doRequest(srv, http.MethodGet, "/v1/jds/jd-1/taxonomy", nil)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	resp := decodeEnvelope(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "query_error", resp.Error.Code)
}

// ══════════════════════════════════════════════════════════════════════════════
// COMPOSED READS
// ══════════════════════════════════════════════════════════════════════════════

func TestHandlers_GetGenerationBundle(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(srv, http.MethodGet,
		"/v1/bundles/generation?user_id=user-1&role_id=role-1&jd_id=jd-1&template_id=tpl-1", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	data := envelopeData(t, decodeEnvelope(t, rec))
	assert.Equal(t, "user-1", data["user_id"])

	for _, key := range []string{"student_profile", "role_taxonomy", "jd_taxonomy", "template_info"} {
		_, ok := data[key].(map[string]interface{})
		assert.True(t, ok, "bundle must carry %s", key)
	}
	assert.NotEmpty(t, data["generated_at"])
}

func TestHandlers_GetGenerationBundleMissingParam(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(srv, http.MethodGet,
		"/v1/bundles/generation?user_id=user-1&role_id=role-1&jd_id=jd-1", nil)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeEnvelope(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "invalid_request", resp.Error.Code)
	assert.Contains(t, resp.Error.Details, "template_id is required")
}

func TestHandlers_GetGenerationBundleLegNotFound(t *testing.T) {
	srv, backend := newTestServer(t)
	backend.roles.err = shared.ErrRoleNotFound

	rec := doRequest(srv, http.MethodGet,
		"/v1/bundles/generation?user_id=user-1&role_id=missing&jd_id=jd-1&template_id=tpl-1", nil)

	require.Equal(t, http.StatusNotFound, rec.Code)
	resp := decodeEnvelope(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "not_found", resp.Error.Code)
	assert.Equal(t, "Bundle entity not found", resp.Error.Message)
}

func TestHandlers_GetEnrichedJDWithOverlay(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(srv, http.MethodGet, "/v1/jds/jd-1/enriched?role_id=role-1", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	data := envelopeData(t, decodeEnvelope(t, rec))
	assert.Equal(t, true, data["overlay_applied"])

	overlay, ok := data["role_taxonomy"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "role-1", overlay["role_id"])
}

func TestHandlers_GetEnrichedJDDegradesOverlay(t *testing.T) {
	srv, backend := newTestServer(t)
	backend.roles.err = shared.ErrWarehouseUnavailable

	rec := doRequest(srv, http.MethodGet, "/v1/jds/jd-1/enriched?role_id=role-1", nil)

	require.Equal(t, http.StatusOK, rec.Code, "an overlay failure must not fail the JD read")
	data := envelopeData(t, decodeEnvelope(t, rec))
	assert.Equal(t, false, data["overlay_applied"])
	assert.NotContains(t, data, "role_taxonomy")

	jd, ok := data["jd_taxonomy"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "jd-1", jd["jd_id"])
}

func TestHandlers_GetEnrichedJDWithoutRole(t *testing.T) {
	srv, backend := newTestServer(t)

	rec := doRequest(srv, http.MethodGet, "/v1/jds/jd-1/enriched", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	data := envelopeData(t, decodeEnvelope(t, rec))
	assert.Equal(t, false, data["overlay_applied"])
	assert.Zero(t, backend.roles.gotID, "no role read without a role_id parameter")
}
