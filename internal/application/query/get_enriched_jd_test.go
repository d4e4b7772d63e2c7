// Package query contains read operations (CQRS - Queries).
package query

import (
	"context"
	"testing"

	"github.com/eportlabs/eport-data-api/internal/domain/shared"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetEnrichedJDHandler_WithOverlay(t *testing.T) {
	jds := &stubJDRepo{tax: fixtureJD()}
	roles := &stubRoleRepo{tax: fixtureRole()}
	handler := NewGetEnrichedJDHandler(jds, roles, discardLogger())

	result, err := handler.Handle(context.Background(), GetEnrichedJDQuery{JDID: "jd-1", RoleID: "role-1"})
	require.NoError(t, err)

	assert.Equal(t, "Backend Engineer", result.JDTaxonomy.JobTitle)
	require.NotNil(t, result.RoleTaxonomy)
	assert.Equal(t, "Data Engineer", result.RoleTaxonomy.Title)
	assert.True(t, result.OverlayApplied)
	assert.Equal(t, shared.RoleID("role-1"), roles.gotID)
}

func TestGetEnrichedJDHandler_OverlayFailureDegrades(t *testing.T) {
	tests := []struct {
		name    string
		roleErr error
	}{
		{"role missing", shared.ErrRoleNotFound},
		{"warehouse outage", shared.ErrWarehouseUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			jds := &stubJDRepo{tax: fixtureJD()}
			roles := &stubRoleRepo{err: tt.roleErr}
			handler := NewGetEnrichedJDHandler(jds, roles, discardLogger())

			result, err := handler.Handle(context.Background(), GetEnrichedJDQuery{JDID: "jd-1", RoleID: "role-1"})
			require.NoError(t, err, "an overlay failure never fails the composition")

			assert.Equal(t, "Backend Engineer", result.JDTaxonomy.JobTitle)
			assert.Nil(t, result.RoleTaxonomy)
			assert.False(t, result.OverlayApplied)
		})
	}
}

func TestGetEnrichedJDHandler_NoRoleRequested(t *testing.T) {
	jds := &stubJDRepo{tax: fixtureJD()}
	roles := &stubRoleRepo{tax: fixtureRole()}
	handler := NewGetEnrichedJDHandler(jds, roles, discardLogger())

	result, err := handler.Handle(context.Background(), GetEnrichedJDQuery{JDID: "jd-1"})
	require.NoError(t, err)

	assert.Nil(t, result.RoleTaxonomy)
	assert.False(t, result.OverlayApplied)
	assert.Zero(t, roles.calls, "no overlay fetch without a role_id")
}

func TestGetEnrichedJDHandler_JDFailureFails(t *testing.T) {
	jds := &stubJDRepo{err: shared.ErrJDNotFound}
	roles := &stubRoleRepo{tax: fixtureRole()}
	handler := NewGetEnrichedJDHandler(jds, roles, discardLogger())

	result, err := handler.Handle(context.Background(), GetEnrichedJDQuery{JDID: "ghost", RoleID: "role-1"})
	require.Error(t, err)

	assert.Nil(t, result)
	assert.True(t, shared.IsNotFound(err))
	assert.Contains(t, err.Error(), "job description")
}

func TestGetEnrichedJDHandler_Validation(t *testing.T) {
	jds := &stubJDRepo{tax: fixtureJD()}
	handler := NewGetEnrichedJDHandler(jds, &stubRoleRepo{}, discardLogger())

	_, err := handler.Handle(context.Background(), GetEnrichedJDQuery{})
	require.Error(t, err)

	assert.True(t, shared.IsValidation(err))
	assert.Zero(t, jds.calls)
}
