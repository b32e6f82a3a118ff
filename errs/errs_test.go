package errs

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFailureStatusesAreDistinct(t *testing.T) {
	tests := []struct {
		name   string
		err    Failure
		status int
		code   string
	}{
		{"validation", &ValidationFailure{Violations: []Violation{{Field: "descripcion", Code: Missing}}}, http.StatusBadRequest, CodeValidationFailed},
		{"unauthorized", NewUnauthorized("not a provider"), http.StatusForbidden, CodeUnauthorized},
		{"illegal mutation", NewIllegalMutation("usuarioPrestador"), http.StatusUnprocessableEntity, CodeIllegalMutation},
		{"not found", NewNotFound("service", 7), http.StatusNotFound, CodeNotFound},
		{"conflict", NewConflict("service", ""), http.StatusConflict, CodeConflict},
		{"credentials", NewInvalidCredentials(), http.StatusUnauthorized, CodeInvalidCredentials},
		{"internal", &SystemFailure{Cause: errors.New("boom")}, http.StatusInternalServerError, CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, tt.err.HTTPStatus())
			assert.Equal(t, tt.code, tt.err.Code())
		})
	}
}

func TestNewValidationFailure_EmptyIsNil(t *testing.T) {
	assert.NoError(t, NewValidationFailure(nil))

	err := NewValidationFailure([]Violation{{Field: "cantidadTrabajadores", Code: BelowMinimum}})
	var vf *ValidationFailure
	require.True(t, errors.As(err, &vf))
	assert.Equal(t, "validation failed: cantidadTrabajadores:BELOW_MINIMUM", err.Error())
}

func TestInternal_HidesCause(t *testing.T) {
	cause := errors.New("pq: connection refused")
	err := Internal("load service", fmt.Errorf("query: %w", cause))

	assert.NotContains(t, err.Error(), "connection refused")
	assert.ErrorIs(t, err, cause)

	notFound := NewNotFound("service", 1)
	assert.Same(t, notFound, Internal("load service", notFound))
	assert.NoError(t, Internal("noop", nil))
}
