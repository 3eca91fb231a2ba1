package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidation_EmptyIsNil(t *testing.T) {
	assert.NoError(t, Validation(nil))
	assert.NoError(t, Validation(map[string]string{}))
}

func TestFieldError_WrapsKind(t *testing.T) {
	err := fmt.Errorf("register: %w", Conflict(map[string]string{"username": "taken", "email": "taken"}))

	assert.ErrorIs(t, err, ErrConflict)
	assert.NotErrorIs(t, err, ErrValidation)
	assert.Equal(t, "taken", Fields(err)["username"])
	assert.Contains(t, err.Error(), "email, username")
}

func TestResponse(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{Validation(map[string]string{"name": "required"}), http.StatusBadRequest, "validation"},
		{Conflict(map[string]string{"name": "taken"}), http.StatusConflict, "conflict"},
		{ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials"},
		{ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
		{ErrForbidden, http.StatusForbidden, "forbidden"},
		{fmt.Errorf("load sub: %w", ErrNotFound), http.StatusNotFound, "not_found"},
		{ErrInvalidFile, http.StatusBadRequest, "invalid_file"},
		{ErrInvalidType, http.StatusBadRequest, "invalid_type"},
		{errors.New("pq: connection reset"), http.StatusInternalServerError, "internal"},
	}
	for _, tc := range tests {
		t.Run(tc.code, func(t *testing.T) {
			status, body := Response(tc.err)
			assert.Equal(t, tc.status, status)
			assert.Equal(t, tc.code, body.Code)
		})
	}
}

func TestResponse_InternalHidesDetail(t *testing.T) {
	_, body := Response(errors.New("dial tcp 10.0.0.5:5432: refused"))
	require.Equal(t, "internal", body.Code)
	assert.NotContains(t, body.Message, "10.0.0.5")
	assert.Nil(t, body.Fields)
}
