package response_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aline875/back/internal/http/response"
	"github.com/Aline875/back/internal/services/accounts"
)

func TestStatusFromError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{
			name:       "validation",
			err:        &accounts.ValidationError{Field: "email", Reason: "must be a valid email address"},
			wantStatus: http.StatusBadRequest,
			wantMsg:    "field email must be a valid email address",
		},
		{
			name:       "duplicate email",
			err:        fmt.Errorf("wrapped: %w", accounts.ErrDuplicateEmail),
			wantStatus: http.StatusBadRequest,
			wantMsg:    "email already registered",
		},
		{
			name:       "duplicate username",
			err:        accounts.ErrDuplicateUsername,
			wantStatus: http.StatusBadRequest,
			wantMsg:    "username already taken",
		},
		{
			name:       "same password",
			err:        accounts.ErrSamePassword,
			wantStatus: http.StatusBadRequest,
			wantMsg:    "new password must differ from current password",
		},
		{
			name:       "invalid credentials",
			err:        accounts.ErrInvalidCredentials,
			wantStatus: http.StatusUnauthorized,
			wantMsg:    "invalid email or password",
		},
		{
			name:       "invalid token",
			err:        accounts.ErrInvalidToken,
			wantStatus: http.StatusUnauthorized,
			wantMsg:    "invalid or expired token",
		},
		{
			name:       "not found",
			err:        accounts.ErrNotFound,
			wantStatus: http.StatusNotFound,
			wantMsg:    "user not found",
		},
		{
			name:       "store failure hides details",
			err:        fmt.Errorf("accounts.GetProfile: %w: %w", accounts.ErrStore, errors.New("pq: relation users does not exist")),
			wantStatus: http.StatusInternalServerError,
			wantMsg:    "internal error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, msg := response.StatusFromError(tt.err)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantMsg, msg)
		})
	}
}

func TestFromError(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	response.FromError(rec, req, accounts.ErrNotFound)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	var got map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, response.StatusError, got["status"])
	assert.Equal(t, "user not found", got["error"])
}

func TestStatusOKWithData(t *testing.T) {
	resp := response.StatusOKWithData(map[string]any{"id": 1})
	assert.Equal(t, response.StatusOK, resp.Status)
	assert.Empty(t, resp.Error)
	assert.Equal(t, map[string]any{"id": 1}, resp.Data)
}
