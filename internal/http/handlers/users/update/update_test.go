package update

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Aline875/back/internal/http/middlewarectx"
	"github.com/Aline875/back/internal/models"
	"github.com/Aline875/back/internal/services/accounts"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) UpdateProfile(ctx context.Context, id int64, in accounts.UpdateProfileInput) (*models.User, error) {
	args := m.Called(ctx, id, in)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func newRequest(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPut, "/users/me", bytes.NewBufferString(body))
	return req.WithContext(context.WithValue(req.Context(), middlewarectx.UserID, int64(3)))
}

func TestUpdateHandler_PartialUpdate(t *testing.T) {
	serviceMock := new(ServiceMock)
	handler := New(newNoopLogger(), serviceMock)

	serviceMock.On("UpdateProfile", mock.Anything, int64(3), mock.MatchedBy(func(in accounts.UpdateProfileInput) bool {
		return in.Username != nil && *in.Username == "alice2" && in.Email == nil
	})).Return(&models.User{ID: 3, Username: "alice2", Email: "alice@example.com"}, nil).Once()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, newRequest(`{"username":"alice2"}`))

	assert.Equal(t, http.StatusOK, rec.Code)
	var got map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	data := got["data"].(map[string]any)
	assert.Equal(t, "alice2", data["username"])
	assert.Equal(t, "alice@example.com", data["email"])
	serviceMock.AssertExpectations(t)
}

func TestUpdateHandler_Errors(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		mockErr        error
		wantStatusCode int
		wantError      string
	}{
		{
			name:           "invalid json",
			body:           `{"username":`,
			wantStatusCode: http.StatusBadRequest,
			wantError:      "invalid request body",
		},
		{
			name:           "duplicate username",
			body:           `{"username":"bob"}`,
			mockErr:        accounts.ErrDuplicateUsername,
			wantStatusCode: http.StatusBadRequest,
			wantError:      "username already taken",
		},
		{
			name:           "validation",
			body:           `{"email":"nope"}`,
			mockErr:        &accounts.ValidationError{Field: "email", Reason: "must be a valid email address"},
			wantStatusCode: http.StatusBadRequest,
			wantError:      "field email must be a valid email address",
		},
		{
			name:           "not found",
			body:           `{"username":"ghost"}`,
			mockErr:        accounts.ErrNotFound,
			wantStatusCode: http.StatusNotFound,
			wantError:      "user not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			serviceMock := new(ServiceMock)
			if tt.mockErr != nil {
				serviceMock.On("UpdateProfile", mock.Anything, int64(3), mock.Anything).Return(nil, tt.mockErr).Once()
			}
			handler := New(newNoopLogger(), serviceMock)

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, newRequest(tt.body))

			assert.Equal(t, tt.wantStatusCode, rec.Code)
			var got map[string]any
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
			assert.Equal(t, "Error", got["status"])
			assert.Equal(t, tt.wantError, got["error"])
			serviceMock.AssertExpectations(t)
		})
	}
}

func TestUpdateHandler_Unauthenticated(t *testing.T) {
	handler := New(newNoopLogger(), new(ServiceMock))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/users/me", bytes.NewBufferString(`{}`)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
