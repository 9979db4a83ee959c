package apierrors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"hotel-booking/auth-service/internal/service"

	"github.com/stretchr/testify/require"
)

func TestToHTTP_Mapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{name: "invalid_argument", err: ErrInvalidArgument, status: http.StatusBadRequest, code: "invalid_argument"},
		{name: "invalid_email", err: service.ErrInvalidEmail, status: http.StatusBadRequest, code: "invalid_argument"},
		{name: "weak_password", err: service.ErrWeakPassword, status: http.StatusBadRequest, code: "invalid_argument"},
		{name: "email_taken", err: service.ErrEmailTaken, status: http.StatusConflict, code: "already_exists"},
		{name: "invalid_credentials", err: service.ErrInvalidCredentials, status: http.StatusUnauthorized, code: "unauthenticated"},
		{name: "invalid_token", err: service.ErrInvalidToken, status: http.StatusUnauthorized, code: "unauthenticated"},
		{name: "token_expired", err: service.ErrTokenExpired, status: http.StatusUnauthorized, code: "unauthenticated"},
		{name: "session_invalid", err: service.ErrSessionInvalid, status: http.StatusUnauthorized, code: "unauthenticated"},
		{name: "canceled", err: context.Canceled, status: StatusClientClosedRequest, code: "canceled"},
		{name: "deadline", err: context.DeadlineExceeded, status: http.StatusGatewayTimeout, code: "deadline_exceeded"},
		{name: "role_not_configured_is_opaque", err: service.ErrRoleNotConfigured, status: http.StatusInternalServerError, code: "internal"},
		{name: "unknown", err: errors.New("boom"), status: http.StatusInternalServerError, code: "internal"},
		{name: "nil_is_programming_error", err: nil, status: http.StatusInternalServerError, code: "internal"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			status, resp := ToHTTP(tt.err)
			require.Equal(t, tt.status, status)
			require.Equal(t, tt.code, resp.Error.Code)
		})
	}
}

// Обёрнутые ошибки разворачиваются через errors.Is.
func TestToHTTP_WrappedError(t *testing.T) {
	t.Parallel()

	wrapped := fmt.Errorf("service.auth.Login: %w", service.ErrInvalidCredentials)
	status, resp := ToHTTP(wrapped)
	require.Equal(t, http.StatusUnauthorized, status)
	require.Equal(t, "unauthenticated", resp.Error.Code)
}

func TestWriteError_RequestID(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodPost, "/auth/v1/login", nil)
	req.Header.Set("X-Request-Id", "rid-7")
	rec := httptest.NewRecorder()

	WriteError(rec, req, service.ErrInvalidCredentials)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.Contains(t, rec.Body.String(), `"request_id":"rid-7"`)
	// Детали доменной ошибки не утекают, сообщение стандартизовано.
	require.Contains(t, rec.Body.String(), `"message":"invalid credentials"`)
}
