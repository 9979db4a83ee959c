package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"hotel-booking/auth-service/internal/models"
	"hotel-booking/auth-service/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// stubAuth — ручная заглушка бизнес-логики для тестов хендлеров.
type stubAuth struct {
	register func(ctx context.Context, p service.RegisterParams) (*models.TokenPair, uuid.UUID, error)
	login    func(ctx context.Context, email, password string) (*models.TokenPair, uuid.UUID, error)
	refresh  func(ctx context.Context, refreshToken string) (*models.TokenPair, uuid.UUID, error)
	logout   func(ctx context.Context, target service.LogoutTarget) error
	validate func(ctx context.Context, accessToken string) (string, string, error)
}

func (s *stubAuth) Register(ctx context.Context, p service.RegisterParams) (*models.TokenPair, uuid.UUID, error) {
	return s.register(ctx, p)
}

func (s *stubAuth) Login(ctx context.Context, email, password string) (*models.TokenPair, uuid.UUID, error) {
	return s.login(ctx, email, password)
}

func (s *stubAuth) Refresh(ctx context.Context, refreshToken string) (*models.TokenPair, uuid.UUID, error) {
	return s.refresh(ctx, refreshToken)
}

func (s *stubAuth) Logout(ctx context.Context, target service.LogoutTarget) error {
	return s.logout(ctx, target)
}

func (s *stubAuth) ValidateAccess(ctx context.Context, accessToken string) (string, string, error) {
	return s.validate(ctx, accessToken)
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(method, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func errCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()

	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error.Code
}

func samplePair() (*models.TokenPair, uuid.UUID) {
	return &models.TokenPair{
		AccessToken:  "access",
		RefreshToken: "refresh",
		Role:         "CUSTOMER",
	}, uuid.New()
}

func TestRegister_HTTP_OK(t *testing.T) {
	t.Parallel()

	pair, uid := samplePair()
	h := New(&stubAuth{
		register: func(_ context.Context, p service.RegisterParams) (*models.TokenPair, uuid.UUID, error) {
			require.Equal(t, "user@example.com", p.Email)
			return pair, uid, nil
		},
	})

	rec := doJSON(t, http.HandlerFunc(h.Register), http.MethodPost, "/auth/v1/register", map[string]string{
		"email":    "user@example.com",
		"password": "Abcdef1!",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp authResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, uid.String(), resp.UserID)
	require.Equal(t, "access", resp.AccessToken)
	require.Equal(t, "refresh", resp.RefreshToken)
	require.Equal(t, "CUSTOMER", resp.Role)
}

func TestRegister_HTTP_EmailTaken(t *testing.T) {
	t.Parallel()

	h := New(&stubAuth{
		register: func(context.Context, service.RegisterParams) (*models.TokenPair, uuid.UUID, error) {
			return nil, uuid.Nil, service.ErrEmailTaken
		},
	})

	rec := doJSON(t, http.HandlerFunc(h.Register), http.MethodPost, "/auth/v1/register", map[string]string{
		"email":    "user@example.com",
		"password": "Abcdef1!",
	})
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, "already_exists", errCode(t, rec))
}

// Неизвестные поля отклоняются строгим декодером.
func TestRegister_HTTP_UnknownField(t *testing.T) {
	t.Parallel()

	h := New(&stubAuth{})

	rec := doJSON(t, http.HandlerFunc(h.Register), http.MethodPost, "/auth/v1/register", map[string]string{
		"email":    "user@example.com",
		"password": "Abcdef1!",
		"surprise": "field",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "invalid_argument", errCode(t, rec))
}

func TestLogin_HTTP_InvalidCredentials(t *testing.T) {
	t.Parallel()

	h := New(&stubAuth{
		login: func(context.Context, string, string) (*models.TokenPair, uuid.UUID, error) {
			return nil, uuid.Nil, service.ErrInvalidCredentials
		},
	})

	rec := doJSON(t, http.HandlerFunc(h.Login), http.MethodPost, "/auth/v1/login", map[string]string{
		"email":    "user@example.com",
		"password": "wrong",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "unauthenticated", errCode(t, rec))
}

func TestRefresh_HTTP_OK(t *testing.T) {
	t.Parallel()

	pair, uid := samplePair()
	h := New(&stubAuth{
		refresh: func(_ context.Context, rt string) (*models.TokenPair, uuid.UUID, error) {
			require.Equal(t, "refresh", rt)
			return pair, uid, nil
		},
	})

	rec := doJSON(t, http.HandlerFunc(h.Refresh), http.MethodPost, "/auth/v1/refresh", map[string]string{
		"refresh_token": "refresh",
	})
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRefresh_HTTP_EmptyToken(t *testing.T) {
	t.Parallel()

	h := New(&stubAuth{})

	rec := doJSON(t, http.HandlerFunc(h.Refresh), http.MethodPost, "/auth/v1/refresh", map[string]string{})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRefresh_HTTP_SessionInvalid(t *testing.T) {
	t.Parallel()

	h := New(&stubAuth{
		refresh: func(context.Context, string) (*models.TokenPair, uuid.UUID, error) {
			return nil, uuid.Nil, service.ErrSessionInvalid
		},
	})

	rec := doJSON(t, http.HandlerFunc(h.Refresh), http.MethodPost, "/auth/v1/refresh", map[string]string{
		"refresh_token": "revoked",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "unauthenticated", errCode(t, rec))
}

func TestLogout_HTTP_ByToken(t *testing.T) {
	t.Parallel()

	var got service.LogoutTarget
	h := New(&stubAuth{
		logout: func(_ context.Context, target service.LogoutTarget) error {
			got = target
			return nil
		},
	})

	rec := doJSON(t, http.HandlerFunc(h.Logout), http.MethodPost, "/auth/v1/logout", map[string]string{
		"refresh_token": "some-token",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, service.LogoutByToken("some-token"), got)

	var resp logoutResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.Ok)
}

func TestLogout_HTTP_ByEmail(t *testing.T) {
	t.Parallel()

	var got service.LogoutTarget
	h := New(&stubAuth{
		logout: func(_ context.Context, target service.LogoutTarget) error {
			got = target
			return nil
		},
	})

	rec := doJSON(t, http.HandlerFunc(h.Logout), http.MethodPost, "/auth/v1/logout", map[string]string{
		"email": "user@example.com",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, service.LogoutByEmail("user@example.com"), got)
}

func TestLogout_HTTP_NoTarget(t *testing.T) {
	t.Parallel()

	h := New(&stubAuth{})

	rec := doJSON(t, http.HandlerFunc(h.Logout), http.MethodPost, "/auth/v1/logout", map[string]string{})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "invalid_argument", errCode(t, rec))
}

func TestValidate_HTTP_OK(t *testing.T) {
	t.Parallel()

	h := New(&stubAuth{
		validate: func(context.Context, string) (string, string, error) {
			return "user@example.com", "CUSTOMER", nil
		},
	})

	rec := doJSON(t, http.HandlerFunc(h.Validate), http.MethodPost, "/auth/v1/validate", map[string]string{
		"access_token": "token",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp validateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.Valid)
	require.Equal(t, "user@example.com", resp.Subject)
	require.Equal(t, "CUSTOMER", resp.Role)
}

// Невалидный токен — не ошибка RPC, а {valid:false}.
func TestValidate_HTTP_InvalidToken(t *testing.T) {
	t.Parallel()

	h := New(&stubAuth{
		validate: func(context.Context, string) (string, string, error) {
			return "", "", service.ErrInvalidToken
		},
	})

	rec := doJSON(t, http.HandlerFunc(h.Validate), http.MethodPost, "/auth/v1/validate", map[string]string{
		"access_token": "garbage",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp validateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.False(t, resp.Valid)
	require.Empty(t, resp.Subject)
}
