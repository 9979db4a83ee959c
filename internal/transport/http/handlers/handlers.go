package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"hotel-booking/auth-service/internal/models"
	"hotel-booking/auth-service/internal/service"

	"github.com/google/uuid"
)

// AuthService — срез бизнес-логики, нужный HTTP-слою.
// Вынесен в интерфейс ради подмены в тестах хендлеров.
type AuthService interface {
	Register(ctx context.Context, p service.RegisterParams) (*models.TokenPair, uuid.UUID, error)
	Login(ctx context.Context, email, password string) (*models.TokenPair, uuid.UUID, error)
	Refresh(ctx context.Context, refreshToken string) (*models.TokenPair, uuid.UUID, error)
	Logout(ctx context.Context, target service.LogoutTarget) error
	ValidateAccess(ctx context.Context, accessToken string) (string, string, error)
}

// Handlers агрегирует зависимости HTTP-слоя.
type Handlers struct {
	Auth AuthService
}

func New(auth AuthService) *Handlers {
	return &Handlers{Auth: auth}
}

// writeJSON — единый ответ JSON с нужным Content-Type.
// Ошибки выводим через apierrors.WriteError.
func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

// decodeStrict — строгий JSON-декодер: запрещаем неизвестные поля.
func decodeStrict(r *http.Request, value any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(value)
}
