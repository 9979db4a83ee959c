package handlers

import (
	"net/http"

	"hotel-booking/auth-service/internal/models"
	"hotel-booking/auth-service/internal/service"
	"hotel-booking/auth-service/internal/transport/http/apierrors"

	"github.com/google/uuid"
)

// Входные/выходные модели REST-слоя.

type registerRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	PhoneNumber string `json:"phone_number,omitempty"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// logoutRequest — ровно одно из полей: refresh_token («выйти здесь»)
// либо email («выйти везде»).
type logoutRequest struct {
	RefreshToken string `json:"refresh_token,omitempty"`
	Email        string `json:"email,omitempty"`
}

type logoutResponse struct {
	Ok bool `json:"ok"`
}

type validateRequest struct {
	AccessToken string `json:"access_token"`
}

type validateResponse struct {
	Valid   bool   `json:"valid"`
	Subject string `json:"subject,omitempty"`
	Role    string `json:"role,omitempty"`
}

type authResponse struct {
	UserID          string `json:"user_id"`
	AccessToken     string `json:"access_token"`
	RefreshToken    string `json:"refresh_token"`
	Role            string `json:"role"`
	AccessExpiresAt int64  `json:"access_expires_at"` // Unix UTC
}

func toAuthResponse(pair *models.TokenPair, uid uuid.UUID) authResponse {
	return authResponse{
		UserID:          uid.String(),
		AccessToken:     pair.AccessToken,
		RefreshToken:    pair.RefreshToken,
		Role:            pair.Role,
		AccessExpiresAt: pair.AccessExpiresAt.Unix(),
	}
}

func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var in registerRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, apierrors.ErrInvalidArgument)
		return
	}

	pair, uid, err := h.Auth.Register(r.Context(), service.RegisterParams{
		Email:       in.Email,
		Password:    in.Password,
		FirstName:   in.FirstName,
		LastName:    in.LastName,
		PhoneNumber: in.PhoneNumber,
		AvatarURL:   in.AvatarURL,
	})
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toAuthResponse(pair, uid))
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, apierrors.ErrInvalidArgument)
		return
	}

	pair, uid, err := h.Auth.Login(r.Context(), in.Email, in.Password)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toAuthResponse(pair, uid))
}

func (h *Handlers) Refresh(w http.ResponseWriter, r *http.Request) {
	var in refreshRequest
	if err := decodeStrict(r, &in); err != nil || in.RefreshToken == "" {
		apierrors.WriteError(w, r, apierrors.ErrInvalidArgument)
		return
	}

	pair, uid, err := h.Auth.Refresh(r.Context(), in.RefreshToken)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toAuthResponse(pair, uid))
}

// Logout всегда отвечает 200 {ok:true}, если хранилище живо:
// «ничего не нашлось» — тоже успех, повторный вызов безвреден.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	var in logoutRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, apierrors.ErrInvalidArgument)
		return
	}

	var target service.LogoutTarget
	switch {
	case in.RefreshToken != "":
		target = service.LogoutByToken(in.RefreshToken)
	case in.Email != "":
		target = service.LogoutByEmail(in.Email)
	default:
		apierrors.WriteError(w, r, apierrors.ErrInvalidArgument)
		return
	}

	if err := h.Auth.Logout(r.Context(), target); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, logoutResponse{Ok: true})
}

// Validate проверяет access-токен. Невалидный/просроченный токен —
// не RPC-ошибка, а {valid:false}: ресурсный слой различает лишь «да/нет».
func (h *Handlers) Validate(w http.ResponseWriter, r *http.Request) {
	var in validateRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, apierrors.ErrInvalidArgument)
		return
	}

	subject, role, err := h.Auth.ValidateAccess(r.Context(), in.AccessToken)
	if err != nil {
		writeJSON(w, http.StatusOK, validateResponse{Valid: false})
		return
	}

	writeJSON(w, http.StatusOK, validateResponse{
		Valid:   true,
		Subject: subject,
		Role:    role,
	})
}
