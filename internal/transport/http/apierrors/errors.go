// apierrors стандартизирует ответы об ошибках HTTP-слоя.
// На вход он принимает ошибку доменного слоя (сентинелы пакета service),
// а на выход даёт:
//   - корректный HTTP-статус;
//   - краткое безопасное message без утечки деталей.
//
// Политика безопасности:
//   - ErrInvalidCredentials не различает «нет такого email» и «пароль
//     не подошёл» — обе половины отвечают одинаковым 401;
//   - ErrRoleNotConfigured — операционная проблема, наружу уходит
//     обезличенный 500, подробности остаются в логах.
package apierrors

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"hotel-booking/auth-service/internal/service"
)

// Нестандартный код, часто используемый для "клиент закрыл соединение".
const StatusClientClosedRequest = 499

// ErrInvalidArgument — локальная ошибка HTTP-слоя: вход не распарсился
// или обязательное поле отсутствует.
var ErrInvalidArgument = errors.New("invalid argument")

// APIError — единый формат для фронта.
// Code — короткий стабильный код для машиночитаемой обработки на FE.
// Message — безопасное человекочитаемое описание.
// RequestID — прокидывается из X-Request-Id, если есть (для трассировки).
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// ErrorResponse — корневой объект в ответе.
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// ToHTTP конвертирует ошибку доменного слоя в HTTP-статус и
// унифицированный ответ для фронта.
func ToHTTP(err error) (int, ErrorResponse) {
	httpStatus, code, msg := base(err)
	return httpStatus, ErrorResponse{
		Error: APIError{
			Code:    code,
			Message: msg,
		},
	}
}

// WriteError — хелпер для HTTP-хендлеров.
// Пишет корректный статус/тело, добавляет request_id из заголовка, если он есть.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status, resp := ToHTTP(err)

	// Прокидываем request_id для фронта, чтобы он мог репортить баги с привязкой.
	if rid := r.Header.Get("X-Request-Id"); rid != "" {
		resp.Error.RequestID = rid
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// base — базовый маппинг доменных ошибок -> HTTP/FE-код/сообщение:
//   - валидация (email/пароль) -> 400
//   - занятый email -> 409
//   - неверные учётные данные / битый токен / отозванная сессия -> 401
//   - отмена клиентом -> 499, таймаут -> 504
//   - прочее (включая ErrRoleNotConfigured) -> 500/internal
func base(err error) (int, string, string) {
	switch {
	case err == nil:
		// Программная ошибка вызова: не маскируем багом "200 OK".
		return http.StatusInternalServerError, "internal", "internal error"
	case errors.Is(err, ErrInvalidArgument),
		errors.Is(err, service.ErrInvalidEmail),
		errors.Is(err, service.ErrWeakPassword),
		errors.Is(err, service.ErrEmptyPassword):
		return http.StatusBadRequest, "invalid_argument", "invalid argument"
	case errors.Is(err, service.ErrEmailTaken):
		return http.StatusConflict, "already_exists", "email already taken"
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, "unauthenticated", "invalid credentials"
	case errors.Is(err, service.ErrInvalidToken),
		errors.Is(err, service.ErrTokenExpired):
		return http.StatusUnauthorized, "unauthenticated", "invalid token"
	case errors.Is(err, service.ErrSessionInvalid):
		return http.StatusUnauthorized, "unauthenticated", "session expired or revoked"
	case errors.Is(err, context.Canceled):
		return StatusClientClosedRequest, "canceled", "canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "deadline_exceeded", "deadline exceeded"
	default:
		return http.StatusInternalServerError, "internal", "internal error"
	}
}
