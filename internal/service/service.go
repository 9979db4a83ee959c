// service содержит бизнес-логику auth-сервиса: регистрацию и вход,
// обновление access-токена по refresh-токену и отзыв сессий.
//
// Основные аспекты:
//   - Пакет не хранит состояние запроса внутри Service; экземпляр Service
//     безопасен для конкурентного использования из разных горутин при условии,
//     что переданное хранилище (storage.Storage) потокобезопасно.
//   - Многошаговые операции (регистрация, вход) выполняются как одна
//     атомарная единица работы через storage.WithinTx.
//   - Ошибки возвращаются и далее маппятся HTTP-слоем на статусы
//     (см. комментарии к переменным ошибок ниже).
package service

import (
	"errors"

	"hotel-booking/auth-service/internal/cache"
	"hotel-booking/auth-service/internal/config"
	"hotel-booking/auth-service/internal/storage"
	"hotel-booking/auth-service/internal/token"
)

var (
	// ErrInvalidCredentials — пара логин/пароль неверна или пользователь
	// не найден; оба случая сведены в одну ошибку, чтобы не раскрывать,
	// какая половина не сошлась. HTTP 401.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidToken — refresh-токен не парсится, подписан чужим ключом
	// или отсутствует в хранилище. HTTP 401.
	ErrInvalidToken = errors.New("invalid token")

	// ErrSessionInvalid — сессия помечена просроченной либо отозванной.
	// HTTP 401.
	ErrSessionInvalid = errors.New("session expired or revoked")

	// ErrTokenExpired — срок действия access-токена истёк. HTTP 401.
	ErrTokenExpired = errors.New("token expired")

	// ErrEmailTaken — e-mail уже занят другим пользователем. HTTP 409.
	ErrEmailTaken = errors.New("email already taken")

	// ErrRoleNotConfigured — роль по умолчанию отсутствует в справочнике.
	// Операционная предусловие, а не ошибка пользователя. HTTP 500.
	ErrRoleNotConfigured = errors.New("default role not configured")

	// ErrInvalidEmail — e-mail имеет некорректный формат. HTTP 400.
	ErrInvalidEmail = errors.New("invalid email format")

	// ErrWeakPassword — пароль не удовлетворяет политикам сложности. HTTP 400.
	ErrWeakPassword = errors.New("password is too weak")

	// ErrEmptyPassword — пароль пустой. HTTP 400.
	ErrEmptyPassword = errors.New("password is empty")
)

// Service описывает бизнес-логику auth-сервиса.
type Service struct {
	storage storage.Storage
	codec   *token.Codec
	cfg     config.AuthConfig
	scache  cache.SessionCache // может быть nil, если кэш не сконфигурирован
}

// New создаёт новый экземпляр Service. Кодек с ключом подписи
// передаётся явно — ключ нигде не читается из глобального состояния.
func New(storage storage.Storage, codec *token.Codec, cfg config.AuthConfig) *Service {
	return &Service{
		storage: storage,
		codec:   codec,
		cfg:     cfg,
	}
}

// SetSessionCache устанавливает кэш сессий (опционально).
func (s *Service) SetSessionCache(c cache.SessionCache) {
	s.scache = c
}
