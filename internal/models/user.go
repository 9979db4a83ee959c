package models

import (
	"time"

	"github.com/google/uuid"
)

// User — модель пользователя платформы бронирования.
// Жизненным циклом учётной записи владеет слой аккаунтов;
// auth-сервис читает её и управляет только связанными сессиями.
type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	PhoneNumber  string
	AvatarURL    string
	// Roles — имена ролей пользователя; порядок не гарантирован,
	// детерминированный выбор выполняет service.pickRole.
	Roles     []string
	CreatedAt time.Time
	UpdatedAt time.Time
}
