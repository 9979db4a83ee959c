// storage задаёт контракт хранилища auth-сервиса: учётные записи,
// роли и сессии (refresh-токены). Реализация — в подпакете postgres.
package storage

import (
	"context"
	"errors"
	"time"

	"hotel-booking/auth-service/internal/models"

	"github.com/google/uuid"
)

var (
	// ErrNotFound — запись не найдена (пользователь/роль/сессия).
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists — нарушение уникальности (email/token_value).
	ErrAlreadyExists = errors.New("already exists")
)

// UserStorage выполняет операции над пользователями и ролями.
type UserStorage interface {
	// SaveUser создаёт пользователя и привязывает к нему роль.
	SaveUser(ctx context.Context, user *models.User, roleID int64) error
	// UserExistsByEmail сообщает, занят ли email (без выборки записи).
	UserExistsByEmail(ctx context.Context, email string) (bool, error)
	// UserByEmail находит пользователя (с ролями) по email.
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	// UserByID находит пользователя (с ролями) по ID.
	UserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	// RoleByName находит роль по имени.
	RoleByName(ctx context.Context, name string) (*models.Role, error)
}

// SessionStorage выполняет операции над сессиями (refresh-токенами).
type SessionStorage interface {
	// SaveSession сохраняет новую сессию; повтор token_value — ErrAlreadyExists.
	SaveSession(ctx context.Context, session *models.Session) error
	// SessionByValue находит сессию по значению refresh-токена.
	SessionByValue(ctx context.Context, value string) (*models.Session, error)
	// SessionsByUser возвращает все сессии пользователя, включая
	// исторические (отозванные/просроченные); порядок не гарантирован.
	SessionsByUser(ctx context.Context, userID uuid.UUID) ([]models.Session, error)
	// RevokeSessionByValue отзывает одну сессию; повторный отзыв — no-op.
	// Возвращает true, если сессия была активна и отозвана именно сейчас.
	RevokeSessionByValue(ctx context.Context, value string, revokedAt time.Time) (bool, error)
	// RevokeSessionsByUser отзывает все активные сессии пользователя и
	// возвращает значения токенов, отозванных этим вызовом.
	RevokeSessionsByUser(ctx context.Context, userID uuid.UUID, revokedAt time.Time) ([]string, error)
	// MarkSessionExpired помечает сессию просроченной (ленивое обнаружение).
	MarkSessionExpired(ctx context.Context, value string) error
	// DeleteSessionsByUser жёстко удаляет все сессии пользователя
	// (используется слоем аккаунтов при удалении учётной записи).
	DeleteSessionsByUser(ctx context.Context, userID uuid.UUID) error
	// DeleteExpiredSessions удаляет сессии, чей срок истёк до now.
	DeleteExpiredSessions(ctx context.Context, now time.Time) error
}

// Storage задаёт контракт работы с БД.
type Storage interface {
	UserStorage
	SessionStorage
	// WithinTx выполняет fn как одну атомарную единицу работы:
	// все операции tx применяются целиком либо не применяются вовсе.
	// Промежуточные состояния не видны конкурентным читателям
	// (минимум read committed).
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Storage) error) error
	Close()
}
