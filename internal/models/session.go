package models

import (
	"time"

	"github.com/google/uuid"
)

// Session — серверная запись refresh-токена (одна «сессия» пользователя).
//
// Инварианты:
//   - TokenValue глобально уникален и никогда не переиспользуется;
//   - переход Revoked false→true происходит ровно один раз, повторный
//     отзыв — no-op;
//   - RevokedAt != nil тогда и только тогда, когда Revoked == true;
//   - UserID назначается при создании и не меняется.
type Session struct {
	ID         uuid.UUID
	TokenValue string
	UserID     uuid.UUID
	Expired    bool
	Revoked    bool
	CreatedAt  time.Time
	ExpiresAt  time.Time
	RevokedAt  *time.Time
}

// Active сообщает, пригодна ли сессия для refresh на момент now.
// Срок действия, зашитый в сам токен, дополнительно проверяет token.Codec.
func (s *Session) Active(now time.Time) bool {
	return !s.Expired && !s.Revoked && now.Before(s.ExpiresAt)
}
