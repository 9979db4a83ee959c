package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hotel-booking/auth-service/internal/models"
	"hotel-booking/auth-service/internal/storage"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// SaveSession сохраняет новую сессию (refresh-токен) в БД.
func (s *Storage) SaveSession(ctx context.Context, session *models.Session) error {
	const op = "storage.postgres.SaveSession"

	query := `
		INSERT INTO sessions(id, token_value, user_id, expired, revoked,
		                     created_at, expires_at, revoked_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := s.db.Exec(ctx, query,
		session.ID,
		session.TokenValue,
		session.UserID,
		session.Expired,
		session.Revoked,
		session.CreatedAt,
		session.ExpiresAt,
		session.RevokedAt,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// SessionByValue находит сессию по значению refresh-токена.
func (s *Storage) SessionByValue(ctx context.Context, value string) (*models.Session, error) {
	const op = "storage.postgres.SessionByValue"

	query := `
		SELECT id, token_value, user_id, expired, revoked,
		       created_at, expires_at, revoked_at
		FROM sessions
		WHERE token_value = $1
	`

	var session models.Session
	err := s.db.QueryRow(ctx, query, value).Scan(
		&session.ID,
		&session.TokenValue,
		&session.UserID,
		&session.Expired,
		&session.Revoked,
		&session.CreatedAt,
		&session.ExpiresAt,
		&session.RevokedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &session, nil
}

// SessionsByUser возвращает все сессии пользователя, включая исторические.
func (s *Storage) SessionsByUser(ctx context.Context, userID uuid.UUID) ([]models.Session, error) {
	const op = "storage.postgres.SessionsByUser"

	query := `
		SELECT id, token_value, user_id, expired, revoked,
		       created_at, expires_at, revoked_at
		FROM sessions
		WHERE user_id = $1
	`

	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var sessions []models.Session
	for rows.Next() {
		var session models.Session
		if err := rows.Scan(
			&session.ID,
			&session.TokenValue,
			&session.UserID,
			&session.Expired,
			&session.Revoked,
			&session.CreatedAt,
			&session.ExpiresAt,
			&session.RevokedAt,
		); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		sessions = append(sessions, session)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return sessions, nil
}

// RevokeSessionByValue отзывает одну сессию, если она ещё не отозвана.
// Возвращает:
//
//	(true, nil)  — сессия была активна и отозвана сейчас;
//	(false, nil) — сессия не найдена либо уже отозвана (no-op).
func (s *Storage) RevokeSessionByValue(ctx context.Context, value string, revokedAt time.Time) (bool, error) {
	const op = "storage.postgres.RevokeSessionByValue"

	query := `
		UPDATE sessions
		SET expired = TRUE, revoked = TRUE, revoked_at = $2
		WHERE token_value = $1 AND revoked = FALSE
	`

	cmdTag, err := s.db.Exec(ctx, query, value, revokedAt)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return cmdTag.RowsAffected() > 0, nil
}

// RevokeSessionsByUser отзывает все активные сессии пользователя.
// Возвращает значения токенов, отозванных этим вызовом, — по ним
// инвалидируются записи кэша.
func (s *Storage) RevokeSessionsByUser(ctx context.Context, userID uuid.UUID, revokedAt time.Time) ([]string, error) {
	const op = "storage.postgres.RevokeSessionsByUser"

	query := `
		UPDATE sessions
		SET expired = TRUE, revoked = TRUE, revoked_at = $2
		WHERE user_id = $1 AND revoked = FALSE
		RETURNING token_value
	`

	rows, err := s.db.Query(ctx, query, userID, revokedAt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var value string
		if err := rows.Scan(&value); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		values = append(values, value)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return values, nil
}

// MarkSessionExpired помечает сессию просроченной; revoked не трогает —
// истечение по времени не является явным отзывом.
func (s *Storage) MarkSessionExpired(ctx context.Context, value string) error {
	const op = "storage.postgres.MarkSessionExpired"

	query := `
		UPDATE sessions
		SET expired = TRUE
		WHERE token_value = $1 AND expired = FALSE
	`

	if _, err := s.db.Exec(ctx, query, value); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// DeleteSessionsByUser жёстко удаляет все сессии пользователя.
func (s *Storage) DeleteSessionsByUser(ctx context.Context, userID uuid.UUID) error {
	const op = "storage.postgres.DeleteSessionsByUser"

	query := `
		DELETE FROM sessions
		WHERE user_id = $1
	`

	if _, err := s.db.Exec(ctx, query, userID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// DeleteExpiredSessions удаляет сессии, чей срок истёк до now.
func (s *Storage) DeleteExpiredSessions(ctx context.Context, now time.Time) error {
	const op = "storage.postgres.DeleteExpiredSessions"

	query := `
		DELETE FROM sessions
		WHERE expires_at <= $1
	`

	if _, err := s.db.Exec(ctx, query, now); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
