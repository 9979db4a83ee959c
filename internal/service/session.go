package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hotel-booking/auth-service/internal/models"
	"hotel-booking/auth-service/internal/pkg/log"
	"hotel-booking/auth-service/internal/pkg/redact"
	"hotel-booking/auth-service/internal/storage"

	"github.com/google/uuid"
)

// Refresh выпускает новый access-токен по действующему refresh-токену.
//
// Порядок проверок:
//  1. сессия не найдена — ErrInvalidToken;
//  2. флаги expired/revoked — ErrSessionInvalid; истечение по времени
//     обнаруживается лениво здесь же и помечает запись;
//  3. структурная проверка кодеком — ErrInvalidToken: наличие «активной»
//     записи само по себе не доказывает, что строка не подделана.
//
// Refresh-токен НЕ ротируется: то же значение остаётся действительным
// до естественного истечения либо явного отзыва.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*models.TokenPair, uuid.UUID, error) {
	const op = "service.session.Refresh"

	lg := log.From(ctx)

	// Быстрый отказ по кэшу; промах или ошибка кэша — идём в БД.
	if s.scache != nil {
		if entry, ok, err := s.scache.Get(ctx, refreshToken); err == nil && ok && entry.Revoked {
			lg.Warn("refresh_revoked_cached", "op", op)
			return nil, uuid.Nil, fmt.Errorf("%s: %w", op, ErrSessionInvalid)
		}
	}

	session, err := s.storage.SessionByValue(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			lg.Warn("refresh_session_not_found", "op", op)
			return nil, uuid.Nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
		}

		return nil, uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	if session.Expired || session.Revoked {
		lg.Warn("refresh_session_invalid",
			"op", op,
			"user_id", session.UserID.String(),
		)
		return nil, uuid.Nil, fmt.Errorf("%s: %w", op, ErrSessionInvalid)
	}

	now := time.Now().UTC()
	if now.After(session.ExpiresAt) {
		// Ленивое обнаружение истечения: помечаем запись, ошибку не поднимаем.
		if err := s.storage.MarkSessionExpired(ctx, refreshToken); err != nil {
			lg.Warn("mark_session_expired_failed", "op", op, "err", err.Error())
		}

		return nil, uuid.Nil, fmt.Errorf("%s: %w", op, ErrSessionInvalid)
	}

	if !s.codec.Valid(refreshToken) {
		lg.Warn("refresh_token_malformed",
			"op", op,
			"user_id", session.UserID.String(),
		)
		return nil, uuid.Nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	user, err := s.storage.UserByID(ctx, session.UserID)
	if err != nil {
		return nil, uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	roleName := s.pickRole(user.Roles)

	accessToken, err := s.codec.IssueAccess(user.Email, roleName, s.cfg.AccessTokenTTL)
	if err != nil {
		return nil, uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	pair := &models.TokenPair{
		AccessToken:     accessToken,
		RefreshToken:    refreshToken,
		Role:            roleName,
		AccessExpiresAt: now.Add(s.cfg.AccessTokenTTL),
	}

	return pair, user.ID, nil
}

// LogoutTarget — явно помеченная цель logout: одна сессия по значению
// refresh-токена либо все сессии учётной записи по email. Вариант выбирает
// вызывающий; сервис не угадывает смысл идентификатора по его форме.
type LogoutTarget struct {
	kind  logoutKind
	value string
}

type logoutKind int

const (
	logoutNone logoutKind = iota
	logoutByToken
	logoutByEmail
)

// LogoutByToken — «выйти на этом устройстве»: отозвать одну сессию.
func LogoutByToken(refreshToken string) LogoutTarget {
	return LogoutTarget{kind: logoutByToken, value: refreshToken}
}

// LogoutByEmail — «выйти везде»: отозвать все сессии учётной записи.
func LogoutByEmail(email string) LogoutTarget {
	return LogoutTarget{kind: logoutByEmail, value: email}
}

// Logout отзывает сессии по цели. Операция идемпотентна и всегда
// успешна с точки зрения вызывающего: «нечего отзывать» — не ошибка.
// Наружу поднимаются только сбои хранилища.
func (s *Service) Logout(ctx context.Context, target LogoutTarget) error {
	const op = "service.session.Logout"

	now := time.Now().UTC()

	switch target.kind {
	case logoutByToken:
		revoked, err := s.storage.RevokeSessionByValue(ctx, target.value, now)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		s.cacheRevokeAll(ctx, []string{target.value})

		log.From(ctx).Info("logout_session",
			"op", op,
			"revoked_now", revoked,
		)

		return nil

	case logoutByEmail:
		normEmail, err := validateEmail(target.value)
		if err != nil {
			// Некорректный email заведомо никому не принадлежит.
			return nil
		}

		user, err := s.storage.UserByEmail(ctx, normEmail)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return nil
			}

			return fmt.Errorf("%s: %w", op, err)
		}

		values, err := s.storage.RevokeSessionsByUser(ctx, user.ID, now)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		s.cacheRevokeAll(ctx, values)

		log.From(ctx).Info("logout_all_sessions",
			"op", op,
			"email", redact.Email(normEmail),
			"revoked", len(values),
		)

		return nil
	}

	// Пустая цель: отзывать нечего.
	return nil
}

// ValidateAccess проверяет access-токен без обращения к хранилищу
// и возвращает subject (email) и роль из клеймов.
func (s *Service) ValidateAccess(ctx context.Context, accessToken string) (string, string, error) {
	const op = "service.session.ValidateAccess"

	if !s.codec.Valid(accessToken) {
		return "", "", fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	expired, err := s.codec.Expired(accessToken)
	if err != nil {
		return "", "", fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}
	if expired {
		return "", "", fmt.Errorf("%s: %w", op, ErrTokenExpired)
	}

	subject, err := s.codec.Subject(accessToken)
	if err != nil {
		return "", "", fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	role, err := s.codec.Role(accessToken)
	if err != nil {
		return "", "", fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	return subject, role, nil
}

// PurgeUserSessions жёстко удаляет все сессии пользователя.
// Вызывается слоем аккаунтов при удалении учётной записи.
func (s *Service) PurgeUserSessions(ctx context.Context, userID uuid.UUID) error {
	const op = "service.session.PurgeUserSessions"

	if err := s.storage.DeleteSessionsByUser(ctx, userID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
