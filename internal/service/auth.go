package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode"

	"hotel-booking/auth-service/internal/cache"
	"hotel-booking/auth-service/internal/models"
	"hotel-booking/auth-service/internal/pkg/log"
	"hotel-booking/auth-service/internal/pkg/redact"
	"hotel-booking/auth-service/internal/storage"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// RegisterParams — профильные поля регистрации.
type RegisterParams struct {
	Email       string
	Password    string
	FirstName   string
	LastName    string
	PhoneNumber string
	AvatarURL   string
}

// Register регистрирует нового пользователя и открывает первую сессию.
//
// Шаги:
//  1. занятый email — ErrEmailTaken;
//  2. роль по умолчанию не резолвится — ErrRoleNotConfigured;
//  3. пользователь + роль + сессия сохраняются одной транзакцией:
//     либо персистится всё, либо ничего.
func (s *Service) Register(ctx context.Context, p RegisterParams) (*models.TokenPair, uuid.UUID, error) {
	const op = "service.auth.Register"

	normEmail, err := validateEmail(p.Email)
	if err != nil {
		return nil, uuid.Nil, fmt.Errorf("%s: %w", op, ErrInvalidEmail)
	}

	if err := validatePassword(p.Password); err != nil {
		return nil, uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	exists, err := s.storage.UserExistsByEmail(ctx, normEmail)
	if err != nil {
		return nil, uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}
	if exists {
		return nil, uuid.Nil, fmt.Errorf("%s: %w", op, ErrEmailTaken)
	}

	role, err := s.storage.RoleByName(ctx, s.cfg.DefaultRole)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.From(ctx).Error("default_role_missing",
				"op", op,
				"role", s.cfg.DefaultRole,
			)
			return nil, uuid.Nil, fmt.Errorf("%s: %w", op, ErrRoleNotConfigured)
		}

		return nil, uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	hashedPassword, err := hashPassword(p.Password)
	if err != nil {
		return nil, uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	now := time.Now().UTC()
	user := &models.User{
		ID:           uuid.New(),
		Email:        normEmail,
		PasswordHash: hashedPassword,
		FirstName:    p.FirstName,
		LastName:     p.LastName,
		PhoneNumber:  p.PhoneNumber,
		AvatarURL:    p.AvatarURL,
		Roles:        []string{role.Name},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	pair, session, err := s.issuePair(user.ID, normEmail, role.Name, now)
	if err != nil {
		return nil, uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	err = s.storage.WithinTx(ctx, func(ctx context.Context, tx storage.Storage) error {
		if err := tx.SaveUser(ctx, user, role.ID); err != nil {
			if errors.Is(err, storage.ErrAlreadyExists) {
				return ErrEmailTaken
			}

			return err
		}

		return tx.SaveSession(ctx, session)
	})
	if err != nil {
		return nil, uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	s.cacheSet(ctx, session)

	log.From(ctx).Info("user_registered",
		"op", op,
		"email", redact.Email(normEmail),
		"role", role.Name,
	)

	return pair, user.ID, nil
}

// Login выполняет вход по email+пароль.
//
// Вход отзывает ВСЕ прежние сессии пользователя и открывает одну новую:
// утёкший refresh-токен живёт максимум до следующего успешного входа.
// Отзыв старых сессий и вставка новой — одна транзакция.
func (s *Service) Login(ctx context.Context, email, password string) (*models.TokenPair, uuid.UUID, error) {
	const op = "service.auth.Login"

	normEmail, err := validateEmail(email)
	if err != nil {
		return nil, uuid.Nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	if len(password) == 0 {
		return nil, uuid.Nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	user, err := s.storage.UserByEmail(ctx, normEmail)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, uuid.Nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}

		return nil, uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	if !checkPassword(user.PasswordHash, password) {
		log.From(ctx).Warn("login_wrong_password",
			"op", op,
			"email", redact.Email(normEmail),
		)
		return nil, uuid.Nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	now := time.Now().UTC()
	roleName := s.pickRole(user.Roles)

	pair, session, err := s.issuePair(user.ID, user.Email, roleName, now)
	if err != nil {
		return nil, uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	var superseded []string
	err = s.storage.WithinTx(ctx, func(ctx context.Context, tx storage.Storage) error {
		values, err := tx.RevokeSessionsByUser(ctx, user.ID, now)
		if err != nil {
			return err
		}
		superseded = values

		return tx.SaveSession(ctx, session)
	})
	if err != nil {
		return nil, uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	s.cacheRevokeAll(ctx, superseded)
	s.cacheSet(ctx, session)

	log.From(ctx).Info("user_logged_in",
		"op", op,
		"email", redact.Email(normEmail),
		"superseded_sessions", len(superseded),
	)

	return pair, user.ID, nil
}

// issuePair выпускает новую пару access+refresh и строит запись сессии
// для refresh-токена. Ничего не персистит — это забота вызывающего.
func (s *Service) issuePair(userID uuid.UUID, subject, roleName string, now time.Time) (*models.TokenPair, *models.Session, error) {
	const op = "service.auth.issuePair"

	accessToken, err := s.codec.IssueAccess(subject, roleName, s.cfg.AccessTokenTTL)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	refreshToken, err := s.codec.IssueRefresh(subject, s.cfg.RefreshTokenTTL)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	session := &models.Session{
		ID:         uuid.New(),
		TokenValue: refreshToken,
		UserID:     userID,
		CreatedAt:  now,
		ExpiresAt:  now.Add(s.cfg.RefreshTokenTTL),
	}

	pair := &models.TokenPair{
		AccessToken:     accessToken,
		RefreshToken:    refreshToken,
		Role:            roleName,
		AccessExpiresAt: now.Add(s.cfg.AccessTokenTTL),
	}

	return pair, session, nil
}

// pickRole выбирает роль для клейма детерминированно: лексикографически
// наименьшее имя. Набор ролей в БД не упорядочен, а клеймы в токене
// должны быть воспроизводимы.
func (s *Service) pickRole(roles []string) string {
	if len(roles) == 0 {
		return s.cfg.DefaultRole
	}

	picked := roles[0]
	for _, r := range roles[1:] {
		if r < picked {
			picked = r
		}
	}

	return picked
}

// cacheSet кладёт свежую сессию в кэш; ошибки кэша не фатальны.
func (s *Service) cacheSet(ctx context.Context, session *models.Session) {
	if s.scache == nil {
		return
	}

	entry := &cache.SessionEntry{
		UserID:    session.UserID,
		Revoked:   false,
		ExpiresAt: session.ExpiresAt,
	}

	ttl := time.Until(session.ExpiresAt)
	if err := s.scache.Set(ctx, session.TokenValue, entry, ttl); err != nil {
		log.From(ctx).Warn("session_cache_set_failed", "err", err.Error())
	}
}

// cacheRevokeAll помечает в кэше отозванными все перечисленные токены.
func (s *Service) cacheRevokeAll(ctx context.Context, values []string) {
	if s.scache == nil {
		return
	}

	for _, v := range values {
		if err := s.scache.MarkRevoked(ctx, v); err != nil {
			log.From(ctx).Warn("session_cache_revoke_failed", "err", err.Error())
		}
	}
}

// hashPassword хэширует пароль с помощью bcrypt.
func hashPassword(password string) (string, error) {
	const op = "service.auth.hashPassword"

	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return string(bytes), nil
}

// checkPassword сравнивает пароль с хэшем; на битом хэше просто false.
func checkPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// validateEmail проверяет базовый формат email и обрезает пробелы снаружи.
func validateEmail(raw string) (string, error) {
	const op = "service.auth.validateEmail"

	email := strings.TrimSpace(raw)
	if email == "" {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidEmail)
	}

	if _, err := mail.ParseAddress(email); err != nil {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidEmail)
	}

	return strings.ToLower(email), nil
}

// validatePassword проверяет минимальные требования к паролю.
// Политика по умолчанию: длина >= 8, хотя бы одна строчная, заглавная, цифра и спецсимвол.
func validatePassword(pw string) error {
	const op = "service.auth.validatePassword"

	if len(pw) == 0 {
		return fmt.Errorf("%s: %w", op, ErrEmptyPassword)
	}

	if len([]rune(pw)) < 8 {
		return fmt.Errorf("%s: %w", op, ErrWeakPassword)
	}

	var hasLower, hasUpper, hasDigit, hasSpecial bool
	for _, r := range pw {
		switch {
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasSpecial = true
		}
	}

	if !(hasLower && hasUpper && hasDigit && hasSpecial) {
		return fmt.Errorf("%s: %w", op, ErrWeakPassword)
	}

	return nil
}
