package postgres

import (
	"context"
	"errors"
	"fmt"

	"hotel-booking/auth-service/internal/models"
	"hotel-booking/auth-service/internal/storage"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// selectUser — общая проекция пользователя с агрегированными ролями.
// Порядок ролей фиксируем на уровне SQL, чтобы выбор роли был воспроизводим.
const selectUser = `
	SELECT u.id, u.email, u.password_hash,
	       u.first_name, u.last_name, u.phone_number, u.avatar_url,
	       u.created_at, u.updated_at,
	       COALESCE(array_agg(r.role_name ORDER BY r.role_name)
	                FILTER (WHERE r.role_name IS NOT NULL), '{}')
	FROM users u
	LEFT JOIN user_roles ur ON ur.user_id = u.id
	LEFT JOIN roles r ON r.id = ur.role_id
`

// SaveUser создаёт пользователя и привязывает роль.
// Обе вставки выполняются на одном querier: внутри WithinTx это
// одна атомарная единица работы.
func (s *Storage) SaveUser(ctx context.Context, user *models.User, roleID int64) error {
	const op = "storage.postgres.SaveUser"

	query := `
		INSERT INTO users(id, email, password_hash, first_name, last_name,
		                  phone_number, avatar_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := s.db.Exec(ctx, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.FirstName,
		user.LastName,
		user.PhoneNumber,
		user.AvatarURL,
		user.CreatedAt,
		user.UpdatedAt,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	link := `
		INSERT INTO user_roles(user_id, role_id)
		VALUES ($1, $2)
	`

	if _, err := s.db.Exec(ctx, link, user.ID, roleID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// UserExistsByEmail сообщает, занят ли email.
func (s *Storage) UserExistsByEmail(ctx context.Context, email string) (bool, error) {
	const op = "storage.postgres.UserExistsByEmail"

	query := `
		SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)
	`

	var exists bool
	if err := s.db.QueryRow(ctx, query, email).Scan(&exists); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return exists, nil
}

// UserByEmail находит пользователя по email (регистронезависимо, CITEXT).
func (s *Storage) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.postgres.UserByEmail"

	query := selectUser + `
		WHERE u.email = $1
		GROUP BY u.id
	`

	return s.scanUser(ctx, op, query, email)
}

// UserByID находит пользователя по ID.
func (s *Storage) UserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	const op = "storage.postgres.UserByID"

	query := selectUser + `
		WHERE u.id = $1
		GROUP BY u.id
	`

	return s.scanUser(ctx, op, query, id)
}

func (s *Storage) scanUser(ctx context.Context, op, query string, arg any) (*models.User, error) {
	var user models.User
	err := s.db.QueryRow(ctx, query, arg).Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.FirstName,
		&user.LastName,
		&user.PhoneNumber,
		&user.AvatarURL,
		&user.CreatedAt,
		&user.UpdatedAt,
		&user.Roles,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &user, nil
}

// RoleByName находит роль по имени.
func (s *Storage) RoleByName(ctx context.Context, name string) (*models.Role, error) {
	const op = "storage.postgres.RoleByName"

	query := `
		SELECT id, role_name
		FROM roles
		WHERE role_name = $1
	`

	var role models.Role
	err := s.db.QueryRow(ctx, query, name).Scan(&role.ID, &role.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &role, nil
}
