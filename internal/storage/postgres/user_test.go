package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"hotel-booking/auth-service/internal/models"
	"hotel-booking/auth-service/internal/storage"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// Интеграционные тесты пакета postgres:
// - поднимают реальный PostgreSQL через testcontainers-go (postgres:16-alpine);
// - применяют миграции из ./migrations;
// - проверяют контракт UserStorage/SessionStorage на живой БД.
//
// Запуск локально:
//
//	GO_TEST_INTEGRATION=1 go test ./internal/storage/postgres -v -race -count=1

// repoRootFromThisFile определяет корень репозитория относительно текущего
// файла тестов — миграции ищутся независимо от рабочего каталога.
func repoRootFromThisFile() string {
	// internal/storage/postgres/... -> подняться на 3 уровня до корня.
	_, thisFile, _, _ := runtime.Caller(0)
	return filepath.Clean(filepath.Join(filepath.Dir(thisFile), "..", "..", ".."))
}

func readMigration(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(repoRootFromThisFile(), "migrations", name)
	b, err := os.ReadFile(path)
	require.NoError(t, err, "read migration %s", path)
	return string(b)
}

// startPostgres поднимает временный PostgreSQL, применяет миграции и
// возвращает инициализированное хранилище с функцией очистки.
// Без GO_TEST_INTEGRATION тест пропускается.
func startPostgres(t *testing.T) (*Storage, func()) {
	t.Helper()
	if os.Getenv("GO_TEST_INTEGRATION") == "" {
		t.Skip("integration tests are disabled (set GO_TEST_INTEGRATION=1)")
	}

	ctx := context.Background()
	req := tc.ContainerRequest{
		Image:        "postgres:16-alpine",
		Env:          map[string]string{"POSTGRES_USER": "user", "POSTGRES_PASSWORD": "pass", "POSTGRES_DB": "db"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	require.NoError(t, err)

	host, _ := c.Host(ctx)
	port, _ := c.MappedPort(ctx, "5432/tcp")
	dsn := fmt.Sprintf("postgres://user:pass@%s:%s/db?sslmode=disable", host, port.Port())

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	defer pool.Close()

	for _, m := range []string{"1_init_users.up.sql", "2_init_sessions.up.sql"} {
		_, err = pool.Exec(ctx, readMigration(t, m))
		require.NoError(t, err, "apply migration %s", m)
	}

	st, err := New(ctx, dsn)
	require.NoError(t, err)

	cleanup := func() {
		st.Close()
		_ = c.Terminate(context.Background())
	}
	return st, cleanup
}

// mustRole возвращает ID посеянной миграцией роли.
func mustRole(t *testing.T, st *Storage, name string) *models.Role {
	t.Helper()
	role, err := st.RoleByName(context.Background(), name)
	require.NoError(t, err)
	return role
}

func newUser(email string) *models.User {
	now := time.Now().UTC()
	return &models.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: "hash",
		FirstName:    "Ivan",
		LastName:     "Petrov",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestIntegration_SaveUser_And_Lookup_OK(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	ctx := context.Background()
	role := mustRole(t, st, "CUSTOMER")
	u := newUser("User@Example.Com")

	require.NoError(t, st.SaveUser(ctx, u, role.ID))

	// Email регистронезависим (CITEXT).
	got, err := st.UserByEmail(ctx, "user@example.com")
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)
	require.Equal(t, []string{"CUSTOMER"}, got.Roles)
	require.Equal(t, "Ivan", got.FirstName)
	require.WithinDuration(t, u.CreatedAt, got.CreatedAt, time.Second)

	byID, err := st.UserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, u.ID, byID.ID)
}

func TestIntegration_SaveUser_UniqueEmail_CaseInsensitive(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	ctx := context.Background()
	role := mustRole(t, st, "CUSTOMER")

	require.NoError(t, st.SaveUser(ctx, newUser("user@example.com"), role.ID))

	err := st.SaveUser(ctx, newUser("USER@EXAMPLE.COM"), role.ID)
	require.ErrorIs(t, err, storage.ErrAlreadyExists)
}

func TestIntegration_UserExistsByEmail(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	ctx := context.Background()
	role := mustRole(t, st, "CUSTOMER")

	exists, err := st.UserExistsByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	require.False(t, exists)

	require.NoError(t, st.SaveUser(ctx, newUser("somebody@example.com"), role.ID))

	exists, err = st.UserExistsByEmail(ctx, "somebody@example.com")
	require.NoError(t, err)
	require.True(t, exists)
}

func TestIntegration_UserByEmail_NotFound(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	_, err := st.UserByEmail(context.Background(), "ghost@example.com")
	require.ErrorIs(t, err, storage.ErrNotFound)

	_, err = st.UserByID(context.Background(), uuid.New())
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestIntegration_RoleByName(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	ctx := context.Background()

	// Миграция сеет CUSTOMER и ADMIN.
	customer, err := st.RoleByName(ctx, "CUSTOMER")
	require.NoError(t, err)
	require.Equal(t, "CUSTOMER", customer.Name)

	admin, err := st.RoleByName(ctx, "ADMIN")
	require.NoError(t, err)
	require.Equal(t, "ADMIN", admin.Name)

	_, err = st.RoleByName(ctx, "NOPE")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

// Ошибка внутри WithinTx откатывает все операции транзакции.
func TestIntegration_WithinTx_RollsBackOnError(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	ctx := context.Background()
	role := mustRole(t, st, "CUSTOMER")
	u := newUser("txuser@example.com")
	boom := errors.New("boom")

	err := st.WithinTx(ctx, func(ctx context.Context, tx storage.Storage) error {
		if err := tx.SaveUser(ctx, u, role.ID); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = st.UserByEmail(ctx, u.Email)
	require.ErrorIs(t, err, storage.ErrNotFound)
}

// Успешная транзакция видна после коммита целиком.
func TestIntegration_WithinTx_Commits(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	ctx := context.Background()
	role := mustRole(t, st, "CUSTOMER")
	u := newUser("committed@example.com")

	err := st.WithinTx(ctx, func(ctx context.Context, tx storage.Storage) error {
		if err := tx.SaveUser(ctx, u, role.ID); err != nil {
			return err
		}
		return tx.SaveSession(ctx, &models.Session{
			ID:         uuid.New(),
			TokenValue: "tx-session-token",
			UserID:     u.ID,
			CreatedAt:  time.Now().UTC(),
			ExpiresAt:  time.Now().UTC().Add(time.Hour),
		})
	})
	require.NoError(t, err)

	_, err = st.UserByEmail(ctx, u.Email)
	require.NoError(t, err)

	_, err = st.SessionByValue(ctx, "tx-session-token")
	require.NoError(t, err)
}
