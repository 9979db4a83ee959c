package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func testCodec() *Codec {
	return New("unit-secret", "auth-service")
}

func TestIssueAccess_Claims(t *testing.T) {
	t.Parallel()

	c := testCodec()

	s, err := c.IssueAccess("user@example.com", "CUSTOMER", time.Minute)
	require.NoError(t, err)
	require.True(t, c.Valid(s))

	subject, err := c.Subject(s)
	require.NoError(t, err)
	require.Equal(t, "user@example.com", subject)

	role, err := c.Role(s)
	require.NoError(t, err)
	require.Equal(t, "CUSTOMER", role)

	expired, err := c.Expired(s)
	require.NoError(t, err)
	require.False(t, expired)
}

func TestIssueRefresh_NoRole(t *testing.T) {
	t.Parallel()

	c := testCodec()

	s, err := c.IssueRefresh("user@example.com", time.Hour)
	require.NoError(t, err)

	role, err := c.Role(s)
	require.NoError(t, err)
	require.Empty(t, role)
}

// Два выпуска для одного subject в один момент времени не совпадают:
// jti делает каждый токен уникальным.
func TestIssue_UniquePerCall(t *testing.T) {
	t.Parallel()

	c := testCodec()

	a, err := c.IssueRefresh("user@example.com", time.Hour)
	require.NoError(t, err)
	b, err := c.IssueRefresh("user@example.com", time.Hour)
	require.NoError(t, err)

	require.NotEqual(t, a, b)
}

// Valid — структурная проверка: просроченный, но корректно подписанный
// токен всё ещё валиден. Сроки — забота Expired и слоя сессий.
func TestValid_IgnoresExpiry(t *testing.T) {
	t.Parallel()

	c := testCodec()

	s, err := c.IssueAccess("user@example.com", "CUSTOMER", -time.Minute)
	require.NoError(t, err)
	require.True(t, c.Valid(s))

	expired, err := c.Expired(s)
	require.NoError(t, err)
	require.True(t, expired)
}

func TestValid_RejectsGarbage(t *testing.T) {
	t.Parallel()

	c := testCodec()

	require.False(t, c.Valid(""))
	require.False(t, c.Valid("garbage"))
	require.False(t, c.Valid("a.b.c"))
}

func TestValid_RejectsForeignKey(t *testing.T) {
	t.Parallel()

	ours := testCodec()
	theirs := New("other-secret", "auth-service")

	s, err := theirs.IssueAccess("user@example.com", "CUSTOMER", time.Minute)
	require.NoError(t, err)

	require.False(t, ours.Valid(s))

	_, err = ours.Subject(s)
	require.ErrorIs(t, err, ErrMalformed)
}

// alg=none и прочие неожиданные методы подписи отклоняются.
func TestValid_RejectsNoneAlg(t *testing.T) {
	t.Parallel()

	c := testCodec()

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject: "user@example.com",
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	require.False(t, c.Valid(unsigned))
}

func TestExpired_Garbage(t *testing.T) {
	t.Parallel()

	c := testCodec()

	_, err := c.Expired("garbage")
	require.ErrorIs(t, err, ErrMalformed)
}
