// token реализует кодек подписанных токенов (компактный JWS, HS256).
//
// Кодек обслуживает оба вида токенов одним ключом:
//   - access — с клеймом роли, короткий TTL, нигде не хранится;
//   - refresh — без роли, длинный TTL, отслеживается в таблице сессий.
//
// Ключ подписи передаётся явно в конструктор и неизменен в течение
// жизни процесса; ротация ключа — вопрос будущей версии кодека.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrMalformed — токен не парсится или подпись не сходится.
	ErrMalformed = errors.New("malformed token")
)

type claims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Codec выпускает и разбирает подписанные токены.
// Экземпляр безопасен для конкурентного использования.
type Codec struct {
	secret []byte
	issuer string
}

// New создаёт кодек с симметричным ключом подписи и issuer-клеймом.
func New(secret, issuer string) *Codec {
	return &Codec{
		secret: []byte(secret),
		issuer: issuer,
	}
}

// IssueAccess выпускает access-токен: subject, роль, iat=now, exp=now+ttl.
func (c *Codec) IssueAccess(subject, role string, ttl time.Duration) (string, error) {
	return c.issue(subject, role, ttl)
}

// IssueRefresh выпускает refresh-токен: как access, но без клейма роли.
func (c *Codec) IssueRefresh(subject string, ttl time.Duration) (string, error) {
	return c.issue(subject, "", ttl)
}

func (c *Codec) issue(subject, role string, ttl time.Duration) (string, error) {
	const op = "token.issue"

	now := time.Now().UTC()
	cl := claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			// jti делает каждый выпуск уникальным: два refresh-токена одного
			// пользователя в одну секунду не совпадут побайтово.
			ID:        uuid.NewString(),
			Subject:   subject,
			Issuer:    c.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, cl).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return signed, nil
}

// parse разбирает токен и проверяет подпись, НЕ валидируя сроки:
// проверка exp — отдельная забота (Expired) либо слоя сессий.
func (c *Codec) parse(tokenStr string) (*claims, error) {
	const op = "token.parse"

	tok, err := jwt.ParseWithClaims(tokenStr, &claims{},
		func(t *jwt.Token) (interface{}, error) {
			if t.Method != jwt.SigningMethodHS256 {
				return nil, fmt.Errorf("%s: %w", op, ErrMalformed)
			}

			return c.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrMalformed)
	}

	cl, ok := tok.Claims.(*claims)
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, ErrMalformed)
	}

	return cl, nil
}

// Valid сообщает, что токен структурно корректен: парсится и подписан
// нашим ключом. Срок действия здесь сознательно не проверяется.
func (c *Codec) Valid(tokenStr string) bool {
	_, err := c.parse(tokenStr)
	return err == nil
}

// Expired сравнивает зашитый exp с текущим временем.
// Для нечитаемого токена возвращает ошибку.
func (c *Codec) Expired(tokenStr string) (bool, error) {
	cl, err := c.parse(tokenStr)
	if err != nil {
		return false, err
	}

	if cl.ExpiresAt == nil {
		return false, fmt.Errorf("token.Expired: %w", ErrMalformed)
	}

	return time.Now().UTC().After(cl.ExpiresAt.Time), nil
}

// Subject извлекает subject (email учётной записи).
func (c *Codec) Subject(tokenStr string) (string, error) {
	cl, err := c.parse(tokenStr)
	if err != nil {
		return "", err
	}

	return cl.Subject, nil
}

// Role извлекает клейм роли; для refresh-токенов возвращает "".
func (c *Codec) Role(tokenStr string) (string, error) {
	cl, err := c.parse(tokenStr)
	if err != nil {
		return "", err
	}

	return cl.Role, nil
}
