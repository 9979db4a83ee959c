package models

import "time"

// TokenPair — пара токенов, выдаваемая при регистрации/входе/обновлении.
//
// Описание:
//   - AccessToken — короткоживущий JWT c ролью; нигде не хранится,
//     инвалидируется только истечением срока;
//   - RefreshToken — долгоживущий JWT, отслеживаемый в таблице сессий;
//   - Role — роль, зашитая в access-токен на момент выпуска;
//   - AccessExpiresAt — момент истечения access-токена (UTC).
//
// Пара неизменяема после возврата из сервиса.
type TokenPair struct {
	AccessToken     string
	RefreshToken    string
	Role            string
	AccessExpiresAt time.Time
}
