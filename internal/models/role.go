package models

// Role — справочная роль (CUSTOMER, ADMIN, ...). Роль по умолчанию
// для регистрации задаётся конфигурацией (auth.default_role).
type Role struct {
	ID   int64
	Name string
}
