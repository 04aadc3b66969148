// Package models содержит доменную модель пользователя системы
// и событий, связанных с учётной записью.
package models

import "time"

// Role — роль пользователя.
type Role string

const (
	// RoleCommon — роль по умолчанию.
	RoleCommon Role = "common"
	// RoleAdmin — администратор.
	RoleAdmin Role = "admin"
)

// Valid сообщает, является ли роль допустимой.
func (r Role) Valid() bool {
	return r == RoleCommon || r == RoleAdmin
}

// User представляет зарегистрированного пользователя системы.
// PasswordHash никогда не попадает в JSON.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Public возвращает копию пользователя без хеша пароля.
func (u User) Public() User {
	u.PasswordHash = ""
	return u
}
