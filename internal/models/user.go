// Package models содержит доменные структуры платформы: пользователей, подписки,
// платежи, предметы, сессии чата и видео, материалы преподавателей и файлы.
// Структуры используются в бизнес‑логике, хранилище и HTTP‑слое.
package models

import "time"

// Role роль пользователя платформы.
type Role string

const (
	RoleStudent    Role = "STUDENT"
	RoleInstructor Role = "INSTRUCTOR"
	RoleAdmin      Role = "ADMIN"
)

// Valid сообщает, является ли значение известной ролью.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleInstructor, RoleAdmin:
		return true
	}
	return false
}

// User представляет зарегистрированного пользователя системы.
type User struct {
	ID              string    `json:"id"`
	Email           string    `json:"email"`
	PasswordHash    string    `json:"-"`
	FirstName       string    `json:"firstName"`
	LastName        string    `json:"lastName"`
	Role            Role      `json:"role"`
	IsEmailVerified bool      `json:"isEmailVerified"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// RegisterRequest тело запроса регистрации.
type RegisterRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
}

// LoginRequest тело запроса входа.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest тело запроса обновления токенов.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// ForgotPasswordRequest тело запроса на сброс пароля.
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest тело запроса установки нового пароля.
type ResetPasswordRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
}

// UpdateProfileRequest тело запроса изменения профиля. Пустые поля не меняются.
type UpdateProfileRequest struct {
	FirstName string `json:"firstName" validate:"omitempty,max=100"`
	LastName  string `json:"lastName" validate:"omitempty,max=100"`
}

// UpdateRoleRequest тело запроса смены роли администратором.
type UpdateRoleRequest struct {
	Role Role `json:"role" validate:"required,oneof=STUDENT INSTRUCTOR ADMIN"`
}

// AuthResult результат регистрации или входа.
type AuthResult struct {
	User         *User  `json:"user"`
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}

// TokenPair пара токенов доступа и обновления.
type TokenPair struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}
