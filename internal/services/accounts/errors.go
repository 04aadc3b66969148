package accounts

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation — некорректные входные данные. Конкретное поле описывает *ValidationError.
	ErrValidation = errors.New("validation error")
	// ErrDuplicateEmail — email уже зарегистрирован.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrDuplicateUsername — username уже занят.
	ErrDuplicateUsername = errors.New("username already taken")
	// ErrInvalidCredentials — неверный email или пароль. Сообщение одинаково
	// для несуществующего аккаунта и неверного пароля.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrSamePassword — новый пароль совпадает с текущим.
	ErrSamePassword = errors.New("new password must differ from current password")
	// ErrNotFound — пользователь не найден.
	ErrNotFound = errors.New("user not found")
	// ErrInvalidToken — токен подделан, повреждён или истёк.
	ErrInvalidToken = errors.New("invalid or expired token")
	// ErrStore — неклассифицированная ошибка хранилища.
	ErrStore = errors.New("storage failure")
)

// ValidationError описывает первое поле, не прошедшее проверку.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("field %s %s", e.Field, e.Reason)
}

// Unwrap позволяет проверять ошибку через errors.Is(err, ErrValidation).
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// Classify возвращает короткое имя класса ошибки для метрик и логов.
func Classify(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrDuplicateEmail):
		return "duplicate_email"
	case errors.Is(err, ErrDuplicateUsername):
		return "duplicate_username"
	case errors.Is(err, ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, ErrSamePassword):
		return "same_password"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidToken):
		return "invalid_token"
	default:
		return "internal"
	}
}
