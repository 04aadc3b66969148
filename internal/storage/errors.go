package storage

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrUserNotFound — пользователь не найден.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailExists — email уже занят (без учёта регистра).
	ErrEmailExists = errors.New("email already exists")
	// ErrUsernameExists — username уже занят (без учёта регистра).
	ErrUsernameExists = errors.New("username already exists")
)

const (
	uniqueViolationCode = "23505"

	emailUniqueIndex    = "users_email_lower_key"
	usernameUniqueIndex = "users_username_lower_key"
)

// translateUniqueViolation переводит нарушение уникального индекса users
// в доменную ошибку. Остальные ошибки возвращаются как есть.
func translateUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolationCode {
		return err
	}
	switch pgErr.ConstraintName {
	case emailUniqueIndex:
		return ErrEmailExists
	case usernameUniqueIndex:
		return ErrUsernameExists
	default:
		return err
	}
}
