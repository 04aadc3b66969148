// Package migrations применяет SQL-миграции схемы users при старте сервиса
// и сообщает, до какой версии дошла схема.
package migrations

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	pgxv5 "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// ErrDirtySchema — одна из прошлых миграций оборвалась на середине.
// Схему нужно поправить вручную, автоматически сервис её не трогает.
var ErrDirtySchema = errors.New("schema is dirty after an interrupted migration")

// Run применяет миграции из каталога path и возвращает итоговую версию схемы.
// Отсутствие новых миграций не считается ошибкой.
func Run(db *sql.DB, path string) (uint, error) {
	const op = "migrations.Run"

	driver, err := pgxv5.WithInstance(db, &pgxv5.Config{})
	if err != nil {
		return 0, fmt.Errorf("%s: driver: %w", op, err)
	}
	m, err := migrate.NewWithDatabaseInstance("file://"+path, "pgx_v5", driver)
	if err != nil {
		return 0, fmt.Errorf("%s: source %s: %w", op, path, err)
	}

	var dirty migrate.ErrDirty
	switch err = m.Up(); {
	case err == nil, errors.Is(err, migrate.ErrNoChange):
	case errors.As(err, &dirty):
		return uint(dirty.Version), fmt.Errorf("%s: %w: version %d", op, ErrDirtySchema, dirty.Version)
	default:
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	version, _, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("%s: version: %w", op, err)
	}
	return version, nil
}
