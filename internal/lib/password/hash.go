// Package password реализует хеширование и проверку паролей на основе bcrypt.
//
// Hash создаёт солёный bcrypt-хеш, Verify сравнивает пароль с хешем
// за постоянное время. Несовпадение пароля не считается ошибкой.
package password

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// MaxLength — максимальная длина пароля в байтах, которую принимает bcrypt.
const MaxLength = 72

// Hasher хеширует пароли с заданной стоимостью (work factor).
type Hasher struct {
	cost int
}

// NewHasher создаёт Hasher. Стоимость вне диапазона bcrypt заменяется на
// bcrypt.DefaultCost. Сервис до этого не доходит: config.Load отклоняет
// такие значения при старте.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

// Cost возвращает используемую стоимость хеширования.
func (h *Hasher) Cost() int {
	return h.cost
}

// Hash принимает пароль пользователя и возвращает его bcrypt-хеш.
// Каждый вызов использует новую соль, поэтому хеши одного пароля различаются.
func (h *Hasher) Hash(plain string) (string, error) {
	const op = "password.Hash"
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return string(hashed), nil
}

// Verify сравнивает пароль с bcrypt-хешем.
//
// Возвращает false без ошибки, если пароль не подходит, и ошибку,
// только если сам хеш повреждён.
func (h *Hasher) Verify(plain, hashed string) (bool, error) {
	const op = "password.Verify"
	err := bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("%s: %w", op, err)
	}
}
