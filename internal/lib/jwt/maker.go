// Package jwt реализует выпуск и проверку подписанных сессионных токенов.
//
// Maker определяет интерфейс для создания и разбора токенов с полями id, email и role.
// MakerImpl — реализация на HS256 с общим секретом и фиксированным сроком жизни.
package jwt

import (
	"errors"
	"time"
)

// TokenTTL — срок жизни сессионного токена.
const TokenTTL = 24 * time.Hour

// MinSecretLength — минимальная длина секрета подписи в байтах.
const MinSecretLength = 32

// ErrInvalidToken возвращается для подделанного, повреждённого или истёкшего токена.
var ErrInvalidToken = errors.New("invalid token")

// ErrWeakSecret возвращается, если секрет подписи короче MinSecretLength.
var ErrWeakSecret = errors.New("jwt secret is too short")

// Maker описывает интерфейс для генерации и разбора токенов.
type Maker interface {
	GenerateToken(id int64, email, role string) (string, error)
	ParseToken(tokenStr string) (*CustomClaims, error)
}

// MakerImpl реализует Maker. Секрет задаётся один раз при создании и не меняется.
type MakerImpl struct {
	secretKey []byte           // Секретный ключ для подписи токенов.
	tokenTTL  time.Duration    // Время жизни токена.
	now       func() time.Time // Источник времени, подменяется в тестах.
}

// NewJWTMaker создаёт MakerImpl на основе секретного ключа.
func NewJWTMaker(secretKey string) (*MakerImpl, error) {
	if len(secretKey) < MinSecretLength {
		return nil, ErrWeakSecret
	}
	return &MakerImpl{
		secretKey: []byte(secretKey),
		tokenTTL:  TokenTTL,
		now:       time.Now,
	}, nil
}
