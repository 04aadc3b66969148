package accounts

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator"

	"github.com/Aline875/back/internal/lib/password"
)

const (
	minUsernameLength = 3
	minPasswordLength = 6
)

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	// bcrypt принимает не больше 72 байт.
	_ = v.RegisterValidation("bcrypt", func(fl validator.FieldLevel) bool {
		return len(fl.Field().String()) <= password.MaxLength
	})
	return v
}

// validateStruct проверяет s и возвращает *ValidationError для первого
// поля в порядке объявления.
func (s *Service) validateStruct(v any) error {
	err := s.validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &ValidationError{Field: "request", Reason: "is not valid"}
	}
	first := verrs[0]
	return &ValidationError{Field: first.Field(), Reason: reason(first)}
}

func reason(fe validator.FieldError) string {
	switch fe.ActualTag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "contains":
		return "must be a valid email address"
	case "bcrypt":
		return fmt.Sprintf("must be at most %d bytes", password.MaxLength)
	default:
		return "is not valid"
	}
}

func normalizeUsername(username string) string {
	return strings.TrimSpace(username)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
