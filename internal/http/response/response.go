// Package response содержит вспомогательные типы и функции для формирования
// унифицированных JSON‑ответов HTTP‑обработчиков. Пакет упрощает возврат
// успешных ответов, ошибок и перевод ошибок сервиса в HTTP-статусы.
package response

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"

	"github.com/Aline875/back/internal/services/accounts"
)

// Response описывает стандартную структуру JSON‑ответа сервера.
// Поле Status — статус запроса ("OK" или "Error").
// Поле Error — текст ошибки (опционально, при неуспехе).
// Поле Data — данные ответа (опционально, при успехе).
type Response struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
	Data   any    `json:"data,omitempty"`
}

// ErrorResponse — структура ошибки для Swagger-документации.
// Используется в аннотациях @Failure как возвращаемый тип ошибки.
type ErrorResponse struct {
	Status string `json:"status" example:"Error"`
	Error  string `json:"error" example:"invalid request body"`
}

const (
	// StatusOK — значение статуса для успешного ответа.
	StatusOK = "OK"
	// StatusError — значение статуса для ответа с ошибкой.
	StatusError = "Error"
)

// MsgInternal — текст для неклассифицированных ошибок. Подробности
// хранилища наружу не передаются.
const MsgInternal = "internal error"

// StatusOKWithData возвращает успешный Response с переданными данными.
func StatusOKWithData(data any) Response {
	return Response{
		Status: StatusOK,
		Data:   data,
	}
}

// Error возвращает Response с ошибкой и переданным сообщением.
func Error(msg string) ErrorResponse {
	return ErrorResponse{
		Status: StatusError,
		Error:  msg,
	}
}

// StatusFromError переводит ошибку сервиса учётных записей в HTTP-статус
// и сообщение для клиента.
func StatusFromError(err error) (int, string) {
	var verr *accounts.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, verr.Error()
	case errors.Is(err, accounts.ErrValidation):
		return http.StatusBadRequest, accounts.ErrValidation.Error()
	case errors.Is(err, accounts.ErrDuplicateEmail):
		return http.StatusBadRequest, accounts.ErrDuplicateEmail.Error()
	case errors.Is(err, accounts.ErrDuplicateUsername):
		return http.StatusBadRequest, accounts.ErrDuplicateUsername.Error()
	case errors.Is(err, accounts.ErrSamePassword):
		return http.StatusBadRequest, accounts.ErrSamePassword.Error()
	case errors.Is(err, accounts.ErrInvalidCredentials):
		return http.StatusUnauthorized, accounts.ErrInvalidCredentials.Error()
	case errors.Is(err, accounts.ErrInvalidToken):
		return http.StatusUnauthorized, accounts.ErrInvalidToken.Error()
	case errors.Is(err, accounts.ErrNotFound):
		return http.StatusNotFound, accounts.ErrNotFound.Error()
	default:
		return http.StatusInternalServerError, MsgInternal
	}
}

// FromError пишет в w ответ с ошибкой и статусом, соответствующим err.
func FromError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := StatusFromError(err)
	render.Status(r, status)
	render.JSON(w, r, Error(msg))
}
