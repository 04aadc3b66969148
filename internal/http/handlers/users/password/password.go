// Package password реализует HTTP-обработчик смены пароля текущего пользователя.
package password

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/Aline875/back/internal/http/middlewarectx"
	"github.com/Aline875/back/internal/http/response"
	"github.com/Aline875/back/internal/lib/sl"
	"github.com/Aline875/back/internal/services/accounts"
)

// Request — текущий и новый пароли.
type Request struct {
	CurrentPassword string `json:"current_password" example:"secret1"`
	NewPassword     string `json:"new_password" example:"secret2"`
}

type Handler struct {
	log     *slog.Logger
	service Service
}

type Service interface {
	ChangePassword(ctx context.Context, id int64, in accounts.ChangePasswordInput) error
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Смена пароля
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body Request true "Текущий и новый пароли"
// @Success 200 {object} response.Response "Пароль изменён"
// @Failure 400 {object} response.ErrorResponse "Ошибка валидации или пароль не изменился"
// @Failure 401 {object} response.ErrorResponse "Неверный текущий пароль или токен"
// @Failure 404 {object} response.ErrorResponse "Пользователь не найден"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /users/me/password [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.users.password"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, ok := middlewarectx.UserIDFrom(r.Context())
	if !ok {
		log.Error("user identification missing")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("user identification missing"))
		return
	}

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	err := h.service.ChangePassword(r.Context(), id, accounts.ChangePasswordInput{
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	})
	if err != nil {
		log.Warn("failed to change password", sl.Err(err))
		response.FromError(w, r, err)
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"message": "password changed",
	}))
}
