// Package update реализует HTTP-обработчик частичного обновления профиля.
//
// Поля, отсутствующие в теле запроса, не меняются.
package update

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
	"github.com/Aline875/back/internal/models"
	"github.com/Aline875/back/internal/services/accounts"
)

// Request — новые значения профиля.
type Request struct {
	Username *string `json:"username,omitempty" example:"alice2"`
	Email    *string `json:"email,omitempty" example:"alice2@example.com"`
}

// Handler обрабатывает обновление профиля.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает обновление профиля.
type Service interface {
	UpdateProfile(ctx context.Context, id int64, in accounts.UpdateProfileInput) (*models.User, error)
}

// New создаёт Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Обновление профиля
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body Request true "Новые username и/или email"
// @Success 200 {object} response.Response{data=models.User} "Обновлённый профиль"
// @Failure 400 {object} response.ErrorResponse "Ошибка валидации или значение занято"
// @Failure 401 {object} response.ErrorResponse "Нет или неверный токен"
// @Failure 404 {object} response.ErrorResponse "Пользователь не найден"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /users/me [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.users.update"

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

	user, err := h.service.UpdateProfile(r.Context(), id, accounts.UpdateProfileInput{
		Username: req.Username,
		Email:    req.Email,
	})
	if err != nil {
		log.Warn("failed to update profile", sl.Err(err))
		response.FromError(w, r, err)
		return
	}

	log.Info("profile updated", slog.Int64("user_id", id))
	render.JSON(w, r, response.StatusOKWithData(user))
}
