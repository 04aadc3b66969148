// Package register реализует HTTP-обработчик самостоятельной регистрации пользователя.
//
// Обработчик декодирует JSON, передаёт данные сервису учётных записей
// и возвращает созданного пользователя вместе с сессионным токеном.
// Роль из тела запроса не принимается: такие пользователи всегда common.
package register

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/Aline875/back/internal/http/response"
	"github.com/Aline875/back/internal/lib/sl"
	"github.com/Aline875/back/internal/models"
	"github.com/Aline875/back/internal/services/accounts"
)

// Request — входные данные для регистрации.
type Request struct {
	Username string `json:"username" example:"alice"`
	Email    string `json:"email" example:"alice@example.com"`
	Password string `json:"password" example:"secret1"`
}

// Service описывает регистрацию в сервисе учётных записей.
type Service interface {
	Register(ctx context.Context, in accounts.RegisterInput) (*accounts.AuthResult, error)
}

// Handler обрабатывает запросы на регистрацию.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создаёт Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Регистрация нового пользователя
// @Description Создаёт пользователя с ролью common и возвращает его вместе с токеном.
// @Tags Auth
// @Accept  json
// @Produce json
// @Param   request body Request true "Данные для регистрации"
// @Success 201 {object} response.Response{data=accounts.AuthResult} "Пользователь создан"
// @Failure 400 {object} response.ErrorResponse "Ошибка валидации или пользователь уже существует"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /register [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.register"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	res, err := h.service.Register(r.Context(), accounts.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Role:     models.RoleCommon,
	})
	if err != nil {
		log.Warn("registration failed", sl.Err(err))
		response.FromError(w, r, err)
		return
	}

	log.Info("user registered", slog.Int64("user_id", res.User.ID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(res))
}
