// Package login реализует HTTP-обработчик входа пользователя по email и паролю.
//
// При успешной аутентификации возвращается пользователь и сессионный токен.
// Для неизвестного email и неверного пароля ответ одинаковый.
package login

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/Aline875/back/internal/http/response"
	"github.com/Aline875/back/internal/lib/sl"
	"github.com/Aline875/back/internal/services/accounts"
)

// Request — учётные данные для входа.
type Request struct {
	Email    string `json:"email" example:"alice@example.com"`
	Password string `json:"password" example:"secret1"`
}

// Handler обрабатывает HTTP-запросы для авторизации.
type Handler struct {
	log     *slog.Logger // Логгер для записи операций и ошибок
	service Service      // Сервис учётных записей
}

// Service описывает вход в сервисе учётных записей.
type Service interface {
	Login(ctx context.Context, in accounts.LoginInput) (*accounts.AuthResult, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Авторизация пользователя
// @Description Аутентифицирует пользователя по email и паролю. Возвращает пользователя и токен на 24 часа.
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body Request true "Учетные данные пользователя"
// @Success 200 {object} response.Response{data=accounts.AuthResult} "Успешная авторизация"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON или ошибка валидации"
// @Failure 401 {object} response.ErrorResponse "Неверные учетные данные"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /login [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.login"

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

	res, err := h.service.Login(r.Context(), accounts.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		log.Warn("login failed", sl.Err(err))
		response.FromError(w, r, err)
		return
	}

	log.Info("login success", slog.Int64("user_id", res.User.ID))
	render.JSON(w, r, response.StatusOKWithData(res))
}
