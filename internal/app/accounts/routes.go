package accounts

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/Aline875/back/internal/http/handlers/auth/login"
	"github.com/Aline875/back/internal/http/handlers/auth/register"
	"github.com/Aline875/back/internal/http/handlers/health"
	"github.com/Aline875/back/internal/http/handlers/users/list"
	"github.com/Aline875/back/internal/http/handlers/users/password"
	"github.com/Aline875/back/internal/http/handlers/users/profile"
	"github.com/Aline875/back/internal/http/handlers/users/remove"
	"github.com/Aline875/back/internal/http/handlers/users/update"
	"github.com/Aline875/back/internal/http/middlewarectx"
	accountsservice "github.com/Aline875/back/internal/services/accounts"
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, service *accountsservice.Service, db health.Pinger, gatherer prometheus.Gatherer) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Post("/register", register.New(logger, service).ServeHTTP)
		r.Post("/login", login.New(logger, service).ServeHTTP)
		r.Get("/health", health.New(logger, db).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(service, logger))
			r.Get("/users/me", profile.New(logger, service).ServeHTTP)
			r.Put("/users/me", update.New(logger, service).ServeHTTP)
			r.Delete("/users/me", remove.New(logger, service).ServeHTTP)
			r.Put("/users/me/password", password.New(logger, service).ServeHTTP)
			r.Get("/users", list.New(logger, service).ServeHTTP)
		})
	})

	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
