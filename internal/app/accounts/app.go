// Package accounts собирает HTTP-приложение сервиса учётных записей:
// хранилище, миграции, кеш, публикацию событий, метрики и маршруты.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/Aline875/back/internal/cache"
	"github.com/Aline875/back/internal/config"
	"github.com/Aline875/back/internal/lib/jwt"
	"github.com/Aline875/back/internal/lib/metrics"
	"github.com/Aline875/back/internal/lib/password"
	"github.com/Aline875/back/internal/lib/rabbitmq"
	"github.com/Aline875/back/internal/lib/sl"
	"github.com/Aline875/back/internal/migrations"
	accountsservice "github.com/Aline875/back/internal/services/accounts"
	"github.com/Aline875/back/internal/storage"
)

const shutdownTimeout = 15 * time.Second

// App держит HTTP-сервер и все ресурсы, которые нужно закрыть при остановке.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *storage.Storage
	cache  *cache.Cache
	events *rabbitmq.Publisher
}

// New подключается к базе, применяет миграции, при наличии настроек
// подключает Redis и RabbitMQ и собирает роутер.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *App, err error) {
	const op = "app.accounts.New"
	app := &App{logger: logger}
	defer func() {
		if err != nil {
			app.close()
		}
	}()

	app.db, err = storage.New(ctx, cfg.StorageConnectionString, storage.PoolOptions{
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	version, err := migrations.Run(app.db.DB, cfg.MigrationsPath)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	logger.Info("migrations applied",
		slog.String("path", cfg.MigrationsPath),
		slog.Uint64("version", uint64(version)),
	)

	maker, err := jwt.NewJWTMaker(cfg.JWTSecretKey)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	opts := []accountsservice.Option{
		accountsservice.WithMetrics(metrics.New(registry)),
	}

	if cfg.AddressRedis != "" {
		app.cache, err = cache.InitServer(ctx, cfg.RedisConnection)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		opts = append(opts, accountsservice.WithCache(app.cache, cfg.ProfileTTL))
		logger.Info("profile cache enabled", slog.String("address", cfg.AddressRedis))
	}

	if cfg.RabbitMQ.URL != "" {
		app.events, err = rabbitmq.NewPublisher(ctx, cfg.RabbitMQ.URL, cfg.Exchange, cfg.Retries, cfg.RetryDelay)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		opts = append(opts, accountsservice.WithPublisher(app.events))
		logger.Info("account events enabled", slog.String("exchange", cfg.Exchange))
	}

	service, err := accountsservice.NewService(
		logger,
		app.db,
		password.NewHasher(cfg.BcryptCost),
		maker,
		opts...,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	router := chi.NewRouter()
	RegisterRoutes(router, logger, service, app.db, registry)

	app.server = &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return app, nil
}

// Handler возвращает роутер приложения.
func (a *App) Handler() http.Handler {
	return a.server.Handler
}

// Run запускает HTTP-сервер и останавливает его при отмене ctx.
func (a *App) Run(ctx context.Context) error {
	defer a.close()

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		return a.server.Shutdown(timeoutCtx)
	}
}

func (a *App) close() {
	if a.events != nil {
		if err := a.events.Close(); err != nil {
			a.logger.Warn("failed to close rabbitmq publisher", sl.Err(err))
		}
		a.events = nil
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Warn("failed to close redis", sl.Err(err))
		}
		a.cache = nil
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("failed to close database", sl.Err(err))
		}
		a.db = nil
	}
}
