// Package omniclass собирает HTTP API платформы: хранилище, кеш, брокер,
// клиент ИИ и сервисы предметной области.
package omniclass

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/omniclass/internal/aiprovider"
	"github.com/magabrotheeeer/omniclass/internal/cache"
	"github.com/magabrotheeeer/omniclass/internal/config"
	"github.com/magabrotheeeer/omniclass/internal/lib/jwt"
	"github.com/magabrotheeeer/omniclass/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/omniclass/internal/lib/sl"
	"github.com/magabrotheeeer/omniclass/internal/migrations"
	"github.com/magabrotheeeer/omniclass/internal/paymentgateway"
	adminsvc "github.com/magabrotheeeer/omniclass/internal/services/admin"
	authsvc "github.com/magabrotheeeer/omniclass/internal/services/auth"
	chatsvc "github.com/magabrotheeeer/omniclass/internal/services/chat"
	filesvc "github.com/magabrotheeeer/omniclass/internal/services/files"
	instructorsvc "github.com/magabrotheeeer/omniclass/internal/services/instructor"
	paymentsvc "github.com/magabrotheeeer/omniclass/internal/services/payment"
	subjectsvc "github.com/magabrotheeeer/omniclass/internal/services/subject"
	subscriptionsvc "github.com/magabrotheeeer/omniclass/internal/services/subscription"
	usersvc "github.com/magabrotheeeer/omniclass/internal/services/user"
	videosvc "github.com/magabrotheeeer/omniclass/internal/services/video"
	"github.com/magabrotheeeer/omniclass/internal/storage/filestore"
	"github.com/magabrotheeeer/omniclass/internal/storage/repository"
)

const shutdownTimeout = 15 * time.Second

// App HTTP‑сервер платформы и ресурсы, которые нужно закрыть при остановке.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
	cache  *cache.Cache
	conn   *amqp.Connection
	ch     *amqp.Channel
	runner *videosvc.Runner
}

// New открывает соединения, применяет миграции и собирает маршрутизатор.
// Уже открытые ресурсы закрываются, если следующий шаг завершился ошибкой.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *App, err error) {
	const op = "omniclass.New"

	a := &App{logger: logger, runner: videosvc.NewRunner()}
	defer func() {
		if err != nil {
			a.closeResources()
		}
	}()

	a.db, err = repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = migrations.Run(a.db.DB, cfg.MigrationsPath); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	a.cache, err = cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	a.conn, err = rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	a.ch, err = rabbitmq.SetupChannel(a.conn, rabbitmq.NotificationQueues())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	publisher := rabbitmq.NewPublisher(a.ch)

	blobs, err := filestore.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ai := aiprovider.New(cfg.AI, &http.Client{Timeout: cfg.AI.Timeout})
	gateway := paymentgateway.New(cfg.Payment.BaseURL)

	services := Services{
		Auth: authsvc.NewService(a.db,
			jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL),
			jwt.NewJWTMaker(cfg.RefreshSecretKey, cfg.RefreshTTL),
			a.cache, publisher,
			authsvc.Options{ResetTokenTTL: cfg.ResetTokenTTL, ResetURL: cfg.ResetURL},
			logger),
		Users:         usersvc.NewService(a.db, logger),
		Subscriptions: subscriptionsvc.NewService(a.db, cfg.Pricing, logger),
		Payments:      paymentsvc.NewService(a.db, gateway, publisher, cfg.Currency, logger),
		Subjects:      subjectsvc.NewService(a.db, a.cache, cfg.AI.Model, logger),
		Chat:          chatsvc.NewService(a.db, ai, logger),
		Video:         videosvc.NewService(a.db, ai, a.runner, logger),
		Instructor:    instructorsvc.NewService(a.db, ai, cfg.AI.Model, logger),
		Files:         filesvc.NewService(a.db, blobs, cfg.MaxUploadBytes, logger),
		Admin:         adminsvc.NewService(a.db, logger),
	}

	router := chi.NewRouter()
	RegisterRoutes(router, cfg, logger, services)

	a.server = &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return a, nil
}

// Run обслуживает запросы до отмены ctx, затем останавливает сервер,
// дожидается фоновой генерации видео и закрывает соединения.
func (a *App) Run(ctx context.Context) error {
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
		a.closeResources()
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		if runErr := a.runner.Shutdown(timeoutCtx); runErr != nil {
			a.logger.Warn("video generation still in flight", slog.Int("tasks", a.runner.InFlight()), sl.Err(runErr))
		}
		a.closeResources()
		return err
	}
}

func (a *App) closeResources() {
	if a.ch != nil {
		if err := a.ch.Close(); err != nil {
			a.logger.Error("failed to close channel", sl.Err(err))
		}
	}
	if a.conn != nil {
		if err := a.conn.Close(); err != nil {
			a.logger.Error("failed to close connection", sl.Err(err))
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Error("failed to close cache", sl.Err(err))
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Error("failed to close storage", sl.Err(err))
		}
	}
}
