// Package sender собирает процесс доставки писем: читает очередь уведомлений
// и отправляет письма через SMTP.
package sender

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/omniclass/internal/config"
	"github.com/magabrotheeeer/omniclass/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/omniclass/internal/lib/sl"
	"github.com/magabrotheeeer/omniclass/internal/lib/smtp"
	senderservice "github.com/magabrotheeeer/omniclass/internal/services/sender"
)

// App потребитель очереди почтовых уведомлений.
type App struct {
	conn          *amqp.Connection
	ch            *amqp.Channel
	senderService *senderservice.Service
	logger        *slog.Logger
}

// New подключается к брокеру и объявляет очереди уведомлений.
func New(_ context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "sender.New"

	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.NotificationQueues())
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	transport := smtp.NewTransport(cfg.SMTP, logger)

	return &App{
		conn:          conn,
		ch:            ch,
		senderService: senderservice.NewService(transport, logger),
		logger:        logger,
	}, nil
}

// Run обрабатывает письма до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	const op = "sender.Run"

	err := rabbitmq.ConsumerMessage(ctx, a.ch, rabbitmq.EmailQueue, a.logger, a.senderService.Handle)
	if err != nil {
		a.logger.Error("failed to start email consumer", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	a.logger.Info("email consumer started", slog.String("queue", rabbitmq.EmailQueue))

	<-ctx.Done()
	a.logger.Info("sender service shutting down gracefully")

	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", sl.Err(err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", sl.Err(err))
	}
	return nil
}
