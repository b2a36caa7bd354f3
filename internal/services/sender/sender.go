// Package sender доставляет почтовые уведомления из очереди по SMTP.
package sender

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/omniclass/internal/lib/sl"
	"github.com/magabrotheeeer/omniclass/internal/lib/smtp"
	"github.com/magabrotheeeer/omniclass/internal/models"
)

// ErrUnknownKind в сообщении указан неизвестный вид уведомления.
var ErrUnknownKind = errors.New("unknown notification kind")

// Transport открывает SMTP‑соединение.
type Transport interface {
	Connect() (smtp.Client, error)
	GetSMTPUser() string
}

// Service отправляет письма по сообщениям очереди уведомлений.
type Service struct {
	transport Transport
	log       *slog.Logger
}

// NewService создаёт сервис отправки писем.
func NewService(transport Transport, log *slog.Logger) *Service {
	return &Service{
		transport: transport,
		log:       log,
	}
}

// Handle разбирает сообщение очереди и отправляет письмо.
func (s *Service) Handle(body []byte) error {
	var msg models.EmailNotification
	if err := json.Unmarshal(body, &msg); err != nil {
		s.log.Error("failed to unmarshal message body", sl.Err(err))
		return fmt.Errorf("error unmarshalling message: %w", err)
	}
	if msg.Email == "" {
		return fmt.Errorf("notification without recipient: %s", msg.Kind)
	}

	subject, text, err := Render(msg)
	if err != nil {
		s.log.Error("failed to render notification", sl.Err(err), slog.String("kind", string(msg.Kind)))
		return err
	}
	return s.sendEmail([]string{msg.Email}, subject, text)
}

// Render возвращает тему и текст письма для уведомления.
func Render(msg models.EmailNotification) (subject, body string, err error) {
	name := msg.FirstName
	if name == "" {
		name = "there"
	}

	switch msg.Kind {
	case models.NotificationPasswordReset:
		subject = "Reset your OmniClass password"
		body = fmt.Sprintf("Hello %s,\n\n"+
			"We received a request to reset your OmniClass password.\n"+
			"Open the link below to choose a new one:\n\n%s\n\n"+
			"If you did not request a reset, you can ignore this email.",
			name, msg.Data["resetUrl"])
	case models.NotificationPaymentCompleted:
		subject = "Payment received"
		body = fmt.Sprintf("Hello %s,\n\n"+
			"We received your payment of %s %s (reference %s).\n"+
			"Your OmniClass subscription is now active.",
			name, msg.Data["amount"], msg.Data["currency"], msg.Data["reference"])
	default:
		return "", "", fmt.Errorf("%w: %q", ErrUnknownKind, msg.Kind)
	}
	return subject, body, nil
}

func (s *Service) sendEmail(to []string, subject, bodyText string) error {
	msg := strings.Join([]string{
		"From: " + s.transport.GetSMTPUser(),
		"To: " + strings.Join(to, ";"),
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		bodyText,
	}, "\r\n")

	client, err := s.transport.Connect()
	if err != nil {
		s.log.Error("failed to connect to SMTP server", sl.Err(err))
		return err
	}
	defer client.Close()

	if err := client.Mail(s.transport.GetSMTPUser()); err != nil {
		s.log.Error("failed to set MAIL FROM", slog.String("from", s.transport.GetSMTPUser()), sl.Err(err))
		return err
	}
	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			s.log.Error("failed to set RCPT TO", slog.String("recipient", addr), sl.Err(err))
			return err
		}
	}

	wc, err := client.Data()
	if err != nil {
		s.log.Error("failed to get data writer", sl.Err(err))
		return err
	}
	if _, err = wc.Write([]byte(msg)); err != nil {
		s.log.Error("failed to write email body", sl.Err(err))
		return err
	}
	if err = wc.Close(); err != nil {
		s.log.Error("failed to close data writer", sl.Err(err))
		return err
	}
	if err = client.Quit(); err != nil {
		s.log.Error("failed to quit SMTP client", sl.Err(err))
		return err
	}

	s.log.Info("email sent successfully", slog.Any("to", to))
	return nil
}
