// Package smtp предоставляет транспорт для отправки писем через SMTP с STARTTLS.
package smtp

import "io"

// Client часть *smtp.Client, используемая при отправке письма.
type Client interface {
	Mail(from string) error
	Rcpt(to string) error
	Data() (io.WriteCloser, error)
	Quit() error
	Close() error
}
