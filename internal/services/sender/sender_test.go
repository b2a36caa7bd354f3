package sender

import (
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/omniclass/internal/lib/smtp"
	"github.com/magabrotheeeer/omniclass/internal/models"
)

type MockTransport struct {
	mock.Mock
}

func (m *MockTransport) Connect() (smtp.Client, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(smtp.Client), args.Error(1)
}

func (m *MockTransport) GetSMTPUser() string {
	args := m.Called()
	return args.String(0)
}

type MockSMTPClient struct {
	mock.Mock
}

func (m *MockSMTPClient) Mail(from string) error {
	return m.Called(from).Error(0)
}

func (m *MockSMTPClient) Rcpt(to string) error {
	return m.Called(to).Error(0)
}

func (m *MockSMTPClient) Data() (io.WriteCloser, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.WriteCloser), args.Error(1)
}

func (m *MockSMTPClient) Close() error {
	return m.Called().Error(0)
}

func (m *MockSMTPClient) Quit() error {
	return m.Called().Error(0)
}

type bufferWriter struct {
	strings.Builder
	closed bool
}

func (b *bufferWriter) Close() error {
	b.closed = true
	return nil
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestService_Handle(t *testing.T) {
	const resetBody = `{"kind":"password_reset","email":"student@example.com","firstName":"Rudo","data":{"resetUrl":"http://localhost:3000/reset-password?token=abc"}}`

	tests := []struct {
		name          string
		body          []byte
		setupMocks    func(*MockTransport, *bufferWriter)
		expectedError string
		wantInBody    []string
	}{
		{
			name: "password reset",
			body: []byte(resetBody),
			setupMocks: func(tr *MockTransport, w *bufferWriter) {
				client := new(MockSMTPClient)
				tr.On("GetSMTPUser").Return("noreply@omniclass.test")
				tr.On("Connect").Return(client, nil).Once()
				client.On("Mail", "noreply@omniclass.test").Return(nil).Once()
				client.On("Rcpt", "student@example.com").Return(nil).Once()
				client.On("Data").Return(w, nil).Once()
				client.On("Quit").Return(nil).Once()
				client.On("Close").Return(nil).Once()
			},
			wantInBody: []string{"Subject: Reset your OmniClass password", "Hello Rudo", "token=abc"},
		},
		{
			name: "payment completed",
			body: []byte(`{"kind":"payment_completed","email":"payer@example.com","data":{"amount":"10.00","currency":"USD","reference":"OMNI-1-ABCDEF12"}}`),
			setupMocks: func(tr *MockTransport, w *bufferWriter) {
				client := new(MockSMTPClient)
				tr.On("GetSMTPUser").Return("noreply@omniclass.test")
				tr.On("Connect").Return(client, nil).Once()
				client.On("Mail", "noreply@omniclass.test").Return(nil).Once()
				client.On("Rcpt", "payer@example.com").Return(nil).Once()
				client.On("Data").Return(w, nil).Once()
				client.On("Quit").Return(nil).Once()
				client.On("Close").Return(nil).Once()
			},
			wantInBody: []string{"Subject: Payment received", "10.00 USD", "OMNI-1-ABCDEF12"},
		},
		{
			name:          "invalid JSON",
			body:          []byte(`invalid json`),
			setupMocks:    func(_ *MockTransport, _ *bufferWriter) {},
			expectedError: "error unmarshalling message",
		},
		{
			name:          "unknown kind",
			body:          []byte(`{"kind":"newsletter","email":"a@b.c"}`),
			setupMocks:    func(_ *MockTransport, _ *bufferWriter) {},
			expectedError: "unknown notification kind",
		},
		{
			name: "SMTP connection error",
			body: []byte(resetBody),
			setupMocks: func(tr *MockTransport, _ *bufferWriter) {
				tr.On("GetSMTPUser").Return("noreply@omniclass.test")
				tr.On("Connect").Return(nil, errors.New("connection error")).Once()
			},
			expectedError: "connection error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transport := new(MockTransport)
			writer := &bufferWriter{}
			tt.setupMocks(transport, writer)

			err := NewService(transport, newNoopLogger()).Handle(tt.body)

			if tt.expectedError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError)
				return
			}
			require.NoError(t, err)
			assert.True(t, writer.closed)
			for _, want := range tt.wantInBody {
				assert.Contains(t, writer.String(), want)
			}
			transport.AssertExpectations(t)
		})
	}
}

func TestRender_DefaultsName(t *testing.T) {
	_, body, err := Render(models.EmailNotification{Kind: models.NotificationPaymentCompleted})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(body, "Hello there,"))
}
