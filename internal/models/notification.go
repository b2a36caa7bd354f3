package models

// NotificationKind вид почтового уведомления.
type NotificationKind string

const (
	NotificationPasswordReset    NotificationKind = "password_reset"
	NotificationPaymentCompleted NotificationKind = "payment_completed"
)

// EmailNotification сообщение очереди уведомлений.
type EmailNotification struct {
	Kind      NotificationKind  `json:"kind"`
	Email     string            `json:"email"`
	FirstName string            `json:"firstName"`
	Data      map[string]string `json:"data,omitempty"`
}
