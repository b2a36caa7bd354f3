package models

import "time"

// PaymentMethod способ оплаты.
type PaymentMethod string

const (
	PaymentEcocash      PaymentMethod = "ECOCASH"
	PaymentOneMoney     PaymentMethod = "ONEMONEY"
	PaymentOmari        PaymentMethod = "OMARI"
	PaymentBankCard     PaymentMethod = "BANK_CARD"
	PaymentBankTransfer PaymentMethod = "BANK_TRANSFER"
)

// Valid сообщает, является ли значение известным способом оплаты.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentEcocash, PaymentOneMoney, PaymentOmari, PaymentBankCard, PaymentBankTransfer:
		return true
	}
	return false
}

// PaymentStatus статус платежа.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "PENDING"
	PaymentCompleted PaymentStatus = "COMPLETED"
	PaymentFailed    PaymentStatus = "FAILED"
)

// Valid сообщает, является ли значение известным статусом платежа.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentCompleted, PaymentFailed:
		return true
	}
	return false
}

// Payment попытка оплаты подписки.
type Payment struct {
	ID               string         `json:"id"`
	SubscriptionID   string         `json:"subscriptionId"`
	UserID           string         `json:"userId"`
	Amount           float64        `json:"amount"`
	Currency         string         `json:"currency"`
	PaymentMethod    PaymentMethod  `json:"paymentMethod"`
	Status           PaymentStatus  `json:"status"`
	TransactionID    string         `json:"transactionId"`
	PaymentReference string         `json:"paymentReference"`
	Metadata         map[string]any `json:"metadata,omitempty"`
	CreatedAt        time.Time      `json:"createdAt"`
	UpdatedAt        time.Time      `json:"updatedAt"`
	Subscription     *Subscription  `json:"subscription,omitempty"`
}

// InitiatePaymentRequest тело запроса на создание платежа.
type InitiatePaymentRequest struct {
	SubscriptionID string         `json:"subscriptionId" validate:"required,uuid"`
	PaymentMethod  PaymentMethod  `json:"paymentMethod" validate:"required,oneof=ECOCASH ONEMONEY OMARI BANK_CARD BANK_TRANSFER"`
	Amount         *float64       `json:"amount" validate:"required,gte=0"`
	Currency       string         `json:"currency" validate:"omitempty,len=3"`
	PhoneNumber    string         `json:"phoneNumber,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

// PaymentInitiation результат создания платежа.
type PaymentInitiation struct {
	Payment     *Payment `json:"payment"`
	RedirectURL string   `json:"redirectUrl"`
}

// PaymentCallbackRequest тело уведомления платёжного шлюза.
type PaymentCallbackRequest struct {
	TransactionID string         `json:"transactionId" validate:"required"`
	Status        PaymentStatus  `json:"status" validate:"required,oneof=PENDING COMPLETED FAILED"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}
