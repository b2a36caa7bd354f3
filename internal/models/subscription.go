package models

import "time"

// SubscriptionType тип подписки.
type SubscriptionType string

const (
	SubscriptionStudent    SubscriptionType = "STUDENT"
	SubscriptionInstructor SubscriptionType = "INSTRUCTOR"
)

// SubscriptionStatus статус подписки.
type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "ACTIVE"
	SubscriptionCancelled SubscriptionStatus = "CANCELLED"
	SubscriptionExpired   SubscriptionStatus = "EXPIRED"
)

// BillingPeriod период оплаты подписки.
type BillingPeriod string

const (
	BillingMonthly BillingPeriod = "monthly"
	BillingYearly  BillingPeriod = "yearly"
)

// Subscription запись о подписке пользователя.
// Активной считается подписка со статусом ACTIVE и EndDate не раньше текущего момента.
type Subscription struct {
	ID            string             `json:"id"`
	UserID        string             `json:"userId"`
	Type          SubscriptionType   `json:"type"`
	Status        SubscriptionStatus `json:"status"`
	StartDate     time.Time          `json:"startDate"`
	EndDate       time.Time          `json:"endDate"`
	BillingPeriod BillingPeriod      `json:"billingPeriod"`
	Amount        float64            `json:"amount"`
	CreatedAt     time.Time          `json:"createdAt"`
	UpdatedAt     time.Time          `json:"updatedAt"`
}

// CreateSubscriptionRequest тело запроса оформления подписки.
type CreateSubscriptionRequest struct {
	BillingPeriod BillingPeriod `json:"billingPeriod" validate:"omitempty,oneof=monthly yearly"`
}

// SubscriptionOverview ответ на запрос текущих подписок пользователя.
type SubscriptionOverview struct {
	Student                   *Subscription `json:"student,omitempty"`
	Instructor                *Subscription `json:"instructor,omitempty"`
	HasStudentSubscription    bool          `json:"hasStudentSubscription"`
	HasInstructorSubscription bool          `json:"hasInstructorSubscription"`
	HasActiveSubscription     bool          `json:"hasActiveSubscription,omitempty"`
	IsAdmin                   bool          `json:"isAdmin,omitempty"`
}
