package models

// Page параметры постраничной выборки.
type Page struct {
	Page  int
	Limit int
}

// Offset возвращает смещение для SQL‑запроса.
func (p Page) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Pagination блок пагинации в ответе.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// UserList страница пользователей.
type UserList struct {
	Users      []User     `json:"users"`
	Pagination Pagination `json:"pagination"`
}

// SubscriptionFilter фильтр подписок для администратора.
type SubscriptionFilter struct {
	Status SubscriptionStatus
	Type   SubscriptionType
}

// PaymentFilter фильтр платежей для администратора.
type PaymentFilter struct {
	Status PaymentStatus
	Method PaymentMethod
}

// Stats сводная статистика платформы.
type Stats struct {
	Users struct {
		Total       int `json:"total"`
		Students    int `json:"students"`
		Instructors int `json:"instructors"`
		Admins      int `json:"admins"`
	} `json:"users"`
	Subscriptions struct {
		Active int `json:"active"`
	} `json:"subscriptions"`
	Payments struct {
		Completed int     `json:"completed"`
		Revenue   float64 `json:"revenue"`
	} `json:"payments"`
	Content struct {
		Subjects      int `json:"subjects"`
		ChatSessions  int `json:"chatSessions"`
		VideoSessions int `json:"videoSessions"`
	} `json:"content"`
}
