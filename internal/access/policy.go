// Package access описывает декларативную политику доступа к маршрутам.
//
// Требование маршрута задаётся один раз при регистрации, а решение
// вычисляется чистой функцией Evaluate по вызывающему и факту наличия
// активной подписки. Решение не кешируется между запросами.
package access

import "github.com/magabrotheeeer/omniclass/internal/models"

// Caller аутентифицированный пользователь запроса.
type Caller struct {
	UserID string
	Email  string
	Role   models.Role
}

// IsAdmin сообщает, является ли пользователь администратором.
func (c Caller) IsAdmin() bool {
	return c.Role == models.RoleAdmin
}

// Requirement требование маршрута. Нулевое значение означает
// «достаточно аутентификации».
type Requirement struct {
	Role         models.Role
	Subscription models.SubscriptionType
}

// Authenticated требование только валидного токена.
var Authenticated = Requirement{}

// RequireRole требование точного совпадения роли.
func RequireRole(role models.Role) Requirement {
	return Requirement{Role: role}
}

// RequireSubscription требование активной подписки типа t.
func RequireSubscription(t models.SubscriptionType) Requirement {
	return Requirement{Subscription: t}
}

// Decision результат проверки доступа.
type Decision int

const (
	Allow Decision = iota
	DenyRole
	DenySubscription
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case DenyRole:
		return "insufficient role"
	case DenySubscription:
		return "active subscription required"
	default:
		return "unknown"
	}
}

// NeedsSubscriptionLookup сообщает, нужно ли искать активную подписку,
// чтобы принять решение. Администратор проверку подписки не проходит.
func NeedsSubscriptionLookup(c Caller, r Requirement) bool {
	return r.Subscription != "" && !c.IsAdmin()
}

// Evaluate принимает решение о доступе. hasActive учитывается,
// только если NeedsSubscriptionLookup вернул true.
func Evaluate(c Caller, r Requirement, hasActive bool) Decision {
	if r.Role != "" && c.Role != r.Role {
		return DenyRole
	}
	if NeedsSubscriptionLookup(c, r) && !hasActive {
		return DenySubscription
	}
	return Allow
}
