// Package founders определяет роль, назначаемую при регистрации по списку адресов основателей.
package founders

import (
	"strings"

	"github.com/magabrotheeeer/omniclass/internal/models"
)

var emails = map[string]struct{}{
	"nyakabawurr@gmail.com": {},
	"gzinyenya@gmail.com":   {},
}

// IsFounder сообщает, входит ли адрес в список основателей. Регистр не учитывается.
func IsFounder(email string) bool {
	_, ok := emails[strings.ToLower(strings.TrimSpace(email))]
	return ok
}

// RoleFor возвращает роль нового пользователя: ADMIN для основателей, иначе STUDENT.
func RoleFor(email string) models.Role {
	if IsFounder(email) {
		return models.RoleAdmin
	}
	return models.RoleStudent
}
