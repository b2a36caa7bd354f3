// Package billing вычисляет границы периода действия подписки.
package billing

import (
	"time"

	"github.com/magabrotheeeer/omniclass/internal/models"
)

// EndDate возвращает дату окончания подписки, начатой в start.
// Месячный период прибавляет один календарный месяц, годовой один календарный год.
// Для неизвестного периода дата окончания совпадает с датой начала.
func EndDate(start time.Time, period models.BillingPeriod) time.Time {
	switch period {
	case models.BillingMonthly:
		return start.AddDate(0, 1, 0)
	case models.BillingYearly:
		return start.AddDate(1, 0, 0)
	default:
		return start
	}
}
