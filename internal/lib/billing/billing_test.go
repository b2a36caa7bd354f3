package billing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/magabrotheeeer/omniclass/internal/models"
)

func TestEndDate(t *testing.T) {
	tests := []struct {
		name   string
		start  time.Time
		period models.BillingPeriod
		want   time.Time
	}{
		{
			name:   "monthly adds one calendar month",
			start:  time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC),
			period: models.BillingMonthly,
			want:   time.Date(2024, 4, 15, 10, 30, 0, 0, time.UTC),
		},
		{
			name:   "yearly adds one calendar year",
			start:  time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC),
			period: models.BillingYearly,
			want:   time.Date(2025, 3, 15, 10, 30, 0, 0, time.UTC),
		},
		{
			name:   "monthly across year boundary",
			start:  time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC),
			period: models.BillingMonthly,
			want:   time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:   "monthly from month end normalizes",
			start:  time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
			period: models.BillingMonthly,
			want:   time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC),
		},
		{
			name:   "yearly from leap day normalizes",
			start:  time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
			period: models.BillingYearly,
			want:   time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:   "unknown period keeps start",
			start:  time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
			period: models.BillingPeriod("weekly"),
			want:   time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			name:   "empty period keeps start",
			start:  time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
			period: "",
			want:   time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EndDate(tt.start, tt.period))
		})
	}
}
