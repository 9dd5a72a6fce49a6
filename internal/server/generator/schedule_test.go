package generator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrijs2005/plantops/internal/server/models"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ptr(t time.Time) *time.Time { return &t }

func TestAddMonths_ClampsToMonthEnd(t *testing.T) {
	tests := []struct {
		in   time.Time
		n    int
		want time.Time
	}{
		{day(2025, time.March, 31), -1, day(2025, time.February, 28)},
		{day(2024, time.March, 31), -1, day(2024, time.February, 29)},
		{day(2025, time.January, 31), 1, day(2025, time.February, 28)},
		{day(2025, time.May, 31), -3, day(2025, time.February, 28)},
		{day(2025, time.January, 15), -12, day(2024, time.January, 15)},
		{day(2025, time.December, 31), 2, day(2026, time.February, 28)},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, addMonths(tt.in, tt.n), "%s %+d", tt.in.Format(time.DateOnly), tt.n)
	}
}

func TestShouldGenerate(t *testing.T) {
	today := day(2025, time.March, 31)

	tests := []struct {
		name string
		m    models.TaskMaster
		want bool
	}{
		{"daily never generated", models.TaskMaster{Frequency: models.FrequencyDaily}, true},
		{"daily generated yesterday", models.TaskMaster{Frequency: models.FrequencyDaily, LastGenerated: ptr(day(2025, time.March, 30).Add(23 * time.Hour))}, true},
		{"daily generated earlier today", models.TaskMaster{Frequency: models.FrequencyDaily, LastGenerated: ptr(today.Add(time.Minute))}, false},
		{"weekly 6 days ago", models.TaskMaster{Frequency: models.FrequencyWeekly, LastGenerated: ptr(day(2025, time.March, 25))}, false},
		{"weekly 7 days ago", models.TaskMaster{Frequency: models.FrequencyWeekly, LastGenerated: ptr(day(2025, time.March, 24).Add(20 * time.Hour))}, true},
		{"monthly clamps feb end", models.TaskMaster{Frequency: models.FrequencyMonthly, LastGenerated: ptr(day(2025, time.February, 28))}, true},
		{"monthly one day short", models.TaskMaster{Frequency: models.FrequencyMonthly, LastGenerated: ptr(day(2025, time.March, 1))}, false},
		{"quarterly due", models.TaskMaster{Frequency: models.FrequencyQuarterly, LastGenerated: ptr(day(2024, time.December, 31))}, true},
		{"quarterly not due", models.TaskMaster{Frequency: models.FrequencyQuarterly, LastGenerated: ptr(day(2025, time.January, 1))}, false},
		{"yearly due", models.TaskMaster{Frequency: models.FrequencyYearly, LastGenerated: ptr(day(2024, time.March, 31))}, true},
		{"yearly not due", models.TaskMaster{Frequency: models.FrequencyYearly, LastGenerated: ptr(day(2024, time.April, 1))}, false},
		{"custom days due", models.TaskMaster{Frequency: models.FrequencyCustom, FrequencyValue: 3, FrequencyUnit: models.UnitDays, LastGenerated: ptr(day(2025, time.March, 28))}, true},
		{"custom days not due", models.TaskMaster{Frequency: models.FrequencyCustom, FrequencyValue: 3, FrequencyUnit: models.UnitDays, LastGenerated: ptr(day(2025, time.March, 29))}, false},
		{"custom weeks due", models.TaskMaster{Frequency: models.FrequencyCustom, FrequencyValue: 2, FrequencyUnit: models.UnitWeeks, LastGenerated: ptr(day(2025, time.March, 17))}, true},
		{"custom weeks not due", models.TaskMaster{Frequency: models.FrequencyCustom, FrequencyValue: 2, FrequencyUnit: models.UnitWeeks, LastGenerated: ptr(day(2025, time.March, 18))}, false},
		{"custom months due", models.TaskMaster{Frequency: models.FrequencyCustom, FrequencyValue: 2, FrequencyUnit: models.UnitMonths, LastGenerated: ptr(day(2025, time.January, 31))}, true},
		{"custom months not due", models.TaskMaster{Frequency: models.FrequencyCustom, FrequencyValue: 2, FrequencyUnit: models.UnitMonths, LastGenerated: ptr(day(2025, time.February, 1))}, false},
		{"custom without value", models.TaskMaster{Frequency: models.FrequencyCustom, FrequencyUnit: models.UnitDays}, false},
		{"custom unknown unit", models.TaskMaster{Frequency: models.FrequencyCustom, FrequencyValue: 1, FrequencyUnit: "hours"}, false},
		{"unknown frequency", models.TaskMaster{Frequency: "hourly"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := tt.m
			assert.Equal(t, tt.want, ShouldGenerate(&m, today))
		})
	}
}

func TestShouldGenerate_ComparesInTodaysLocation(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*3600)
	today := time.Date(2025, time.March, 11, 0, 0, 0, 0, tokyo)

	// 2025-03-10 16:00 UTC is already 2025-03-11 01:00 in Tokyo.
	m := models.TaskMaster{Frequency: models.FrequencyDaily, LastGenerated: ptr(time.Date(2025, time.March, 10, 16, 0, 0, 0, time.UTC))}
	assert.False(t, ShouldGenerate(&m, today))

	m.LastGenerated = ptr(time.Date(2025, time.March, 10, 14, 0, 0, 0, time.UTC))
	assert.True(t, ShouldGenerate(&m, today))
}

func TestDueDate(t *testing.T) {
	today := day(2025, time.January, 31)

	tests := []struct {
		name string
		m    models.TaskMaster
		want time.Time
	}{
		{"daily", models.TaskMaster{Frequency: models.FrequencyDaily}, today},
		{"weekly", models.TaskMaster{Frequency: models.FrequencyWeekly}, day(2025, time.February, 7)},
		{"monthly fixed 30 days", models.TaskMaster{Frequency: models.FrequencyMonthly}, day(2025, time.March, 2)},
		{"quarterly fixed 90 days", models.TaskMaster{Frequency: models.FrequencyQuarterly}, day(2025, time.May, 1)},
		{"yearly fixed 365 days", models.TaskMaster{Frequency: models.FrequencyYearly}, day(2026, time.January, 31)},
		{"custom days", models.TaskMaster{Frequency: models.FrequencyCustom, FrequencyValue: 5, FrequencyUnit: models.UnitDays}, day(2025, time.February, 5)},
		{"custom weeks", models.TaskMaster{Frequency: models.FrequencyCustom, FrequencyValue: 2, FrequencyUnit: models.UnitWeeks}, day(2025, time.February, 14)},
		{"custom months clamps", models.TaskMaster{Frequency: models.FrequencyCustom, FrequencyValue: 1, FrequencyUnit: models.UnitMonths}, day(2025, time.February, 28)},
		{"unknown", models.TaskMaster{Frequency: "hourly"}, today},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := tt.m
			assert.Equal(t, tt.want, DueDate(&m, today))
		})
	}
}
