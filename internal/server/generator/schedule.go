package generator

import (
	"time"

	"github.com/dmitrijs2005/plantops/internal/server/models"
	"github.com/dmitrijs2005/plantops/internal/timex"
)

// Due-date offsets in days. Monthly, quarterly and yearly use fixed day
// counts here even though eligibility uses calendar months.
const (
	dueOffsetDaily     = 0
	dueOffsetWeekly    = 7
	dueOffsetMonthly   = 30
	dueOffsetQuarterly = 90
	dueOffsetYearly    = 365
)

// addMonths moves t by n calendar months, clamping the day to the end of the
// target month (Mar 31 - 1 month = Feb 28/29).
func addMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	last := first.AddDate(0, 1, -1).Day()
	if d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// threshold returns the latest calendar day on which the previous generation
// may have happened for m to be due again on today. ok is false for an
// unknown frequency.
func threshold(m *models.TaskMaster, today time.Time) (time.Time, bool) {
	switch m.Frequency {
	case models.FrequencyDaily:
		return today.AddDate(0, 0, -1), true
	case models.FrequencyWeekly:
		return today.AddDate(0, 0, -7), true
	case models.FrequencyMonthly:
		return addMonths(today, -1), true
	case models.FrequencyQuarterly:
		return addMonths(today, -3), true
	case models.FrequencyYearly:
		return addMonths(today, -12), true
	case models.FrequencyCustom:
		if m.FrequencyValue <= 0 {
			return time.Time{}, false
		}
		switch m.FrequencyUnit {
		case models.UnitDays:
			return today.AddDate(0, 0, -m.FrequencyValue), true
		case models.UnitWeeks:
			return today.AddDate(0, 0, -7*m.FrequencyValue), true
		case models.UnitMonths:
			return addMonths(today, -m.FrequencyValue), true
		}
	}
	return time.Time{}, false
}

// ShouldGenerate reports whether m is due on today. today must be the start
// of a calendar day; lastGenerated is compared at day granularity in today's
// location.
func ShouldGenerate(m *models.TaskMaster, today time.Time) bool {
	limit, ok := threshold(m, today)
	if !ok {
		return false
	}
	if m.LastGenerated == nil {
		return true
	}
	last := timex.StartOfDay(m.LastGenerated.In(today.Location()))
	return !last.After(limit)
}

// DueDate computes the due date of an instance scheduled on today.
func DueDate(m *models.TaskMaster, today time.Time) time.Time {
	switch m.Frequency {
	case models.FrequencyDaily:
		return today.AddDate(0, 0, dueOffsetDaily)
	case models.FrequencyWeekly:
		return today.AddDate(0, 0, dueOffsetWeekly)
	case models.FrequencyMonthly:
		return today.AddDate(0, 0, dueOffsetMonthly)
	case models.FrequencyQuarterly:
		return today.AddDate(0, 0, dueOffsetQuarterly)
	case models.FrequencyYearly:
		return today.AddDate(0, 0, dueOffsetYearly)
	case models.FrequencyCustom:
		switch m.FrequencyUnit {
		case models.UnitDays:
			return today.AddDate(0, 0, m.FrequencyValue)
		case models.UnitWeeks:
			return today.AddDate(0, 0, 7*m.FrequencyValue)
		case models.UnitMonths:
			return addMonths(today, m.FrequencyValue)
		}
	}
	return today
}
