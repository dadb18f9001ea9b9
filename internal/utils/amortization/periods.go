package amortization

import (
	"errors"
	"fmt"
	"time"

	"github.com/crediya/loan_backoffice_app/internal/core/domain"
)

// ErrInvalidSchedule indicates malformed parameters to due-date computation.
var ErrInvalidSchedule = errors.New("invalid schedule parameters")

// ComputeDueDates produces the ordered sequence of due dates for a schedule.
// Weekly and biweekly schedules advance by fixed 7/14 day steps; monthly
// schedules advance by calendar months with month-end clamping (a base day of
// 31 falls on the last day of shorter months). The function is pure: same
// inputs always yield the same dates.
func ComputeDueDates(baseDate time.Time, frequency domain.PaymentFrequency, count int) ([]time.Time, error) {
	if count <= 0 {
		return nil, fmt.Errorf("%w: count must be positive, got %d", ErrInvalidSchedule, count)
	}

	dates := make([]time.Time, count)
	switch frequency {
	case domain.FrequencyWeekly:
		for i := 0; i < count; i++ {
			dates[i] = baseDate.AddDate(0, 0, 7*(i+1))
		}
	case domain.FrequencyBiweekly:
		for i := 0; i < count; i++ {
			dates[i] = baseDate.AddDate(0, 0, 14*(i+1))
		}
	case domain.FrequencyMonthly:
		for i := 0; i < count; i++ {
			dates[i] = addMonthsClamped(baseDate, i+1)
		}
	default:
		return nil, fmt.Errorf("%w: unrecognized frequency %q", ErrInvalidSchedule, frequency)
	}

	return dates, nil
}

// addMonthsClamped advances t by the given number of calendar months, clamping
// the day of month to the target month's last day. time.AddDate is not used
// directly because it normalizes overflow (Jan 31 + 1 month = Mar 3).
func addMonthsClamped(t time.Time, months int) time.Time {
	firstOfTarget := time.Date(t.Year(), t.Month()+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	day := t.Day()
	if last := lastDayOfMonth(firstOfTarget); day > last {
		day = last
	}
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), day,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func lastDayOfMonth(t time.Time) int {
	// Day 0 of the next month is the last day of this month.
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
}
