package amortization_test

import (
	"testing"
	"time"

	"github.com/crediya/loan_backoffice_app/internal/core/domain"
	"github.com/crediya/loan_backoffice_app/internal/utils/amortization"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestComputeDueDates_Weekly(t *testing.T) {
	dates, err := amortization.ComputeDueDates(date(2025, 1, 1), domain.FrequencyWeekly, 3)
	require.NoError(t, err)
	require.Len(t, dates, 3)
	assert.Equal(t, date(2025, 1, 8), dates[0])
	assert.Equal(t, date(2025, 1, 15), dates[1])
	assert.Equal(t, date(2025, 1, 22), dates[2])
}

func TestComputeDueDates_Biweekly(t *testing.T) {
	dates, err := amortization.ComputeDueDates(date(2025, 1, 1), domain.FrequencyBiweekly, 2)
	require.NoError(t, err)
	assert.Equal(t, date(2025, 1, 15), dates[0])
	assert.Equal(t, date(2025, 1, 29), dates[1])
}

func TestComputeDueDates_MonthlyClampsMonthEnd(t *testing.T) {
	// Base day 31: shorter months clamp to their last day instead of
	// spilling into the next month.
	dates, err := amortization.ComputeDueDates(date(2025, 1, 31), domain.FrequencyMonthly, 4)
	require.NoError(t, err)
	assert.Equal(t, date(2025, 2, 28), dates[0])
	assert.Equal(t, date(2025, 3, 31), dates[1])
	assert.Equal(t, date(2025, 4, 30), dates[2])
	assert.Equal(t, date(2025, 5, 31), dates[3])
}

func TestComputeDueDates_MonthlyLeapYear(t *testing.T) {
	dates, err := amortization.ComputeDueDates(date(2024, 1, 31), domain.FrequencyMonthly, 1)
	require.NoError(t, err)
	assert.Equal(t, date(2024, 2, 29), dates[0])
}

func TestComputeDueDates_MonthlyCrossesYearBoundary(t *testing.T) {
	dates, err := amortization.ComputeDueDates(date(2025, 11, 15), domain.FrequencyMonthly, 3)
	require.NoError(t, err)
	assert.Equal(t, date(2025, 12, 15), dates[0])
	assert.Equal(t, date(2026, 1, 15), dates[1])
	assert.Equal(t, date(2026, 2, 15), dates[2])
}

func TestComputeDueDates_Deterministic(t *testing.T) {
	first, err := amortization.ComputeDueDates(date(2025, 1, 31), domain.FrequencyMonthly, 6)
	require.NoError(t, err)
	second, err := amortization.ComputeDueDates(date(2025, 1, 31), domain.FrequencyMonthly, 6)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestComputeDueDates_InvalidInputs(t *testing.T) {
	_, err := amortization.ComputeDueDates(date(2025, 1, 1), domain.FrequencyMonthly, 0)
	assert.ErrorIs(t, err, amortization.ErrInvalidSchedule)

	_, err = amortization.ComputeDueDates(date(2025, 1, 1), domain.FrequencyMonthly, -5)
	assert.ErrorIs(t, err, amortization.ErrInvalidSchedule)

	_, err = amortization.ComputeDueDates(date(2025, 1, 1), domain.PaymentFrequency("DAILY"), 3)
	assert.ErrorIs(t, err, amortization.ErrInvalidSchedule)
}
