package amortization

import (
	"errors"
	"fmt"
	"time"

	"github.com/crediya/loan_backoffice_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// ErrInvalidLoanParameters indicates malformed parameters to schedule generation.
var ErrInvalidLoanParameters = errors.New("invalid loan parameters")

var one = decimal.NewFromInt(1)

// ScheduleParams are the inputs to GenerateSchedule. The generator is a pure
// function of these values; identifiers and audit fields are the caller's job.
type ScheduleParams struct {
	Principal  decimal.Decimal
	AnnualRate decimal.Decimal // e.g. 0.12 for 12% annual
	Count      int
	Frequency  domain.PaymentFrequency
	BaseDate   time.Time
}

// PeriodsPerYear returns how many payment periods a year holds for a frequency.
func PeriodsPerYear(frequency domain.PaymentFrequency) (int64, error) {
	switch frequency {
	case domain.FrequencyWeekly:
		return 52, nil
	case domain.FrequencyBiweekly:
		return 26, nil
	case domain.FrequencyMonthly:
		return 12, nil
	default:
		return 0, fmt.Errorf("%w: unrecognized frequency %q", ErrInvalidSchedule, frequency)
	}
}

// AnnuityPayment computes the fixed per-period payment of an equal-installment
// loan: P * r * (1+r)^n / ((1+r)^n - 1).
func AnnuityPayment(principal decimal.Decimal, periodRate decimal.Decimal, count int) decimal.Decimal {
	onePlusRPowN := one.Add(periodRate).Pow(decimal.NewFromInt(int64(count)))
	numerator := principal.Mul(periodRate).Mul(onePlusRPowN)
	denominator := onePlusRPowN.Sub(one)
	return numerator.DivRound(denominator, 2)
}

// GenerateSchedule produces the full ordered installment list for a loan using
// the equal-installment (French/annuity) method.
//
// All stored amounts carry 2-decimal currency precision, rounded half up.
// Every installment's period amount is the constant annuity payment except the
// last one, which absorbs the rounding residual so the principal portions sum
// to the original principal exactly.
//
// The returned installments carry sequence numbers, due dates, amounts and
// splits only; the caller persists them as one atomic batch.
func GenerateSchedule(params ScheduleParams) ([]domain.Installment, error) {
	if params.Principal.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: principal must be positive, got %s", ErrInvalidLoanParameters, params.Principal)
	}
	if params.Count <= 0 {
		return nil, fmt.Errorf("%w: installment count must be positive, got %d", ErrInvalidLoanParameters, params.Count)
	}
	if params.AnnualRate.IsNegative() {
		return nil, fmt.Errorf("%w: annual rate must not be negative, got %s", ErrInvalidLoanParameters, params.AnnualRate)
	}

	periodsPerYear, err := PeriodsPerYear(params.Frequency)
	if err != nil {
		return nil, err
	}

	dueDates, err := ComputeDueDates(params.BaseDate, params.Frequency, params.Count)
	if err != nil {
		return nil, err
	}

	periodRate := params.AnnualRate.DivRound(decimal.NewFromInt(periodsPerYear), 10)

	var payment decimal.Decimal
	if periodRate.IsZero() {
		payment = params.Principal.DivRound(decimal.NewFromInt(int64(params.Count)), 2)
	} else {
		payment = AnnuityPayment(params.Principal, periodRate, params.Count)
	}

	installments := make([]domain.Installment, params.Count)
	balance := params.Principal
	allocatedPrincipal := decimal.Zero

	for i := 0; i < params.Count; i++ {
		interest := balance.Mul(periodRate).Round(2)
		var principalPortion, amount decimal.Decimal

		if i == params.Count-1 {
			// Last installment absorbs the rounding residual so that the
			// principal portions conserve the original principal to the cent.
			principalPortion = params.Principal.Sub(allocatedPrincipal)
			amount = principalPortion.Add(interest)
		} else {
			principalPortion = payment.Sub(interest)
			amount = payment
		}

		installments[i] = domain.Installment{
			SequenceNumber:   i + 1,
			DueDate:          dueDates[i],
			Amount:           amount,
			InterestPortion:  interest,
			PrincipalPortion: principalPortion,
			PaidAmount:       decimal.Zero,
			Status:           domain.InstallmentPending,
		}

		balance = balance.Sub(principalPortion)
		allocatedPrincipal = allocatedPrincipal.Add(principalPortion)
	}

	return installments, nil
}
