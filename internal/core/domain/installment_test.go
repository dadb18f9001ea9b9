package domain_test

import (
	"testing"
	"time"

	"github.com/crediya/loan_backoffice_app/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestInstallment_MarkSettled(t *testing.T) {
	settlementDate := time.Date(2025, 2, 15, 0, 0, 0, 0, time.UTC)

	inst := domain.Installment{
		InstallmentID: "inst_1",
		Status:        domain.InstallmentPending,
		Amount:        decimal.NewFromFloat(100.00),
	}

	err := inst.MarkSettled(settlementDate)
	assert.NoError(t, err)
	assert.Equal(t, domain.InstallmentSettled, inst.Status)
	if assert.NotNil(t, inst.SettlementDate) {
		assert.True(t, inst.SettlementDate.Equal(settlementDate))
	}

	// Second settlement must be rejected, not double counted.
	err = inst.MarkSettled(settlementDate.AddDate(0, 0, 1))
	assert.ErrorIs(t, err, domain.ErrAlreadySettled)
	assert.True(t, inst.SettlementDate.Equal(settlementDate))
}

func TestInstallment_Unsettle(t *testing.T) {
	settlementDate := time.Date(2025, 2, 15, 0, 0, 0, 0, time.UTC)
	inst := domain.Installment{
		Status:     domain.InstallmentPending,
		Amount:     decimal.NewFromFloat(100.00),
		PaidAmount: decimal.NewFromFloat(100.00),
	}

	assert.NoError(t, inst.MarkSettled(settlementDate))
	inst.Unsettle(decimal.NewFromFloat(100.00))

	assert.Equal(t, domain.InstallmentPending, inst.Status)
	assert.Nil(t, inst.SettlementDate)
	assert.True(t, inst.PaidAmount.IsZero())

	// Reversing more than was paid clamps at zero.
	inst.PaidAmount = decimal.NewFromFloat(30.00)
	inst.Unsettle(decimal.NewFromFloat(50.00))
	assert.True(t, inst.PaidAmount.IsZero())
}

func TestInstallment_IsOverdue(t *testing.T) {
	today := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		inst domain.Installment
		want bool
	}{
		{
			name: "pending past due date",
			inst: domain.Installment{
				Status:  domain.InstallmentPending,
				DueDate: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
			},
			want: true,
		},
		{
			name: "pending due today is not overdue",
			inst: domain.Installment{
				Status:  domain.InstallmentPending,
				DueDate: today,
			},
			want: false,
		},
		{
			name: "pending due in the future",
			inst: domain.Installment{
				Status:  domain.InstallmentPending,
				DueDate: time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
			},
			want: false,
		},
		{
			name: "settled past due date is not overdue",
			inst: domain.Installment{
				Status:  domain.InstallmentSettled,
				DueDate: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.inst.IsOverdue(today))
		})
	}
}

func TestInstallment_RemainingAmount(t *testing.T) {
	inst := domain.Installment{
		Amount:     decimal.NewFromFloat(100.00),
		PaidAmount: decimal.NewFromFloat(40.00),
	}
	assert.True(t, inst.RemainingAmount().Equal(decimal.NewFromFloat(60.00)))

	// Over-applied amounts clamp to zero rather than going negative.
	inst.PaidAmount = decimal.NewFromFloat(120.00)
	assert.True(t, inst.RemainingAmount().IsZero())
}
