package domain_test

import (
	"testing"
	"time"

	"github.com/crediya/loan_backoffice_app/internal/core/domain"
	"github.com/stretchr/testify/assert"
)

func TestDeriveLoanStatus(t *testing.T) {
	today := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	past := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	future := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name         string
		installments []domain.Installment
		want         domain.LoanStatus
	}{
		{
			name:         "no installments defaults to active",
			installments: nil,
			want:         domain.LoanActive,
		},
		{
			name: "all settled is paid",
			installments: []domain.Installment{
				{Status: domain.InstallmentSettled, DueDate: past},
				{Status: domain.InstallmentSettled, DueDate: future},
			},
			want: domain.LoanPaid,
		},
		{
			name: "any overdue installment wins over active",
			installments: []domain.Installment{
				{Status: domain.InstallmentSettled, DueDate: past},
				{Status: domain.InstallmentPending, DueDate: past},
				{Status: domain.InstallmentPending, DueDate: future},
			},
			want: domain.LoanOverdue,
		},
		{
			name: "pending but not yet due is active",
			installments: []domain.Installment{
				{Status: domain.InstallmentSettled, DueDate: past},
				{Status: domain.InstallmentPending, DueDate: future},
			},
			want: domain.LoanActive,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, domain.DeriveLoanStatus(tt.installments, today))
		})
	}
}

func TestLoan_EffectiveStatus(t *testing.T) {
	today := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	// Lifecycle states are reported as stored, never projected.
	loan := domain.Loan{Status: domain.LoanPending}
	assert.Equal(t, domain.LoanPending, loan.EffectiveStatus(today))

	loan.Status = domain.LoanCancelled
	assert.Equal(t, domain.LoanCancelled, loan.EffectiveStatus(today))

	// Repayment states are re-derived from installments so the stored cache
	// cannot drift from the child records.
	loan.Status = domain.LoanActive
	loan.Installments = []domain.Installment{
		{Status: domain.InstallmentSettled},
		{Status: domain.InstallmentSettled},
	}
	assert.Equal(t, domain.LoanPaid, loan.EffectiveStatus(today))

	loan.Installments = []domain.Installment{
		{Status: domain.InstallmentPending, DueDate: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)},
	}
	assert.Equal(t, domain.LoanOverdue, loan.EffectiveStatus(today))
}
