package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// InstallmentStatus is the stored settlement state of an installment.
// OVERDUE is deliberately not a stored state; it is projected at read time.
type InstallmentStatus string

const (
	InstallmentPending InstallmentStatus = "PENDING"
	InstallmentSettled InstallmentStatus = "SETTLED"
)

// ErrAlreadySettled indicates an attempt to settle an installment that is already settled.
var ErrAlreadySettled = errors.New("installment already settled")

// Installment is one scheduled obligation within a loan's repayment plan.
// Schedule fields (due date, amount, splits) are fixed at generation time;
// a settlement mutates only PaidAmount, SettlementDate and Status.
type Installment struct {
	InstallmentID    string            `json:"installmentID"`  // Primary Key (e.g., UUID)
	LoanID           string            `json:"loanID"`         // FK -> loans.loan_id
	SequenceNumber   int               `json:"sequenceNumber"` // 1..N, unique within a loan
	DueDate          time.Time         `json:"dueDate"`
	Amount           decimal.Decimal   `json:"amount"`           // Fixed period amount
	InterestPortion  decimal.Decimal   `json:"interestPortion"`  // Computed at generation
	PrincipalPortion decimal.Decimal   `json:"principalPortion"` // Computed at generation
	PaidAmount       decimal.Decimal   `json:"paidAmount"`       // Cumulative receipts applied so far
	SettlementDate   *time.Time        `json:"settlementDate,omitempty"`
	Status           InstallmentStatus `json:"status"`
	AuditFields
}

// RemainingAmount returns how much is still owed on this installment.
func (i *Installment) RemainingAmount() decimal.Decimal {
	remaining := i.Amount.Sub(i.PaidAmount)
	if remaining.IsNegative() {
		return decimal.Zero
	}
	return remaining
}

// IsOverdue reports whether the installment is pending past its due date.
func (i *Installment) IsOverdue(today time.Time) bool {
	return i.Status == InstallmentPending && i.DueDate.Before(today)
}

// MarkSettled transitions the installment from PENDING to SETTLED.
// Valid only from PENDING; settling twice returns ErrAlreadySettled.
func (i *Installment) MarkSettled(settlementDate time.Time) error {
	if i.Status == InstallmentSettled {
		return ErrAlreadySettled
	}
	i.Status = InstallmentSettled
	i.SettlementDate = &settlementDate
	return nil
}

// Unsettle reverses a settlement back to PENDING, subtracting the reversed
// allocation total from the paid amount. It exists only for the administrative
// unreconcile flow; allocation reversal is recorded separately.
func (i *Installment) Unsettle(reversedAmount decimal.Decimal) {
	i.PaidAmount = i.PaidAmount.Sub(reversedAmount)
	if i.PaidAmount.IsNegative() {
		i.PaidAmount = decimal.Zero
	}
	i.Status = InstallmentPending
	i.SettlementDate = nil
}
