package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// LoanStatus is the lifecycle state of a loan.
type LoanStatus string

const (
	LoanPending   LoanStatus = "PENDING"
	LoanApproved  LoanStatus = "APPROVED"
	LoanRejected  LoanStatus = "REJECTED"
	LoanActive    LoanStatus = "ACTIVE"
	LoanPaid      LoanStatus = "PAID"
	LoanOverdue   LoanStatus = "OVERDUE"
	LoanCancelled LoanStatus = "CANCELLED"
)

// PaymentFrequency is how often installments fall due.
type PaymentFrequency string

const (
	FrequencyWeekly   PaymentFrequency = "WEEKLY"
	FrequencyBiweekly PaymentFrequency = "BIWEEKLY"
	FrequencyMonthly  PaymentFrequency = "MONTHLY"
)

// Loan represents an approved financing granted to a client.
type Loan struct {
	LoanID           string           `json:"loanID"`   // Primary Key (e.g., UUID)
	ClientID         string           `json:"clientID"` // FK -> clients.client_id
	CurrencyCode     string           `json:"currencyCode"`
	Principal        decimal.Decimal  `json:"principal"`
	AnnualRate       decimal.Decimal  `json:"annualRate"` // e.g. 0.12 for 12%
	InstallmentCount int              `json:"installmentCount"`
	Frequency        PaymentFrequency `json:"frequency"`
	DisbursementDate time.Time        `json:"disbursementDate"` // Base date for the schedule
	Status           LoanStatus       `json:"status"`           // Denormalized lifecycle state
	AuditFields
	Installments []Installment `json:"installments,omitempty"` // Often loaded separately
}

// DeriveLoanStatus projects the repayment status of a loan from its
// installments: PAID when all settled, OVERDUE when any pending installment
// is past due, ACTIVE otherwise. Installments are the single source of truth;
// the stored status field is only a denormalized cache of this projection.
func DeriveLoanStatus(installments []Installment, today time.Time) LoanStatus {
	if len(installments) == 0 {
		return LoanActive
	}
	allSettled := true
	anyOverdue := false
	for i := range installments {
		if installments[i].Status != InstallmentSettled {
			allSettled = false
		}
		if installments[i].IsOverdue(today) {
			anyOverdue = true
		}
	}
	if allSettled {
		return LoanPaid
	}
	if anyOverdue {
		return LoanOverdue
	}
	return LoanActive
}

// EffectiveStatus returns the loan status as it should be presented: lifecycle
// states (PENDING, APPROVED, REJECTED, CANCELLED) are reported as stored,
// repayment states are re-derived from the installments.
func (l *Loan) EffectiveStatus(today time.Time) LoanStatus {
	switch l.Status {
	case LoanActive, LoanPaid, LoanOverdue:
		return DeriveLoanStatus(l.Installments, today)
	default:
		return l.Status
	}
}
