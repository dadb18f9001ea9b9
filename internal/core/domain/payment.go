package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment is a recorded money receipt against a loan.
// Immutable once reconciled, except through the explicit unreconcile flow.
type Payment struct {
	PaymentID         string          `json:"paymentID"` // Primary Key (e.g., UUID)
	LoanID            string          `json:"loanID"`    // FK -> loans.loan_id
	ClientID          string          `json:"clientID"`  // FK -> clients.client_id
	CurrencyCode      string          `json:"currencyCode"`
	Amount            decimal.Decimal `json:"amount"`
	PaymentDate       time.Time       `json:"paymentDate"`
	UnallocatedAmount decimal.Decimal `json:"unallocatedAmount"` // Portion not applied to any installment
	RequiresReview    bool            `json:"requiresReview"`    // Reconciliation anomaly flagged for a human
	Notes             string          `json:"notes"`             // Nullable
	AuditFields
}

// PaymentAllocation links a portion of a payment to one installment.
// Reversals never delete rows; they stamp ReversedAt/ReversedBy so the
// allocation history stays auditable.
type PaymentAllocation struct {
	AllocationID  string          `json:"allocationID"`  // Primary Key (e.g., UUID)
	PaymentID     string          `json:"paymentID"`     // FK -> payments.payment_id
	InstallmentID string          `json:"installmentID"` // FK -> installments.installment_id
	Amount        decimal.Decimal `json:"amount"`        // Portion of the payment applied
	ReversedAt    *time.Time      `json:"reversedAt,omitempty"`
	ReversedBy    string          `json:"reversedBy,omitempty"` // UserID Reference
	AuditFields
}

// IsReversed reports whether this allocation has been administratively reversed.
func (a *PaymentAllocation) IsReversed() bool {
	return a.ReversedAt != nil
}

// AllocationLine is one (installment, amount applied) pair of an allocation result.
type AllocationLine struct {
	InstallmentID  string          `json:"installmentID"`
	SequenceNumber int             `json:"sequenceNumber"`
	AmountApplied  decimal.Decimal `json:"amountApplied"`
	Settled        bool            `json:"settled"` // Whether this application completed the installment
}

// AllocationResult describes how a payment was matched against a loan's
// outstanding installments.
type AllocationResult struct {
	PaymentID      string           `json:"paymentID"`
	Lines          []AllocationLine `json:"lines"`
	Unallocated    decimal.Decimal  `json:"unallocated"`
	RequiresReview bool             `json:"requiresReview"`
}
