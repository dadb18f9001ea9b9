package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ContabilityRow is a denormalized reporting row, one per settled installment.
// Rows whose payment date has aged past the retention window are frozen
// snapshots: they are never recomputed, so historical reports stay stable.
type ContabilityRow struct {
	RowID          string          `json:"rowID"`         // Primary Key (e.g., UUID)
	InstallmentID  string          `json:"installmentID"` // Unique per row
	LoanID         string          `json:"loanID"`
	ClientID       string          `json:"clientID"`
	ClientName     string          `json:"clientName"`
	DocumentType   DocumentType    `json:"documentType"`
	DocumentNumber string          `json:"documentNumber"`
	DueDate        time.Time       `json:"dueDate"`
	PaymentDate    time.Time       `json:"paymentDate"`
	CurrencyCode   string          `json:"currencyCode"`   // Document currency
	DocumentAmount decimal.Decimal `json:"documentAmount"` // Amount in document currency
	ExchangeRate   decimal.Decimal `json:"exchangeRate"`   // Applied document -> local rate
	LocalAmount    decimal.Decimal `json:"localAmount"`    // Amount in local currency
	AuditFields
}

// IsFrozen reports whether the row is outside the recompute window and must
// be treated as an immutable historical snapshot.
func (r *ContabilityRow) IsFrozen(now time.Time, retention time.Duration) bool {
	return now.Sub(r.PaymentDate) > retention
}
