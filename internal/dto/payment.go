package dto

import (
	"time"

	"github.com/crediya/loan_backoffice_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// RegisterPaymentRequest defines the payload for registering a money receipt.
type RegisterPaymentRequest struct {
	LoanID      string          `json:"loanID" binding:"required,uuid"`
	Amount      decimal.Decimal `json:"amount" binding:"required,gt=0"`
	PaymentDate time.Time       `json:"paymentDate" binding:"required"`
	Notes       string          `json:"notes"`
}

// UnreconcileRequest defines the payload for the administrative reversal of a
// settled installment.
type UnreconcileRequest struct {
	InstallmentID string `json:"installmentID" binding:"required,uuid"`
}

// AllocationLineResponse is one (installment, amount applied) pair.
type AllocationLineResponse struct {
	InstallmentID  string          `json:"installmentID"`
	SequenceNumber int             `json:"sequenceNumber"`
	AmountApplied  decimal.Decimal `json:"amountApplied"`
	Settled        bool            `json:"settled"`
}

// AllocationResultResponse describes how a payment was applied.
type AllocationResultResponse struct {
	PaymentID      string                   `json:"paymentID"`
	Lines          []AllocationLineResponse `json:"lines"`
	Unallocated    decimal.Decimal          `json:"unallocated"`
	RequiresReview bool                     `json:"requiresReview"`
}

// PaymentResponse defines the data returned for a payment.
type PaymentResponse struct {
	PaymentID         string          `json:"paymentID"`
	LoanID            string          `json:"loanID"`
	ClientID          string          `json:"clientID"`
	CurrencyCode      string          `json:"currencyCode"`
	Amount            decimal.Decimal `json:"amount"`
	PaymentDate       time.Time       `json:"paymentDate"`
	UnallocatedAmount decimal.Decimal `json:"unallocatedAmount"`
	RequiresReview    bool            `json:"requiresReview"`
	Notes             string          `json:"notes,omitempty"`
	CreatedAt         time.Time       `json:"createdAt"`
}

// PaymentAllocationResponse defines the data returned for a stored allocation row.
type PaymentAllocationResponse struct {
	AllocationID  string          `json:"allocationID"`
	PaymentID     string          `json:"paymentID"`
	InstallmentID string          `json:"installmentID"`
	Amount        decimal.Decimal `json:"amount"`
	ReversedAt    *time.Time      `json:"reversedAt,omitempty"`
	ReversedBy    string          `json:"reversedBy,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// ToPaymentAllocationResponse converts a domain.PaymentAllocation to its DTO.
func ToPaymentAllocationResponse(a *domain.PaymentAllocation) PaymentAllocationResponse {
	return PaymentAllocationResponse{
		AllocationID:  a.AllocationID,
		PaymentID:     a.PaymentID,
		InstallmentID: a.InstallmentID,
		Amount:        a.Amount,
		ReversedAt:    a.ReversedAt,
		ReversedBy:    a.ReversedBy,
		CreatedAt:     a.CreatedAt,
	}
}

// ToPaymentAllocationResponses converts a slice of domain.PaymentAllocation.
func ToPaymentAllocationResponses(allocations []domain.PaymentAllocation) []PaymentAllocationResponse {
	responses := make([]PaymentAllocationResponse, len(allocations))
	for i := range allocations {
		responses[i] = ToPaymentAllocationResponse(&allocations[i])
	}
	return responses
}

// ToAllocationResultResponse converts a domain.AllocationResult to its DTO.
func ToAllocationResultResponse(res *domain.AllocationResult) AllocationResultResponse {
	lines := make([]AllocationLineResponse, len(res.Lines))
	for i, line := range res.Lines {
		lines[i] = AllocationLineResponse{
			InstallmentID:  line.InstallmentID,
			SequenceNumber: line.SequenceNumber,
			AmountApplied:  line.AmountApplied,
			Settled:        line.Settled,
		}
	}
	return AllocationResultResponse{
		PaymentID:      res.PaymentID,
		Lines:          lines,
		Unallocated:    res.Unallocated,
		RequiresReview: res.RequiresReview,
	}
}

// ToPaymentResponse converts a domain.Payment to PaymentResponse DTO.
func ToPaymentResponse(p *domain.Payment) PaymentResponse {
	return PaymentResponse{
		PaymentID:         p.PaymentID,
		LoanID:            p.LoanID,
		ClientID:          p.ClientID,
		CurrencyCode:      p.CurrencyCode,
		Amount:            p.Amount,
		PaymentDate:       p.PaymentDate,
		UnallocatedAmount: p.UnallocatedAmount,
		RequiresReview:    p.RequiresReview,
		Notes:             p.Notes,
		CreatedAt:         p.CreatedAt,
	}
}

// ToPaymentResponses converts a slice of domain.Payment to []PaymentResponse.
func ToPaymentResponses(payments []domain.Payment) []PaymentResponse {
	responses := make([]PaymentResponse, len(payments))
	for i := range payments {
		responses[i] = ToPaymentResponse(&payments[i])
	}
	return responses
}
