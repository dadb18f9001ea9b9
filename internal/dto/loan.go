package dto

import (
	"time"

	"github.com/crediya/loan_backoffice_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateLoanRequest defines the payload for creating a loan application.
type CreateLoanRequest struct {
	ClientID         string          `json:"clientID" binding:"required,uuid"`
	CurrencyCode     string          `json:"currencyCode" binding:"required,len=3"`
	Principal        decimal.Decimal `json:"principal" binding:"required,gt=0"`
	AnnualRate       decimal.Decimal `json:"annualRate" binding:"gte=0"`
	InstallmentCount int             `json:"installmentCount" binding:"required,gt=0"`
	Frequency        string          `json:"frequency" binding:"required,oneof=WEEKLY BIWEEKLY MONTHLY"`
	DisbursementDate time.Time       `json:"disbursementDate" binding:"required"`
}

// RegenerateScheduleRequest defines the payload for the administrative
// schedule regeneration flow.
type RegenerateScheduleRequest struct {
	// Force preserves settled installments and replaces only pending ones.
	// Without it, regeneration is rejected once any installment has settled.
	Force bool `json:"force"`
}

// ListLoansParams holds parameters for listing loans.
type ListLoansParams struct {
	ClientID string
	Limit    int
	Offset   int
}

// InstallmentResponse defines the data returned for one installment.
type InstallmentResponse struct {
	InstallmentID    string          `json:"installmentID"`
	SequenceNumber   int             `json:"sequenceNumber"`
	DueDate          time.Time       `json:"dueDate"`
	Amount           decimal.Decimal `json:"amount"`
	InterestPortion  decimal.Decimal `json:"interestPortion"`
	PrincipalPortion decimal.Decimal `json:"principalPortion"`
	PaidAmount       decimal.Decimal `json:"paidAmount"`
	SettlementDate   *time.Time      `json:"settlementDate,omitempty"`
	Status           string          `json:"status"`
	Overdue          bool            `json:"overdue"`
}

// LoanResponse defines the data returned for a loan.
type LoanResponse struct {
	LoanID           string                `json:"loanID"`
	ClientID         string                `json:"clientID"`
	CurrencyCode     string                `json:"currencyCode"`
	Principal        decimal.Decimal       `json:"principal"`
	AnnualRate       decimal.Decimal       `json:"annualRate"`
	InstallmentCount int                   `json:"installmentCount"`
	Frequency        string                `json:"frequency"`
	DisbursementDate time.Time             `json:"disbursementDate"`
	Status           string                `json:"status"`
	CreatedAt        time.Time             `json:"createdAt"`
	Installments     []InstallmentResponse `json:"installments,omitempty"`
}

// ToInstallmentResponse converts a domain.Installment to InstallmentResponse DTO.
// The overdue flag is projected against the given reference date.
func ToInstallmentResponse(inst *domain.Installment, today time.Time) InstallmentResponse {
	return InstallmentResponse{
		InstallmentID:    inst.InstallmentID,
		SequenceNumber:   inst.SequenceNumber,
		DueDate:          inst.DueDate,
		Amount:           inst.Amount,
		InterestPortion:  inst.InterestPortion,
		PrincipalPortion: inst.PrincipalPortion,
		PaidAmount:       inst.PaidAmount,
		SettlementDate:   inst.SettlementDate,
		Status:           string(inst.Status),
		Overdue:          inst.IsOverdue(today),
	}
}

// ToLoanResponse converts a domain.Loan to LoanResponse DTO. The status is the
// effective (projected) status, not the raw stored one.
func ToLoanResponse(l *domain.Loan, today time.Time) LoanResponse {
	resp := LoanResponse{
		LoanID:           l.LoanID,
		ClientID:         l.ClientID,
		CurrencyCode:     l.CurrencyCode,
		Principal:        l.Principal,
		AnnualRate:       l.AnnualRate,
		InstallmentCount: l.InstallmentCount,
		Frequency:        string(l.Frequency),
		DisbursementDate: l.DisbursementDate,
		Status:           string(l.EffectiveStatus(today)),
		CreatedAt:        l.CreatedAt,
	}
	if len(l.Installments) > 0 {
		resp.Installments = make([]InstallmentResponse, len(l.Installments))
		for i := range l.Installments {
			resp.Installments[i] = ToInstallmentResponse(&l.Installments[i], today)
		}
	}
	return resp
}

// ToLoanResponses converts a slice of domain.Loan to []LoanResponse.
func ToLoanResponses(loans []domain.Loan, today time.Time) []LoanResponse {
	responses := make([]LoanResponse, len(loans))
	for i := range loans {
		responses[i] = ToLoanResponse(&loans[i], today)
	}
	return responses
}
