package dto

import (
	"time"

	"github.com/crediya/loan_backoffice_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// ContabilityReportParams holds parameters for the contability report.
type ContabilityReportParams struct {
	From   time.Time
	To     time.Time
	Limit  int
	Offset int
}

// ContabilityRowResponse represents a row in the contability report response.
type ContabilityRowResponse struct {
	InstallmentID  string          `json:"installmentID"`
	LoanID         string          `json:"loanID"`
	ClientID       string          `json:"clientID"`
	ClientName     string          `json:"clientName"`
	DocumentType   string          `json:"documentType"`
	DocumentNumber string          `json:"documentNumber"`
	DueDate        string          `json:"dueDate"`
	PaymentDate    string          `json:"paymentDate"`
	CurrencyCode   string          `json:"currencyCode"`
	DocumentAmount decimal.Decimal `json:"documentAmount"`
	ExchangeRate   decimal.Decimal `json:"exchangeRate"`
	LocalAmount    decimal.Decimal `json:"localAmount"`
}

// ContabilityReportResponse represents the contability report response.
type ContabilityReportResponse struct {
	FromDate string                   `json:"fromDate"`
	ToDate   string                   `json:"toDate"`
	Rows     []ContabilityRowResponse `json:"rows"`
	Totals   struct {
		DocumentAmount decimal.Decimal `json:"documentAmount"`
		LocalAmount    decimal.Decimal `json:"localAmount"`
	} `json:"totals"`
}

// ToContabilityReportResponse converts cache rows to a report response.
func ToContabilityReportResponse(rows []domain.ContabilityRow, from, to time.Time) ContabilityReportResponse {
	response := ContabilityReportResponse{
		FromDate: from.Format("2006-01-02"),
		ToDate:   to.Format("2006-01-02"),
		Rows:     make([]ContabilityRowResponse, len(rows)),
	}

	totalDocument := decimal.Zero
	totalLocal := decimal.Zero

	for i, row := range rows {
		response.Rows[i] = ContabilityRowResponse{
			InstallmentID:  row.InstallmentID,
			LoanID:         row.LoanID,
			ClientID:       row.ClientID,
			ClientName:     row.ClientName,
			DocumentType:   string(row.DocumentType),
			DocumentNumber: row.DocumentNumber,
			DueDate:        row.DueDate.Format("2006-01-02"),
			PaymentDate:    row.PaymentDate.Format("2006-01-02"),
			CurrencyCode:   row.CurrencyCode,
			DocumentAmount: row.DocumentAmount,
			ExchangeRate:   row.ExchangeRate,
			LocalAmount:    row.LocalAmount,
		}
		totalDocument = totalDocument.Add(row.DocumentAmount)
		totalLocal = totalLocal.Add(row.LocalAmount)
	}

	response.Totals.DocumentAmount = totalDocument
	response.Totals.LocalAmount = totalLocal

	return response
}
