package services

import (
	"context"

	"github.com/crediya/loan_backoffice_app/internal/core/domain"
	"github.com/crediya/loan_backoffice_app/internal/dto"
)

// LoanReaderSvc defines read operations for loan data
type LoanReaderSvc interface {
	// GetLoanByID retrieves a loan with its installments. The returned loan's
	// status is the stored one; callers project the effective status at
	// presentation time.
	GetLoanByID(ctx context.Context, loanID string) (*domain.Loan, error)

	// ListLoans retrieves a paginated list of loans, optionally filtered by client.
	ListLoans(ctx context.Context, params dto.ListLoansParams) ([]domain.Loan, error)
}

// LoanWriterSvc defines write operations for loan data
type LoanWriterSvc interface {
	// CreateLoan registers a new loan application in PENDING state.
	CreateLoan(ctx context.Context, req dto.CreateLoanRequest, creatorUserID string) (*domain.Loan, error)

	// ApproveLoan approves a pending loan, generates its amortization schedule
	// and persists it as one atomic batch. The loan becomes ACTIVE.
	ApproveLoan(ctx context.Context, loanID string, approverUserID string) (*domain.Loan, error)

	// RejectLoan rejects a pending loan.
	RejectLoan(ctx context.Context, loanID string, userID string) error

	// CancelLoan cancels a loan that has no settled installments.
	CancelLoan(ctx context.Context, loanID string, userID string) error

	// RegenerateSchedule replaces a loan's schedule. Without force it fails
	// once any installment has settled; with force, settled installments are
	// preserved and only pending ones are replaced.
	RegenerateSchedule(ctx context.Context, loanID string, force bool, userID string) (*domain.Loan, error)
}

// LoanSvcFacade combines all loan-related service interfaces
type LoanSvcFacade interface {
	LoanReaderSvc
	LoanWriterSvc
}
