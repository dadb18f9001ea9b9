package repositories

import (
	"context"
	"time"

	"github.com/crediya/loan_backoffice_app/internal/core/domain"
	"github.com/jackc/pgx/v5"
)

// LoanReader defines read operations for loan data
type LoanReader interface {
	// FindLoanByID retrieves a specific loan by its unique identifier.
	FindLoanByID(ctx context.Context, loanID string) (*domain.Loan, error)

	// ListLoansByClient retrieves loans for a given client, newest first.
	ListLoansByClient(ctx context.Context, clientID string, limit int, offset int) ([]domain.Loan, error)

	// ListLoans retrieves a paginated list of loans, newest first.
	ListLoans(ctx context.Context, limit int, offset int) ([]domain.Loan, error)
}

// LoanWriter defines write operations for loan data
type LoanWriter interface {
	// SaveLoan persists a new loan.
	SaveLoan(ctx context.Context, loan domain.Loan) error

	// UpdateLoanStatus updates the denormalized lifecycle status of a loan.
	UpdateLoanStatus(ctx context.Context, loanID string, status domain.LoanStatus, updatedBy string, updatedAt time.Time) error

	// UpdateLoanStatusInTx is UpdateLoanStatus within a caller-managed transaction.
	UpdateLoanStatusInTx(ctx context.Context, tx pgx.Tx, loanID string, status domain.LoanStatus, updatedBy string, updatedAt time.Time) error
}

// InstallmentReader defines read operations for installment data
type InstallmentReader interface {
	// FindInstallmentByID retrieves a specific installment.
	FindInstallmentByID(ctx context.Context, installmentID string) (*domain.Installment, error)

	// FindInstallmentsByLoanID retrieves a loan's full schedule ordered by sequence number.
	FindInstallmentsByLoanID(ctx context.Context, loanID string) ([]domain.Installment, error)
}

// ScheduleWriter defines write operations for a loan's installment schedule
type ScheduleWriter interface {
	// SaveSchedule persists a full schedule as one atomic batch: either every
	// installment is inserted or none is.
	SaveSchedule(ctx context.Context, loanID string, installments []domain.Installment) error

	// ReplacePendingSchedule atomically deletes the loan's PENDING installments
	// and inserts the given replacement schedule. Settled rows are untouched.
	ReplacePendingSchedule(ctx context.Context, loanID string, installments []domain.Installment) error
}

// InstallmentLocker defines the operations the payment allocator uses to
// serialize concurrent allocations against one loan.
type InstallmentLocker interface {
	// LockPendingInstallments takes a per-loan advisory lock and returns the
	// loan's PENDING installments ordered by due date ascending, selected
	// FOR UPDATE within the given transaction.
	LockPendingInstallments(ctx context.Context, tx pgx.Tx, loanID string) ([]domain.Installment, error)

	// UpdateInstallmentSettlement persists settlement-state mutations
	// (paid amount, settlement date, status) within the given transaction.
	// Schedule fields are never written by this method.
	UpdateInstallmentSettlement(ctx context.Context, tx pgx.Tx, installment domain.Installment) error
}

// LoanRepositoryFacade combines all loan-related repository interfaces
type LoanRepositoryFacade interface {
	LoanReader
	LoanWriter
	InstallmentReader
	ScheduleWriter
	InstallmentLocker
}

// LoanRepositoryWithTx extends LoanRepositoryFacade with transaction capabilities
type LoanRepositoryWithTx interface {
	LoanRepositoryFacade
	TransactionManager
}
