package repositories

import (
	"context"
	"time"

	"github.com/crediya/loan_backoffice_app/internal/core/domain"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// PaymentReader defines read operations for payment data
type PaymentReader interface {
	// FindPaymentByID retrieves a specific payment.
	FindPaymentByID(ctx context.Context, paymentID string) (*domain.Payment, error)

	// ListPaymentsByLoan retrieves payments registered against a loan, newest first.
	ListPaymentsByLoan(ctx context.Context, loanID string, limit int, offset int) ([]domain.Payment, error)

	// FindAllocationsByPaymentID retrieves the allocation rows of one payment,
	// including reversed ones.
	FindAllocationsByPaymentID(ctx context.Context, paymentID string) ([]domain.PaymentAllocation, error)

	// FindAllocationsByInstallmentID retrieves the active (non-reversed)
	// allocation rows applied to one installment.
	FindAllocationsByInstallmentID(ctx context.Context, installmentID string) ([]domain.PaymentAllocation, error)
}

// PaymentWriter defines write operations for payment data. All writes happen
// within a caller-managed transaction so a payment and its allocation state
// are never observable half-recorded.
type PaymentWriter interface {
	// SavePayment persists a new payment row.
	SavePayment(ctx context.Context, tx pgx.Tx, payment domain.Payment) error

	// SaveAllocations persists allocation rows as a batch.
	SaveAllocations(ctx context.Context, tx pgx.Tx, allocations []domain.PaymentAllocation) error

	// ReverseAllocationsForInstallment stamps reversal audit fields on every
	// active allocation of the installment and returns the reversed rows.
	ReverseAllocationsForInstallment(ctx context.Context, tx pgx.Tx, installmentID string, reversedBy string, reversedAt time.Time) ([]domain.PaymentAllocation, error)

	// UpdatePaymentReview updates the unallocated amount and review flag of a payment.
	UpdatePaymentReview(ctx context.Context, tx pgx.Tx, paymentID string, unallocatedAmount decimal.Decimal, requiresReview bool) error
}

// PaymentRepositoryFacade combines all payment-related repository interfaces
type PaymentRepositoryFacade interface {
	PaymentReader
	PaymentWriter
}

// PaymentRepositoryWithTx extends PaymentRepositoryFacade with transaction capabilities
type PaymentRepositoryWithTx interface {
	PaymentRepositoryFacade
	TransactionManager
}
