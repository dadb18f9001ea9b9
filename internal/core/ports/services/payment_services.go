package services

import (
	"context"

	"github.com/crediya/loan_backoffice_app/internal/core/domain"
	"github.com/crediya/loan_backoffice_app/internal/dto"
)

// PaymentReaderSvc defines read operations for payment data
type PaymentReaderSvc interface {
	// GetPaymentByID retrieves a payment.
	GetPaymentByID(ctx context.Context, paymentID string) (*domain.Payment, error)

	// ListPaymentsByLoan retrieves payments registered against a loan.
	ListPaymentsByLoan(ctx context.Context, loanID string, limit int, offset int) ([]domain.Payment, error)

	// GetAllocations retrieves the allocation rows of a payment.
	GetAllocations(ctx context.Context, paymentID string) ([]domain.PaymentAllocation, error)
}

// PaymentWriterSvc defines write operations for payment data
type PaymentWriterSvc interface {
	// RegisterPayment records a payment and allocates it greedily against the
	// loan's pending installments, oldest due date first, atomically. An
	// amount exceeding the outstanding balance is flagged for review, never
	// silently discarded; the payment is recorded even when nothing is pending.
	RegisterPayment(ctx context.Context, req dto.RegisterPaymentRequest, creatorUserID string) (*domain.AllocationResult, error)

	// UnreconcileInstallment administratively reverses the settlement of an
	// installment: it returns to PENDING, its allocations are stamped reversed
	// and its contability row is refreshed.
	UnreconcileInstallment(ctx context.Context, installmentID string, userID string) error
}

// PaymentSvcFacade combines all payment-related service interfaces
type PaymentSvcFacade interface {
	PaymentReaderSvc
	PaymentWriterSvc
}
