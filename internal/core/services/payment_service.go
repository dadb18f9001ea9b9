package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/crediya/loan_backoffice_app/internal/apperrors"
	"github.com/crediya/loan_backoffice_app/internal/core/domain"
	portsrepo "github.com/crediya/loan_backoffice_app/internal/core/ports/repositories"
	portssvc "github.com/crediya/loan_backoffice_app/internal/core/ports/services"
	"github.com/crediya/loan_backoffice_app/internal/dto"
	"github.com/crediya/loan_backoffice_app/internal/middleware"
)

var (
	// ErrLoanNotActive indicates a payment against a loan that is not accepting payments.
	ErrLoanNotActive = errors.New("loan is not accepting payments")
	// ErrInstallmentNotSettled indicates an unreconcile attempt on a pending installment.
	ErrInstallmentNotSettled = errors.New("installment is not settled")
	// ErrNoPendingInstallments indicates a payment matched against a loan with
	// nothing outstanding. The payment is still recorded, fully unallocated and
	// flagged for review; RegisterPayment returns this alongside a valid result.
	ErrNoPendingInstallments = errors.New("loan has no pending installments")
)

// paymentService records payments and reconciles them against installments.
// All allocation work for one loan runs under a per-loan lock inside a single
// database transaction, so concurrent payments against the same loan serialize
// instead of double-settling installments.
type paymentService struct {
	paymentRepo    portsrepo.PaymentRepositoryWithTx
	loanRepo       portsrepo.LoanRepositoryWithTx
	contabilitySvc portssvc.ContabilitySvcFacade
}

// NewPaymentService creates a new PaymentService.
func NewPaymentService(paymentRepo portsrepo.PaymentRepositoryWithTx, loanRepo portsrepo.LoanRepositoryWithTx, contabilitySvc portssvc.ContabilitySvcFacade) portssvc.PaymentSvcFacade {
	return &paymentService{
		paymentRepo:    paymentRepo,
		loanRepo:       loanRepo,
		contabilitySvc: contabilitySvc,
	}
}

var _ portssvc.PaymentSvcFacade = (*paymentService)(nil)

// GetPaymentByID retrieves a payment.
func (s *paymentService) GetPaymentByID(ctx context.Context, paymentID string) (*domain.Payment, error) {
	payment, err := s.paymentRepo.FindPaymentByID(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("failed to find payment %s: %w", paymentID, err)
	}
	return payment, nil
}

// ListPaymentsByLoan retrieves payments registered against a loan.
func (s *paymentService) ListPaymentsByLoan(ctx context.Context, loanID string, limit int, offset int) ([]domain.Payment, error) {
	if limit <= 0 {
		limit = 20
	}
	payments, err := s.paymentRepo.ListPaymentsByLoan(ctx, loanID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments for loan %s: %w", loanID, err)
	}
	return payments, nil
}

// GetAllocations retrieves the allocation rows of a payment.
func (s *paymentService) GetAllocations(ctx context.Context, paymentID string) ([]domain.PaymentAllocation, error) {
	allocations, err := s.paymentRepo.FindAllocationsByPaymentID(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load allocations for payment %s: %w", paymentID, err)
	}
	return allocations, nil
}

// RegisterPayment records a payment and allocates it greedily against the
// loan's pending installments, oldest due date first. Partial coverage leaves
// the installment PENDING with its paid amount accumulated; full coverage
// settles it. Any remainder is kept on the payment as unallocated and flagged
// for review rather than discarded. When the loan has nothing outstanding the
// payment is still recorded and the result is returned together with
// ErrNoPendingInstallments.
func (s *paymentService) RegisterPayment(ctx context.Context, req dto.RegisterPaymentRequest, creatorUserID string) (*domain.AllocationResult, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: payment amount must be positive", apperrors.ErrValidation)
	}

	loan, err := s.loanRepo.FindLoanByID(ctx, req.LoanID)
	if err != nil {
		return nil, fmt.Errorf("failed to find loan %s: %w", req.LoanID, err)
	}
	switch loan.Status {
	case domain.LoanActive, domain.LoanOverdue, domain.LoanPaid:
	default:
		return nil, fmt.Errorf("%w: loan %s is %s", ErrLoanNotActive, loan.LoanID, loan.Status)
	}

	now := time.Now().UTC()
	payment := domain.Payment{
		PaymentID:         uuid.NewString(),
		LoanID:            loan.LoanID,
		ClientID:          loan.ClientID,
		CurrencyCode:      loan.CurrencyCode,
		Amount:            req.Amount,
		PaymentDate:       req.PaymentDate,
		UnallocatedAmount: decimal.Zero,
		Notes:             req.Notes,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}

	tx, err := s.paymentRepo.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = s.paymentRepo.Rollback(ctx, tx)
	}()

	pending, err := s.loanRepo.LockPendingInstallments(ctx, tx, loan.LoanID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock installments for loan %s: %w", loan.LoanID, err)
	}

	lines, updated, remaining := allocateGreedy(req.Amount, pending, req.PaymentDate)

	payment.UnallocatedAmount = remaining
	payment.RequiresReview = remaining.IsPositive()
	noPending := len(pending) == 0
	if noPending {
		logger.Warn("Payment registered with no pending installments",
			slog.String("payment_id", payment.PaymentID),
			slog.String("loan_id", loan.LoanID))
	}

	if err := s.paymentRepo.SavePayment(ctx, tx, payment); err != nil {
		logger.Error("Failed to save payment", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to save payment: %w", err)
	}

	if len(lines) > 0 {
		allocations := make([]domain.PaymentAllocation, len(lines))
		for i, line := range lines {
			allocations[i] = domain.PaymentAllocation{
				AllocationID:  uuid.NewString(),
				PaymentID:     payment.PaymentID,
				InstallmentID: line.InstallmentID,
				Amount:        line.AmountApplied,
				AuditFields: domain.AuditFields{
					CreatedAt:     now,
					CreatedBy:     creatorUserID,
					LastUpdatedAt: now,
					LastUpdatedBy: creatorUserID,
				},
			}
		}
		if err := s.paymentRepo.SaveAllocations(ctx, tx, allocations); err != nil {
			logger.Error("Failed to save allocations", slog.String("error", err.Error()))
			return nil, fmt.Errorf("failed to save allocations: %w", err)
		}
	}

	for i := range updated {
		updated[i].LastUpdatedAt = now
		updated[i].LastUpdatedBy = creatorUserID
		if err := s.loanRepo.UpdateInstallmentSettlement(ctx, tx, updated[i]); err != nil {
			logger.Error("Failed to update installment settlement",
				slog.String("error", err.Error()),
				slog.String("installment_id", updated[i].InstallmentID))
			return nil, fmt.Errorf("failed to update installment %s: %w", updated[i].InstallmentID, err)
		}
	}

	if allPendingSettled(pending, updated) && len(pending) > 0 {
		if err := s.loanRepo.UpdateLoanStatusInTx(ctx, tx, loan.LoanID, domain.LoanPaid, creatorUserID, now); err != nil {
			return nil, fmt.Errorf("failed to mark loan %s paid: %w", loan.LoanID, err)
		}
	}

	if err := s.paymentRepo.Commit(ctx, tx); err != nil {
		return nil, fmt.Errorf("failed to commit payment transaction: %w", err)
	}

	// Cache refresh happens outside the transaction: a failed refresh must not
	// undo a recorded payment. The next settlement event retries it.
	for i := range updated {
		if updated[i].Status != domain.InstallmentSettled {
			continue
		}
		if err := s.contabilitySvc.RefreshCacheRow(ctx, updated[i].InstallmentID); err != nil {
			logger.Warn("Failed to refresh contability row",
				slog.String("error", err.Error()),
				slog.String("installment_id", updated[i].InstallmentID))
		}
	}

	logger.Info("Payment registered",
		slog.String("payment_id", payment.PaymentID),
		slog.String("loan_id", loan.LoanID),
		slog.String("amount", req.Amount.String()),
		slog.Int("allocations", len(lines)),
		slog.String("unallocated", remaining.String()),
		slog.Bool("requires_review", payment.RequiresReview))

	result := &domain.AllocationResult{
		PaymentID:      payment.PaymentID,
		Lines:          lines,
		Unallocated:    remaining,
		RequiresReview: payment.RequiresReview,
	}
	if noPending {
		return result, ErrNoPendingInstallments
	}
	return result, nil
}

// UnreconcileInstallment administratively reverses the settlement of an
// installment: the installment returns to PENDING with its paid amount
// reduced by the reversed allocation total, its active allocations are
// stamped reversed and each affected payment gets the reversed money back
// as unallocated, flagged for review.
func (s *paymentService) UnreconcileInstallment(ctx context.Context, installmentID string, userID string) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	installment, err := s.loanRepo.FindInstallmentByID(ctx, installmentID)
	if err != nil {
		return fmt.Errorf("failed to find installment %s: %w", installmentID, err)
	}
	if installment.Status != domain.InstallmentSettled {
		return fmt.Errorf("%w: installment %s", ErrInstallmentNotSettled, installmentID)
	}

	now := time.Now().UTC()

	tx, err := s.paymentRepo.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = s.paymentRepo.Rollback(ctx, tx)
	}()

	// The advisory lock serializes against concurrent payment allocation on
	// the same loan.
	if _, err := s.loanRepo.LockPendingInstallments(ctx, tx, installment.LoanID); err != nil {
		return fmt.Errorf("failed to lock installments for loan %s: %w", installment.LoanID, err)
	}

	reversed, err := s.paymentRepo.ReverseAllocationsForInstallment(ctx, tx, installmentID, userID, now)
	if err != nil {
		logger.Error("Failed to reverse allocations", slog.String("error", err.Error()), slog.String("installment_id", installmentID))
		return fmt.Errorf("failed to reverse allocations for installment %s: %w", installmentID, err)
	}

	// Return the reversed money to each payment as unallocated.
	totalReversed := decimal.Zero
	reversedByPayment := make(map[string]decimal.Decimal)
	for i := range reversed {
		reversedByPayment[reversed[i].PaymentID] = reversedByPayment[reversed[i].PaymentID].Add(reversed[i].Amount)
		totalReversed = totalReversed.Add(reversed[i].Amount)
	}
	for paymentID, amount := range reversedByPayment {
		payment, err := s.paymentRepo.FindPaymentByID(ctx, paymentID)
		if err != nil {
			return fmt.Errorf("failed to find payment %s: %w", paymentID, err)
		}
		newUnallocated := payment.UnallocatedAmount.Add(amount)
		if err := s.paymentRepo.UpdatePaymentReview(ctx, tx, paymentID, newUnallocated, true); err != nil {
			return fmt.Errorf("failed to flag payment %s for review: %w", paymentID, err)
		}
	}

	installment.Unsettle(totalReversed)
	installment.LastUpdatedAt = now
	installment.LastUpdatedBy = userID
	if err := s.loanRepo.UpdateInstallmentSettlement(ctx, tx, *installment); err != nil {
		return fmt.Errorf("failed to unsettle installment %s: %w", installmentID, err)
	}

	// The loan can no longer be PAID with a pending installment on it.
	if err := s.loanRepo.UpdateLoanStatusInTx(ctx, tx, installment.LoanID, domain.LoanActive, userID, now); err != nil {
		return fmt.Errorf("failed to reactivate loan %s: %w", installment.LoanID, err)
	}

	if err := s.paymentRepo.Commit(ctx, tx); err != nil {
		return fmt.Errorf("failed to commit unreconcile transaction: %w", err)
	}

	if err := s.contabilitySvc.RefreshCacheRow(ctx, installmentID); err != nil {
		logger.Warn("Failed to refresh contability row after reversal",
			slog.String("error", err.Error()),
			slog.String("installment_id", installmentID))
	}

	logger.Info("Installment unreconciled",
		slog.String("installment_id", installmentID),
		slog.String("loan_id", installment.LoanID),
		slog.Int("reversed_allocations", len(reversed)))
	return nil
}

// allocateGreedy applies amount to the pending installments in due date order.
// It returns the allocation lines, the mutated installments to persist, and
// the remainder that found no home. Pure function; no clock, no storage.
func allocateGreedy(amount decimal.Decimal, pending []domain.Installment, paymentDate time.Time) ([]domain.AllocationLine, []domain.Installment, decimal.Decimal) {
	remaining := amount
	var lines []domain.AllocationLine
	var updated []domain.Installment

	for i := range pending {
		if !remaining.IsPositive() {
			break
		}
		inst := pending[i]
		gap := inst.RemainingAmount()
		if !gap.IsPositive() {
			continue
		}

		applied := decimal.Min(remaining, gap)
		inst.PaidAmount = inst.PaidAmount.Add(applied)
		remaining = remaining.Sub(applied)

		settled := inst.RemainingAmount().IsZero()
		if settled {
			inst.Status = domain.InstallmentSettled
			settlementDate := paymentDate
			inst.SettlementDate = &settlementDate
		}

		lines = append(lines, domain.AllocationLine{
			InstallmentID:  inst.InstallmentID,
			SequenceNumber: inst.SequenceNumber,
			AmountApplied:  applied,
			Settled:        settled,
		})
		updated = append(updated, inst)
	}

	return lines, updated, remaining
}

// allPendingSettled reports whether every locked pending installment ended up
// settled by this allocation.
func allPendingSettled(pending []domain.Installment, updated []domain.Installment) bool {
	settledIDs := make(map[string]bool, len(updated))
	for i := range updated {
		if updated[i].Status == domain.InstallmentSettled {
			settledIDs[updated[i].InstallmentID] = true
		}
	}
	for i := range pending {
		if !settledIDs[pending[i].InstallmentID] {
			return false
		}
	}
	return true
}
