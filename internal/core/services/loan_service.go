package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/crediya/loan_backoffice_app/internal/apperrors"
	"github.com/crediya/loan_backoffice_app/internal/core/domain"
	portsrepo "github.com/crediya/loan_backoffice_app/internal/core/ports/repositories"
	portssvc "github.com/crediya/loan_backoffice_app/internal/core/ports/services"
	"github.com/crediya/loan_backoffice_app/internal/dto"
	"github.com/crediya/loan_backoffice_app/internal/middleware"
	"github.com/crediya/loan_backoffice_app/internal/utils/amortization"
)

var (
	// ErrLoanNotPending indicates a lifecycle transition that requires a PENDING loan.
	ErrLoanNotPending = errors.New("loan is not in PENDING status")
	// ErrLoanHasSettledInstallments indicates a cancel attempt on a loan with settled installments.
	ErrLoanHasSettledInstallments = errors.New("loan has settled installments")
	// ErrCannotRegenerateSettledLoan indicates a non-forced regeneration on a
	// loan where at least one installment has already settled.
	ErrCannotRegenerateSettledLoan = errors.New("cannot regenerate schedule once installments have settled")
)

// loanService provides loan lifecycle and schedule operations.
type loanService struct {
	loanRepo     portsrepo.LoanRepositoryWithTx
	clientRepo   portsrepo.ClientRepositoryFacade
	currencyRepo portsrepo.CurrencyRepositoryFacade
}

// NewLoanService creates a new LoanService.
func NewLoanService(loanRepo portsrepo.LoanRepositoryWithTx, clientRepo portsrepo.ClientRepositoryFacade, currencyRepo portsrepo.CurrencyRepositoryFacade) portssvc.LoanSvcFacade {
	return &loanService{loanRepo: loanRepo, clientRepo: clientRepo, currencyRepo: currencyRepo}
}

var _ portssvc.LoanSvcFacade = (*loanService)(nil)

// CreateLoan registers a new loan application in PENDING state.
func (s *loanService) CreateLoan(ctx context.Context, req dto.CreateLoanRequest, creatorUserID string) (*domain.Loan, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if !req.Principal.IsPositive() {
		return nil, fmt.Errorf("%w: principal must be positive", apperrors.ErrValidation)
	}
	if req.AnnualRate.IsNegative() {
		return nil, fmt.Errorf("%w: annual rate cannot be negative", apperrors.ErrValidation)
	}

	client, err := s.clientRepo.FindClientByID(ctx, req.ClientID)
	if err != nil {
		return nil, fmt.Errorf("failed to find client %s: %w", req.ClientID, err)
	}
	if !client.IsActive {
		return nil, fmt.Errorf("%w: client %s is inactive", apperrors.ErrValidation, req.ClientID)
	}
	if _, err := s.currencyRepo.FindCurrencyByCode(ctx, req.CurrencyCode); err != nil {
		return nil, fmt.Errorf("failed to find currency %s: %w", req.CurrencyCode, err)
	}

	now := time.Now().UTC()
	loan := domain.Loan{
		LoanID:           uuid.NewString(),
		ClientID:         req.ClientID,
		CurrencyCode:     req.CurrencyCode,
		Principal:        req.Principal,
		AnnualRate:       req.AnnualRate,
		InstallmentCount: req.InstallmentCount,
		Frequency:        domain.PaymentFrequency(req.Frequency),
		DisbursementDate: req.DisbursementDate,
		Status:           domain.LoanPending,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}

	// Dry-run the generator so malformed parameters are rejected at creation
	// time rather than at approval.
	if _, err := amortization.GenerateSchedule(scheduleParamsFor(&loan)); err != nil {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, err.Error())
	}

	if err := s.loanRepo.SaveLoan(ctx, loan); err != nil {
		logger.Error("Failed to save loan", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to save loan: %w", err)
	}

	logger.Info("Loan created successfully",
		slog.String("loan_id", loan.LoanID),
		slog.String("client_id", loan.ClientID))
	return &loan, nil
}

// GetLoanByID retrieves a loan with its installments.
func (s *loanService) GetLoanByID(ctx context.Context, loanID string) (*domain.Loan, error) {
	loan, err := s.loanRepo.FindLoanByID(ctx, loanID)
	if err != nil {
		return nil, fmt.Errorf("failed to find loan %s: %w", loanID, err)
	}
	installments, err := s.loanRepo.FindInstallmentsByLoanID(ctx, loanID)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to load installments for loan %s: %w", loanID, err)
	}
	loan.Installments = installments
	return loan, nil
}

// ListLoans retrieves a paginated list of loans, optionally filtered by client.
func (s *loanService) ListLoans(ctx context.Context, params dto.ListLoansParams) ([]domain.Loan, error) {
	if params.Limit <= 0 {
		params.Limit = 20
	}
	if params.ClientID != "" {
		loans, err := s.loanRepo.ListLoansByClient(ctx, params.ClientID, params.Limit, params.Offset)
		if err != nil {
			return nil, fmt.Errorf("failed to list loans for client %s: %w", params.ClientID, err)
		}
		return loans, nil
	}
	loans, err := s.loanRepo.ListLoans(ctx, params.Limit, params.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list loans: %w", err)
	}
	return loans, nil
}

// ApproveLoan approves a pending loan, generates its amortization schedule and
// persists it as one atomic batch. The loan becomes ACTIVE.
func (s *loanService) ApproveLoan(ctx context.Context, loanID string, approverUserID string) (*domain.Loan, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	loan, err := s.loanRepo.FindLoanByID(ctx, loanID)
	if err != nil {
		return nil, fmt.Errorf("failed to find loan %s: %w", loanID, err)
	}
	if loan.Status != domain.LoanPending {
		return nil, fmt.Errorf("%w: loan %s is %s", ErrLoanNotPending, loanID, loan.Status)
	}

	installments, err := amortization.GenerateSchedule(scheduleParamsFor(loan))
	if err != nil {
		return nil, fmt.Errorf("failed to generate schedule for loan %s: %w", loanID, err)
	}
	stampSchedule(installments, loan.LoanID, approverUserID, time.Now().UTC())

	if err := s.loanRepo.SaveSchedule(ctx, loan.LoanID, installments); err != nil {
		logger.Error("Failed to save schedule", slog.String("error", err.Error()), slog.String("loan_id", loanID))
		return nil, fmt.Errorf("failed to save schedule for loan %s: %w", loanID, err)
	}

	now := time.Now().UTC()
	if err := s.loanRepo.UpdateLoanStatus(ctx, loan.LoanID, domain.LoanActive, approverUserID, now); err != nil {
		logger.Error("Failed to activate loan", slog.String("error", err.Error()), slog.String("loan_id", loanID))
		return nil, fmt.Errorf("failed to activate loan %s: %w", loanID, err)
	}

	loan.Status = domain.LoanActive
	loan.LastUpdatedAt = now
	loan.LastUpdatedBy = approverUserID
	loan.Installments = installments

	logger.Info("Loan approved and schedule generated",
		slog.String("loan_id", loan.LoanID),
		slog.Int("installments", len(installments)))
	return loan, nil
}

// RejectLoan rejects a pending loan.
func (s *loanService) RejectLoan(ctx context.Context, loanID string, userID string) error {
	return s.transitionPendingLoan(ctx, loanID, domain.LoanRejected, userID)
}

// CancelLoan cancels a loan that has no settled installments.
func (s *loanService) CancelLoan(ctx context.Context, loanID string, userID string) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	loan, err := s.loanRepo.FindLoanByID(ctx, loanID)
	if err != nil {
		return fmt.Errorf("failed to find loan %s: %w", loanID, err)
	}
	switch loan.Status {
	case domain.LoanRejected, domain.LoanCancelled, domain.LoanPaid:
		return fmt.Errorf("%w: loan %s is %s", apperrors.ErrConflict, loanID, loan.Status)
	}

	installments, err := s.loanRepo.FindInstallmentsByLoanID(ctx, loanID)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return fmt.Errorf("failed to load installments for loan %s: %w", loanID, err)
	}
	for i := range installments {
		if installments[i].Status == domain.InstallmentSettled {
			return fmt.Errorf("%w: loan %s", ErrLoanHasSettledInstallments, loanID)
		}
	}

	if err := s.loanRepo.UpdateLoanStatus(ctx, loanID, domain.LoanCancelled, userID, time.Now().UTC()); err != nil {
		logger.Error("Failed to cancel loan", slog.String("error", err.Error()), slog.String("loan_id", loanID))
		return fmt.Errorf("failed to cancel loan %s: %w", loanID, err)
	}

	logger.Info("Loan cancelled", slog.String("loan_id", loanID))
	return nil
}

// RegenerateSchedule replaces a loan's schedule. Without force it fails once
// any installment has settled; with force, settled installments are preserved
// and the generated rows for their positions are discarded.
func (s *loanService) RegenerateSchedule(ctx context.Context, loanID string, force bool, userID string) (*domain.Loan, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	loan, err := s.loanRepo.FindLoanByID(ctx, loanID)
	if err != nil {
		return nil, fmt.Errorf("failed to find loan %s: %w", loanID, err)
	}
	switch loan.Status {
	case domain.LoanPending, domain.LoanRejected, domain.LoanCancelled:
		return nil, fmt.Errorf("%w: loan %s has no active schedule", apperrors.ErrConflict, loanID)
	}

	existing, err := s.loanRepo.FindInstallmentsByLoanID(ctx, loanID)
	if err != nil {
		return nil, fmt.Errorf("failed to load installments for loan %s: %w", loanID, err)
	}

	settledSeqs := make(map[int]bool)
	for i := range existing {
		if existing[i].Status == domain.InstallmentSettled {
			settledSeqs[existing[i].SequenceNumber] = true
		}
	}
	if len(settledSeqs) > 0 && !force {
		return nil, fmt.Errorf("%w: loan %s", ErrCannotRegenerateSettledLoan, loanID)
	}

	generated, err := amortization.GenerateSchedule(scheduleParamsFor(loan))
	if err != nil {
		return nil, fmt.Errorf("failed to generate schedule for loan %s: %w", loanID, err)
	}

	replacement := make([]domain.Installment, 0, len(generated))
	for i := range generated {
		if settledSeqs[generated[i].SequenceNumber] {
			continue
		}
		replacement = append(replacement, generated[i])
	}
	stampSchedule(replacement, loan.LoanID, userID, time.Now().UTC())

	if err := s.loanRepo.ReplacePendingSchedule(ctx, loan.LoanID, replacement); err != nil {
		logger.Error("Failed to replace schedule", slog.String("error", err.Error()), slog.String("loan_id", loanID))
		return nil, fmt.Errorf("failed to replace schedule for loan %s: %w", loanID, err)
	}

	installments, err := s.loanRepo.FindInstallmentsByLoanID(ctx, loanID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload installments for loan %s: %w", loanID, err)
	}
	loan.Installments = installments

	logger.Info("Schedule regenerated",
		slog.String("loan_id", loanID),
		slog.Bool("force", force),
		slog.Int("replaced", len(replacement)),
		slog.Int("preserved", len(settledSeqs)))
	return loan, nil
}

func (s *loanService) transitionPendingLoan(ctx context.Context, loanID string, target domain.LoanStatus, userID string) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	loan, err := s.loanRepo.FindLoanByID(ctx, loanID)
	if err != nil {
		return fmt.Errorf("failed to find loan %s: %w", loanID, err)
	}
	if loan.Status != domain.LoanPending {
		return fmt.Errorf("%w: loan %s is %s", ErrLoanNotPending, loanID, loan.Status)
	}

	if err := s.loanRepo.UpdateLoanStatus(ctx, loanID, target, userID, time.Now().UTC()); err != nil {
		logger.Error("Failed to update loan status",
			slog.String("error", err.Error()),
			slog.String("loan_id", loanID),
			slog.String("target", string(target)))
		return fmt.Errorf("failed to update loan %s status: %w", loanID, err)
	}

	logger.Info("Loan status updated", slog.String("loan_id", loanID), slog.String("status", string(target)))
	return nil
}

func scheduleParamsFor(loan *domain.Loan) amortization.ScheduleParams {
	return amortization.ScheduleParams{
		Principal:  loan.Principal,
		AnnualRate: loan.AnnualRate,
		Count:      loan.InstallmentCount,
		Frequency:  loan.Frequency,
		BaseDate:   loan.DisbursementDate,
	}
}

// stampSchedule assigns identifiers and audit fields to generated installments.
func stampSchedule(installments []domain.Installment, loanID string, userID string, now time.Time) {
	for i := range installments {
		installments[i].InstallmentID = uuid.NewString()
		installments[i].LoanID = loanID
		installments[i].AuditFields = domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		}
	}
}
