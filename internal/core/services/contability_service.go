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

// ErrNoExchangeRate indicates no rate exists to convert a settled amount to local currency.
var ErrNoExchangeRate = errors.New("no exchange rate available")

// contabilityService maintains the denormalized reporting cache, one row per
// settled installment. Rows whose payment date has aged past the retention
// window are frozen and never touched again.
type contabilityService struct {
	contabilityRepo  portsrepo.ContabilityRepositoryFacade
	loanRepo         portsrepo.LoanRepositoryFacade
	clientRepo       portsrepo.ClientRepositoryFacade
	exchangeRateRepo portsrepo.ExchangeRateRepositoryFacade
	localCurrency    string
	retention        time.Duration
	now              func() time.Time
}

// NewContabilityService creates a new ContabilityService. localCurrency is the
// reporting currency; retention is how long rows stay recomputable.
func NewContabilityService(
	contabilityRepo portsrepo.ContabilityRepositoryFacade,
	loanRepo portsrepo.LoanRepositoryFacade,
	clientRepo portsrepo.ClientRepositoryFacade,
	exchangeRateRepo portsrepo.ExchangeRateRepositoryFacade,
	localCurrency string,
	retention time.Duration,
) portssvc.ContabilitySvcFacade {
	return &contabilityService{
		contabilityRepo:  contabilityRepo,
		loanRepo:         loanRepo,
		clientRepo:       clientRepo,
		exchangeRateRepo: exchangeRateRepo,
		localCurrency:    localCurrency,
		retention:        retention,
		now:              func() time.Time { return time.Now().UTC() },
	}
}

var _ portssvc.ContabilitySvcFacade = (*contabilityService)(nil)

// RefreshCacheRow recomputes the cache row of an installment. Settled
// installments get their row upserted; installments without a settlement get
// any stale row deleted. Frozen rows are left untouched either way.
func (s *contabilityService) RefreshCacheRow(ctx context.Context, installmentID string) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	installment, err := s.loanRepo.FindInstallmentByID(ctx, installmentID)
	if err != nil {
		return fmt.Errorf("failed to find installment %s: %w", installmentID, err)
	}

	existing, err := s.contabilityRepo.FindRowByInstallmentID(ctx, installmentID)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return fmt.Errorf("failed to find cache row for installment %s: %w", installmentID, err)
	}
	if existing != nil && existing.IsFrozen(s.now(), s.retention) {
		logger.Info("Skipping frozen contability row", slog.String("installment_id", installmentID))
		return nil
	}

	if installment.Status != domain.InstallmentSettled || installment.SettlementDate == nil {
		if existing == nil {
			return nil
		}
		if err := s.contabilityRepo.DeleteRowByInstallmentID(ctx, installmentID); err != nil {
			return fmt.Errorf("failed to delete cache row for installment %s: %w", installmentID, err)
		}
		logger.Info("Contability row removed after settlement reversal", slog.String("installment_id", installmentID))
		return nil
	}

	loan, err := s.loanRepo.FindLoanByID(ctx, installment.LoanID)
	if err != nil {
		return fmt.Errorf("failed to find loan %s: %w", installment.LoanID, err)
	}
	client, err := s.clientRepo.FindClientByID(ctx, loan.ClientID)
	if err != nil {
		return fmt.Errorf("failed to find client %s: %w", loan.ClientID, err)
	}

	paymentDate := *installment.SettlementDate
	rate, err := s.rateToLocal(ctx, loan.CurrencyCode, paymentDate)
	if err != nil {
		return err
	}

	now := s.now()
	row := domain.ContabilityRow{
		RowID:          uuid.NewString(),
		InstallmentID:  installment.InstallmentID,
		LoanID:         loan.LoanID,
		ClientID:       client.ClientID,
		ClientName:     client.FullName(),
		DocumentType:   client.DocumentType,
		DocumentNumber: client.DocumentNumber,
		DueDate:        installment.DueDate,
		PaymentDate:    paymentDate,
		CurrencyCode:   loan.CurrencyCode,
		DocumentAmount: installment.Amount,
		ExchangeRate:   rate,
		LocalAmount:    installment.Amount.Mul(rate).Round(2),
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     domain.SystemUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: domain.SystemUserID,
		},
	}
	if existing != nil {
		row.RowID = existing.RowID
		row.CreatedAt = existing.CreatedAt
		row.CreatedBy = existing.CreatedBy
	}

	if err := s.contabilityRepo.UpsertRow(ctx, row); err != nil {
		logger.Error("Failed to upsert contability row",
			slog.String("error", err.Error()),
			slog.String("installment_id", installmentID))
		return fmt.Errorf("failed to upsert cache row for installment %s: %w", installmentID, err)
	}

	logger.Info("Contability row refreshed",
		slog.String("installment_id", installmentID),
		slog.String("local_amount", row.LocalAmount.String()))
	return nil
}

// GetReport retrieves cache rows for the contability report.
func (s *contabilityService) GetReport(ctx context.Context, params dto.ContabilityReportParams) ([]domain.ContabilityRow, error) {
	if params.To.Before(params.From) {
		return nil, fmt.Errorf("%w: report range end precedes start", apperrors.ErrValidation)
	}
	if params.Limit <= 0 {
		params.Limit = 100
	}
	rows, err := s.contabilityRepo.ListRows(ctx, params.From, params.To, params.Limit, params.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list contability rows: %w", err)
	}
	return rows, nil
}

func (s *contabilityService) rateToLocal(ctx context.Context, currencyCode string, asOf time.Time) (decimal.Decimal, error) {
	if currencyCode == s.localCurrency {
		return decimal.NewFromInt(1), nil
	}
	rate, err := s.exchangeRateRepo.FindLatestRate(ctx, currencyCode, s.localCurrency, asOf)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return decimal.Zero, fmt.Errorf("%w: %s to %s as of %s", ErrNoExchangeRate, currencyCode, s.localCurrency, asOf.Format("2006-01-02"))
		}
		return decimal.Zero, fmt.Errorf("failed to find exchange rate %s to %s: %w", currencyCode, s.localCurrency, err)
	}
	return rate.Rate, nil
}
