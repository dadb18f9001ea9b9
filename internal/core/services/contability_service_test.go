package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/crediya/loan_backoffice_app/internal/apperrors"
	"github.com/crediya/loan_backoffice_app/internal/core/domain"
	portssvc "github.com/crediya/loan_backoffice_app/internal/core/ports/services"
	"github.com/crediya/loan_backoffice_app/internal/core/services"
	"github.com/crediya/loan_backoffice_app/internal/dto"
)

// --- Mock ContabilityRepository ---
type MockContabilityRepository struct {
	mock.Mock
}

func (m *MockContabilityRepository) FindRowByInstallmentID(ctx context.Context, installmentID string) (*domain.ContabilityRow, error) {
	args := m.Called(ctx, installmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ContabilityRow), args.Error(1)
}

func (m *MockContabilityRepository) ListRows(ctx context.Context, from time.Time, to time.Time, limit int, offset int) ([]domain.ContabilityRow, error) {
	args := m.Called(ctx, from, to, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ContabilityRow), args.Error(1)
}

func (m *MockContabilityRepository) UpsertRow(ctx context.Context, row domain.ContabilityRow) error {
	args := m.Called(ctx, row)
	return args.Error(0)
}

func (m *MockContabilityRepository) DeleteRowByInstallmentID(ctx context.Context, installmentID string) error {
	args := m.Called(ctx, installmentID)
	return args.Error(0)
}

// --- Mock ExchangeRateRepository ---
type MockExchangeRateRepository struct {
	mock.Mock
}

func (m *MockExchangeRateRepository) FindLatestRate(ctx context.Context, fromCurrencyCode, toCurrencyCode string, asOf time.Time) (*domain.ExchangeRate, error) {
	args := m.Called(ctx, fromCurrencyCode, toCurrencyCode, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ExchangeRate), args.Error(1)
}

func (m *MockExchangeRateRepository) SaveExchangeRate(ctx context.Context, rate domain.ExchangeRate) error {
	args := m.Called(ctx, rate)
	return args.Error(0)
}

// --- Test Suite ---
type ContabilityServiceTestSuite struct {
	suite.Suite
	mockContabilityRepo *MockContabilityRepository
	mockLoanRepo        *MockLoanRepository
	mockClientRepo      *MockClientRepository
	mockRateRepo        *MockExchangeRateRepository
	service             portssvc.ContabilitySvcFacade

	retention time.Duration
	loan      *domain.Loan
	client    *domain.Client
}

func (suite *ContabilityServiceTestSuite) SetupTest() {
	suite.mockContabilityRepo = new(MockContabilityRepository)
	suite.mockLoanRepo = new(MockLoanRepository)
	suite.mockClientRepo = new(MockClientRepository)
	suite.mockRateRepo = new(MockExchangeRateRepository)
	suite.retention = 7 * 24 * time.Hour
	suite.service = services.NewContabilityService(
		suite.mockContabilityRepo,
		suite.mockLoanRepo,
		suite.mockClientRepo,
		suite.mockRateRepo,
		"PEN",
		suite.retention,
	)

	suite.loan = &domain.Loan{
		LoanID:       uuid.NewString(),
		ClientID:     uuid.NewString(),
		CurrencyCode: "USD",
	}
	suite.client = &domain.Client{
		ClientID:       suite.loan.ClientID,
		FirstName:      "Jorge",
		LastName:       "Huaman",
		DocumentType:   domain.DocumentDNI,
		DocumentNumber: "12345678",
	}
}

func (suite *ContabilityServiceTestSuite) settledInstallment(paymentDate time.Time) *domain.Installment {
	return &domain.Installment{
		InstallmentID:  uuid.NewString(),
		LoanID:         suite.loan.LoanID,
		SequenceNumber: 1,
		DueDate:        paymentDate.AddDate(0, 0, -3),
		Amount:         decimal.RequireFromString("106.62"),
		PaidAmount:     decimal.RequireFromString("106.62"),
		SettlementDate: &paymentDate,
		Status:         domain.InstallmentSettled,
	}
}

// --- Test Cases ---

func (suite *ContabilityServiceTestSuite) TestRefreshCacheRow_UpsertsConvertedRow() {
	ctx := context.Background()
	paymentDate := time.Now().UTC().AddDate(0, 0, -1)
	installment := suite.settledInstallment(paymentDate)

	suite.mockLoanRepo.On("FindInstallmentByID", ctx, installment.InstallmentID).Return(installment, nil).Once()
	suite.mockContabilityRepo.On("FindRowByInstallmentID", ctx, installment.InstallmentID).Return(nil, apperrors.ErrNotFound).Once()
	suite.mockLoanRepo.On("FindLoanByID", ctx, suite.loan.LoanID).Return(suite.loan, nil).Once()
	suite.mockClientRepo.On("FindClientByID", ctx, suite.client.ClientID).Return(suite.client, nil).Once()
	suite.mockRateRepo.On("FindLatestRate", ctx, "USD", "PEN", paymentDate).Return(&domain.ExchangeRate{
		Rate: decimal.RequireFromString("3.75"),
	}, nil).Once()
	suite.mockContabilityRepo.On("UpsertRow", ctx, mock.MatchedBy(func(row domain.ContabilityRow) bool {
		return row.InstallmentID == installment.InstallmentID &&
			row.ClientName == "Jorge Huaman" &&
			row.DocumentAmount.Equal(decimal.RequireFromString("106.62")) &&
			row.ExchangeRate.Equal(decimal.RequireFromString("3.75")) &&
			row.LocalAmount.Equal(decimal.RequireFromString("399.83"))
	})).Return(nil).Once()

	err := suite.service.RefreshCacheRow(ctx, installment.InstallmentID)

	suite.Require().NoError(err)
	suite.mockContabilityRepo.AssertExpectations(suite.T())
	suite.mockRateRepo.AssertExpectations(suite.T())
}

func (suite *ContabilityServiceTestSuite) TestRefreshCacheRow_SecondRefreshReusesRowID() {
	ctx := context.Background()
	paymentDate := time.Now().UTC().AddDate(0, 0, -1)
	installment := suite.settledInstallment(paymentDate)
	existing := &domain.ContabilityRow{
		RowID:         uuid.NewString(),
		InstallmentID: installment.InstallmentID,
		PaymentDate:   paymentDate,
	}

	suite.mockLoanRepo.On("FindInstallmentByID", ctx, installment.InstallmentID).Return(installment, nil).Once()
	suite.mockContabilityRepo.On("FindRowByInstallmentID", ctx, installment.InstallmentID).Return(existing, nil).Once()
	suite.mockLoanRepo.On("FindLoanByID", ctx, suite.loan.LoanID).Return(suite.loan, nil).Once()
	suite.mockClientRepo.On("FindClientByID", ctx, suite.client.ClientID).Return(suite.client, nil).Once()
	suite.mockRateRepo.On("FindLatestRate", ctx, "USD", "PEN", paymentDate).Return(&domain.ExchangeRate{
		Rate: decimal.RequireFromString("3.75"),
	}, nil).Once()
	suite.mockContabilityRepo.On("UpsertRow", ctx, mock.MatchedBy(func(row domain.ContabilityRow) bool {
		return row.RowID == existing.RowID
	})).Return(nil).Once()

	err := suite.service.RefreshCacheRow(ctx, installment.InstallmentID)

	suite.Require().NoError(err)
	suite.mockContabilityRepo.AssertExpectations(suite.T())
}

func (suite *ContabilityServiceTestSuite) TestRefreshCacheRow_FrozenRowUntouched() {
	ctx := context.Background()
	paymentDate := time.Now().UTC().AddDate(0, 0, -10)
	installment := suite.settledInstallment(paymentDate)
	frozen := &domain.ContabilityRow{
		RowID:         uuid.NewString(),
		InstallmentID: installment.InstallmentID,
		PaymentDate:   paymentDate,
	}

	suite.mockLoanRepo.On("FindInstallmentByID", ctx, installment.InstallmentID).Return(installment, nil).Once()
	suite.mockContabilityRepo.On("FindRowByInstallmentID", ctx, installment.InstallmentID).Return(frozen, nil).Once()

	err := suite.service.RefreshCacheRow(ctx, installment.InstallmentID)

	suite.Require().NoError(err)
	suite.mockContabilityRepo.AssertNotCalled(suite.T(), "UpsertRow", mock.Anything, mock.Anything)
	suite.mockContabilityRepo.AssertNotCalled(suite.T(), "DeleteRowByInstallmentID", mock.Anything, mock.Anything)
}

func (suite *ContabilityServiceTestSuite) TestRefreshCacheRow_PendingInstallmentNoRow() {
	ctx := context.Background()
	installment := &domain.Installment{
		InstallmentID: uuid.NewString(),
		LoanID:        suite.loan.LoanID,
		Status:        domain.InstallmentPending,
	}

	suite.mockLoanRepo.On("FindInstallmentByID", ctx, installment.InstallmentID).Return(installment, nil).Once()
	suite.mockContabilityRepo.On("FindRowByInstallmentID", ctx, installment.InstallmentID).Return(nil, apperrors.ErrNotFound).Once()

	err := suite.service.RefreshCacheRow(ctx, installment.InstallmentID)

	suite.Require().NoError(err)
	suite.mockContabilityRepo.AssertNotCalled(suite.T(), "UpsertRow", mock.Anything, mock.Anything)
}

func (suite *ContabilityServiceTestSuite) TestRefreshCacheRow_ReversalDeletesRecentRow() {
	ctx := context.Background()
	paymentDate := time.Now().UTC().AddDate(0, 0, -1)
	installment := &domain.Installment{
		InstallmentID: uuid.NewString(),
		LoanID:        suite.loan.LoanID,
		Status:        domain.InstallmentPending,
	}
	existing := &domain.ContabilityRow{
		RowID:         uuid.NewString(),
		InstallmentID: installment.InstallmentID,
		PaymentDate:   paymentDate,
	}

	suite.mockLoanRepo.On("FindInstallmentByID", ctx, installment.InstallmentID).Return(installment, nil).Once()
	suite.mockContabilityRepo.On("FindRowByInstallmentID", ctx, installment.InstallmentID).Return(existing, nil).Once()
	suite.mockContabilityRepo.On("DeleteRowByInstallmentID", ctx, installment.InstallmentID).Return(nil).Once()

	err := suite.service.RefreshCacheRow(ctx, installment.InstallmentID)

	suite.Require().NoError(err)
	suite.mockContabilityRepo.AssertExpectations(suite.T())
}

func (suite *ContabilityServiceTestSuite) TestRefreshCacheRow_LocalCurrencyUsesUnitRate() {
	ctx := context.Background()
	suite.loan.CurrencyCode = "PEN"
	paymentDate := time.Now().UTC().AddDate(0, 0, -1)
	installment := suite.settledInstallment(paymentDate)

	suite.mockLoanRepo.On("FindInstallmentByID", ctx, installment.InstallmentID).Return(installment, nil).Once()
	suite.mockContabilityRepo.On("FindRowByInstallmentID", ctx, installment.InstallmentID).Return(nil, apperrors.ErrNotFound).Once()
	suite.mockLoanRepo.On("FindLoanByID", ctx, suite.loan.LoanID).Return(suite.loan, nil).Once()
	suite.mockClientRepo.On("FindClientByID", ctx, suite.client.ClientID).Return(suite.client, nil).Once()
	suite.mockContabilityRepo.On("UpsertRow", ctx, mock.MatchedBy(func(row domain.ContabilityRow) bool {
		return row.LocalAmount.Equal(row.DocumentAmount) && row.ExchangeRate.Equal(decimal.NewFromInt(1))
	})).Return(nil).Once()

	err := suite.service.RefreshCacheRow(ctx, installment.InstallmentID)

	suite.Require().NoError(err)
	suite.mockRateRepo.AssertNotCalled(suite.T(), "FindLatestRate", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	suite.mockContabilityRepo.AssertExpectations(suite.T())
}

func (suite *ContabilityServiceTestSuite) TestRefreshCacheRow_NoExchangeRate() {
	ctx := context.Background()
	paymentDate := time.Now().UTC().AddDate(0, 0, -1)
	installment := suite.settledInstallment(paymentDate)

	suite.mockLoanRepo.On("FindInstallmentByID", ctx, installment.InstallmentID).Return(installment, nil).Once()
	suite.mockContabilityRepo.On("FindRowByInstallmentID", ctx, installment.InstallmentID).Return(nil, apperrors.ErrNotFound).Once()
	suite.mockLoanRepo.On("FindLoanByID", ctx, suite.loan.LoanID).Return(suite.loan, nil).Once()
	suite.mockClientRepo.On("FindClientByID", ctx, suite.client.ClientID).Return(suite.client, nil).Once()
	suite.mockRateRepo.On("FindLatestRate", ctx, "USD", "PEN", paymentDate).Return(nil, apperrors.ErrNotFound).Once()

	err := suite.service.RefreshCacheRow(ctx, installment.InstallmentID)

	suite.Require().Error(err)
	suite.ErrorIs(err, services.ErrNoExchangeRate)
	suite.mockContabilityRepo.AssertNotCalled(suite.T(), "UpsertRow", mock.Anything, mock.Anything)
}

func (suite *ContabilityServiceTestSuite) TestGetReport_InvertedRange() {
	ctx := context.Background()
	params := dto.ContabilityReportParams{
		From: time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	}

	rows, err := suite.service.GetReport(ctx, params)

	suite.Require().Error(err)
	suite.Nil(rows)
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *ContabilityServiceTestSuite) TestGetReport_DefaultsLimit() {
	ctx := context.Background()
	from := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	expected := []domain.ContabilityRow{{RowID: uuid.NewString()}}

	suite.mockContabilityRepo.On("ListRows", ctx, from, to, 100, 0).Return(expected, nil).Once()

	rows, err := suite.service.GetReport(ctx, dto.ContabilityReportParams{From: from, To: to})

	suite.Require().NoError(err)
	suite.Equal(expected, rows)
	suite.mockContabilityRepo.AssertExpectations(suite.T())
}

func TestContabilityServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ContabilityServiceTestSuite))
}
