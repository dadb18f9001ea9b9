package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/crediya/loan_backoffice_app/internal/apperrors"
	"github.com/crediya/loan_backoffice_app/internal/core/domain"
	portssvc "github.com/crediya/loan_backoffice_app/internal/core/ports/services"
	"github.com/crediya/loan_backoffice_app/internal/core/services"
	"github.com/crediya/loan_backoffice_app/internal/dto"
)

// --- Mock PaymentRepository ---
type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) FindPaymentByID(ctx context.Context, paymentID string) (*domain.Payment, error) {
	args := m.Called(ctx, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockPaymentRepository) ListPaymentsByLoan(ctx context.Context, loanID string, limit int, offset int) ([]domain.Payment, error) {
	args := m.Called(ctx, loanID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Payment), args.Error(1)
}

func (m *MockPaymentRepository) FindAllocationsByPaymentID(ctx context.Context, paymentID string) ([]domain.PaymentAllocation, error) {
	args := m.Called(ctx, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PaymentAllocation), args.Error(1)
}

func (m *MockPaymentRepository) FindAllocationsByInstallmentID(ctx context.Context, installmentID string) ([]domain.PaymentAllocation, error) {
	args := m.Called(ctx, installmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PaymentAllocation), args.Error(1)
}

func (m *MockPaymentRepository) SavePayment(ctx context.Context, tx pgx.Tx, payment domain.Payment) error {
	args := m.Called(ctx, tx, payment)
	return args.Error(0)
}

func (m *MockPaymentRepository) SaveAllocations(ctx context.Context, tx pgx.Tx, allocations []domain.PaymentAllocation) error {
	args := m.Called(ctx, tx, allocations)
	return args.Error(0)
}

func (m *MockPaymentRepository) ReverseAllocationsForInstallment(ctx context.Context, tx pgx.Tx, installmentID string, reversedBy string, reversedAt time.Time) ([]domain.PaymentAllocation, error) {
	args := m.Called(ctx, tx, installmentID, reversedBy, reversedAt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PaymentAllocation), args.Error(1)
}

func (m *MockPaymentRepository) UpdatePaymentReview(ctx context.Context, tx pgx.Tx, paymentID string, unallocatedAmount decimal.Decimal, requiresReview bool) error {
	args := m.Called(ctx, tx, paymentID, unallocatedAmount, requiresReview)
	return args.Error(0)
}

func (m *MockPaymentRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(pgx.Tx), args.Error(1)
}

func (m *MockPaymentRepository) Commit(ctx context.Context, tx pgx.Tx) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockPaymentRepository) Rollback(ctx context.Context, tx pgx.Tx) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

// --- Mock ContabilityService ---
type MockContabilitySvc struct {
	mock.Mock
}

func (m *MockContabilitySvc) RefreshCacheRow(ctx context.Context, installmentID string) error {
	args := m.Called(ctx, installmentID)
	return args.Error(0)
}

func (m *MockContabilitySvc) GetReport(ctx context.Context, params dto.ContabilityReportParams) ([]domain.ContabilityRow, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ContabilityRow), args.Error(1)
}

// --- Test Suite ---
type PaymentServiceTestSuite struct {
	suite.Suite
	mockPaymentRepo    *MockPaymentRepository
	mockLoanRepo       *MockLoanRepository
	mockContabilitySvc *MockContabilitySvc
	service            portssvc.PaymentSvcFacade

	loan        *domain.Loan
	paymentDate time.Time
}

func (suite *PaymentServiceTestSuite) SetupTest() {
	suite.mockPaymentRepo = new(MockPaymentRepository)
	suite.mockLoanRepo = new(MockLoanRepository)
	suite.mockContabilitySvc = new(MockContabilitySvc)
	suite.service = services.NewPaymentService(suite.mockPaymentRepo, suite.mockLoanRepo, suite.mockContabilitySvc)

	suite.loan = &domain.Loan{
		LoanID:       uuid.NewString(),
		ClientID:     uuid.NewString(),
		CurrencyCode: "PEN",
		Status:       domain.LoanActive,
	}
	suite.paymentDate = time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
}

// pendingInstallments builds n pending installments of the given amount with
// ascending due dates.
func (suite *PaymentServiceTestSuite) pendingInstallments(n int, amount int64) []domain.Installment {
	installments := make([]domain.Installment, n)
	for i := range installments {
		installments[i] = domain.Installment{
			InstallmentID:  uuid.NewString(),
			LoanID:         suite.loan.LoanID,
			SequenceNumber: i + 1,
			DueDate:        time.Date(2025, time.Month(i+1), 15, 0, 0, 0, 0, time.UTC),
			Amount:         decimal.NewFromInt(amount),
			PaidAmount:     decimal.Zero,
			Status:         domain.InstallmentPending,
		}
	}
	return installments
}

func (suite *PaymentServiceTestSuite) expectTransaction() {
	suite.mockPaymentRepo.On("Begin", mock.Anything).Return(nil, nil).Once()
	suite.mockPaymentRepo.On("Commit", mock.Anything, mock.Anything).Return(nil).Once()
	suite.mockPaymentRepo.On("Rollback", mock.Anything, mock.Anything).Return(pgx.ErrTxClosed).Maybe()
}

// --- Test Cases ---

func (suite *PaymentServiceTestSuite) TestRegisterPayment_SpansInstallments() {
	ctx := context.Background()
	creatorID := uuid.NewString()
	pending := suite.pendingInstallments(3, 100)

	suite.mockLoanRepo.On("FindLoanByID", ctx, suite.loan.LoanID).Return(suite.loan, nil).Once()
	suite.expectTransaction()
	suite.mockLoanRepo.On("LockPendingInstallments", ctx, mock.Anything, suite.loan.LoanID).Return(pending, nil).Once()
	suite.mockPaymentRepo.On("SavePayment", ctx, mock.Anything, mock.MatchedBy(func(p domain.Payment) bool {
		return p.LoanID == suite.loan.LoanID && !p.RequiresReview && p.UnallocatedAmount.IsZero()
	})).Return(nil).Once()
	suite.mockPaymentRepo.On("SaveAllocations", ctx, mock.Anything, mock.MatchedBy(func(allocations []domain.PaymentAllocation) bool {
		return len(allocations) == 3
	})).Return(nil).Once()
	suite.mockLoanRepo.On("UpdateInstallmentSettlement", ctx, mock.Anything, mock.AnythingOfType("domain.Installment")).Return(nil).Times(3)
	suite.mockContabilitySvc.On("RefreshCacheRow", ctx, mock.AnythingOfType("string")).Return(nil).Twice()

	// 250 against three installments of 100: two settle, the third is half paid.
	result, err := suite.service.RegisterPayment(ctx, dto.RegisterPaymentRequest{
		LoanID:      suite.loan.LoanID,
		Amount:      decimal.NewFromInt(250),
		PaymentDate: suite.paymentDate,
	}, creatorID)

	suite.Require().NoError(err)
	suite.Require().NotNil(result)
	suite.Require().Len(result.Lines, 3)

	suite.True(result.Lines[0].AmountApplied.Equal(decimal.NewFromInt(100)))
	suite.True(result.Lines[0].Settled)
	suite.True(result.Lines[1].AmountApplied.Equal(decimal.NewFromInt(100)))
	suite.True(result.Lines[1].Settled)
	suite.True(result.Lines[2].AmountApplied.Equal(decimal.NewFromInt(50)))
	suite.False(result.Lines[2].Settled)

	suite.True(result.Unallocated.IsZero())
	suite.False(result.RequiresReview)

	suite.mockPaymentRepo.AssertExpectations(suite.T())
	suite.mockLoanRepo.AssertExpectations(suite.T())
	suite.mockContabilitySvc.AssertExpectations(suite.T())
}

func (suite *PaymentServiceTestSuite) TestRegisterPayment_PartialAccumulates() {
	ctx := context.Background()
	pending := suite.pendingInstallments(1, 100)
	pending[0].PaidAmount = decimal.NewFromInt(30)

	suite.mockLoanRepo.On("FindLoanByID", ctx, suite.loan.LoanID).Return(suite.loan, nil).Once()
	suite.expectTransaction()
	suite.mockLoanRepo.On("LockPendingInstallments", ctx, mock.Anything, suite.loan.LoanID).Return(pending, nil).Once()
	suite.mockPaymentRepo.On("SavePayment", ctx, mock.Anything, mock.AnythingOfType("domain.Payment")).Return(nil).Once()
	suite.mockPaymentRepo.On("SaveAllocations", ctx, mock.Anything, mock.Anything).Return(nil).Once()
	suite.mockLoanRepo.On("UpdateInstallmentSettlement", ctx, mock.Anything, mock.MatchedBy(func(inst domain.Installment) bool {
		// 30 already paid plus 40 now; still pending.
		return inst.PaidAmount.Equal(decimal.NewFromInt(70)) && inst.Status == domain.InstallmentPending && inst.SettlementDate == nil
	})).Return(nil).Once()

	result, err := suite.service.RegisterPayment(ctx, dto.RegisterPaymentRequest{
		LoanID:      suite.loan.LoanID,
		Amount:      decimal.NewFromInt(40),
		PaymentDate: suite.paymentDate,
	}, uuid.NewString())

	suite.Require().NoError(err)
	suite.Require().Len(result.Lines, 1)
	suite.False(result.Lines[0].Settled)
	suite.mockLoanRepo.AssertExpectations(suite.T())
}

func (suite *PaymentServiceTestSuite) TestRegisterPayment_ExactSettlementStampsDate() {
	ctx := context.Background()
	pending := suite.pendingInstallments(1, 100)

	suite.mockLoanRepo.On("FindLoanByID", ctx, suite.loan.LoanID).Return(suite.loan, nil).Once()
	suite.expectTransaction()
	suite.mockLoanRepo.On("LockPendingInstallments", ctx, mock.Anything, suite.loan.LoanID).Return(pending, nil).Once()
	suite.mockPaymentRepo.On("SavePayment", ctx, mock.Anything, mock.AnythingOfType("domain.Payment")).Return(nil).Once()
	suite.mockPaymentRepo.On("SaveAllocations", ctx, mock.Anything, mock.Anything).Return(nil).Once()
	suite.mockLoanRepo.On("UpdateInstallmentSettlement", ctx, mock.Anything, mock.MatchedBy(func(inst domain.Installment) bool {
		return inst.Status == domain.InstallmentSettled && inst.SettlementDate != nil && inst.SettlementDate.Equal(suite.paymentDate)
	})).Return(nil).Once()
	// The single pending installment settled, so the loan is fully repaid.
	suite.mockLoanRepo.On("UpdateLoanStatusInTx", ctx, mock.Anything, suite.loan.LoanID, domain.LoanPaid, mock.Anything, mock.Anything).Return(nil).Once()
	suite.mockContabilitySvc.On("RefreshCacheRow", ctx, pending[0].InstallmentID).Return(nil).Once()

	result, err := suite.service.RegisterPayment(ctx, dto.RegisterPaymentRequest{
		LoanID:      suite.loan.LoanID,
		Amount:      decimal.NewFromInt(100),
		PaymentDate: suite.paymentDate,
	}, uuid.NewString())

	suite.Require().NoError(err)
	suite.True(result.Lines[0].Settled)
	suite.mockLoanRepo.AssertExpectations(suite.T())
	suite.mockContabilitySvc.AssertExpectations(suite.T())
}

func (suite *PaymentServiceTestSuite) TestRegisterPayment_OverpaymentFlagged() {
	ctx := context.Background()
	pending := suite.pendingInstallments(1, 100)

	suite.mockLoanRepo.On("FindLoanByID", ctx, suite.loan.LoanID).Return(suite.loan, nil).Once()
	suite.expectTransaction()
	suite.mockLoanRepo.On("LockPendingInstallments", ctx, mock.Anything, suite.loan.LoanID).Return(pending, nil).Once()
	suite.mockPaymentRepo.On("SavePayment", ctx, mock.Anything, mock.MatchedBy(func(p domain.Payment) bool {
		return p.RequiresReview && p.UnallocatedAmount.Equal(decimal.NewFromInt(60))
	})).Return(nil).Once()
	suite.mockPaymentRepo.On("SaveAllocations", ctx, mock.Anything, mock.Anything).Return(nil).Once()
	suite.mockLoanRepo.On("UpdateInstallmentSettlement", ctx, mock.Anything, mock.Anything).Return(nil).Once()
	suite.mockLoanRepo.On("UpdateLoanStatusInTx", ctx, mock.Anything, suite.loan.LoanID, domain.LoanPaid, mock.Anything, mock.Anything).Return(nil).Once()
	suite.mockContabilitySvc.On("RefreshCacheRow", ctx, mock.Anything).Return(nil).Once()

	result, err := suite.service.RegisterPayment(ctx, dto.RegisterPaymentRequest{
		LoanID:      suite.loan.LoanID,
		Amount:      decimal.NewFromInt(160),
		PaymentDate: suite.paymentDate,
	}, uuid.NewString())

	suite.Require().NoError(err)
	suite.True(result.RequiresReview)
	suite.True(result.Unallocated.Equal(decimal.NewFromInt(60)))
	suite.mockPaymentRepo.AssertExpectations(suite.T())
}

func (suite *PaymentServiceTestSuite) TestRegisterPayment_NoPendingInstallments() {
	ctx := context.Background()

	suite.mockLoanRepo.On("FindLoanByID", ctx, suite.loan.LoanID).Return(suite.loan, nil).Once()
	suite.expectTransaction()
	suite.mockLoanRepo.On("LockPendingInstallments", ctx, mock.Anything, suite.loan.LoanID).Return([]domain.Installment{}, nil).Once()
	suite.mockPaymentRepo.On("SavePayment", ctx, mock.Anything, mock.MatchedBy(func(p domain.Payment) bool {
		return p.RequiresReview && p.UnallocatedAmount.Equal(decimal.NewFromInt(75))
	})).Return(nil).Once()

	result, err := suite.service.RegisterPayment(ctx, dto.RegisterPaymentRequest{
		LoanID:      suite.loan.LoanID,
		Amount:      decimal.NewFromInt(75),
		PaymentDate: suite.paymentDate,
	}, uuid.NewString())

	// The receipt is recorded and flagged, never rejected; the sentinel rides
	// along with the result.
	suite.Require().ErrorIs(err, services.ErrNoPendingInstallments)
	suite.Require().NotNil(result)
	suite.Empty(result.Lines)
	suite.True(result.RequiresReview)
	suite.mockPaymentRepo.AssertNotCalled(suite.T(), "SaveAllocations", mock.Anything, mock.Anything, mock.Anything)
	suite.mockPaymentRepo.AssertExpectations(suite.T())
}

func (suite *PaymentServiceTestSuite) TestRegisterPayment_NonPositiveAmount() {
	ctx := context.Background()

	result, err := suite.service.RegisterPayment(ctx, dto.RegisterPaymentRequest{
		LoanID:      suite.loan.LoanID,
		Amount:      decimal.Zero,
		PaymentDate: suite.paymentDate,
	}, uuid.NewString())

	suite.Require().Error(err)
	suite.Nil(result)
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *PaymentServiceTestSuite) TestRegisterPayment_LoanNotAcceptingPayments() {
	ctx := context.Background()
	suite.loan.Status = domain.LoanPending

	suite.mockLoanRepo.On("FindLoanByID", ctx, suite.loan.LoanID).Return(suite.loan, nil).Once()

	result, err := suite.service.RegisterPayment(ctx, dto.RegisterPaymentRequest{
		LoanID:      suite.loan.LoanID,
		Amount:      decimal.NewFromInt(50),
		PaymentDate: suite.paymentDate,
	}, uuid.NewString())

	suite.Require().Error(err)
	suite.Nil(result)
	suite.ErrorIs(err, services.ErrLoanNotActive)
}

func (suite *PaymentServiceTestSuite) TestUnreconcileInstallment_Success() {
	ctx := context.Background()
	userID := uuid.NewString()
	settlementDate := suite.paymentDate
	installment := &domain.Installment{
		InstallmentID:  uuid.NewString(),
		LoanID:         suite.loan.LoanID,
		SequenceNumber: 1,
		Amount:         decimal.NewFromInt(100),
		PaidAmount:     decimal.NewFromInt(100),
		SettlementDate: &settlementDate,
		Status:         domain.InstallmentSettled,
	}
	paymentID := uuid.NewString()
	reversed := []domain.PaymentAllocation{
		{AllocationID: uuid.NewString(), PaymentID: paymentID, InstallmentID: installment.InstallmentID, Amount: decimal.NewFromInt(100)},
	}
	payment := &domain.Payment{PaymentID: paymentID, UnallocatedAmount: decimal.Zero}

	suite.mockLoanRepo.On("FindInstallmentByID", ctx, installment.InstallmentID).Return(installment, nil).Once()
	suite.mockPaymentRepo.On("Begin", mock.Anything).Return(nil, nil).Once()
	suite.mockPaymentRepo.On("Commit", mock.Anything, mock.Anything).Return(nil).Once()
	suite.mockPaymentRepo.On("Rollback", mock.Anything, mock.Anything).Return(pgx.ErrTxClosed).Maybe()
	suite.mockLoanRepo.On("LockPendingInstallments", ctx, mock.Anything, suite.loan.LoanID).Return([]domain.Installment{}, nil).Once()
	suite.mockPaymentRepo.On("ReverseAllocationsForInstallment", ctx, mock.Anything, installment.InstallmentID, userID, mock.AnythingOfType("time.Time")).Return(reversed, nil).Once()
	suite.mockPaymentRepo.On("FindPaymentByID", ctx, paymentID).Return(payment, nil).Once()
	suite.mockPaymentRepo.On("UpdatePaymentReview", ctx, mock.Anything, paymentID, decimal.NewFromInt(100), true).Return(nil).Once()
	suite.mockLoanRepo.On("UpdateInstallmentSettlement", ctx, mock.Anything, mock.MatchedBy(func(inst domain.Installment) bool {
		return inst.Status == domain.InstallmentPending && inst.SettlementDate == nil && inst.PaidAmount.IsZero()
	})).Return(nil).Once()
	suite.mockLoanRepo.On("UpdateLoanStatusInTx", ctx, mock.Anything, suite.loan.LoanID, domain.LoanActive, userID, mock.Anything).Return(nil).Once()
	suite.mockContabilitySvc.On("RefreshCacheRow", ctx, installment.InstallmentID).Return(nil).Once()

	err := suite.service.UnreconcileInstallment(ctx, installment.InstallmentID, userID)

	suite.Require().NoError(err)
	suite.mockPaymentRepo.AssertExpectations(suite.T())
	suite.mockLoanRepo.AssertExpectations(suite.T())
	suite.mockContabilitySvc.AssertExpectations(suite.T())
}

func (suite *PaymentServiceTestSuite) TestUnreconcileInstallment_NotSettled() {
	ctx := context.Background()
	installment := &domain.Installment{
		InstallmentID: uuid.NewString(),
		LoanID:        suite.loan.LoanID,
		Status:        domain.InstallmentPending,
	}

	suite.mockLoanRepo.On("FindInstallmentByID", ctx, installment.InstallmentID).Return(installment, nil).Once()

	err := suite.service.UnreconcileInstallment(ctx, installment.InstallmentID, uuid.NewString())

	suite.Require().Error(err)
	suite.ErrorIs(err, services.ErrInstallmentNotSettled)
	suite.mockPaymentRepo.AssertNotCalled(suite.T(), "ReverseAllocationsForInstallment", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPaymentServiceTestSuite(t *testing.T) {
	suite.Run(t, new(PaymentServiceTestSuite))
}
