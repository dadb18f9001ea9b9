package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/crediya/loan_backoffice_app/internal/apperrors"
	"github.com/crediya/loan_backoffice_app/internal/core/domain"
	portssvc "github.com/crediya/loan_backoffice_app/internal/core/ports/services"
	"github.com/crediya/loan_backoffice_app/internal/core/services"
	"github.com/crediya/loan_backoffice_app/internal/dto"
	"github.com/crediya/loan_backoffice_app/internal/handlers"
	"github.com/crediya/loan_backoffice_app/internal/middleware"
)

// --- Mock LoanService ---
type MockLoanService struct {
	mock.Mock
}

func (m *MockLoanService) CreateLoan(ctx context.Context, req dto.CreateLoanRequest, creatorUserID string) (*domain.Loan, error) {
	args := m.Called(ctx, req, creatorUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Loan), args.Error(1)
}
func (m *MockLoanService) GetLoanByID(ctx context.Context, loanID string) (*domain.Loan, error) {
	args := m.Called(ctx, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Loan), args.Error(1)
}
func (m *MockLoanService) ListLoans(ctx context.Context, params dto.ListLoansParams) ([]domain.Loan, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Loan), args.Error(1)
}
func (m *MockLoanService) ApproveLoan(ctx context.Context, loanID string, approverUserID string) (*domain.Loan, error) {
	args := m.Called(ctx, loanID, approverUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Loan), args.Error(1)
}
func (m *MockLoanService) RejectLoan(ctx context.Context, loanID string, userID string) error {
	args := m.Called(ctx, loanID, userID)
	return args.Error(0)
}
func (m *MockLoanService) CancelLoan(ctx context.Context, loanID string, userID string) error {
	args := m.Called(ctx, loanID, userID)
	return args.Error(0)
}
func (m *MockLoanService) RegenerateSchedule(ctx context.Context, loanID string, force bool, userID string) (*domain.Loan, error) {
	args := m.Called(ctx, loanID, force, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Loan), args.Error(1)
}

// Ensure mock implements the interface
var _ portssvc.LoanSvcFacade = (*MockLoanService)(nil)

// --- Test Suite ---
type LoanHandlerTestSuite struct {
	suite.Suite
	router          *gin.Engine
	mockLoanService *MockLoanService
	jwtSecret       string
}

// generateTestToken creates a dummy JWT for testing.
func (suite *LoanHandlerTestSuite) generateTestToken(userID string) string {
	claims := jwt.RegisteredClaims{
		Issuer:    "loan-backoffice-test",
		Subject:   userID,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(1 * time.Hour)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(suite.jwtSecret))
	if err != nil {
		suite.FailNow("Failed to sign test token", err.Error())
	}
	return signed
}

func (suite *LoanHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	suite.router = gin.New()
	suite.jwtSecret = "test-secret-key-that-is-long-enough"

	suite.router.Use(middleware.AuthMiddleware(suite.jwtSecret))

	suite.mockLoanService = new(MockLoanService)

	v1 := suite.router.Group("/api/v1")
	handlers.RegisterLoanRoutes(v1, suite.mockLoanService)
}

func (suite *LoanHandlerTestSuite) authorizedRequest(method, url string, body []byte, userID string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		req, _ = http.NewRequest(method, url, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req, _ = http.NewRequest(method, url, nil)
	}
	req.Header.Set("Authorization", "Bearer "+suite.generateTestToken(userID))
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func testLoan(loanID, clientID string) *domain.Loan {
	now := time.Now().UTC()
	return &domain.Loan{
		LoanID:           loanID,
		ClientID:         clientID,
		CurrencyCode:     "PEN",
		Principal:        decimal.NewFromInt(1200),
		AnnualRate:       decimal.NewFromFloat(0.12),
		InstallmentCount: 12,
		Frequency:        domain.FrequencyMonthly,
		DisbursementDate: now,
		Status:           domain.LoanPending,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     uuid.NewString(),
			LastUpdatedAt: now,
			LastUpdatedBy: uuid.NewString(),
		},
	}
}

// --- Test Cases ---

func (suite *LoanHandlerTestSuite) TestCreateLoan_Success() {
	userID := uuid.NewString()
	clientID := uuid.NewString()
	loan := testLoan(uuid.NewString(), clientID)

	reqBody := dto.CreateLoanRequest{
		ClientID:         clientID,
		CurrencyCode:     "PEN",
		Principal:        decimal.NewFromInt(1200),
		AnnualRate:       decimal.NewFromFloat(0.12),
		InstallmentCount: 12,
		Frequency:        "MONTHLY",
		DisbursementDate: time.Now().UTC(),
	}
	body, _ := json.Marshal(reqBody)

	suite.mockLoanService.On("CreateLoan",
		mock.Anything,
		mock.MatchedBy(func(r dto.CreateLoanRequest) bool {
			return r.ClientID == clientID && r.InstallmentCount == 12
		}),
		userID,
	).Return(loan, nil).Once()

	w := suite.authorizedRequest(http.MethodPost, "/api/v1/loans", body, userID)

	suite.Equal(http.StatusCreated, w.Code)
	var resp dto.LoanResponse
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal(loan.LoanID, resp.LoanID)
	suite.Equal("PENDING", resp.Status)
	suite.mockLoanService.AssertExpectations(suite.T())
}

func (suite *LoanHandlerTestSuite) TestCreateLoan_NonPositivePrincipal() {
	userID := uuid.NewString()
	reqBody := dto.CreateLoanRequest{
		ClientID:         uuid.NewString(),
		CurrencyCode:     "PEN",
		Principal:        decimal.Zero,
		InstallmentCount: 12,
		Frequency:        "MONTHLY",
		DisbursementDate: time.Now().UTC(),
	}
	body, _ := json.Marshal(reqBody)

	w := suite.authorizedRequest(http.MethodPost, "/api/v1/loans", body, userID)

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.mockLoanService.AssertNotCalled(suite.T(), "CreateLoan")
}

func (suite *LoanHandlerTestSuite) TestGetLoan_NotFound() {
	userID := uuid.NewString()
	loanID := uuid.NewString()

	suite.mockLoanService.On("GetLoanByID", mock.Anything, loanID).
		Return(nil, apperrors.ErrNotFound).Once()

	w := suite.authorizedRequest(http.MethodGet, "/api/v1/loans/"+loanID, nil, userID)

	suite.Equal(http.StatusNotFound, w.Code)
	suite.mockLoanService.AssertExpectations(suite.T())
}

func (suite *LoanHandlerTestSuite) TestApproveLoan_NotPending() {
	userID := uuid.NewString()
	loanID := uuid.NewString()

	suite.mockLoanService.On("ApproveLoan", mock.Anything, loanID, userID).
		Return(nil, services.ErrLoanNotPending).Once()

	w := suite.authorizedRequest(http.MethodPost, "/api/v1/loans/"+loanID+"/approve", nil, userID)

	suite.Equal(http.StatusConflict, w.Code)
	suite.mockLoanService.AssertExpectations(suite.T())
}

func (suite *LoanHandlerTestSuite) TestRegenerateSchedule_ForceFlagForwarded() {
	userID := uuid.NewString()
	loanID := uuid.NewString()
	loan := testLoan(loanID, uuid.NewString())
	loan.Status = domain.LoanActive

	body, _ := json.Marshal(dto.RegenerateScheduleRequest{Force: true})

	suite.mockLoanService.On("RegenerateSchedule", mock.Anything, loanID, true, userID).
		Return(loan, nil).Once()

	w := suite.authorizedRequest(http.MethodPost, "/api/v1/loans/"+loanID+"/schedule/regenerate", body, userID)

	suite.Equal(http.StatusOK, w.Code)
	suite.mockLoanService.AssertExpectations(suite.T())
}

func (suite *LoanHandlerTestSuite) TestListLoans_MissingToken() {
	req, _ := http.NewRequest(http.MethodGet, "/api/v1/loans", nil)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusUnauthorized, w.Code)
	suite.mockLoanService.AssertNotCalled(suite.T(), "ListLoans")
}

// --- Run Test Suite ---
func TestLoanHandler(t *testing.T) {
	suite.Run(t, new(LoanHandlerTestSuite))
}
