package services_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/crediya/loan_backoffice_app/internal/apperrors"
	"github.com/crediya/loan_backoffice_app/internal/core/domain"
	portssvc "github.com/crediya/loan_backoffice_app/internal/core/ports/services"
	"github.com/crediya/loan_backoffice_app/internal/core/services"
	"github.com/crediya/loan_backoffice_app/internal/platform/config"
	"github.com/crediya/loan_backoffice_app/internal/utils"
)

// --- Mock UserRepository ---
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) FindUserByID(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) FindUserByGoogleID(ctx context.Context, googleID string) (*domain.User, error) {
	args := m.Called(ctx, googleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) SaveUser(ctx context.Context, user domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) UpdateUser(ctx context.Context, user domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) UpdateRefreshToken(ctx context.Context, userID string, tokenHash *string, expiryTime *time.Time) error {
	args := m.Called(ctx, userID, tokenHash, expiryTime)
	return args.Error(0)
}

// --- Test Suite ---
type AuthServiceTestSuite struct {
	suite.Suite
	mockUserRepo *MockUserRepository
	service      portssvc.AuthSvcFacade

	user     *domain.User
	password string
}

func (suite *AuthServiceTestSuite) SetupTest() {
	suite.mockUserRepo = new(MockUserRepository)
	cfg := &config.Config{
		JWTSecret:                  "test-secret-key-that-is-long-enough",
		JWTExpiryDuration:          time.Hour,
		JWTIssuer:                  "loan-backoffice-test",
		RefreshTokenExpiryDuration: 168 * time.Hour,
	}
	suite.service = services.NewAuthService(cfg, suite.mockUserRepo)

	suite.password = "correct horse battery staple"
	hash, err := utils.HashPassword(suite.password)
	suite.Require().NoError(err)
	suite.user = &domain.User{
		UserID:       uuid.NewString(),
		Name:         "Ana Quispe",
		Email:        "ana@example.com",
		PasswordHash: hash,
	}
}

func (suite *AuthServiceTestSuite) TestLoginWithPassword_Success() {
	ctx := context.Background()

	suite.mockUserRepo.On("FindUserByEmail", ctx, suite.user.Email).Return(suite.user, nil).Once()
	suite.mockUserRepo.On("UpdateRefreshToken", ctx, suite.user.UserID,
		mock.MatchedBy(func(h *string) bool { return h != nil && *h != "" }),
		mock.MatchedBy(func(t *time.Time) bool { return t != nil && t.After(time.Now()) }),
	).Return(nil).Once()

	resp, refreshToken, err := suite.service.LoginWithPassword(ctx, suite.user.Email, suite.password)

	suite.Require().NoError(err)
	suite.NotEmpty(resp.AccessToken)
	suite.Equal("Bearer", resp.TokenType)
	suite.Equal(suite.user.UserID, resp.User.UserID)
	suite.True(strings.HasPrefix(refreshToken, suite.user.UserID+"."))
	suite.mockUserRepo.AssertExpectations(suite.T())
}

func (suite *AuthServiceTestSuite) TestLoginWithPassword_WrongPassword() {
	ctx := context.Background()

	suite.mockUserRepo.On("FindUserByEmail", ctx, suite.user.Email).Return(suite.user, nil).Once()

	resp, refreshToken, err := suite.service.LoginWithPassword(ctx, suite.user.Email, "not the password")

	suite.Require().ErrorIs(err, apperrors.ErrUnauthorized)
	suite.Nil(resp)
	suite.Empty(refreshToken)
	suite.mockUserRepo.AssertNotCalled(suite.T(), "UpdateRefreshToken", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *AuthServiceTestSuite) TestLoginWithPassword_UnknownEmail() {
	ctx := context.Background()

	suite.mockUserRepo.On("FindUserByEmail", ctx, "nobody@example.com").Return(nil, apperrors.ErrNotFound).Once()

	// Unknown email and wrong password look identical to the caller.
	resp, _, err := suite.service.LoginWithPassword(ctx, "nobody@example.com", suite.password)

	suite.Require().ErrorIs(err, apperrors.ErrUnauthorized)
	suite.Nil(resp)
}

func (suite *AuthServiceTestSuite) TestRefreshAccessToken_RotatesSecret() {
	ctx := context.Background()
	secret := "old-refresh-secret"
	oldHash := utils.HashRefreshToken(secret)
	expiry := time.Now().Add(time.Hour)
	suite.user.RefreshTokenHash = &oldHash
	suite.user.RefreshTokenExpiryTime = &expiry

	suite.mockUserRepo.On("FindUserByID", ctx, suite.user.UserID).Return(suite.user, nil).Once()
	suite.mockUserRepo.On("UpdateRefreshToken", ctx, suite.user.UserID,
		mock.MatchedBy(func(h *string) bool { return h != nil && *h != oldHash }),
		mock.AnythingOfType("*time.Time"),
	).Return(nil).Once()

	resp, newToken, err := suite.service.RefreshAccessToken(ctx, suite.user.UserID+"."+secret)

	suite.Require().NoError(err)
	suite.NotEmpty(resp.AccessToken)
	suite.NotEqual(suite.user.UserID+"."+secret, newToken)
	suite.mockUserRepo.AssertExpectations(suite.T())
}

func (suite *AuthServiceTestSuite) TestRefreshAccessToken_Expired() {
	ctx := context.Background()
	secret := "stale-refresh-secret"
	hash := utils.HashRefreshToken(secret)
	expiry := time.Now().Add(-time.Minute)
	suite.user.RefreshTokenHash = &hash
	suite.user.RefreshTokenExpiryTime = &expiry

	suite.mockUserRepo.On("FindUserByID", ctx, suite.user.UserID).Return(suite.user, nil).Once()

	resp, _, err := suite.service.RefreshAccessToken(ctx, suite.user.UserID+"."+secret)

	suite.Require().ErrorIs(err, apperrors.ErrRefreshTokenExpired)
	suite.Nil(resp)
	suite.mockUserRepo.AssertNotCalled(suite.T(), "UpdateRefreshToken", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *AuthServiceTestSuite) TestRefreshAccessToken_HashMismatch() {
	ctx := context.Background()
	hash := utils.HashRefreshToken("the-real-secret")
	expiry := time.Now().Add(time.Hour)
	suite.user.RefreshTokenHash = &hash
	suite.user.RefreshTokenExpiryTime = &expiry

	suite.mockUserRepo.On("FindUserByID", ctx, suite.user.UserID).Return(suite.user, nil).Once()

	_, _, err := suite.service.RefreshAccessToken(ctx, suite.user.UserID+".a-guessed-secret")

	suite.Require().ErrorIs(err, apperrors.ErrUnauthorized)
}

func (suite *AuthServiceTestSuite) TestRefreshAccessToken_Malformed() {
	ctx := context.Background()

	_, _, err := suite.service.RefreshAccessToken(ctx, "no-separator-here")

	suite.Require().ErrorIs(err, apperrors.ErrUnauthorized)
	suite.mockUserRepo.AssertNotCalled(suite.T(), "FindUserByID", mock.Anything, mock.Anything)
}

func (suite *AuthServiceTestSuite) TestLogout_ClearsRefreshToken() {
	ctx := context.Background()

	suite.mockUserRepo.On("UpdateRefreshToken", ctx, suite.user.UserID, (*string)(nil), (*time.Time)(nil)).Return(nil).Once()

	err := suite.service.Logout(ctx, suite.user.UserID)

	suite.Require().NoError(err)
	suite.mockUserRepo.AssertExpectations(suite.T())
}

func TestAuthServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceTestSuite))
}
