package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/api/idtoken"

	"github.com/crediya/loan_backoffice_app/internal/apperrors"
	"github.com/crediya/loan_backoffice_app/internal/core/domain"
	portsrepo "github.com/crediya/loan_backoffice_app/internal/core/ports/repositories"
	portssvc "github.com/crediya/loan_backoffice_app/internal/core/ports/services"
	"github.com/crediya/loan_backoffice_app/internal/dto"
	"github.com/crediya/loan_backoffice_app/internal/middleware"
	"github.com/crediya/loan_backoffice_app/internal/platform/config"
	"github.com/crediya/loan_backoffice_app/internal/utils"
)

// authService handles credential verification and token issuance. Refresh
// tokens are opaque strings of the form "<userID>.<secret>"; only a hash of
// the secret is persisted, and every successful refresh rotates it.
type authService struct {
	cfg      *config.Config
	userRepo portsrepo.UserRepositoryFacade
}

// NewAuthService creates a new AuthService.
func NewAuthService(cfg *config.Config, userRepo portsrepo.UserRepositoryFacade) portssvc.AuthSvcFacade {
	return &authService{cfg: cfg, userRepo: userRepo}
}

var _ portssvc.AuthSvcFacade = (*authService)(nil)

// LoginWithPassword authenticates a user by email and password.
func (s *authService) LoginWithPassword(ctx context.Context, email, password string) (*dto.AuthResponse, string, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	user, err := s.userRepo.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, "", apperrors.ErrUnauthorized
		}
		return nil, "", fmt.Errorf("failed to find user by email: %w", err)
	}
	if user.PasswordHash == "" || !utils.CheckPasswordHash(password, user.PasswordHash) {
		logger.Warn("Password login rejected", slog.String("user_id", user.UserID))
		return nil, "", apperrors.ErrUnauthorized
	}

	return s.issueTokens(ctx, user)
}

// LoginWithGoogle authenticates a user by a verified Google ID token, creating
// the user on first sign-in.
func (s *authService) LoginWithGoogle(ctx context.Context, idToken string) (*dto.AuthResponse, string, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if s.cfg.GoogleClientID == "" {
		return nil, "", errors.New("google client ID is not configured")
	}
	payload, err := idtoken.Validate(ctx, idToken, s.cfg.GoogleClientID)
	if err != nil {
		logger.Warn("Google ID token validation failed", slog.String("error", err.Error()))
		return nil, "", fmt.Errorf("%w: google ID token validation failed", apperrors.ErrUnauthorized)
	}

	googleID := payload.Subject
	email, _ := payload.Claims["email"].(string)
	name, _ := payload.Claims["name"].(string)

	return s.loginWithGoogleIdentity(ctx, googleID, email, name)
}

// loginWithGoogleIdentity signs in a verified Google identity, linking or
// creating the local account as needed. Shared by the ID token and the
// browser-redirect flows.
func (s *authService) loginWithGoogleIdentity(ctx context.Context, googleID, email, name string) (*dto.AuthResponse, string, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	user, err := s.userRepo.FindUserByGoogleID(ctx, googleID)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, "", fmt.Errorf("failed to find user by google id: %w", err)
	}

	if user == nil && email != "" {
		// Link an existing password account on first Google sign-in.
		user, err = s.userRepo.FindUserByEmail(ctx, email)
		if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
			return nil, "", fmt.Errorf("failed to find user by email: %w", err)
		}
		if user != nil {
			user.GoogleID = googleID
			user.LastUpdatedAt = time.Now().UTC()
			user.LastUpdatedBy = user.UserID
			if err := s.userRepo.UpdateUser(ctx, *user); err != nil {
				return nil, "", fmt.Errorf("failed to link google account: %w", err)
			}
			logger.Info("Linked Google account to existing user", slog.String("user_id", user.UserID))
		}
	}

	if user == nil {
		now := time.Now().UTC()
		userID := uuid.NewString()
		newUser := domain.User{
			UserID:   userID,
			Name:     name,
			Email:    email,
			GoogleID: googleID,
			AuditFields: domain.AuditFields{
				CreatedAt:     now,
				CreatedBy:     userID,
				LastUpdatedAt: now,
				LastUpdatedBy: userID,
			},
		}
		if err := s.userRepo.SaveUser(ctx, newUser); err != nil {
			return nil, "", fmt.Errorf("failed to create user from google sign-in: %w", err)
		}
		logger.Info("User created from Google sign-in", slog.String("user_id", userID))
		user = &newUser
	}

	return s.issueTokens(ctx, user)
}

// RefreshAccessToken rotates the refresh token and issues a new access token.
func (s *authService) RefreshAccessToken(ctx context.Context, rawRefreshToken string) (*dto.AuthResponse, string, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	userID, secret, ok := strings.Cut(rawRefreshToken, ".")
	if !ok || userID == "" || secret == "" {
		return nil, "", apperrors.ErrUnauthorized
	}

	user, err := s.userRepo.FindUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, "", apperrors.ErrUnauthorized
		}
		return nil, "", fmt.Errorf("failed to find user for refresh: %w", err)
	}

	if user.RefreshTokenHash == nil || user.RefreshTokenExpiryTime == nil {
		return nil, "", apperrors.ErrUnauthorized
	}
	if time.Now().After(*user.RefreshTokenExpiryTime) {
		return nil, "", apperrors.ErrRefreshTokenExpired
	}
	if !utils.CompareRefreshTokenHash(secret, *user.RefreshTokenHash) {
		logger.Warn("Refresh token mismatch", slog.String("user_id", userID))
		return nil, "", apperrors.ErrUnauthorized
	}

	return s.issueTokens(ctx, user)
}

// Logout invalidates the user's stored refresh token.
func (s *authService) Logout(ctx context.Context, userID string) error {
	if err := s.userRepo.UpdateRefreshToken(ctx, userID, nil, nil); err != nil {
		return fmt.Errorf("failed to clear refresh token: %w", err)
	}
	return nil
}

// issueTokens generates an access token and a fresh rotated refresh token.
func (s *authService) issueTokens(ctx context.Context, user *domain.User) (*dto.AuthResponse, string, error) {
	accessToken, err := utils.GenerateJWT(user.UserID, s.cfg.JWTSecret, s.cfg.JWTExpiryDuration, s.cfg.JWTIssuer)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate access token: %w", err)
	}

	secret, err := utils.GenerateSecureRandomString(32)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate refresh token: %w", err)
	}
	hash := utils.HashRefreshToken(secret)
	expiry := time.Now().Add(s.cfg.RefreshTokenExpiryDuration)

	if err := s.userRepo.UpdateRefreshToken(ctx, user.UserID, &hash, &expiry); err != nil {
		return nil, "", fmt.Errorf("failed to persist refresh token: %w", err)
	}

	resp := &dto.AuthResponse{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int(s.cfg.JWTExpiryDuration.Seconds()),
		User:        dto.ToUserResponse(user),
	}
	return resp, user.UserID + "." + secret, nil
}
