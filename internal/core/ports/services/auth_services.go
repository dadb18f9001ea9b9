package services

import (
	"context"

	"github.com/crediya/loan_backoffice_app/internal/dto"
)

// AuthSvcFacade defines authentication operations. Login methods return the
// auth response plus the raw refresh token, which the handler sets as an
// HTTP-only cookie; only its hash is ever persisted.
type AuthSvcFacade interface {
	// LoginWithPassword authenticates a user by email and password.
	LoginWithPassword(ctx context.Context, email, password string) (*dto.AuthResponse, string, error)

	// LoginWithGoogle authenticates a user by a verified Google ID token,
	// creating the user on first sign-in.
	LoginWithGoogle(ctx context.Context, idToken string) (*dto.AuthResponse, string, error)

	// RefreshAccessToken rotates the refresh token and issues a new access token.
	RefreshAccessToken(ctx context.Context, rawRefreshToken string) (*dto.AuthResponse, string, error)

	// Logout invalidates the user's stored refresh token.
	Logout(ctx context.Context, userID string) error
}

// GoogleOAuthSvcFacade drives the browser-redirect Google sign-in flow.
type GoogleOAuthSvcFacade interface {
	// GenerateStateString creates a random CSRF state for the OAuth flow.
	GenerateStateString(ctx context.Context) (string, error)

	// GetGoogleLoginURL returns the Google consent page URL for the given state.
	GetGoogleLoginURL(ctx context.Context, state string) string

	// HandleGoogleCallback exchanges the authorization code, fetches the
	// user's profile and signs them in, creating the user on first sign-in.
	HandleGoogleCallback(ctx context.Context, code string) (*dto.AuthResponse, string, error)
}
