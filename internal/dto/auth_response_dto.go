package dto

// AuthResponse defines the response for a successful login or token refresh.
// The refresh token itself travels in an HTTP-only cookie, not in the body.
type AuthResponse struct {
	AccessToken string       `json:"accessToken"`
	TokenType   string       `json:"tokenType"` // Always "Bearer"
	ExpiresIn   int          `json:"expiresIn"` // Seconds until access token expiry
	User        UserResponse `json:"user"`
}
