package domain

import "time"

// SystemUserID is the audit identity used for rows written by background
// processes rather than an operator.
const SystemUserID = "SYSTEM"

// User represents a back-office operator of the application.
type User struct {
	UserID       string `json:"userID"` // Primary Key (e.g., UUID)
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	GoogleID     string `json:"-"` // Set when the user signs in with Google
	AuditFields
	DeletedAt *time.Time `json:"deletedAt,omitempty"` // Used for soft delete

	// Refresh token state; only the hash is ever persisted.
	RefreshTokenHash       *string    `json:"-"`
	RefreshTokenExpiryTime *time.Time `json:"-"`
}
