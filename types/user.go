package types

import "time"

// Role values a user account can hold. Authors may create and manage
// posts, categories, and tags; plain users may only read.
const (
	RoleUser   = "user"
	RoleAuthor = "author"
)

// User represents an account in the system.
// It contains identity, role, credential, and audit metadata.
type User struct {
	// ID is the unique identifier of the user.
	ID int `json:"id" db:"id"`

	// Email is the user's email address. Globally unique.
	Email string `json:"email" db:"email"`

	// Username is the unique login name chosen by the user.
	Username string `json:"username" db:"username"`

	// FullName is the user's display name.
	FullName string `json:"fullName" db:"full_name"`

	// Role indicates the user's authorization level within the
	// system, either "user" or "author".
	Role string `json:"role" db:"role"`

	// Verified reports whether the user has confirmed their email
	// address via the verification link.
	Verified bool `json:"verified" db:"verified"`

	// PasswordHash stores the bcrypt hash of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// RefreshToken is the currently valid refresh token for the
	// user's session, empty when logged out. Issuing a new pair
	// overwrites it, revoking the previous session. Never exposed
	// in API responses.
	RefreshToken string `json:"-" db:"refresh_token"`

	// VerificationToken is the pending email verification code, if
	// any. At most one unexpired code exists at a time; requesting a
	// new one overwrites the old.
	VerificationToken string `json:"-" db:"verification_token"`

	// VerificationTokenExpiry is the time after which the pending
	// verification code is no longer accepted.
	VerificationTokenExpiry *time.Time `json:"-" db:"verification_token_expiry"`

	// PasswordResetToken is the pending password reset code, if any.
	// Kept separate from VerificationToken so the two purposes never
	// collide.
	PasswordResetToken string `json:"-" db:"password_reset_token"`

	// PasswordResetTokenExpiry is the time after which the pending
	// reset code is no longer accepted.
	PasswordResetTokenExpiry *time.Time `json:"-" db:"password_reset_token_expiry"`

	// Avatar is the object storage key of the user's avatar image.
	Avatar string `json:"avatar" db:"avatar"`

	// CoverImage is the object storage key of the user's profile
	// cover image.
	CoverImage string `json:"coverImage" db:"cover_image"`

	// CreatedAt is the timestamp when the user account was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the user account.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
