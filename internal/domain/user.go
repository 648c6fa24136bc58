package domain

import "time"

// Role describes the authorization level of a user.
type Role string

const (
	RoleUser    Role = "USER"
	RoleSpeaker Role = "SPEAKER"
	RoleAdmin   Role = "ADMIN"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleSpeaker, RoleAdmin:
		return true
	}
	return false
}

// User represents a user in the system.
//
// PasswordHash is nil for pure OAuth identities, which have no
// credential-based login path. IsActive implies EmailVerifiedAt is set,
// except OAuth identities which are created pre-verified.
type User struct {
	ID              string     `json:"id" db:"id"`
	Email           string     `json:"email" db:"email"`
	PasswordHash    *string    `json:"-" db:"password_hash"`
	DisplayName     string     `json:"display_name" db:"display_name"`
	AvatarURL       string     `json:"avatar_url" db:"avatar_url"`
	Role            Role       `json:"role" db:"role"`
	IsActive        bool       `json:"is_active" db:"is_active"`
	EmailVerifiedAt *time.Time `json:"email_verified_at" db:"email_verified_at"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
}

// Account credential types.
const (
	AccountTypeCredentials = "credentials"
	AccountTypeOAuth       = "oauth"
)

// Account links a user to a login method: the password-based
// "credentials" record or an external OAuth provider record.
// A user accumulates one Account per provider.
type Account struct {
	ID                string    `json:"id" db:"id"`
	UserID            string    `json:"user_id" db:"user_id"`
	Type              string    `json:"type" db:"type"` // credentials, oauth
	Provider          string    `json:"provider" db:"provider"`
	ProviderAccountID string    `json:"provider_account_id" db:"provider_account_id"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
}

// OAuthProfile is the profile an external identity provider returns
// after a completed handshake. The handshake itself happens outside
// this service.
type OAuthProfile struct {
	Provider          string `json:"provider"`
	ProviderAccountID string `json:"provider_account_id"`
	Email             string `json:"email"`
	DisplayName       string `json:"display_name"`
	AvatarURL         string `json:"avatar_url"`
}
