package domain

import "time"

// TokenKind distinguishes the three token types minted by the service.
// The kind travels in the "type" claim and is the authority boundary
// between tokens: a valid signature alone is never enough.
type TokenKind string

const (
	TokenAccess            TokenKind = "access"
	TokenEmailVerification TokenKind = "email-verification"
	TokenPasswordReset     TokenKind = "password-reset"
)

// TokenClaims represents the verified claims of a token.
// Email and Role are populated for access tokens only.
type TokenClaims struct {
	UserID string    `json:"user_id"`
	Email  string    `json:"email,omitempty"`
	Role   Role      `json:"role,omitempty"`
	Kind   TokenKind `json:"type"`
	Exp    int64     `json:"exp"`
	Iat    int64     `json:"iat"`
}

// IsExpired checks if the token is expired.
func (tc TokenClaims) IsExpired() bool {
	return time.Now().Unix() > tc.Exp
}
