package dto

// RegisterRequest represents a registration request
type RegisterRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=8"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// ForgotPasswordRequest starts the password reset flow
type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// VerifyResetTokenRequest checks a reset token without consuming it
type VerifyResetTokenRequest struct {
	Token string `json:"token" binding:"required"`
}

// ResetPasswordRequest completes the password reset flow
type ResetPasswordRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
}

// VerifyTokenRequest verifies an access token (service-to-service)
type VerifyTokenRequest struct {
	Token string `json:"token" binding:"required"`
}

// ValidateUserRequest validates a user id (service-to-service)
type ValidateUserRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

// OAuthLoginRequest carries the profile returned by an external
// identity provider after a completed handshake
type OAuthLoginRequest struct {
	Provider          string `json:"provider" binding:"required"`
	ProviderAccountID string `json:"provider_account_id" binding:"required"`
	Email             string `json:"email" binding:"required,email"`
	DisplayName       string `json:"display_name"`
	AvatarURL         string `json:"avatar_url"`
}

// UpdateProfileRequest updates the caller's profile
type UpdateProfileRequest struct {
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url"`
}

// BulkActivateRequest activates users by email list
type BulkActivateRequest struct {
	Emails []string `json:"emails" binding:"required,min=1"`
}

// ChangeRoleRequest changes a user's role
type ChangeRoleRequest struct {
	Role string `json:"role" binding:"required"`
}
