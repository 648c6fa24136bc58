package dto

import (
	"time"

	"github.com/confera/auth-service/internal/domain"
)

// UserResponse represents user information in responses
type UserResponse struct {
	ID              string  `json:"id"`
	Email           string  `json:"email"`
	DisplayName     string  `json:"display_name"`
	AvatarURL       string  `json:"avatar_url"`
	Role            string  `json:"role"`
	IsActive        bool    `json:"is_active"`
	EmailVerifiedAt *string `json:"email_verified_at"`
	CreatedAt       string  `json:"created_at"`
}

// NewUserResponse maps a domain user to its response shape
func NewUserResponse(user *domain.User) *UserResponse {
	resp := &UserResponse{
		ID:          user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		AvatarURL:   user.AvatarURL,
		Role:        string(user.Role),
		IsActive:    user.IsActive,
		CreatedAt:   user.CreatedAt.Format(time.RFC3339),
	}
	if user.EmailVerifiedAt != nil {
		verifiedAt := user.EmailVerifiedAt.Format(time.RFC3339)
		resp.EmailVerifiedAt = &verifiedAt
	}
	return resp
}

// SuccessResponse is the standard success envelope
type SuccessResponse struct {
	Message string        `json:"message,omitempty"`
	Token   string        `json:"token,omitempty"`
	User    *UserResponse `json:"user,omitempty"`
}

// ErrorResponse is the standard error envelope
type ErrorResponse struct {
	Error string `json:"error"`
}

// BulkActivateResponse reports per-record outcomes of a bulk activation
type BulkActivateResponse struct {
	Activated int `json:"activated"`
	NotFound  int `json:"notFound"`
	Total     int `json:"total"`
}

// ListUsersResponse is a paged user listing
type ListUsersResponse struct {
	Users  []*UserResponse `json:"users"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}
