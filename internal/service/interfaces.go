package service

import (
	"context"

	"github.com/confera/auth-service/internal/domain"
	"github.com/confera/auth-service/internal/dto"
)

// AuthService defines the identity lifecycle operations
type AuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) error
	VerifyEmail(ctx context.Context, token string) (string, *domain.User, error)
	Login(ctx context.Context, req *dto.LoginRequest) (string, *domain.User, error)
	OAuthLogin(ctx context.Context, profile domain.OAuthProfile) (string, *domain.User, error)
	ForgotPassword(ctx context.Context, email string) error
	VerifyResetToken(ctx context.Context, token string) error
	ResetPassword(ctx context.Context, token, newPassword string) error

	// VerifyAccessToken checks the token claims only, without touching
	// the store. Used by the soft context middleware and /verify-token.
	VerifyAccessToken(ctx context.Context, token string) (*domain.TokenClaims, error)
	// AuthorizeRequest verifies the token and re-checks the user's
	// current state against the store. Used to gate protected routes.
	AuthorizeRequest(ctx context.Context, token string) (*domain.User, error)

	GetUser(ctx context.Context, userID string) (*domain.User, error)
	ValidateUser(ctx context.Context, userID string) (*domain.User, error)
	UpdateProfile(ctx context.Context, userID string, req *dto.UpdateProfileRequest) (*domain.User, error)
}

// AdminService defines administrative user operations
type AdminService interface {
	ListUsers(ctx context.Context, limit, offset int) ([]*domain.User, error)
	ChangeRole(ctx context.Context, userID string, role domain.Role) (*domain.User, error)
	BulkActivate(ctx context.Context, emails []string) (*dto.BulkActivateResponse, error)
}
