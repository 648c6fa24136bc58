package service

import (
	"context"
	"errors"
	"time"

	"github.com/confera/auth-service/internal/apperr"
	"github.com/confera/auth-service/internal/domain"
	"github.com/confera/auth-service/internal/dto"
	"github.com/confera/auth-service/internal/messaging"
	"github.com/confera/auth-service/internal/reqctx"
	"github.com/confera/auth-service/internal/repository"
	"github.com/confera/auth-service/internal/utils"
	"github.com/confera/auth-service/pkg/observability"
	"go.uber.org/zap"
)

// credentialsProvider is the provider name of password-based accounts.
const credentialsProvider = "email"

// authService implements AuthService. It exclusively owns User and
// Account mutation; handlers never touch the repositories directly.
type authService struct {
	userRepo    repository.UserRepository
	accountRepo repository.AccountRepository
	dispatcher  messaging.Dispatcher
	jwtManager  *utils.JWTManager
	logger      *zap.Logger
	counters    *observability.Counters
	bcryptCost  int
}

// NewAuthService creates a new auth service
func NewAuthService(
	userRepo repository.UserRepository,
	accountRepo repository.AccountRepository,
	dispatcher messaging.Dispatcher,
	jwtManager *utils.JWTManager,
	logger *zap.Logger,
	counters *observability.Counters,
	bcryptCost int,
) AuthService {
	return &authService{
		userRepo:    userRepo,
		accountRepo: accountRepo,
		dispatcher:  dispatcher,
		jwtManager:  jwtManager,
		logger:      logger,
		counters:    counters,
		bcryptCost:  bcryptCost,
	}
}

// Register creates an inactive, unverified user with its credentials
// account and dispatches the verification email. The user row and the
// dispatch are not one transaction: when the dispatch fails the row is
// deleted again so registration stays atomic from the caller's view.
func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest) error {
	if !utils.ValidateEmail(req.Email) {
		return apperr.Validation("invalid email format")
	}
	if !utils.ValidatePassword(req.Password) {
		return apperr.Validation("password must be at least 8 characters long and contain uppercase, lowercase, and number")
	}

	role := domain.RoleUser
	if req.Role != "" {
		role = domain.Role(req.Role)
	}
	if role == domain.RoleAdmin {
		return apperr.Validation("admin accounts cannot be self-registered")
	}
	if !role.Valid() {
		return apperr.Validation("unknown role")
	}

	email := utils.SanitizeEmail(req.Email)

	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return apperr.Dependency("failed to check account", err)
	}
	if existing != nil {
		switch {
		case existing.IsActive && existing.EmailVerifiedAt != nil:
			return apperr.Conflict("account with this email already exists")
		case existing.EmailVerifiedAt != nil:
			// Verified but inactive means an admin suspended the account.
			return apperr.Conflict("account is suspended, contact support")
		default:
			// Unverified leftover from an earlier attempt: resend the
			// verification email instead of creating a second row.
			if err := s.dispatchVerificationEmail(ctx, existing); err != nil {
				return apperr.Dependency("failed to resend verification email", err)
			}
			return apperr.Conflict("verification email resent, check your inbox")
		}
	}

	passwordHash, err := utils.HashPassword(req.Password, s.bcryptCost)
	if err != nil {
		return apperr.Dependency("failed to hash password", err)
	}

	user := &domain.User{
		Email:        email,
		PasswordHash: &passwordHash,
		DisplayName:  req.DisplayName,
		Role:         role,
		IsActive:     false,
	}
	account := &domain.Account{
		Type:              domain.AccountTypeCredentials,
		Provider:          credentialsProvider,
		ProviderAccountID: email,
	}

	if err := s.userRepo.CreateWithAccount(ctx, user, account); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return apperr.Conflict("account with this email already exists")
		}
		return apperr.Dependency("failed to create account", err)
	}

	if err := s.dispatchVerificationEmail(ctx, user); err != nil {
		// Compensate: a user that can never receive its verification
		// link must not stay in the store.
		s.counters.IncRollbacks(ctx)
		if delErr := s.userRepo.Delete(ctx, user.ID); delErr != nil {
			s.logger.Error("failed to roll back user after dispatch failure",
				zap.String("user_id", user.ID),
				zap.String("correlation_id", reqctx.CorrelationID(ctx)),
				zap.Error(delErr),
			)
		}
		return apperr.Dependency("registration cancelled, please try again", err)
	}

	if role == domain.RoleSpeaker {
		// Best effort: a speaker can complete profile setup later.
		profile := messaging.SpeakerProfile{
			UserID:      user.ID,
			Email:       user.Email,
			DisplayName: user.DisplayName,
		}
		if err := s.dispatcher.PublishSpeakerProfile(ctx, profile); err != nil {
			s.counters.IncDispatchFailures(ctx)
			s.logger.Warn("failed to dispatch speaker profile creation",
				zap.String("user_id", user.ID),
				zap.String("correlation_id", reqctx.CorrelationID(ctx)),
				zap.Error(err),
			)
		}
	}

	s.counters.IncRegistrations(ctx)
	return nil
}

// VerifyEmail consumes a verification token, activates the user, and
// returns a fresh access token so verification doubles as login.
func (s *authService) VerifyEmail(ctx context.Context, token string) (string, *domain.User, error) {
	claims, err := s.jwtManager.Verify(token, domain.TokenEmailVerification)
	if err != nil {
		if errors.Is(err, utils.ErrTokenExpired) {
			return "", nil, apperr.Authentication("verification link expired")
		}
		return "", nil, apperr.Authentication("invalid verification link")
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", nil, apperr.NotFound("user not found")
		}
		return "", nil, apperr.Dependency("failed to load user", err)
	}

	if user.IsActive && user.EmailVerifiedAt != nil {
		// Token replay on an already consumed link.
		return "", nil, apperr.Conflict("email already verified")
	}

	now := time.Now()
	user.IsActive = true
	user.EmailVerifiedAt = &now

	if err := s.userRepo.Update(ctx, user); err != nil {
		return "", nil, apperr.Dependency("failed to activate user", err)
	}

	accessToken, err := s.jwtManager.Issue(domain.TokenAccess, user)
	if err != nil {
		return "", nil, apperr.Dependency("failed to issue access token", err)
	}

	return accessToken, user, nil
}

// Login authenticates a user by email and password. Absence, missing
// password hash, and mismatch all yield one generic message to avoid
// account enumeration; only the unverified case is reported distinctly.
func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (string, *domain.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, utils.SanitizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", nil, apperr.Authentication("invalid email or password")
		}
		return "", nil, apperr.Dependency("failed to load user", err)
	}

	if user.PasswordHash == nil {
		// OAuth-only identity, no credential login path.
		return "", nil, apperr.Authentication("invalid email or password")
	}

	if !user.IsActive {
		return "", nil, apperr.Authentication("verify your email first")
	}

	if !utils.CheckPasswordHash(req.Password, *user.PasswordHash) {
		return "", nil, apperr.Authentication("invalid email or password")
	}

	s.backfillCredentialsAccount(ctx, user)

	accessToken, err := s.jwtManager.Issue(domain.TokenAccess, user)
	if err != nil {
		return "", nil, apperr.Dependency("failed to issue access token", err)
	}

	s.counters.IncLogins(ctx)
	return accessToken, user, nil
}

// backfillCredentialsAccount creates the credentials account link for
// users that predate account linkage. Failure never blocks the login.
func (s *authService) backfillCredentialsAccount(ctx context.Context, user *domain.User) {
	_, err := s.accountRepo.GetByUserAndType(ctx, user.ID, domain.AccountTypeCredentials)
	if err == nil {
		return
	}
	if !errors.Is(err, repository.ErrNotFound) {
		s.logger.Warn("failed to check account link",
			zap.String("user_id", user.ID),
			zap.Error(err),
		)
		return
	}

	account := &domain.Account{
		UserID:            user.ID,
		Type:              domain.AccountTypeCredentials,
		Provider:          credentialsProvider,
		ProviderAccountID: user.Email,
	}
	if err := s.accountRepo.Create(ctx, account); err != nil {
		s.logger.Warn("failed to backfill account link",
			zap.String("user_id", user.ID),
			zap.Error(err),
		)
	}
}

// OAuthLogin signs in (or creates) a user from an external identity
// provider profile. OAuth identities are created active and verified.
func (s *authService) OAuthLogin(ctx context.Context, profile domain.OAuthProfile) (string, *domain.User, error) {
	if profile.Provider == "" || profile.ProviderAccountID == "" || !utils.ValidateEmail(profile.Email) {
		return "", nil, apperr.Validation("incomplete provider profile")
	}

	user, err := s.resolveOAuthUser(ctx, profile)
	if err != nil {
		return "", nil, err
	}

	if !user.IsActive {
		return "", nil, apperr.Conflict("account is suspended, contact support")
	}

	accessToken, err := s.jwtManager.Issue(domain.TokenAccess, user)
	if err != nil {
		return "", nil, apperr.Dependency("failed to issue access token", err)
	}

	s.counters.IncLogins(ctx)
	return accessToken, user, nil
}

func (s *authService) resolveOAuthUser(ctx context.Context, profile domain.OAuthProfile) (*domain.User, error) {
	account, err := s.accountRepo.GetByProvider(ctx, profile.Provider, profile.ProviderAccountID)
	if err == nil {
		user, err := s.userRepo.GetByID(ctx, account.UserID)
		if err != nil {
			return nil, apperr.Dependency("failed to load user", err)
		}
		return user, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.Dependency("failed to look up provider account", err)
	}

	email := utils.SanitizeEmail(profile.Email)
	oauthAccount := &domain.Account{
		Type:              domain.AccountTypeOAuth,
		Provider:          profile.Provider,
		ProviderAccountID: profile.ProviderAccountID,
	}

	// Existing credential user signing in with a new provider: link the
	// provider account instead of creating a duplicate identity.
	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err == nil {
		oauthAccount.UserID = existing.ID
		if err := s.accountRepo.Create(ctx, oauthAccount); err != nil && !errors.Is(err, repository.ErrDuplicateAccount) {
			return nil, apperr.Dependency("failed to link provider account", err)
		}
		return existing, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.Dependency("failed to load user", err)
	}

	now := time.Now()
	user := &domain.User{
		Email:           email,
		DisplayName:     profile.DisplayName,
		AvatarURL:       profile.AvatarURL,
		Role:            domain.RoleUser,
		IsActive:        true,
		EmailVerifiedAt: &now,
	}
	if err := s.userRepo.CreateWithAccount(ctx, user, oauthAccount); err != nil {
		return nil, apperr.Dependency("failed to create user", err)
	}

	s.counters.IncRegistrations(ctx)
	return user, nil
}

// ForgotPassword silently does nothing for absent or inactive accounts
// so the endpoint cannot be used to probe for registered emails.
func (s *authService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.userRepo.GetByEmail(ctx, utils.SanitizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return apperr.Dependency("failed to load user", err)
	}
	if !user.IsActive {
		return nil
	}

	token, err := s.jwtManager.Issue(domain.TokenPasswordReset, user)
	if err != nil {
		return apperr.Dependency("failed to issue reset token", err)
	}

	msg := messaging.EmailMessage{
		To:       user.Email,
		Subject:  "Reset your password",
		Template: "reset-password",
		Data: map[string]string{
			"name":  user.DisplayName,
			"token": token,
		},
	}
	if err := s.dispatcher.PublishEmail(ctx, "auth.reset-password", msg); err != nil {
		s.counters.IncDispatchFailures(ctx)
		return apperr.Dependency("failed to send reset email", err)
	}

	return nil
}

// VerifyResetToken checks a reset token without mutating any state.
func (s *authService) VerifyResetToken(ctx context.Context, token string) error {
	_, err := s.resetTokenSubject(ctx, token)
	return err
}

// ResetPassword re-validates the reset token, then re-hashes and
// persists the new password.
func (s *authService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if !utils.ValidatePassword(newPassword) {
		return apperr.Validation("password must be at least 8 characters long and contain uppercase, lowercase, and number")
	}

	user, err := s.resetTokenSubject(ctx, token)
	if err != nil {
		return err
	}

	passwordHash, err := utils.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return apperr.Dependency("failed to hash password", err)
	}

	user.PasswordHash = &passwordHash
	if err := s.userRepo.Update(ctx, user); err != nil {
		return apperr.Dependency("failed to update password", err)
	}

	return nil
}

// resetTokenSubject validates a password-reset token and loads its
// still-active subject. An access or verification token is rejected
// here even with a valid signature.
func (s *authService) resetTokenSubject(ctx context.Context, token string) (*domain.User, error) {
	claims, err := s.jwtManager.Verify(token, domain.TokenPasswordReset)
	if err != nil {
		if errors.Is(err, utils.ErrTokenExpired) {
			return nil, apperr.Authentication("reset link expired")
		}
		return nil, apperr.Authentication("invalid reset link")
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.Authentication("invalid reset link")
		}
		return nil, apperr.Dependency("failed to load user", err)
	}
	if !user.IsActive {
		return nil, apperr.Authentication("invalid reset link")
	}

	return user, nil
}

// VerifyAccessToken validates an access token against its claims only.
func (s *authService) VerifyAccessToken(ctx context.Context, token string) (*domain.TokenClaims, error) {
	claims, err := s.jwtManager.Verify(token, domain.TokenAccess)
	if err != nil {
		if errors.Is(err, utils.ErrTokenExpired) {
			return nil, apperr.Authentication("token expired")
		}
		return nil, apperr.Authentication("invalid token")
	}
	return claims, nil
}

// AuthorizeRequest verifies the access token and re-checks the user's
// current state against the store, so a same-session suspension takes
// effect immediately instead of when the token expires.
func (s *authService) AuthorizeRequest(ctx context.Context, token string) (*domain.User, error) {
	claims, err := s.VerifyAccessToken(ctx, token)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.Authentication("account no longer exists")
		}
		return nil, apperr.Dependency("failed to load user", err)
	}
	if !user.IsActive {
		return nil, apperr.Authentication("account is inactive")
	}

	return user, nil
}

// GetUser gets a user by id
func (s *authService) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, apperr.Dependency("failed to load user", err)
	}
	return user, nil
}

// ValidateUser confirms a user id maps to an existing active user.
// Used by sibling services over the internal surface.
func (s *authService) ValidateUser(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, apperr.Conflict("account is inactive")
	}
	return user, nil
}

// UpdateProfile updates the caller's display name and avatar.
func (s *authService) UpdateProfile(ctx context.Context, userID string, req *dto.UpdateProfileRequest) (*domain.User, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.DisplayName != "" {
		user.DisplayName = req.DisplayName
	}
	if req.AvatarURL != "" {
		user.AvatarURL = req.AvatarURL
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, apperr.Dependency("failed to update profile", err)
	}

	return user, nil
}

// dispatchVerificationEmail mints a verification token and publishes
// the email message. Awaited synchronously by Register.
func (s *authService) dispatchVerificationEmail(ctx context.Context, user *domain.User) error {
	token, err := s.jwtManager.Issue(domain.TokenEmailVerification, user)
	if err != nil {
		return err
	}

	msg := messaging.EmailMessage{
		To:       user.Email,
		Subject:  "Verify your email",
		Template: "verify-email",
		Data: map[string]string{
			"name":  user.DisplayName,
			"token": token,
		},
	}
	if err := s.dispatcher.PublishEmail(ctx, "auth.verify-email", msg); err != nil {
		s.counters.IncDispatchFailures(ctx)
		return err
	}
	return nil
}
