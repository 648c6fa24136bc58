package service

import (
	"context"
	"errors"
	"time"

	"github.com/confera/auth-service/internal/apperr"
	"github.com/confera/auth-service/internal/domain"
	"github.com/confera/auth-service/internal/dto"
	"github.com/confera/auth-service/internal/reqctx"
	"github.com/confera/auth-service/internal/repository"
	"github.com/confera/auth-service/internal/utils"
	"go.uber.org/zap"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// adminService implements AdminService
type adminService struct {
	userRepo repository.UserRepository
	logger   *zap.Logger
}

// NewAdminService creates a new admin service
func NewAdminService(userRepo repository.UserRepository, logger *zap.Logger) AdminService {
	return &adminService{
		userRepo: userRepo,
		logger:   logger,
	}
}

// ListUsers returns a page of users, newest first.
func (s *adminService) ListUsers(ctx context.Context, limit, offset int) ([]*domain.User, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	users, err := s.userRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, apperr.Dependency("failed to list users", err)
	}
	return users, nil
}

// ChangeRole sets a user's role. Tokens issued before the change keep
// the old role claim; admin-gated routes re-fetch the record, so the
// change takes effect there immediately.
func (s *adminService) ChangeRole(ctx context.Context, userID string, role domain.Role) (*domain.User, error) {
	if !role.Valid() {
		return nil, apperr.Validation("unknown role")
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, apperr.Dependency("failed to load user", err)
	}

	user.Role = role
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, apperr.Dependency("failed to update role", err)
	}

	return user, nil
}

// BulkActivate activates users by email as independent per-record
// updates. One bad record never aborts the batch; the response reports
// counts instead of failing the call.
func (s *adminService) BulkActivate(ctx context.Context, emails []string) (*dto.BulkActivateResponse, error) {
	report := &dto.BulkActivateResponse{Total: len(emails)}

	for _, email := range emails {
		user, err := s.userRepo.GetByEmail(ctx, utils.SanitizeEmail(email))
		if err != nil {
			if !errors.Is(err, repository.ErrNotFound) {
				s.logger.Warn("bulk activate: failed to load user",
					zap.String("email", email),
					zap.String("correlation_id", reqctx.CorrelationID(ctx)),
					zap.Error(err),
				)
			}
			report.NotFound++
			continue
		}

		user.IsActive = true
		if user.EmailVerifiedAt == nil {
			// Admin activation implies verification.
			now := time.Now()
			user.EmailVerifiedAt = &now
		}

		if err := s.userRepo.Update(ctx, user); err != nil {
			s.logger.Warn("bulk activate: failed to update user",
				zap.String("email", email),
				zap.String("correlation_id", reqctx.CorrelationID(ctx)),
				zap.Error(err),
			)
			report.NotFound++
			continue
		}

		report.Activated++
	}

	return report, nil
}
