package service

import (
	"context"
	"testing"
	"time"

	"github.com/confera/auth-service/internal/apperr"
	"github.com/confera/auth-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func seedUser(t *testing.T, store *fakeStore, email string, active bool) *domain.User {
	t.Helper()

	user := &domain.User{
		Email:     email,
		Role:      domain.RoleUser,
		IsActive:  active,
		CreatedAt: time.Now(),
	}
	if active {
		now := time.Now()
		user.EmailVerifiedAt = &now
	}
	require.NoError(t, store.CreateWithAccount(context.Background(), user, nil))
	return user
}

func TestBulkActivate_ReportsPerRecordCounts(t *testing.T) {
	store := newFakeStore()
	svc := NewAdminService(store, zap.NewNop())
	ctx := context.Background()

	seedUser(t, store, "a@x.com", false)

	report, err := svc.BulkActivate(ctx, []string{"a@x.com", "missing@x.com"})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Activated)
	assert.Equal(t, 1, report.NotFound)
	assert.Equal(t, 2, report.Total)

	user, err := store.GetByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.True(t, user.IsActive)
	// Admin activation implies verification, keeping the
	// active-implies-verified invariant intact.
	assert.NotNil(t, user.EmailVerifiedAt)
}

func TestBulkActivate_UpdateFailureDoesNotAbortBatch(t *testing.T) {
	store := newFakeStore()
	svc := NewAdminService(store, zap.NewNop())
	ctx := context.Background()

	seedUser(t, store, "a@x.com", false)
	store.failUpdate = assert.AnError

	report, err := svc.BulkActivate(ctx, []string{"a@x.com", "b@x.com"})
	require.NoError(t, err)
	assert.Equal(t, 0, report.Activated)
	assert.Equal(t, 2, report.NotFound)
	assert.Equal(t, 2, report.Total)
}

func TestChangeRole_UpdatesRole(t *testing.T) {
	store := newFakeStore()
	svc := NewAdminService(store, zap.NewNop())
	ctx := context.Background()

	user := seedUser(t, store, "a@x.com", true)

	updated, err := svc.ChangeRole(ctx, user.ID, domain.RoleSpeaker)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleSpeaker, updated.Role)

	stored, err := store.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleSpeaker, stored.Role)
}

func TestChangeRole_RejectsUnknownRoleAndUser(t *testing.T) {
	store := newFakeStore()
	svc := NewAdminService(store, zap.NewNop())
	ctx := context.Background()

	user := seedUser(t, store, "a@x.com", true)

	_, err := svc.ChangeRole(ctx, user.ID, domain.Role("SUPERUSER"))
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.From(err).Kind)

	_, err = svc.ChangeRole(ctx, "unknown-id", domain.RoleAdmin)
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.From(err).Kind)
}

func TestListUsers_ClampsLimit(t *testing.T) {
	store := newFakeStore()
	svc := NewAdminService(store, zap.NewNop())
	ctx := context.Background()

	for _, email := range []string{"a@x.com", "b@x.com", "c@x.com"} {
		seedUser(t, store, email, true)
	}

	users, err := svc.ListUsers(ctx, -5, -1)
	require.NoError(t, err)
	assert.Len(t, users, 3)

	users, err = svc.ListUsers(ctx, 2, 0)
	require.NoError(t, err)
	assert.Len(t, users, 2)
}
