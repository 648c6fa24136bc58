package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/confera/auth-service/internal/apperr"
	"github.com/confera/auth-service/internal/domain"
	"github.com/confera/auth-service/internal/dto"
	"github.com/confera/auth-service/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret-key-that-is-at-least-32-characters-long"

func newTestAuthService(t *testing.T) (AuthService, *fakeStore, *fakeDispatcher, *utils.JWTManager) {
	t.Helper()

	store := newFakeStore()
	dispatcher := &fakeDispatcher{}
	jwtManager := utils.NewJWTManager(testSecret, 30*24*time.Hour, time.Hour, time.Hour)

	svc := NewAuthService(store, store, dispatcher, jwtManager, zap.NewNop(), nil, bcrypt.MinCost)
	return svc, store, dispatcher, jwtManager
}

func registerReq(email string) *dto.RegisterRequest {
	return &dto.RegisterRequest{
		Email:       email,
		Password:    "Password123",
		DisplayName: "Alice",
	}
}

func assertKind(t *testing.T, err error, kind apperr.Kind) {
	t.Helper()
	require.Error(t, err)
	var e *apperr.Error
	require.True(t, errors.As(err, &e), "expected apperr.Error, got %v", err)
	assert.Equal(t, kind, e.Kind)
}

func TestRegister_CreatesPendingUserAndDispatchesEmail(t *testing.T) {
	svc, store, dispatcher, _ := newTestAuthService(t)
	ctx := context.Background()

	err := svc.Register(ctx, registerReq("alice@x.com"))
	require.NoError(t, err)

	assert.Equal(t, 1, store.userCount())
	assert.Equal(t, 1, store.accountCount())

	user, err := store.GetByEmail(ctx, "alice@x.com")
	require.NoError(t, err)
	assert.False(t, user.IsActive)
	assert.Nil(t, user.EmailVerifiedAt)
	assert.Equal(t, domain.RoleUser, user.Role)
	require.NotNil(t, user.PasswordHash)

	account, err := store.GetByUserAndType(ctx, user.ID, domain.AccountTypeCredentials)
	require.NoError(t, err)
	assert.Equal(t, "email", account.Provider)

	emails := dispatcher.sentEmails()
	require.Len(t, emails, 1)
	assert.Equal(t, "auth.verify-email", emails[0].Type)
	assert.Equal(t, "alice@x.com", emails[0].Message.To)
	assert.NotEmpty(t, emails[0].Message.Data["token"])
}

func TestRegister_DispatchFailureRollsBackUser(t *testing.T) {
	svc, store, dispatcher, _ := newTestAuthService(t)
	dispatcher.emailErr = errors.New("broker down")

	err := svc.Register(context.Background(), registerReq("alice@x.com"))
	assertKind(t, err, apperr.KindDependency)

	// Rollback must be exact, not partial.
	assert.Equal(t, 0, store.userCount())
}

func TestRegister_UnverifiedEmailResendsInsteadOfDuplicating(t *testing.T) {
	svc, store, dispatcher, _ := newTestAuthService(t)
	ctx := context.Background()

	require.NoError(t, svc.Register(ctx, registerReq("alice@x.com")))
	require.Len(t, dispatcher.sentEmails(), 1)

	err := svc.Register(ctx, registerReq("alice@x.com"))
	assertKind(t, err, apperr.KindConflict)

	assert.Equal(t, 1, store.userCount())
	assert.Len(t, dispatcher.sentEmails(), 2)
}

func TestRegister_ActiveVerifiedUserConflicts(t *testing.T) {
	svc, _, dispatcher, _ := newTestAuthService(t)
	ctx := context.Background()

	require.NoError(t, svc.Register(ctx, registerReq("alice@x.com")))
	verifyTestUser(t, svc, dispatcher)

	err := svc.Register(ctx, registerReq("alice@x.com"))
	assertKind(t, err, apperr.KindConflict)
	assert.Contains(t, err.Error(), "already exists")
}

func TestRegister_SuspendedUserReportsSuspension(t *testing.T) {
	svc, store, dispatcher, _ := newTestAuthService(t)
	ctx := context.Background()

	require.NoError(t, svc.Register(ctx, registerReq("alice@x.com")))
	verifyTestUser(t, svc, dispatcher)

	// Admin suspension: verified but inactive.
	user, err := store.GetByEmail(ctx, "alice@x.com")
	require.NoError(t, err)
	user.IsActive = false
	require.NoError(t, store.Update(ctx, user))

	err = svc.Register(ctx, registerReq("alice@x.com"))
	assertKind(t, err, apperr.KindConflict)
	assert.Contains(t, err.Error(), "suspended")
}

func TestRegister_AdminRoleRejected(t *testing.T) {
	svc, store, _, _ := newTestAuthService(t)

	req := registerReq("root@x.com")
	req.Role = string(domain.RoleAdmin)

	err := svc.Register(context.Background(), req)
	assertKind(t, err, apperr.KindValidation)
	assert.Equal(t, 0, store.userCount())
}

func TestRegister_SpeakerDispatchesProfileCreation(t *testing.T) {
	svc, _, dispatcher, _ := newTestAuthService(t)

	req := registerReq("speaker@x.com")
	req.Role = string(domain.RoleSpeaker)

	require.NoError(t, svc.Register(context.Background(), req))

	profiles := dispatcher.sentProfiles()
	require.Len(t, profiles, 1)
	assert.Equal(t, "speaker@x.com", profiles[0].Data.Email)
}

func TestRegister_SpeakerProfileFailureDoesNotRollBack(t *testing.T) {
	svc, store, dispatcher, _ := newTestAuthService(t)
	dispatcher.profileErr = errors.New("broker down")

	req := registerReq("speaker@x.com")
	req.Role = string(domain.RoleSpeaker)

	require.NoError(t, svc.Register(context.Background(), req))
	assert.Equal(t, 1, store.userCount())
}

// verifyTestUser pulls the verification token from the last dispatched
// email and consumes it.
func verifyTestUser(t *testing.T, svc AuthService, dispatcher *fakeDispatcher) (string, *domain.User) {
	t.Helper()

	emails := dispatcher.sentEmails()
	require.NotEmpty(t, emails)
	token := emails[len(emails)-1].Message.Data["token"]
	require.NotEmpty(t, token)

	accessToken, user, err := svc.VerifyEmail(context.Background(), token)
	require.NoError(t, err)
	return accessToken, user
}

func TestVerifyEmail_ActivatesAndReturnsAccessToken(t *testing.T) {
	svc, store, dispatcher, jwtManager := newTestAuthService(t)
	ctx := context.Background()

	require.NoError(t, svc.Register(ctx, registerReq("alice@x.com")))
	accessToken, user := verifyTestUser(t, svc, dispatcher)

	assert.True(t, user.IsActive)
	assert.NotNil(t, user.EmailVerifiedAt)

	stored, err := store.GetByEmail(ctx, "alice@x.com")
	require.NoError(t, err)
	assert.True(t, stored.IsActive)

	// Verification doubles as login: the returned token is a usable
	// access token carrying the role.
	claims, err := jwtManager.Verify(accessToken, domain.TokenAccess)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, domain.RoleUser, claims.Role)
}

func TestVerifyEmail_ReplayFails(t *testing.T) {
	svc, _, dispatcher, _ := newTestAuthService(t)
	ctx := context.Background()

	require.NoError(t, svc.Register(ctx, registerReq("alice@x.com")))

	emails := dispatcher.sentEmails()
	token := emails[0].Message.Data["token"]

	_, _, err := svc.VerifyEmail(ctx, token)
	require.NoError(t, err)

	_, _, err = svc.VerifyEmail(ctx, token)
	assertKind(t, err, apperr.KindConflict)
}

func TestVerifyEmail_RejectsOtherTokenKinds(t *testing.T) {
	svc, store, dispatcher, jwtManager := newTestAuthService(t)
	ctx := context.Background()

	require.NoError(t, svc.Register(ctx, registerReq("alice@x.com")))
	verifyTestUser(t, svc, dispatcher)

	user, err := store.GetByEmail(ctx, "alice@x.com")
	require.NoError(t, err)

	// A reset token has a valid signature but the wrong type claim.
	resetToken, err := jwtManager.Issue(domain.TokenPasswordReset, user)
	require.NoError(t, err)
	_, _, err = svc.VerifyEmail(ctx, resetToken)
	assertKind(t, err, apperr.KindAuthentication)

	accessToken, err := jwtManager.Issue(domain.TokenAccess, user)
	require.NoError(t, err)
	_, _, err = svc.VerifyEmail(ctx, accessToken)
	assertKind(t, err, apperr.KindAuthentication)
}

func TestVerifyEmail_ExpiredTokenReportsLinkExpired(t *testing.T) {
	svc, store, _, _ := newTestAuthService(t)
	ctx := context.Background()

	require.NoError(t, svc.Register(ctx, registerReq("alice@x.com")))

	user, err := store.GetByEmail(ctx, "alice@x.com")
	require.NoError(t, err)

	expiredManager := utils.NewJWTManager(testSecret, time.Hour, -time.Minute, time.Hour)
	expiredToken, err := expiredManager.Issue(domain.TokenEmailVerification, user)
	require.NoError(t, err)

	_, _, err = svc.VerifyEmail(ctx, expiredToken)
	assertKind(t, err, apperr.KindAuthentication)
	assert.Contains(t, err.Error(), "expired")
}

func activeUser(t *testing.T, svc AuthService, dispatcher *fakeDispatcher, email string) *domain.User {
	t.Helper()
	require.NoError(t, svc.Register(context.Background(), registerReq(email)))
	_, user := verifyTestUser(t, svc, dispatcher)
	return user
}

func TestLogin_SucceedsForActiveUserWithCorrectPassword(t *testing.T) {
	svc, _, dispatcher, jwtManager := newTestAuthService(t)
	ctx := context.Background()

	user := activeUser(t, svc, dispatcher, "alice@x.com")

	token, loggedIn, err := svc.Login(ctx, &dto.LoginRequest{Email: "alice@x.com", Password: "Password123"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, loggedIn.ID)

	claims, err := jwtManager.Verify(token, domain.TokenAccess)
	require.NoError(t, err)
	assert.Equal(t, "alice@x.com", claims.Email)
	assert.Equal(t, domain.RoleUser, claims.Role)
}

func TestLogin_WrongPasswordAndAbsentUserLookAlike(t *testing.T) {
	svc, _, dispatcher, _ := newTestAuthService(t)
	ctx := context.Background()

	activeUser(t, svc, dispatcher, "alice@x.com")

	_, _, errWrong := svc.Login(ctx, &dto.LoginRequest{Email: "alice@x.com", Password: "Wrong12345"})
	assertKind(t, errWrong, apperr.KindAuthentication)

	_, _, errAbsent := svc.Login(ctx, &dto.LoginRequest{Email: "nobody@x.com", Password: "Password123"})
	assertKind(t, errAbsent, apperr.KindAuthentication)

	// Identical external message, no account enumeration.
	assert.Equal(t, apperr.From(errWrong).Message, apperr.From(errAbsent).Message)
}

func TestLogin_UnverifiedUserGetsDistinctMessage(t *testing.T) {
	svc, _, _, _ := newTestAuthService(t)
	ctx := context.Background()

	require.NoError(t, svc.Register(ctx, registerReq("alice@x.com")))

	_, _, err := svc.Login(ctx, &dto.LoginRequest{Email: "alice@x.com", Password: "Password123"})
	assertKind(t, err, apperr.KindAuthentication)
	assert.Contains(t, err.Error(), "verify your email")
}

func TestLogin_OAuthOnlyIdentityCannotUsePassword(t *testing.T) {
	svc, _, _, _ := newTestAuthService(t)
	ctx := context.Background()

	_, _, err := svc.OAuthLogin(ctx, domain.OAuthProfile{
		Provider:          "google",
		ProviderAccountID: "g-123",
		Email:             "alice@x.com",
	})
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, &dto.LoginRequest{Email: "alice@x.com", Password: "Password123"})
	assertKind(t, err, apperr.KindAuthentication)
}

func TestLogin_BackfillsMissingCredentialsAccount(t *testing.T) {
	svc, store, dispatcher, _ := newTestAuthService(t)
	ctx := context.Background()

	user := activeUser(t, svc, dispatcher, "legacy@x.com")

	// Simulate a pre-linkage user by dropping the account row.
	store.mu.Lock()
	store.accounts = make(map[string]*domain.Account)
	store.mu.Unlock()

	_, _, err := svc.Login(ctx, &dto.LoginRequest{Email: "legacy@x.com", Password: "Password123"})
	require.NoError(t, err)

	account, err := store.GetByUserAndType(ctx, user.ID, domain.AccountTypeCredentials)
	require.NoError(t, err)
	assert.Equal(t, "email", account.Provider)
}

func TestOAuthLogin_CreatesPreVerifiedUser(t *testing.T) {
	svc, store, _, _ := newTestAuthService(t)
	ctx := context.Background()

	token, user, err := svc.OAuthLogin(ctx, domain.OAuthProfile{
		Provider:          "google",
		ProviderAccountID: "g-123",
		Email:             "alice@x.com",
		DisplayName:       "Alice",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.True(t, user.IsActive)
	assert.NotNil(t, user.EmailVerifiedAt)
	assert.Nil(t, user.PasswordHash)

	account, err := store.GetByProvider(ctx, "google", "g-123")
	require.NoError(t, err)
	assert.Equal(t, user.ID, account.UserID)

	// Second login resolves the same identity.
	_, again, err := svc.OAuthLogin(ctx, domain.OAuthProfile{
		Provider:          "google",
		ProviderAccountID: "g-123",
		Email:             "alice@x.com",
	})
	require.NoError(t, err)
	assert.Equal(t, user.ID, again.ID)
	assert.Equal(t, 1, store.userCount())
}

func TestOAuthLogin_LinksProviderToExistingCredentialUser(t *testing.T) {
	svc, store, dispatcher, _ := newTestAuthService(t)
	ctx := context.Background()

	user := activeUser(t, svc, dispatcher, "alice@x.com")

	_, linked, err := svc.OAuthLogin(ctx, domain.OAuthProfile{
		Provider:          "google",
		ProviderAccountID: "g-999",
		Email:             "alice@x.com",
	})
	require.NoError(t, err)
	assert.Equal(t, user.ID, linked.ID)

	accounts, err := store.GetByUserID(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, accounts, 2)
}

func TestForgotPassword_SilentForAbsentOrInactive(t *testing.T) {
	svc, _, dispatcher, _ := newTestAuthService(t)
	ctx := context.Background()

	require.NoError(t, svc.ForgotPassword(ctx, "nobody@x.com"))
	assert.Empty(t, dispatcher.sentEmails())

	require.NoError(t, svc.Register(ctx, registerReq("alice@x.com")))
	sent := len(dispatcher.sentEmails())

	// Still unverified, so inactive: no reset email either.
	require.NoError(t, svc.ForgotPassword(ctx, "alice@x.com"))
	assert.Len(t, dispatcher.sentEmails(), sent)
}

func TestPasswordReset_RoundTrip(t *testing.T) {
	svc, _, dispatcher, _ := newTestAuthService(t)
	ctx := context.Background()

	activeUser(t, svc, dispatcher, "alice@x.com")

	require.NoError(t, svc.ForgotPassword(ctx, "alice@x.com"))

	emails := dispatcher.sentEmails()
	last := emails[len(emails)-1]
	require.Equal(t, "auth.reset-password", last.Type)
	resetToken := last.Message.Data["token"]
	require.NotEmpty(t, resetToken)

	require.NoError(t, svc.VerifyResetToken(ctx, resetToken))
	require.NoError(t, svc.ResetPassword(ctx, resetToken, "NewPassword456"))

	_, _, err := svc.Login(ctx, &dto.LoginRequest{Email: "alice@x.com", Password: "Password123"})
	assertKind(t, err, apperr.KindAuthentication)

	_, _, err = svc.Login(ctx, &dto.LoginRequest{Email: "alice@x.com", Password: "NewPassword456"})
	require.NoError(t, err)
}

func TestPasswordReset_RejectsOtherTokenKinds(t *testing.T) {
	svc, store, dispatcher, jwtManager := newTestAuthService(t)
	ctx := context.Background()

	activeUser(t, svc, dispatcher, "alice@x.com")
	user, err := store.GetByEmail(ctx, "alice@x.com")
	require.NoError(t, err)

	verificationToken, err := jwtManager.Issue(domain.TokenEmailVerification, user)
	require.NoError(t, err)
	assertKind(t, svc.VerifyResetToken(ctx, verificationToken), apperr.KindAuthentication)

	accessToken, err := jwtManager.Issue(domain.TokenAccess, user)
	require.NoError(t, err)
	assertKind(t, svc.ResetPassword(ctx, accessToken, "NewPassword456"), apperr.KindAuthentication)
}

func TestAuthorizeRequest_RejectsSuspendedUserDespiteValidToken(t *testing.T) {
	svc, store, dispatcher, jwtManager := newTestAuthService(t)
	ctx := context.Background()

	user := activeUser(t, svc, dispatcher, "alice@x.com")
	token, err := jwtManager.Issue(domain.TokenAccess, user)
	require.NoError(t, err)

	// Valid token, active user: authorized.
	authorized, err := svc.AuthorizeRequest(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, authorized.ID)

	// Same-session suspension takes effect on the next request.
	stored, err := store.GetByEmail(ctx, "alice@x.com")
	require.NoError(t, err)
	stored.IsActive = false
	require.NoError(t, store.Update(ctx, stored))

	_, err = svc.AuthorizeRequest(ctx, token)
	assertKind(t, err, apperr.KindAuthentication)
}

func TestAuthorizeRequest_RejectsNonAccessTokens(t *testing.T) {
	svc, store, dispatcher, jwtManager := newTestAuthService(t)
	ctx := context.Background()

	activeUser(t, svc, dispatcher, "alice@x.com")
	user, err := store.GetByEmail(ctx, "alice@x.com")
	require.NoError(t, err)

	verificationToken, err := jwtManager.Issue(domain.TokenEmailVerification, user)
	require.NoError(t, err)

	_, err = svc.AuthorizeRequest(ctx, verificationToken)
	assertKind(t, err, apperr.KindAuthentication)
}

func TestValidateUser_RequiresActiveUser(t *testing.T) {
	svc, _, dispatcher, _ := newTestAuthService(t)
	ctx := context.Background()

	user := activeUser(t, svc, dispatcher, "alice@x.com")

	validated, err := svc.ValidateUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Email, validated.Email)

	_, err = svc.ValidateUser(ctx, "00000000-0000-0000-0000-000000000000")
	assertKind(t, err, apperr.KindNotFound)
}

func TestUpdateProfile_UpdatesNameAndAvatar(t *testing.T) {
	svc, _, dispatcher, _ := newTestAuthService(t)
	ctx := context.Background()

	user := activeUser(t, svc, dispatcher, "alice@x.com")

	updated, err := svc.UpdateProfile(ctx, user.ID, &dto.UpdateProfileRequest{
		DisplayName: "Alice L.",
		AvatarURL:   "https://cdn.example.com/alice.png",
	})
	require.NoError(t, err)
	assert.Equal(t, "Alice L.", updated.DisplayName)
	assert.Equal(t, "https://cdn.example.com/alice.png", updated.AvatarURL)
}
