package acceptance

import (
	"context"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/confera/auth-service/internal/domain"
	"github.com/confera/auth-service/internal/handler"
	"github.com/confera/auth-service/internal/messaging"
	"github.com/confera/auth-service/internal/repository"
	"github.com/confera/auth-service/internal/service"
	"github.com/confera/auth-service/internal/utils"
	"github.com/confera/auth-service/pkg/database"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const jwtSecret = "acceptance-secret-key-that-is-at-least-32-chars"

// CapturingDispatcher records published messages instead of talking to
// a broker, so tests can assert on dispatched notifications.
type CapturingDispatcher struct {
	mu       sync.Mutex
	Emails   []messaging.EmailEnvelope
	Speakers []messaging.SpeakerEnvelope
}

func (d *CapturingDispatcher) PublishEmail(ctx context.Context, msgType string, msg messaging.EmailMessage) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Emails = append(d.Emails, messaging.EmailEnvelope{Type: msgType, Message: msg})
	return nil
}

func (d *CapturingDispatcher) PublishSpeakerProfile(ctx context.Context, profile messaging.SpeakerProfile) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Speakers = append(d.Speakers, messaging.SpeakerEnvelope{Type: "speaker.profile.create", Data: profile})
	return nil
}

func (d *CapturingDispatcher) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Emails = nil
	d.Speakers = nil
}

func (d *CapturingDispatcher) SentEmails() []messaging.EmailEnvelope {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]messaging.EmailEnvelope, len(d.Emails))
	copy(out, d.Emails)
	return out
}

// TestApp wires the HTTP surface against real PostgreSQL and Redis,
// with the broker replaced by a capturing dispatcher.
type TestApp struct {
	Server     *httptest.Server
	Repos      *repository.Repositories
	JWTManager *utils.JWTManager
	Dispatcher *CapturingDispatcher
}

func NewTestApp(pg *database.Postgres, redis *database.Redis) (*TestApp, error) {
	gin.SetMode(gin.TestMode)

	repos := repository.NewRepositories(pg)
	jwtManager := utils.NewJWTManager(jwtSecret, 30*24*time.Hour, time.Hour, time.Hour)
	dispatcher := &CapturingDispatcher{}
	logger := zap.NewNop()

	authService := service.NewAuthService(
		repos.User,
		repos.Account,
		dispatcher,
		jwtManager,
		logger,
		nil,
		bcrypt.MinCost,
	)
	adminService := service.NewAdminService(repos.User, logger)

	authHandler := handler.NewAuthHandler(authService)
	adminHandler := handler.NewAdminHandler(adminService)

	internalServices := []string{"event-service", "booking-service"}

	router := gin.New()
	router.Use(handler.ContextMiddleware(authService))

	api := router.Group("/api/v1")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/oauth", authHandler.OAuthLogin)
			auth.GET("/verify-email", authHandler.VerifyEmail)
			auth.POST("/forgot-password", authHandler.ForgotPassword)
			auth.POST("/verify-reset-token", authHandler.VerifyResetToken)
			auth.POST("/reset-password", authHandler.ResetPassword)
			auth.POST("/verify-token", authHandler.VerifyToken)
			auth.POST("/validate-user",
				handler.InternalServiceMiddleware(internalServices),
				authHandler.ValidateUser,
			)
			auth.GET("/me", handler.AuthMiddleware(authService), authHandler.GetMe)
		}

		users := api.Group("/users", handler.AuthMiddleware(authService))
		{
			users.GET("/profile", authHandler.GetProfile)
			users.PUT("/profile", authHandler.UpdateProfile)
		}

		admin := api.Group("/admin",
			handler.AuthMiddleware(authService),
			handler.RequireRole(domain.RoleAdmin),
		)
		{
			admin.GET("/users", adminHandler.ListUsers)
			admin.POST("/users/activate", adminHandler.BulkActivate)
			admin.PUT("/users/:id/role", adminHandler.ChangeRole)
		}
	}

	internal := router.Group("/internal", handler.InternalServiceMiddleware(internalServices))
	{
		internal.GET("/users/:id", authHandler.GetInternalUser)
	}

	return &TestApp{
		Server:     httptest.NewServer(router),
		Repos:      repos,
		JWTManager: jwtManager,
		Dispatcher: dispatcher,
	}, nil
}

func (a *TestApp) Close() {
	a.Server.Close()
}

func (a *TestApp) URL(path string) string {
	return a.Server.URL + path
}
