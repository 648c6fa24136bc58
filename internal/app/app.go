package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/confera/auth-service/internal/config"
	"github.com/confera/auth-service/internal/domain"
	"github.com/confera/auth-service/internal/handler"
	"github.com/confera/auth-service/internal/messaging"
	"github.com/confera/auth-service/internal/repository"
	"github.com/confera/auth-service/internal/service"
	"github.com/confera/auth-service/internal/utils"
	"github.com/confera/auth-service/pkg/observability"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	infra  Infrastructure
	config *config.Config
	router *gin.Engine
	server *http.Server
}

func NewApp(infra Infrastructure, cfg *config.Config) *App {
	repos := repository.NewRepositories(infra.Postgres())

	jwtManager := utils.NewJWTManager(
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpiry.Duration,
		cfg.JWT.VerifyTokenExpiry.Duration,
		cfg.JWT.ResetTokenExpiry.Duration,
	)

	counters, err := observability.NewCounters(infra.MeterProvider())
	if err != nil {
		infra.Logger().Warn("failed to register counters", zap.Error(err))
	}

	dispatcher := messaging.NewRabbitDispatcher(infra.Broker())
	rateLimiter := service.NewRateLimiter(infra.Redis())
	healthChecker := NewHealthChecker(infra)

	authService := service.NewAuthService(
		repos.User,
		repos.Account,
		dispatcher,
		jwtManager,
		infra.Logger(),
		counters,
		cfg.Security.BCryptCost,
	)
	adminService := service.NewAdminService(repos.User, infra.Logger())

	authHandler := handler.NewAuthHandler(authService)
	adminHandler := handler.NewAdminHandler(adminService)

	router := gin.Default()
	router.Use(otelgin.Middleware("auth-service"))
	router.Use(handler.ContextMiddleware(authService))
	router.Use(handler.LoggerMiddleware(infra.Logger()))
	router.Use(handler.CORSMiddleware(cfg.CORS.AllowedOrigins, cfg.CORS.AllowedMethods, cfg.CORS.AllowedHeaders))

	setupRoutes(router, cfg, authHandler, adminHandler, authService, rateLimiter, healthChecker, infra.MetricsHandler())

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout.Duration,
		WriteTimeout: cfg.Server.WriteTimeout.Duration,
	}

	return &App{
		infra:  infra,
		config: cfg,
		router: router,
		server: srv,
	}
}

func (a *App) Router() *gin.Engine {
	return a.router
}

func setupRoutes(
	router *gin.Engine,
	cfg *config.Config,
	authHandler *handler.AuthHandler,
	adminHandler *handler.AdminHandler,
	authService service.AuthService,
	rateLimiter *service.RateLimiter,
	healthChecker *HealthChecker,
	metricsHandler http.Handler,
) {
	router.GET("/metrics", observability.PrometheusHandler(metricsHandler))
	router.GET("/health", healthChecker.Handler)

	rateLimit := handler.RateLimitMiddleware(
		rateLimiter,
		cfg.Security.RateLimitRequests,
		cfg.Security.RateLimitWindow.Duration,
		handler.IPBasedKey,
	)

	api := router.Group("/api/v1")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", rateLimit, authHandler.Register)
			auth.POST("/login", rateLimit, authHandler.Login)
			auth.POST("/oauth", rateLimit, authHandler.OAuthLogin)
			auth.GET("/verify-email", authHandler.VerifyEmail)
			auth.POST("/forgot-password", rateLimit, authHandler.ForgotPassword)
			auth.POST("/verify-reset-token", authHandler.VerifyResetToken)
			auth.POST("/reset-password", rateLimit, authHandler.ResetPassword)
			auth.POST("/verify-token", authHandler.VerifyToken)
			auth.POST("/validate-user",
				handler.InternalServiceMiddleware(cfg.Security.InternalServices),
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

	internal := router.Group("/internal", handler.InternalServiceMiddleware(cfg.Security.InternalServices))
	{
		internal.GET("/users/:id", authHandler.GetInternalUser)
	}
}

func (a *App) Run(ctx context.Context) error {
	errChan := make(chan error, 1)

	go func() {
		a.infra.Logger().Info("Application starting",
			zap.String("host", a.config.Server.Host),
			zap.String("port", a.config.Server.Port),
		)

		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.infra.Logger().Error("Server error", zap.Error(err))
			errChan <- err
		}
	}()

	var serverErr error
	select {
	case err := <-errChan:
		a.infra.Logger().Error("Application failed to start", zap.Error(err))
		serverErr = err
	case <-ctx.Done():
		a.infra.Logger().Info("Application stopped by context")
	}

	if err := a.Shutdown(); err != nil {
		a.infra.Logger().Error("Shutdown error", zap.Error(err))
		if serverErr != nil {
			return errors.Join(serverErr, err)
		}
		return err
	}

	return serverErr
}

func (a *App) Shutdown() error {
	a.infra.Logger().Info("Application shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	errs := make(chan error, 2)

	go func() {
		errs <- a.server.Shutdown(ctx)
	}()

	go func() {
		errs <- a.infra.Shutdown(ctx)
	}()

	err := errors.Join(<-errs, <-errs)
	if err != nil {
		a.infra.Logger().Error("Shutdown failed", zap.Error(err))
		return err
	}

	a.infra.Logger().Info("Application exited successfully")
	return nil
}
