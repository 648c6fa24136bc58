package handler

import (
	"net/http"

	"github.com/confera/auth-service/internal/apperr"
	"github.com/confera/auth-service/internal/domain"
	"github.com/confera/auth-service/internal/dto"
	"github.com/confera/auth-service/internal/reqctx"
	"github.com/confera/auth-service/internal/service"
	"github.com/gin-gonic/gin"
)

// AuthHandler handles authentication requests
type AuthHandler struct {
	authService service.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// Register handles user registration. The account stays pending until
// the emailed verification link is followed.
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	if err := h.authService.Register(c.Request.Context(), &req); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.SuccessResponse{
		Message: "registration successful, check your email to verify your account",
	})
}

// VerifyEmail consumes the emailed verification token and returns an
// access token so verification doubles as login.
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		respondError(c, apperr.Validation("token query parameter is required"))
		return
	}

	accessToken, user, err := h.authService.VerifyEmail(c.Request.Context(), token)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse{
		Message: "email verified",
		Token:   accessToken,
		User:    dto.NewUserResponse(user),
	})
}

// Login handles user login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	accessToken, user, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse{
		Token: accessToken,
		User:  dto.NewUserResponse(user),
	})
}

// OAuthLogin signs a user in from an external provider profile
func (h *AuthHandler) OAuthLogin(c *gin.Context) {
	var req dto.OAuthLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	profile := domain.OAuthProfile{
		Provider:          req.Provider,
		ProviderAccountID: req.ProviderAccountID,
		Email:             req.Email,
		DisplayName:       req.DisplayName,
		AvatarURL:         req.AvatarURL,
	}

	accessToken, user, err := h.authService.OAuthLogin(c.Request.Context(), profile)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse{
		Token: accessToken,
		User:  dto.NewUserResponse(user),
	})
}

// ForgotPassword starts the reset flow. The response is identical
// whether or not the account exists.
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req dto.ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	if err := h.authService.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse{
		Message: "if an account exists for this email, a reset link has been sent",
	})
}

// VerifyResetToken checks a reset token without consuming it
func (h *AuthHandler) VerifyResetToken(c *gin.Context) {
	var req dto.VerifyResetTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	if err := h.authService.VerifyResetToken(c.Request.Context(), req.Token); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse{Message: "token is valid"})
}

// ResetPassword completes the reset flow
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req dto.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	if err := h.authService.ResetPassword(c.Request.Context(), req.Token, req.Password); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse{Message: "password updated"})
}

// VerifyToken verifies an access token for a sibling service and
// returns the identity it carries.
func (h *AuthHandler) VerifyToken(c *gin.Context) {
	var req dto.VerifyTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	claims, err := h.authService.VerifyAccessToken(c.Request.Context(), req.Token)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse{
		Message: "token is valid",
		User: &dto.UserResponse{
			ID:    claims.UserID,
			Email: claims.Email,
			Role:  string(claims.Role),
		},
	})
}

// ValidateUser confirms a user id maps to an active user
func (h *AuthHandler) ValidateUser(c *gin.Context) {
	var req dto.ValidateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	user, err := h.authService.ValidateUser(c.Request.Context(), req.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse{User: dto.NewUserResponse(user)})
}

// GetMe returns the authenticated user's record from the request
// context, where AuthMiddleware cached it.
func (h *AuthHandler) GetMe(c *gin.Context) {
	rc, ok := reqctx.From(c.Request.Context())
	if !ok || rc.User == nil {
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "authentication required"})
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse{User: dto.NewUserResponse(rc.User)})
}

// GetProfile returns the authenticated user's profile
func (h *AuthHandler) GetProfile(c *gin.Context) {
	h.GetMe(c)
}

// UpdateProfile updates the authenticated user's profile
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	rc, ok := reqctx.From(c.Request.Context())
	if !ok || !rc.Authenticated() {
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "authentication required"})
		return
	}

	var req dto.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	user, err := h.authService.UpdateProfile(c.Request.Context(), rc.UserID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse{
		Message: "profile updated",
		User:    dto.NewUserResponse(user),
	})
}

// GetInternalUser returns a user record to an allow-listed internal
// service.
func (h *AuthHandler) GetInternalUser(c *gin.Context) {
	user, err := h.authService.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse{User: dto.NewUserResponse(user)})
}
