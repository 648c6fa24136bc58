package handler

import (
	"net/http"
	"strconv"

	"github.com/confera/auth-service/internal/domain"
	"github.com/confera/auth-service/internal/dto"
	"github.com/confera/auth-service/internal/service"
	"github.com/gin-gonic/gin"
)

// AdminHandler handles administrative user operations
type AdminHandler struct {
	adminService service.AdminService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(adminService service.AdminService) *AdminHandler {
	return &AdminHandler{
		adminService: adminService,
	}
}

// ListUsers returns a page of users
func (h *AdminHandler) ListUsers(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	users, err := h.adminService.ListUsers(c.Request.Context(), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := dto.ListUsersResponse{
		Users:  make([]*dto.UserResponse, 0, len(users)),
		Limit:  limit,
		Offset: offset,
	}
	for _, user := range users {
		resp.Users = append(resp.Users, dto.NewUserResponse(user))
	}

	c.JSON(http.StatusOK, resp)
}

// BulkActivate activates users by email list and reports per-record
// counts instead of failing the batch.
func (h *AdminHandler) BulkActivate(c *gin.Context) {
	var req dto.BulkActivateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	report, err := h.adminService.BulkActivate(c.Request.Context(), req.Emails)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

// ChangeRole sets a user's role
func (h *AdminHandler) ChangeRole(c *gin.Context) {
	var req dto.ChangeRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	user, err := h.adminService.ChangeRole(c.Request.Context(), c.Param("id"), domain.Role(req.Role))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse{
		Message: "role updated",
		User:    dto.NewUserResponse(user),
	})
}
