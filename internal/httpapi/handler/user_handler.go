package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"smartlib/internal/httpapi/dto"
	"smartlib/internal/httpapi/middleware"
	"smartlib/internal/httpapi/models"
	"smartlib/internal/httpapi/service"
)

type UserHandler struct {
	users  service.UserService
	logger *slog.Logger
}

func NewUserHandler(users service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: users, logger: logger}
}

// RegisterRoutes mounts the account-management endpoints. Only
// librarians may invite new users.
func (h *UserHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/register", middleware.RequireRoles(models.RoleLibrarian), h.Register)
}

// Register creates a pending account and mails the invitee an
// activation passcode.
// POST /user/register
func (h *UserHandler) Register(c *gin.Context) {
	var req dto.RegisterUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"action": false, "message": err.Error()})
		return
	}

	user, err := h.users.Register(c.Request.Context(), service.RegisterUserInput{
		Email:   req.Email,
		Name:    req.Name,
		Mobile:  req.Mobile,
		Address: req.Address,
		DOB:     req.DOB,
		Role:    req.Role,
	})
	if err != nil {
		if errors.Is(err, service.ErrUserExists) {
			c.JSON(http.StatusBadRequest, gin.H{"action": false, "message": "User already exists"})
			return
		}
		h.logger.Error("register user failed", "path", c.Request.URL.Path, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"action": false, "message": "Internal Server Error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"action":  true,
		"message": "User registered successfully, invitation sent",
		"email":   user.Email,
	})
}
