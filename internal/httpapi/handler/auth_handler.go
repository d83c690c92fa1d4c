package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"smartlib/internal/httpapi/dto"
	"smartlib/internal/httpapi/service"
)

type AuthHandler struct {
	authService service.AuthService
	logger      *slog.Logger
}

func NewAuthHandler(authService service.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, logger: logger}
}

// RegisterRoutes mounts the public authentication endpoints.
func (h *AuthHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/token", h.Token)
	rg.POST("/forgot/:email", h.Forgot)
	rg.POST("/verify/:email/:otp", h.Verify)
}

// Token authenticates a user and issues a signed bearer token.
// POST /auth/token
func (h *AuthHandler) Token(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"action": false, "message": err.Error()})
		return
	}

	token, claims, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"action": false, "message": "Invalid credentials / Inactive account"})
			return
		}
		h.internal(c, "login failed", err)
		return
	}

	c.JSON(http.StatusOK, dto.TokenResponse{
		Action:  true,
		Message: "Success",
		Token:   token,
		User:    dto.TokenUser{Email: claims.Email, Role: claims.Role},
	})
}

// Forgot regenerates the account's OTP and mails it.
// POST /auth/forgot/:email
func (h *AuthHandler) Forgot(c *gin.Context) {
	email := c.Param("email")

	if err := h.authService.ForgotPassword(c.Request.Context(), email); err != nil {
		if errors.Is(err, service.ErrUnknownEmail) {
			c.JSON(http.StatusUnauthorized, gin.H{"action": false, "message": "Invalid email"})
			return
		}
		h.internal(c, "forgot password failed", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"action": true, "message": "OTP sent successfully"})
}

// Verify activates an account (or completes a password reset) with the
// mailed OTP and sets the new password.
// POST /auth/verify/:email/:otp
func (h *AuthHandler) Verify(c *gin.Context) {
	email := c.Param("email")
	otp := c.Param("otp")

	var req dto.VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"action": false, "message": err.Error()})
		return
	}

	if err := h.authService.VerifyOTP(c.Request.Context(), email, otp, req.Password); err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			c.JSON(http.StatusUnauthorized, gin.H{"action": false, "message": "Invalid / inactive account"})
		case errors.Is(err, service.ErrInvalidOTP):
			c.JSON(http.StatusUnauthorized, gin.H{"action": false, "message": "Invalid OTP / OTP expired"})
		default:
			h.internal(c, "otp verification failed", err)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"action": true, "message": "Account activated & password updated successfully"})
}

// internal logs the failure detail server-side and returns an opaque body.
func (h *AuthHandler) internal(c *gin.Context, msg string, err error) {
	h.logger.Error(msg, "path", c.Request.URL.Path, "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"action": false, "message": "Internal Server Error"})
}
