package dto

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// VerifyRequest carries the new password set during OTP verification.
type VerifyRequest struct {
	Password string `json:"password" binding:"required,min=8"`
}

type TokenUser struct {
	Email string `json:"user_email"`
	Role  string `json:"user_role"`
}

type TokenResponse struct {
	Action  bool      `json:"action"`
	Message string    `json:"message"`
	Token   string    `json:"token"`
	User    TokenUser `json:"user"`
}
