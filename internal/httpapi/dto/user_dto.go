package dto

type RegisterUserRequest struct {
	Email   string `json:"email" binding:"required,email"`
	Name    string `json:"name" binding:"required"`
	Mobile  string `json:"mobile" binding:"required"`
	Address string `json:"address" binding:"required"`
	DOB     string `json:"dob" binding:"required"`
	Role    string `json:"role" binding:"required,oneof=Member Librarian"`
}
