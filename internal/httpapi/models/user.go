package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User roles
const (
	RoleMember    = "Member"
	RoleLibrarian = "Librarian"
)

// Account lifecycle states. A user is created pending by a librarian,
// becomes active once the OTP is verified and a password is set.
const (
	StatusPending  = "pending"
	StatusActive   = "active"
	StatusDisabled = "disabled"
)

type User struct {
	ID           string     `gorm:"primaryKey;type:uuid" json:"id"`
	Email        string     `gorm:"uniqueIndex;not null" json:"email"`
	Name         string     `gorm:"not null" json:"name"`
	Mobile       string     `json:"mobile"`
	Address      string     `json:"address"`
	DOB          string     `gorm:"column:dob" json:"dob"`
	Role         string     `gorm:"default:'Member';not null" json:"role"`
	Status       string     `gorm:"default:'pending';not null" json:"status"`
	PasswordHash *string    `gorm:"column:password_hash" json:"-"` // nil until the account is activated
	OTP          *string    `gorm:"column:otp" json:"-"`
	OTPExpiresAt *time.Time `gorm:"column:otp_expires_at" json:"-"`
	MaxBooks     int        `gorm:"default:0;not null" json:"max_books"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// BeforeCreate hook to set UUID before creating a User
func (user *User) BeforeCreate(tx *gorm.DB) (err error) {
	// If the ID is not already set, generate a new one.
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	return
}

func (User) TableName() string {
	return "users"
}
