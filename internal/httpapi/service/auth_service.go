package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"smartlib/internal/config"
	"smartlib/internal/httpapi/middleware/auth"
	"smartlib/internal/httpapi/models"
	"smartlib/internal/httpapi/repository"
	"smartlib/internal/notify"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials / inactive account")
	ErrInvalidToken       = errors.New("invalid token")
	ErrUnknownEmail       = errors.New("invalid email")
	ErrInvalidOTP         = errors.New("invalid otp / otp expired")
)

// Claims carries the verified identity attached to every authenticated
// request.
type Claims struct {
	Email string `json:"user_email"`
	Role  string `json:"user_role"`
	jwt.RegisteredClaims
}

type AuthService interface {
	Login(ctx context.Context, email, password string) (token string, claims *Claims, err error)
	ForgotPassword(ctx context.Context, email string) error
	VerifyOTP(ctx context.Context, email, otp, newPassword string) error
	ValidateToken(tokenString string) (*Claims, error)
}

type authService struct {
	userRepo  repository.UserRepository
	queue     notify.Queue
	logger    *slog.Logger
	jwtSecret string
	jwtExpiry time.Duration
	otpTTL    time.Duration
}

func NewAuthService(userRepo repository.UserRepository, queue notify.Queue, cfg *config.Config, logger *slog.Logger) AuthService {
	return &authService{
		userRepo:  userRepo,
		queue:     queue,
		logger:    logger,
		jwtSecret: cfg.JWTSecret,
		jwtExpiry: cfg.JWTExpiry,
		otpTTL:    cfg.OTPTTL,
	}
}

// Login authenticates an active account and issues a signed token.
func (s *authService) Login(ctx context.Context, email, password string) (string, *Claims, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil || user.Status != models.StatusActive || user.PasswordHash == nil {
		// Dummy compare to mitigate timing attacks (always take same time)
		auth.VerifyPassword("$2a$10$7EqJtq98hPqEX7fNZaFWoOHi6VbU5h6K9v8u5rO0m3j0h6dX5r8e", password)
		return "", nil, ErrInvalidCredentials
	}

	if err := auth.VerifyPassword(*user.PasswordHash, password); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	claims := &Claims{
		Email: user.Email,
		Role:  user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.jwtExpiry)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", nil, err
	}

	now := time.Now()
	if err := s.userRepo.UpdateLastLogin(ctx, user.Email, now); err != nil {
		s.logger.Error("last-login update failed", "email", user.Email, "error", err)
	}

	if err := s.queue.Enqueue(ctx, notify.LoginAlert(user.Email, now)); err != nil {
		s.logger.Error("login alert enqueue failed", "email", user.Email, "error", err)
	}

	return token, claims, nil
}

// ForgotPassword regenerates the account's one-time passcode and mails it.
func (s *authService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return ErrUnknownEmail
	}

	otp, err := generateOTP()
	if err != nil {
		return err
	}
	expiresAt := time.Now().Add(s.otpTTL)

	if err := s.userRepo.SetOTP(ctx, user.Email, otp, expiresAt); err != nil {
		return err
	}

	if err := s.queue.Enqueue(ctx, notify.PasswordReset(user.Email, otp, expiresAt)); err != nil {
		s.logger.Error("reset mail enqueue failed", "email", user.Email, "error", err)
	}
	return nil
}

// VerifyOTP activates a pending account, or completes a password reset on
// an active one, and sets the new password.
func (s *authService) VerifyOTP(ctx context.Context, email, otp, newPassword string) error {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil || user.Status == models.StatusDisabled {
		return ErrInvalidCredentials
	}

	if user.OTP == nil || user.OTPExpiresAt == nil ||
		*user.OTP != otp || time.Now().After(*user.OTPExpiresAt) {
		return ErrInvalidOTP
	}

	hashed, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}

	if err := s.userRepo.Activate(ctx, user.Email, hashed); err != nil {
		return err
	}

	if err := s.queue.Enqueue(ctx, notify.ActivationConfirmed(user.Email)); err != nil {
		s.logger.Error("activation mail enqueue failed", "email", user.Email, "error", err)
	}
	return nil
}

func (s *authService) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// generateOTP returns a 6-digit one-time passcode.
func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
