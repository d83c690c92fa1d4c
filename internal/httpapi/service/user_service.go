package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"smartlib/internal/config"
	"smartlib/internal/httpapi/models"
	"smartlib/internal/httpapi/repository"
	"smartlib/internal/notify"
)

var ErrUserExists = errors.New("user already exists")

// Members may hold two concurrent loans; librarians do not borrow.
const defaultMemberMaxBooks = 2

type RegisterUserInput struct {
	Email   string
	Name    string
	Mobile  string
	Address string
	DOB     string
	Role    string
}

type UserService interface {
	Register(ctx context.Context, input RegisterUserInput) (*models.User, error)
}

type userService struct {
	userRepo repository.UserRepository
	queue    notify.Queue
	logger   *slog.Logger
	otpTTL   time.Duration
}

func NewUserService(userRepo repository.UserRepository, queue notify.Queue, cfg *config.Config, logger *slog.Logger) UserService {
	return &userService{
		userRepo: userRepo,
		queue:    queue,
		logger:   logger,
		otpTTL:   cfg.OTPTTL,
	}
}

// Register creates a pending account and mails its activation passcode.
// The password stays unset until the invitee verifies the OTP.
func (s *userService) Register(ctx context.Context, input RegisterUserInput) (*models.User, error) {
	if existing, err := s.userRepo.FindByEmail(ctx, input.Email); err == nil && existing != nil {
		return nil, ErrUserExists
	}

	maxBooks := 0
	if input.Role == models.RoleMember {
		maxBooks = defaultMemberMaxBooks
	}

	otp, err := generateOTP()
	if err != nil {
		return nil, err
	}
	expiresAt := time.Now().Add(s.otpTTL)

	user := &models.User{
		Email:        input.Email,
		Name:         input.Name,
		Mobile:       input.Mobile,
		Address:      input.Address,
		DOB:          input.DOB,
		Role:         input.Role,
		Status:       models.StatusPending,
		MaxBooks:     maxBooks,
		OTP:          &otp,
		OTPExpiresAt: &expiresAt,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	if err := s.queue.Enqueue(ctx, notify.Invitation(user.Email, user.Name, otp, expiresAt)); err != nil {
		s.logger.Error("invitation enqueue failed", "email", user.Email, "error", err)
	}

	return user, nil
}
