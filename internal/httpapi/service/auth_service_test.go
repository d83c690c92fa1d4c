package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	"smartlib/internal/config"
	"smartlib/internal/httpapi/middleware/auth"
	"smartlib/internal/httpapi/models"
)

func newTestAuthService(userRepo *MockUserRepository, queue *MockQueue) AuthService {
	cfg := &config.Config{
		JWTSecret: "test-secret-at-least-32-characters!!",
		JWTExpiry: time.Hour,
		OTPTTL:    24 * time.Hour,
	}
	return NewAuthService(userRepo, queue, cfg, testLogger())
}

func activeUser(t *testing.T, email, password, role string) *models.User {
	t.Helper()
	hash, err := auth.HashPassword(password)
	assert.NoError(t, err)
	return &models.User{
		Email:        email,
		Name:         "Test User",
		Role:         role,
		Status:       models.StatusActive,
		PasswordHash: &hash,
	}
}

func TestLogin_Success(t *testing.T) {
	userRepo := new(MockUserRepository)
	queue := new(MockQueue)
	svc := newTestAuthService(userRepo, queue)

	user := activeUser(t, "alice@example.com", "password123", models.RoleMember)
	userRepo.On("FindByEmail", mock.Anything, "alice@example.com").Return(user, nil)
	userRepo.On("UpdateLastLogin", mock.Anything, "alice@example.com", mock.AnythingOfType("time.Time")).Return(nil)
	queue.On("Enqueue", mock.Anything, mock.AnythingOfType("notify.Message")).Return(nil)

	token, claims, err := svc.Login(context.Background(), "alice@example.com", "password123")

	assert.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.Equal(t, models.RoleMember, claims.Role)
	userRepo.AssertExpectations(t)
}

func TestLogin_WrongPassword(t *testing.T) {
	userRepo := new(MockUserRepository)
	queue := new(MockQueue)
	svc := newTestAuthService(userRepo, queue)

	user := activeUser(t, "alice@example.com", "password123", models.RoleMember)
	userRepo.On("FindByEmail", mock.Anything, "alice@example.com").Return(user, nil)

	_, _, err := svc.Login(context.Background(), "alice@example.com", "nope")

	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_UnknownEmail(t *testing.T) {
	userRepo := new(MockUserRepository)
	queue := new(MockQueue)
	svc := newTestAuthService(userRepo, queue)

	userRepo.On("FindByEmail", mock.Anything, "ghost@example.com").Return(nil, gorm.ErrRecordNotFound)

	_, _, err := svc.Login(context.Background(), "ghost@example.com", "password123")

	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_PendingAccount(t *testing.T) {
	userRepo := new(MockUserRepository)
	queue := new(MockQueue)
	svc := newTestAuthService(userRepo, queue)

	user := activeUser(t, "bob@example.com", "password123", models.RoleMember)
	user.Status = models.StatusPending
	userRepo.On("FindByEmail", mock.Anything, "bob@example.com").Return(user, nil)

	_, _, err := svc.Login(context.Background(), "bob@example.com", "password123")

	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_EnqueueFailureDoesNotFailLogin(t *testing.T) {
	userRepo := new(MockUserRepository)
	queue := new(MockQueue)
	svc := newTestAuthService(userRepo, queue)

	user := activeUser(t, "alice@example.com", "password123", models.RoleMember)
	userRepo.On("FindByEmail", mock.Anything, "alice@example.com").Return(user, nil)
	userRepo.On("UpdateLastLogin", mock.Anything, "alice@example.com", mock.AnythingOfType("time.Time")).Return(nil)
	queue.On("Enqueue", mock.Anything, mock.AnythingOfType("notify.Message")).Return(assert.AnError)

	token, _, err := svc.Login(context.Background(), "alice@example.com", "password123")

	assert.NoError(t, err)
	assert.NotEmpty(t, token)
}

func TestValidateToken_RoundTrip(t *testing.T) {
	userRepo := new(MockUserRepository)
	queue := new(MockQueue)
	svc := newTestAuthService(userRepo, queue)

	user := activeUser(t, "lib@example.com", "password123", models.RoleLibrarian)
	userRepo.On("FindByEmail", mock.Anything, "lib@example.com").Return(user, nil)
	userRepo.On("UpdateLastLogin", mock.Anything, "lib@example.com", mock.AnythingOfType("time.Time")).Return(nil)
	queue.On("Enqueue", mock.Anything, mock.AnythingOfType("notify.Message")).Return(nil)

	token, _, err := svc.Login(context.Background(), "lib@example.com", "password123")
	assert.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	assert.NoError(t, err)
	assert.Equal(t, "lib@example.com", claims.Email)
	assert.Equal(t, models.RoleLibrarian, claims.Role)
}

func TestValidateToken_Garbage(t *testing.T) {
	svc := newTestAuthService(new(MockUserRepository), new(MockQueue))

	_, err := svc.ValidateToken("not.a.token")

	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestForgotPassword_SetsNewOTP(t *testing.T) {
	userRepo := new(MockUserRepository)
	queue := new(MockQueue)
	svc := newTestAuthService(userRepo, queue)

	user := activeUser(t, "alice@example.com", "password123", models.RoleMember)
	userRepo.On("FindByEmail", mock.Anything, "alice@example.com").Return(user, nil)
	userRepo.On("SetOTP", mock.Anything, "alice@example.com", mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).
		Run(func(args mock.Arguments) {
			otp := args.String(2)
			assert.Len(t, otp, 6)
		}).
		Return(nil)
	queue.On("Enqueue", mock.Anything, mock.AnythingOfType("notify.Message")).Return(nil)

	err := svc.ForgotPassword(context.Background(), "alice@example.com")

	assert.NoError(t, err)
	userRepo.AssertExpectations(t)
}

func TestForgotPassword_UnknownEmail(t *testing.T) {
	userRepo := new(MockUserRepository)
	svc := newTestAuthService(userRepo, new(MockQueue))

	userRepo.On("FindByEmail", mock.Anything, "ghost@example.com").Return(nil, gorm.ErrRecordNotFound)

	err := svc.ForgotPassword(context.Background(), "ghost@example.com")

	assert.ErrorIs(t, err, ErrUnknownEmail)
}

func TestVerifyOTP_ActivatesAccount(t *testing.T) {
	userRepo := new(MockUserRepository)
	queue := new(MockQueue)
	svc := newTestAuthService(userRepo, queue)

	otp := "123456"
	expires := time.Now().Add(time.Hour)
	user := &models.User{
		Email:        "bob@example.com",
		Status:       models.StatusPending,
		OTP:          &otp,
		OTPExpiresAt: &expires,
	}
	userRepo.On("FindByEmail", mock.Anything, "bob@example.com").Return(user, nil)
	userRepo.On("Activate", mock.Anything, "bob@example.com", mock.AnythingOfType("string")).
		Run(func(args mock.Arguments) {
			hash := args.String(2)
			assert.NoError(t, auth.VerifyPassword(hash, "newpassword1"))
		}).
		Return(nil)
	queue.On("Enqueue", mock.Anything, mock.AnythingOfType("notify.Message")).Return(nil)

	err := svc.VerifyOTP(context.Background(), "bob@example.com", "123456", "newpassword1")

	assert.NoError(t, err)
	userRepo.AssertExpectations(t)
}

func TestVerifyOTP_WrongCode(t *testing.T) {
	userRepo := new(MockUserRepository)
	svc := newTestAuthService(userRepo, new(MockQueue))

	otp := "123456"
	expires := time.Now().Add(time.Hour)
	user := &models.User{Email: "bob@example.com", Status: models.StatusPending, OTP: &otp, OTPExpiresAt: &expires}
	userRepo.On("FindByEmail", mock.Anything, "bob@example.com").Return(user, nil)

	err := svc.VerifyOTP(context.Background(), "bob@example.com", "654321", "newpassword1")

	assert.ErrorIs(t, err, ErrInvalidOTP)
}

func TestVerifyOTP_Expired(t *testing.T) {
	userRepo := new(MockUserRepository)
	svc := newTestAuthService(userRepo, new(MockQueue))

	otp := "123456"
	expires := time.Now().Add(-time.Minute)
	user := &models.User{Email: "bob@example.com", Status: models.StatusPending, OTP: &otp, OTPExpiresAt: &expires}
	userRepo.On("FindByEmail", mock.Anything, "bob@example.com").Return(user, nil)

	err := svc.VerifyOTP(context.Background(), "bob@example.com", "123456", "newpassword1")

	assert.ErrorIs(t, err, ErrInvalidOTP)
}

func TestVerifyOTP_DisabledAccount(t *testing.T) {
	userRepo := new(MockUserRepository)
	svc := newTestAuthService(userRepo, new(MockQueue))

	otp := "123456"
	expires := time.Now().Add(time.Hour)
	user := &models.User{Email: "bob@example.com", Status: models.StatusDisabled, OTP: &otp, OTPExpiresAt: &expires}
	userRepo.On("FindByEmail", mock.Anything, "bob@example.com").Return(user, nil)

	err := svc.VerifyOTP(context.Background(), "bob@example.com", "123456", "newpassword1")

	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
