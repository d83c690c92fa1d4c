package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	"smartlib/internal/config"
	"smartlib/internal/httpapi/models"
)

func newTestUserService(userRepo *MockUserRepository, queue *MockQueue) UserService {
	cfg := &config.Config{OTPTTL: 24 * time.Hour}
	return NewUserService(userRepo, queue, cfg, testLogger())
}

func TestRegister_Member(t *testing.T) {
	userRepo := new(MockUserRepository)
	queue := new(MockQueue)
	svc := newTestUserService(userRepo, queue)

	userRepo.On("FindByEmail", mock.Anything, "new@example.com").Return(nil, gorm.ErrRecordNotFound)
	userRepo.On("Create", mock.Anything, mock.AnythingOfType("*models.User")).Return(nil)
	queue.On("Enqueue", mock.Anything, mock.AnythingOfType("notify.Message")).Return(nil)

	user, err := svc.Register(context.Background(), RegisterUserInput{
		Email: "new@example.com",
		Name:  "New Member",
		Role:  models.RoleMember,
	})

	assert.NoError(t, err)
	assert.Equal(t, models.StatusPending, user.Status)
	assert.Equal(t, 2, user.MaxBooks)
	assert.Nil(t, user.PasswordHash)
	assert.NotNil(t, user.OTP)
	assert.Len(t, *user.OTP, 6)
	userRepo.AssertExpectations(t)
}

func TestRegister_LibrarianHasNoAllowance(t *testing.T) {
	userRepo := new(MockUserRepository)
	queue := new(MockQueue)
	svc := newTestUserService(userRepo, queue)

	userRepo.On("FindByEmail", mock.Anything, "lib@example.com").Return(nil, gorm.ErrRecordNotFound)
	userRepo.On("Create", mock.Anything, mock.AnythingOfType("*models.User")).Return(nil)
	queue.On("Enqueue", mock.Anything, mock.AnythingOfType("notify.Message")).Return(nil)

	user, err := svc.Register(context.Background(), RegisterUserInput{
		Email: "lib@example.com",
		Name:  "New Librarian",
		Role:  models.RoleLibrarian,
	})

	assert.NoError(t, err)
	assert.Equal(t, 0, user.MaxBooks)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	userRepo := new(MockUserRepository)
	svc := newTestUserService(userRepo, new(MockQueue))

	existing := &models.User{Email: "new@example.com"}
	userRepo.On("FindByEmail", mock.Anything, "new@example.com").Return(existing, nil)

	_, err := svc.Register(context.Background(), RegisterUserInput{Email: "new@example.com", Role: models.RoleMember})

	assert.ErrorIs(t, err, ErrUserExists)
	userRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}
