package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/yourusername/training-api/internal/domain/entity"
	apperrors "github.com/yourusername/training-api/internal/pkg/errors"
	"github.com/yourusername/training-api/internal/pkg/logger"
	"github.com/yourusername/training-api/pkg/auth"
)

func hashedUser(t *testing.T, id uint, password string) *entity.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &entity.User{ID: id, TCNo: "12345678901", FullName: "Ayşe Yılmaz", Password: string(hash), Role: entity.RoleWorker, IsFirstLogin: true}
}

func newAuthFixture() (*AuthService, *MockUserRepo, *MockTokenIssuer) {
	userRepo := new(MockUserRepo)
	tokens := new(MockTokenIssuer)
	return NewAuthService(userRepo, tokens, logger.NewNop()), userRepo, tokens
}

func TestAuthService_Login(t *testing.T) {
	// Arrange
	svc, userRepo, tokens := newAuthFixture()
	user := hashedUser(t, 3, "secret123")
	expires := time.Now().Add(time.Hour)
	userRepo.On("GetByTCNo", mock.Anything, "12345678901").Return(user, nil)
	tokens.On("GenerateToken", uint(3), entity.RoleWorker).Return("token-abc", expires, nil)

	// Act
	res, err := svc.Login(context.Background(), " 12345678901 ", "secret123")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "token-abc", res.AccessToken)
	assert.Equal(t, expires, res.ExpiresAt)
	assert.Equal(t, user, res.User)
}

func TestAuthService_Login_InvalidCredentials(t *testing.T) {
	svc, userRepo, tokens := newAuthFixture()
	userRepo.On("GetByTCNo", mock.Anything, "12345678901").Return(hashedUser(t, 3, "secret123"), nil)
	userRepo.On("GetByTCNo", mock.Anything, "00000000000").Return(nil, apperrors.ErrNotFound)

	_, err := svc.Login(context.Background(), "12345678901", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), "00000000000", "secret123")
	assert.ErrorIs(t, err, ErrInvalidCredentials, "Неизвестный номер не должен отличаться от неверного пароля")

	tokens.AssertNotCalled(t, "GenerateToken", mock.Anything, mock.Anything)
}

func TestAuthService_ChangePassword(t *testing.T) {
	// Arrange
	svc, userRepo, _ := newAuthFixture()
	userRepo.On("GetByID", mock.Anything, uint(3)).Return(hashedUser(t, 3, "secret123"), nil)
	userRepo.On("UpdatePassword", mock.Anything, uint(3), mock.MatchedBy(func(hash string) bool {
		return bcrypt.CompareHashAndPassword([]byte(hash), []byte("newsecret")) == nil
	})).Return(nil)

	// Act
	err := svc.ChangePassword(context.Background(), 3, "secret123", "newsecret")

	// Assert
	require.NoError(t, err)
	userRepo.AssertExpectations(t)
}

func TestAuthService_ChangePassword_Rejects(t *testing.T) {
	svc, userRepo, _ := newAuthFixture()
	userRepo.On("GetByID", mock.Anything, uint(3)).Return(hashedUser(t, 3, "secret123"), nil)
	ctx := context.Background()

	assert.ErrorIs(t, svc.ChangePassword(ctx, 3, "wrong", "newsecret"), ErrInvalidCredentials)
	assert.ErrorIs(t, svc.ChangePassword(ctx, 3, "secret123", "123"), apperrors.ErrValidation)
	assert.ErrorIs(t, svc.ChangePassword(ctx, 3, "secret123", "secret123"), apperrors.ErrValidation)
	userRepo.AssertNotCalled(t, "UpdatePassword", mock.Anything, mock.Anything, mock.Anything)
}

func TestAuthService_CreateUser(t *testing.T) {
	svc, userRepo, _ := newAuthFixture()
	userRepo.On("Create", mock.Anything, mock.MatchedBy(func(u *entity.User) bool {
		return u.TCNo == "12345678901" && u.Role == entity.RoleWorker && u.IsFirstLogin
	})).Return(nil).Once()
	userRepo.On("Create", mock.Anything, mock.Anything).Return(apperrors.ErrConflict)
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, CreateUserInput{TCNo: "12345678901", FullName: "Ali", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, entity.RoleWorker, user.Role)

	_, err = svc.CreateUser(ctx, CreateUserInput{TCNo: "12345678901", FullName: "Ali", Password: "secret123"})
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	_, err = svc.CreateUser(ctx, CreateUserInput{TCNo: "12345", FullName: "Ali", Password: "secret123"})
	assert.ErrorIs(t, err, apperrors.ErrValidation, "Номер TC должен состоять из 11 цифр")

	_, err = svc.CreateUser(ctx, CreateUserInput{TCNo: "12345678901", FullName: "Ali", Password: "secret123", Role: "root"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestAuthService_EnsureBootstrapAdmin(t *testing.T) {
	t.Run("администратор уже есть", func(t *testing.T) {
		svc, userRepo, _ := newAuthFixture()
		userRepo.On("CountByRole", mock.Anything, entity.RoleAdmin).Return(int64(1), nil)

		require.NoError(t, svc.EnsureBootstrapAdmin(context.Background(), "11111111111", "secret123", ""))
		userRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("создается первый администратор", func(t *testing.T) {
		svc, userRepo, _ := newAuthFixture()
		userRepo.On("CountByRole", mock.Anything, entity.RoleAdmin).Return(int64(0), nil)
		userRepo.On("Create", mock.Anything, mock.MatchedBy(func(u *entity.User) bool {
			return u.Role == entity.RoleAdmin && u.FullName == "Administrator"
		})).Return(nil)

		require.NoError(t, svc.EnsureBootstrapAdmin(context.Background(), "11111111111", "secret123", ""))
		userRepo.AssertExpectations(t)
	})

	t.Run("без номера TC ничего не делается", func(t *testing.T) {
		svc, userRepo, _ := newAuthFixture()

		require.NoError(t, svc.EnsureBootstrapAdmin(context.Background(), "", "", ""))
		userRepo.AssertNotCalled(t, "CountByRole", mock.Anything, mock.Anything)
	})
}

func TestAuthService_Logout(t *testing.T) {
	svc, _, tokens := newAuthFixture()
	claims := &auth.Claims{UserID: 3}
	tokens.On("RevokeToken", mock.Anything, claims).Return(errors.New("redis down")).Once()
	tokens.On("RevokeToken", mock.Anything, claims).Return(nil)

	err := svc.Logout(context.Background(), claims)
	assert.True(t, apperrors.IsStoreError(err))

	assert.NoError(t, svc.Logout(context.Background(), claims))
}

func TestMaskTCNo(t *testing.T) {
	assert.Equal(t, "*******8901", maskTCNo("12345678901"))
	assert.Equal(t, "****", maskTCNo("12"))
}
