package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"golang.org/x/crypto/bcrypt"

	"github.com/yourusername/training-api/internal/domain/entity"
	"github.com/yourusername/training-api/internal/domain/repository"
	apperrors "github.com/yourusername/training-api/internal/pkg/errors"
	"github.com/yourusername/training-api/internal/pkg/logger"
	"github.com/yourusername/training-api/pkg/auth"
)

const (
	tcNoLength        = 11
	minPasswordLength = 6
)

// TokenIssuer выдает, проверяет и отзывает токены доступа
type TokenIssuer interface {
	GenerateToken(userID uint, role string) (string, time.Time, error)
	ParseToken(ctx context.Context, tokenString string) (*auth.Claims, error)
	RevokeToken(ctx context.Context, claims *auth.Claims) error
}

// LoginResult: ответ на успешный вход
type LoginResult struct {
	AccessToken string       `json:"access_token"`
	ExpiresAt   time.Time    `json:"expires_at"`
	User        *entity.User `json:"user"`
}

// CreateUserInput: данные нового профиля
type CreateUserInput struct {
	TCNo     string
	FullName string
	Password string
	Role     string
}

// AuthService отвечает за вход по номеру TC, профили и пароли
type AuthService struct {
	userRepo repository.UserRepository
	tokens   TokenIssuer
	log      *logger.Logger
}

// NewAuthService создает сервис аутентификации
func NewAuthService(userRepo repository.UserRepository, tokens TokenIssuer, log *logger.Logger) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		tokens:   tokens,
		log:      log.With("service", "AuthService"),
	}
}

// Login проверяет номер TC и пароль и выдает токен
func (s *AuthService) Login(ctx context.Context, tcNo, password string) (*LoginResult, error) {
	tcNo = strings.TrimSpace(tcNo)
	user, err := s.userRepo.GetByTCNo(ctx, tcNo)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.log.Info("Вход с неизвестным номером TC", "tc_no", maskTCNo(tcNo))
			return nil, ErrInvalidCredentials
		}
		return nil, apperrors.NewStoreError("get user", err)
	}
	if !user.CheckPassword(password) {
		s.log.Info("Неверный пароль при входе", "user_id", user.ID)
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.GenerateToken(user.ID, user.Role)
	if err != nil {
		s.log.Error("Ошибка генерации токена", "user_id", user.ID, "error", err)
		return nil, fmt.Errorf("generate token: %w", err)
	}
	s.log.Info("Пользователь вошел в систему", "user_id", user.ID, "role", user.Role)
	return &LoginResult{AccessToken: token, ExpiresAt: expiresAt, User: user}, nil
}

// Logout отзывает токен до истечения его срока
func (s *AuthService) Logout(ctx context.Context, claims *auth.Claims) error {
	if err := s.tokens.RevokeToken(ctx, claims); err != nil {
		s.log.Error("Не удалось отозвать токен", "user_id", claims.UserID, "error", err)
		return apperrors.NewStoreError("revoke token", err)
	}
	s.log.Info("Пользователь вышел", "user_id", claims.UserID)
	return nil
}

// Me возвращает профиль текущего пользователя
func (s *AuthService) Me(ctx context.Context, userID uint) (*entity.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		return nil, apperrors.NewStoreError("get user", err)
	}
	return user, nil
}

// ChangePassword меняет пароль и снимает флаг первого входа
func (s *AuthService) ChangePassword(ctx context.Context, userID uint, oldPassword, newPassword string) error {
	user, err := s.Me(ctx, userID)
	if err != nil {
		return err
	}
	if !user.CheckPassword(oldPassword) {
		return ErrInvalidCredentials
	}
	if len(newPassword) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", apperrors.ErrValidation, minPasswordLength)
	}
	if oldPassword == newPassword {
		return fmt.Errorf("%w: new password must differ from the old one", apperrors.ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.userRepo.UpdatePassword(ctx, userID, string(hash)); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return err
		}
		return apperrors.NewStoreError("update password", err)
	}
	s.log.Info("Пароль изменен", "user_id", userID)
	return nil
}

// CreateUser создает профиль сотрудника или администратора
func (s *AuthService) CreateUser(ctx context.Context, in CreateUserInput) (*entity.User, error) {
	tcNo := strings.TrimSpace(in.TCNo)
	if !isValidTCNo(tcNo) {
		return nil, fmt.Errorf("%w: tc_no must be %d digits", apperrors.ErrValidation, tcNoLength)
	}
	fullName := strings.TrimSpace(in.FullName)
	if fullName == "" {
		return nil, fmt.Errorf("%w: full_name is required", apperrors.ErrValidation)
	}
	if len(in.Password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", apperrors.ErrValidation, minPasswordLength)
	}
	role := in.Role
	if role == "" {
		role = entity.RoleWorker
	}
	if !entity.IsValidRole(role) {
		return nil, fmt.Errorf("%w: unknown role %q", apperrors.ErrValidation, role)
	}

	user := &entity.User{
		TCNo:         tcNo,
		FullName:     fullName,
		Password:     in.Password,
		Role:         role,
		IsFirstLogin: true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			return nil, fmt.Errorf("%w: tc_no already registered", apperrors.ErrConflict)
		}
		return nil, apperrors.NewStoreError("create user", err)
	}
	s.log.Info("Профиль создан", "user_id", user.ID, "role", role)
	return user, nil
}

// ListUsers возвращает все профили
func (s *AuthService) ListUsers(ctx context.Context) ([]entity.User, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, apperrors.NewStoreError("list users", err)
	}
	return users, nil
}

// EnsureBootstrapAdmin создает администратора из конфигурации, если администраторов еще нет.
// Пустой tcNo отключает создание.
func (s *AuthService) EnsureBootstrapAdmin(ctx context.Context, tcNo, password, fullName string) error {
	if strings.TrimSpace(tcNo) == "" {
		return nil
	}
	count, err := s.userRepo.CountByRole(ctx, entity.RoleAdmin)
	if err != nil {
		return apperrors.NewStoreError("count admins", err)
	}
	if count > 0 {
		return nil
	}
	if fullName == "" {
		fullName = "Administrator"
	}
	user, err := s.CreateUser(ctx, CreateUserInput{TCNo: tcNo, FullName: fullName, Password: password, Role: entity.RoleAdmin})
	if err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}
	s.log.Warn("Создан начальный администратор, смените пароль при первом входе", "user_id", user.ID)
	return nil
}

func isValidTCNo(s string) bool {
	if len(s) != tcNoLength {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// maskTCNo оставляет в логах только последние 4 цифры
func maskTCNo(s string) string {
	if len(s) <= 4 {
		return "****"
	}
	return strings.Repeat("*", len(s)-4) + s[len(s)-4:]
}
