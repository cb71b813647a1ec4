package repository

import (
	"context"

	"github.com/yourusername/training-api/internal/domain/entity"
)

// UserRepository определяет методы для работы с профилями пользователей
type UserRepository interface {
	// Create возвращает ErrConflict, если tc_no уже занят
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id uint) (*entity.User, error)
	GetByTCNo(ctx context.Context, tcNo string) (*entity.User, error)
	// UpdatePassword сохраняет уже захешированный пароль и сбрасывает признак первого входа
	UpdatePassword(ctx context.Context, userID uint, passwordHash string) error
	CountByRole(ctx context.Context, role string) (int64, error)
	List(ctx context.Context) ([]entity.User, error)
}
