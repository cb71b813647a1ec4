package repository

import (
	"context"
	"time"

	"github.com/yourusername/training-api/internal/domain/entity"
)

// AttemptRepository определяет методы для работы с попытками экзаменов
type AttemptRepository interface {
	Create(ctx context.Context, attempt *entity.ExamAttempt) error
	GetByID(ctx context.Context, id uint) (*entity.ExamAttempt, error)
	SaveAnswers(ctx context.Context, answers []entity.ExamAnswer) error
	// Finalize завершает попытку только если completed_at IS NULL.
	// Если попытка уже завершена, возвращает ErrAlreadySubmitted.
	Finalize(ctx context.Context, attemptID uint, score int, passed bool, completedAt time.Time) error
	ListByUser(ctx context.Context, userID uint) ([]entity.ExamAttempt, error)
	// ListByExam возвращает попытки экзамена вместе с профилем пользователя
	ListByExam(ctx context.Context, examID uint) ([]entity.ExamAttempt, error)
	HasPassed(ctx context.Context, userID, examID uint) (bool, error)
}
