package repository

import (
	"context"
	"time"

	"github.com/yourusername/training-api/internal/domain/entity"
)

// ProgressRepository определяет методы для работы с прогрессом просмотра
type ProgressRepository interface {
	// Get возвращает ErrNotFound, если строки нет
	Get(ctx context.Context, userID, videoID uint) (*entity.UserProgress, error)
	// Insert возвращает ErrConflict при нарушении уникальности (user_id, video_id)
	Insert(ctx context.Context, progress *entity.UserProgress) error
	// UpsertCompleted выставляет status=completed по ключу (user_id, video_id)
	UpsertCompleted(ctx context.Context, userID, videoID uint, at time.Time) error
	ListByUser(ctx context.Context, userID uint) ([]entity.UserProgress, error)
}
