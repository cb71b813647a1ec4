package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yourusername/training-api/internal/domain/entity"
	apperrors "github.com/yourusername/training-api/internal/pkg/errors"
)

// ProgressRepo реализует repository.ProgressRepository
type ProgressRepo struct {
	db *gorm.DB
}

// NewProgressRepo создает новый репозиторий прогресса
func NewProgressRepo(db *gorm.DB) *ProgressRepo {
	return &ProgressRepo{db: db}
}

// Get возвращает строку прогресса пользователя по видео
func (r *ProgressRepo) Get(ctx context.Context, userID, videoID uint) (*entity.UserProgress, error) {
	var progress entity.UserProgress
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND video_id = ?", userID, videoID).
		First(&progress).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &progress, nil
}

// Insert вставляет новую строку прогресса.
// Нарушение уникальности (user_id, video_id) возвращается как ErrConflict.
func (r *ProgressRepo) Insert(ctx context.Context, progress *entity.UserProgress) error {
	err := r.db.WithContext(ctx).Create(progress).Error
	if isUniqueViolation(err) {
		return apperrors.ErrConflict
	}
	return err
}

// UpsertCompleted отмечает видео досмотренным, создавая строку при необходимости
func (r *ProgressRepo) UpsertCompleted(ctx context.Context, userID, videoID uint, at time.Time) error {
	progress := entity.UserProgress{
		UserID:        userID,
		VideoID:       videoID,
		Status:        entity.ProgressStatusCompleted,
		LastWatchedAt: at,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "video_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "last_watched_at"}),
	}).Create(&progress).Error
}

// ListByUser возвращает весь прогресс пользователя
func (r *ProgressRepo) ListByUser(ctx context.Context, userID uint) ([]entity.UserProgress, error) {
	var rows []entity.UserProgress
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("video_id").Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
