package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/yourusername/training-api/internal/domain/entity"
	apperrors "github.com/yourusername/training-api/internal/pkg/errors"
)

// AttemptRepo реализует repository.AttemptRepository
type AttemptRepo struct {
	db *gorm.DB
}

// NewAttemptRepo создает новый репозиторий попыток
func NewAttemptRepo(db *gorm.DB) *AttemptRepo {
	return &AttemptRepo{db: db}
}

// Create создает попытку
func (r *AttemptRepo) Create(ctx context.Context, attempt *entity.ExamAttempt) error {
	return r.db.WithContext(ctx).Omit("User").Create(attempt).Error
}

// GetByID возвращает попытку по ID
func (r *AttemptRepo) GetByID(ctx context.Context, id uint) (*entity.ExamAttempt, error) {
	var attempt entity.ExamAttempt
	err := r.db.WithContext(ctx).First(&attempt, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &attempt, nil
}

// SaveAnswers сохраняет ответы попытки одним INSERT
func (r *AttemptRepo) SaveAnswers(ctx context.Context, answers []entity.ExamAnswer) error {
	if len(answers) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&answers).Error
}

// Finalize записывает результат. UPDATE условный: уже завершенная попытка не меняется.
func (r *AttemptRepo) Finalize(ctx context.Context, attemptID uint, score int, passed bool, completedAt time.Time) error {
	result := r.db.WithContext(ctx).Model(&entity.ExamAttempt{}).
		Where("id = ? AND completed_at IS NULL", attemptID).
		UpdateColumns(map[string]interface{}{
			"score":        score,
			"passed":       passed,
			"completed_at": completedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrAlreadySubmitted
	}
	return nil
}

// ListByUser возвращает попытки пользователя, новые первыми
func (r *AttemptRepo) ListByUser(ctx context.Context, userID uint) ([]entity.ExamAttempt, error) {
	var attempts []entity.ExamAttempt
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("started_at DESC, id DESC").
		Find(&attempts).Error
	if err != nil {
		return nil, err
	}
	return attempts, nil
}

// ListByExam возвращает попытки экзамена с профилями для отчета
func (r *AttemptRepo) ListByExam(ctx context.Context, examID uint) ([]entity.ExamAttempt, error) {
	var attempts []entity.ExamAttempt
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("exam_id = ?", examID).
		Order("started_at DESC, id DESC").
		Find(&attempts).Error
	if err != nil {
		return nil, err
	}
	return attempts, nil
}

// HasPassed проверяет наличие завершенной сданной попытки
func (r *AttemptRepo) HasPassed(ctx context.Context, userID, examID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.ExamAttempt{}).
		Where("user_id = ? AND exam_id = ? AND completed_at IS NOT NULL AND passed = ?", userID, examID, true).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
