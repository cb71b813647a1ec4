package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/yourusername/training-api/internal/domain/entity"
	apperrors "github.com/yourusername/training-api/internal/pkg/errors"
)

// QuestionRepo реализует repository.QuestionRepository
type QuestionRepo struct {
	db *gorm.DB
}

// NewQuestionRepo создает новый репозиторий вопросов
func NewQuestionRepo(db *gorm.DB) *QuestionRepo {
	return &QuestionRepo{db: db}
}

// Create создает вопрос вместе с вариантами ответов
func (r *QuestionRepo) Create(ctx context.Context, question *entity.Question) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(question).Error
	})
}

// CreateBatch создает пакет вопросов с вариантами
func (r *QuestionRepo) CreateBatch(ctx context.Context, questions []entity.Question) error {
	if len(questions) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&questions).Error
	})
}

// ListByExamID возвращает вопросы экзамена с вариантами
func (r *QuestionRepo) ListByExamID(ctx context.Context, examID uint) ([]entity.Question, error) {
	var questions []entity.Question
	err := r.db.WithContext(ctx).
		Preload("Options", func(db *gorm.DB) *gorm.DB {
			return db.Clauses(byOrder("question_options"))
		}).
		Where("exam_id = ?", examID).
		Clauses(byOrder("questions")).
		Find(&questions).Error
	if err != nil {
		return nil, err
	}
	return questions, nil
}

// CountByExamID возвращает количество вопросов экзамена
func (r *QuestionRepo) CountByExamID(ctx context.Context, examID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Question{}).Where("exam_id = ?", examID).Count(&count).Error
	return count, err
}

// Delete удаляет вопрос экзамена вместе с вариантами
func (r *QuestionRepo) Delete(ctx context.Context, examID, questionID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("question_id = ?", questionID).Delete(&entity.Option{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ? AND exam_id = ?", questionID, examID).Delete(&entity.Question{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return apperrors.ErrNotFound
		}
		return nil
	})
}
