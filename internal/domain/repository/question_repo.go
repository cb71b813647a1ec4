package repository

import (
	"context"

	"github.com/yourusername/training-api/internal/domain/entity"
)

// QuestionRepository определяет методы для работы с вопросами и вариантами ответов
type QuestionRepository interface {
	// Create сохраняет вопрос вместе с вариантами в одной транзакции
	Create(ctx context.Context, question *entity.Question) error
	// CreateBatch сохраняет набор вопросов (импорт) в одной транзакции
	CreateBatch(ctx context.Context, questions []entity.Question) error
	// ListByExamID возвращает вопросы экзамена с вариантами, упорядоченные по order
	ListByExamID(ctx context.Context, examID uint) ([]entity.Question, error)
	CountByExamID(ctx context.Context, examID uint) (int64, error)
	// Delete удаляет вопрос экзамена; варианты удаляются каскадно
	Delete(ctx context.Context, examID, questionID uint) error
}
