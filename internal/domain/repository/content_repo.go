package repository

import (
	"context"

	"github.com/yourusername/training-api/internal/domain/entity"
)

// ModuleRepository определяет методы для работы с учебными модулями
type ModuleRepository interface {
	Create(ctx context.Context, module *entity.Module) error
	GetByID(ctx context.Context, id uint) (*entity.Module, error)
	// List возвращает модули в порядке order
	List(ctx context.Context) ([]entity.Module, error)
}

// VideoRepository определяет методы для работы с видео
type VideoRepository interface {
	Create(ctx context.Context, video *entity.Video) error
	GetByID(ctx context.Context, id uint) (*entity.Video, error)
	ListByModuleID(ctx context.Context, moduleID uint) ([]entity.Video, error)
	// ListOrdered возвращает все видео в порядке прохождения: order модуля, затем order видео
	ListOrdered(ctx context.Context) ([]entity.Video, error)
}

// ExamRepository определяет методы для работы с экзаменами
type ExamRepository interface {
	Create(ctx context.Context, exam *entity.Exam) error
	GetByID(ctx context.Context, id uint) (*entity.Exam, error)
	// List возвращает экзамены с модулем, новые первыми
	List(ctx context.Context) ([]entity.Exam, error)
	// GetByVideoID возвращает экзамен, закрывающий видео
	GetByVideoID(ctx context.Context, videoID uint) (*entity.Exam, error)
	// ListVideoGated возвращает все экзамены, привязанные к видео
	ListVideoGated(ctx context.Context) ([]entity.Exam, error)
}
