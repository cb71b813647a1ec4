package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yourusername/training-api/internal/domain/entity"
	apperrors "github.com/yourusername/training-api/internal/pkg/errors"
)

// ModuleRepo реализует repository.ModuleRepository
type ModuleRepo struct {
	db *gorm.DB
}

// NewModuleRepo создает новый репозиторий модулей
func NewModuleRepo(db *gorm.DB) *ModuleRepo {
	return &ModuleRepo{db: db}
}

// Create создает модуль
func (r *ModuleRepo) Create(ctx context.Context, module *entity.Module) error {
	return r.db.WithContext(ctx).Create(module).Error
}

// GetByID возвращает модуль по ID
func (r *ModuleRepo) GetByID(ctx context.Context, id uint) (*entity.Module, error) {
	var module entity.Module
	err := r.db.WithContext(ctx).First(&module, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &module, nil
}

// List возвращает модули в порядке прохождения
func (r *ModuleRepo) List(ctx context.Context) ([]entity.Module, error) {
	var modules []entity.Module
	err := r.db.WithContext(ctx).Clauses(byOrder("modules")).Find(&modules).Error
	if err != nil {
		return nil, err
	}
	return modules, nil
}

// VideoRepo реализует repository.VideoRepository
type VideoRepo struct {
	db *gorm.DB
}

// NewVideoRepo создает новый репозиторий видео
func NewVideoRepo(db *gorm.DB) *VideoRepo {
	return &VideoRepo{db: db}
}

// Create создает видео
func (r *VideoRepo) Create(ctx context.Context, video *entity.Video) error {
	return r.db.WithContext(ctx).Create(video).Error
}

// GetByID возвращает видео по ID
func (r *VideoRepo) GetByID(ctx context.Context, id uint) (*entity.Video, error) {
	var video entity.Video
	err := r.db.WithContext(ctx).First(&video, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &video, nil
}

// ListByModuleID возвращает видео модуля по порядку
func (r *VideoRepo) ListByModuleID(ctx context.Context, moduleID uint) ([]entity.Video, error) {
	var videos []entity.Video
	err := r.db.WithContext(ctx).
		Where("module_id = ?", moduleID).
		Clauses(byOrder("videos")).
		Find(&videos).Error
	if err != nil {
		return nil, err
	}
	return videos, nil
}

// ListOrdered возвращает все видео: сначала по порядку модулей, затем по порядку внутри модуля
func (r *VideoRepo) ListOrdered(ctx context.Context) ([]entity.Video, error) {
	var videos []entity.Video
	err := r.db.WithContext(ctx).
		Select("videos.*").
		Joins("JOIN modules ON modules.id = videos.module_id").
		Clauses(clause.OrderBy{Columns: []clause.OrderByColumn{
			{Column: clause.Column{Table: "modules", Name: "order"}},
			{Column: clause.Column{Table: "modules", Name: "id"}},
			{Column: clause.Column{Table: "videos", Name: "order"}},
			{Column: clause.Column{Table: "videos", Name: "id"}},
		}}).
		Find(&videos).Error
	if err != nil {
		return nil, err
	}
	return videos, nil
}

// ExamRepo реализует repository.ExamRepository
type ExamRepo struct {
	db *gorm.DB
}

// NewExamRepo создает новый репозиторий экзаменов
func NewExamRepo(db *gorm.DB) *ExamRepo {
	return &ExamRepo{db: db}
}

// Create создает экзамен
func (r *ExamRepo) Create(ctx context.Context, exam *entity.Exam) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(exam).Error
}

// GetByID возвращает экзамен по ID
func (r *ExamRepo) GetByID(ctx context.Context, id uint) (*entity.Exam, error) {
	var exam entity.Exam
	err := r.db.WithContext(ctx).First(&exam, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &exam, nil
}

// List возвращает все экзамены с модулем, новые первыми
func (r *ExamRepo) List(ctx context.Context) ([]entity.Exam, error) {
	var exams []entity.Exam
	err := r.db.WithContext(ctx).
		Preload("Module").
		Order("created_at DESC, id DESC").
		Find(&exams).Error
	if err != nil {
		return nil, err
	}
	return exams, nil
}

// GetByVideoID возвращает экзамен, привязанный к видео (самый ранний, если их несколько)
func (r *ExamRepo) GetByVideoID(ctx context.Context, videoID uint) (*entity.Exam, error) {
	var exam entity.Exam
	err := r.db.WithContext(ctx).Where("video_id = ?", videoID).Order("id").First(&exam).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &exam, nil
}

// ListVideoGated возвращает экзамены, закрывающие видео
func (r *ExamRepo) ListVideoGated(ctx context.Context) ([]entity.Exam, error) {
	var exams []entity.Exam
	err := r.db.WithContext(ctx).Where("video_id IS NOT NULL").Order("id").Find(&exams).Error
	if err != nil {
		return nil, err
	}
	return exams, nil
}
