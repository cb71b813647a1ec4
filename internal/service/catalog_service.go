package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yourusername/training-api/internal/domain/entity"
	"github.com/yourusername/training-api/internal/domain/repository"
	apperrors "github.com/yourusername/training-api/internal/pkg/errors"
	"github.com/yourusername/training-api/internal/pkg/logger"
	"github.com/yourusername/training-api/pkg/storage"
)

// catalogCacheKey: ключ кеша каталога модулей с видео
const catalogCacheKey = "catalog:v1"

// CatalogConfig содержит значения по умолчанию для создаваемого контента
type CatalogConfig struct {
	DefaultPassingScore   int
	DefaultExamMinutes    int
	DefaultQuestionPoints int
	CacheTTL              time.Duration
}

// CreateModuleInput: данные нового модуля
type CreateModuleInput struct {
	Title       string
	Description string
	Order       int
}

// CreateVideoInput: данные нового видео. Достаточно VideoURL или ObjectKey.
type CreateVideoInput struct {
	ModuleID    uint
	Title       string
	Description string
	VideoURL    string
	ObjectKey   string
	Duration    int
	Order       int
}

// CreateExamInput: данные нового экзамена. Nil-поля получают значения по умолчанию.
type CreateExamInput struct {
	ModuleID        uint
	VideoID         *uint
	Title           string
	Description     string
	PassingScore    *int
	DurationMinutes *int
}

// OptionInput: вариант ответа
type OptionInput struct {
	Text      string
	IsCorrect bool
}

// CreateQuestionInput: данные нового вопроса
type CreateQuestionInput struct {
	ExamID  uint
	Text    string
	Type    string
	Points  int
	Options []OptionInput
}

// CatalogService управляет учебным контентом: модули, видео, экзамены, вопросы
type CatalogService struct {
	moduleRepo   repository.ModuleRepository
	videoRepo    repository.VideoRepository
	examRepo     repository.ExamRepository
	questionRepo repository.QuestionRepository
	cacheRepo    repository.CacheRepository
	presigner    storage.Presigner
	cfg          CatalogConfig
	log          *logger.Logger
}

// NewCatalogService создает сервис контента. cacheRepo может быть nil, тогда каталог не кешируется.
func NewCatalogService(
	moduleRepo repository.ModuleRepository,
	videoRepo repository.VideoRepository,
	examRepo repository.ExamRepository,
	questionRepo repository.QuestionRepository,
	cacheRepo repository.CacheRepository,
	presigner storage.Presigner,
	cfg CatalogConfig,
	log *logger.Logger,
) *CatalogService {
	if cfg.DefaultPassingScore == 0 {
		cfg.DefaultPassingScore = 70
	}
	if cfg.DefaultExamMinutes <= 0 {
		cfg.DefaultExamMinutes = 30
	}
	if cfg.DefaultQuestionPoints <= 0 {
		cfg.DefaultQuestionPoints = 10
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 10 * time.Minute
	}
	return &CatalogService{
		moduleRepo:   moduleRepo,
		videoRepo:    videoRepo,
		examRepo:     examRepo,
		questionRepo: questionRepo,
		cacheRepo:    cacheRepo,
		presigner:    presigner,
		cfg:          cfg,
		log:          log.With("service", "CatalogService"),
	}
}

// CreateModule создает модуль
func (s *CatalogService) CreateModule(ctx context.Context, in CreateModuleInput) (*entity.Module, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", apperrors.ErrValidation)
	}
	module := &entity.Module{
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Order:       in.Order,
	}
	if err := s.moduleRepo.Create(ctx, module); err != nil {
		return nil, apperrors.NewStoreError("create module", err)
	}
	s.invalidateCatalog(ctx)
	s.log.Info("Модуль создан", "module_id", module.ID, "title", module.Title)
	return module, nil
}

// ListModules возвращает модули по порядку
func (s *CatalogService) ListModules(ctx context.Context) ([]entity.Module, error) {
	modules, err := s.moduleRepo.List(ctx)
	if err != nil {
		return nil, apperrors.NewStoreError("list modules", err)
	}
	return modules, nil
}

// CreateVideo создает видео в модуле
func (s *CatalogService) CreateVideo(ctx context.Context, in CreateVideoInput) (*entity.Video, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", apperrors.ErrValidation)
	}
	if in.Duration < 0 {
		return nil, fmt.Errorf("%w: duration must not be negative", apperrors.ErrValidation)
	}
	videoURL := strings.TrimSpace(in.VideoURL)
	objectKey := strings.TrimSpace(in.ObjectKey)
	if videoURL == "" && objectKey == "" {
		return nil, fmt.Errorf("%w: video_url or object_key is required", apperrors.ErrValidation)
	}
	if err := s.ensureModule(ctx, in.ModuleID); err != nil {
		return nil, err
	}

	if s.presigner != nil {
		if videoURL == "" {
			videoURL = s.presigner.PublicURL(objectKey)
		} else if objectKey == "" {
			if key, err := s.presigner.KeyFromURL(videoURL); err == nil {
				objectKey = key
			}
		}
	}

	video := &entity.Video{
		ModuleID:    in.ModuleID,
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		VideoURL:    videoURL,
		ObjectKey:   objectKey,
		Duration:    in.Duration,
		Order:       in.Order,
	}
	if err := s.videoRepo.Create(ctx, video); err != nil {
		return nil, apperrors.NewStoreError("create video", err)
	}
	s.invalidateCatalog(ctx)
	s.log.Info("Видео создано", "video_id", video.ID, "module_id", video.ModuleID)
	return video, nil
}

// ListVideosByModule возвращает видео модуля по порядку
func (s *CatalogService) ListVideosByModule(ctx context.Context, moduleID uint) ([]entity.Video, error) {
	if err := s.ensureModule(ctx, moduleID); err != nil {
		return nil, err
	}
	videos, err := s.videoRepo.ListByModuleID(ctx, moduleID)
	if err != nil {
		return nil, apperrors.NewStoreError("list videos", err)
	}
	return videos, nil
}

// GetVideo возвращает видео по ID
func (s *CatalogService) GetVideo(ctx context.Context, id uint) (*entity.Video, error) {
	video, err := s.videoRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		return nil, apperrors.NewStoreError("get video", err)
	}
	return video, nil
}

// CreateExam создает экзамен. Видео, если указано, должно принадлежать модулю.
func (s *CatalogService) CreateExam(ctx context.Context, in CreateExamInput) (*entity.Exam, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", apperrors.ErrValidation)
	}
	passing := s.cfg.DefaultPassingScore
	if in.PassingScore != nil {
		passing = *in.PassingScore
	}
	if passing < 0 || passing > 100 {
		return nil, fmt.Errorf("%w: passing_score must be between 0 and 100", apperrors.ErrValidation)
	}
	minutes := s.cfg.DefaultExamMinutes
	if in.DurationMinutes != nil {
		minutes = *in.DurationMinutes
	}
	if minutes <= 0 {
		return nil, fmt.Errorf("%w: duration_minutes must be positive", apperrors.ErrValidation)
	}

	if err := s.ensureModule(ctx, in.ModuleID); err != nil {
		return nil, err
	}
	if in.VideoID != nil {
		video, err := s.GetVideo(ctx, *in.VideoID)
		if err != nil {
			return nil, err
		}
		if video.ModuleID != in.ModuleID {
			return nil, fmt.Errorf("%w: video %d does not belong to module %d", apperrors.ErrValidation, video.ID, in.ModuleID)
		}
	}

	exam := &entity.Exam{
		ModuleID:        in.ModuleID,
		VideoID:         in.VideoID,
		Title:           title,
		Description:     strings.TrimSpace(in.Description),
		PassingScore:    passing,
		DurationMinutes: minutes,
	}
	if err := s.examRepo.Create(ctx, exam); err != nil {
		return nil, apperrors.NewStoreError("create exam", err)
	}
	s.log.Info("Экзамен создан", "exam_id", exam.ID, "module_id", exam.ModuleID, "passing_score", passing)
	return exam, nil
}

// ListExams возвращает экзамены, новые первыми
func (s *CatalogService) ListExams(ctx context.Context) ([]entity.Exam, error) {
	exams, err := s.examRepo.List(ctx)
	if err != nil {
		return nil, apperrors.NewStoreError("list exams", err)
	}
	return exams, nil
}

// GetExam возвращает экзамен по ID
func (s *CatalogService) GetExam(ctx context.Context, id uint) (*entity.Exam, error) {
	exam, err := s.examRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		return nil, apperrors.NewStoreError("get exam", err)
	}
	return exam, nil
}

// CreateQuestion создает вопрос с вариантами. Порядок вариантов совпадает с порядком ввода.
func (s *CatalogService) CreateQuestion(ctx context.Context, in CreateQuestionInput) (*entity.Question, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, fmt.Errorf("%w: question text is required", apperrors.ErrValidation)
	}
	qType := in.Type
	if qType == "" {
		qType = entity.QuestionTypeMultipleChoice
	}
	if !entity.IsValidQuestionType(qType) {
		return nil, fmt.Errorf("%w: unknown question type %q", apperrors.ErrValidation, qType)
	}
	points := in.Points
	if points == 0 {
		points = s.cfg.DefaultQuestionPoints
	}
	if points < 0 {
		return nil, fmt.Errorf("%w: points must not be negative", apperrors.ErrValidation)
	}
	if len(in.Options) == 0 {
		return nil, fmt.Errorf("%w: at least one option is required", apperrors.ErrValidation)
	}
	if qType == entity.QuestionTypeTrueFalse && len(in.Options) != 2 {
		return nil, fmt.Errorf("%w: true_false question needs exactly 2 options", apperrors.ErrValidation)
	}

	options := make([]entity.Option, 0, len(in.Options))
	correct := 0
	for i, o := range in.Options {
		optText := strings.TrimSpace(o.Text)
		if optText == "" {
			return nil, fmt.Errorf("%w: option %d is empty", apperrors.ErrValidation, i+1)
		}
		if o.IsCorrect {
			correct++
		}
		options = append(options, entity.Option{OptionText: optText, IsCorrect: o.IsCorrect, Order: i})
	}
	if correct != 1 {
		return nil, fmt.Errorf("%w: exactly one correct option is required, got %d", apperrors.ErrValidation, correct)
	}

	if _, err := s.GetExam(ctx, in.ExamID); err != nil {
		return nil, err
	}
	count, err := s.questionRepo.CountByExamID(ctx, in.ExamID)
	if err != nil {
		return nil, apperrors.NewStoreError("count questions", err)
	}

	question := &entity.Question{
		ExamID:       in.ExamID,
		QuestionText: text,
		QuestionType: qType,
		Points:       points,
		Order:        int(count),
		Options:      options,
	}
	if err := s.questionRepo.Create(ctx, question); err != nil {
		return nil, apperrors.NewStoreError("create question", err)
	}
	return question, nil
}

// ListQuestions возвращает вопросы экзамена с вариантами и отметкой правильного
func (s *CatalogService) ListQuestions(ctx context.Context, examID uint) ([]entity.Question, error) {
	if _, err := s.GetExam(ctx, examID); err != nil {
		return nil, err
	}
	questions, err := s.questionRepo.ListByExamID(ctx, examID)
	if err != nil {
		return nil, apperrors.NewStoreError("list questions", err)
	}
	return questions, nil
}

// DeleteQuestion удаляет вопрос экзамена вместе с вариантами
func (s *CatalogService) DeleteQuestion(ctx context.Context, examID, questionID uint) error {
	err := s.questionRepo.Delete(ctx, examID, questionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return err
		}
		return apperrors.NewStoreError("delete question", err)
	}
	s.log.Info("Вопрос удален", "exam_id", examID, "question_id", questionID)
	return nil
}

// Catalog возвращает модули с видео в порядке прохождения. Результат кешируется в Redis.
func (s *CatalogService) Catalog(ctx context.Context) ([]entity.Module, error) {
	if s.cacheRepo != nil {
		var cached []entity.Module
		err := s.cacheRepo.GetJSON(ctx, catalogCacheKey, &cached)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.log.Warn("Ошибка чтения кеша каталога", "error", err)
		}
	}

	modules, err := s.moduleRepo.List(ctx)
	if err != nil {
		return nil, apperrors.NewStoreError("list modules", err)
	}
	videos, err := s.videoRepo.ListOrdered(ctx)
	if err != nil {
		return nil, apperrors.NewStoreError("list videos", err)
	}

	index := make(map[uint]int, len(modules))
	for i := range modules {
		modules[i].Videos = []entity.Video{}
		index[modules[i].ID] = i
	}
	for _, v := range videos {
		if i, ok := index[v.ModuleID]; ok {
			modules[i].Videos = append(modules[i].Videos, v)
		}
	}

	if s.cacheRepo != nil {
		if err := s.cacheRepo.SetJSON(ctx, catalogCacheKey, modules, s.cfg.CacheTTL); err != nil {
			s.log.Warn("Не удалось сохранить каталог в кеш", "error", err)
		}
	}
	return modules, nil
}

// OrderedVideos возвращает все видео в порядке прохождения (из каталога)
func (s *CatalogService) OrderedVideos(ctx context.Context) ([]entity.Video, error) {
	modules, err := s.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	var videos []entity.Video
	for _, m := range modules {
		videos = append(videos, m.Videos...)
	}
	return videos, nil
}

func (s *CatalogService) ensureModule(ctx context.Context, moduleID uint) error {
	if _, err := s.moduleRepo.GetByID(ctx, moduleID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return err
		}
		return apperrors.NewStoreError("get module", err)
	}
	return nil
}

func (s *CatalogService) invalidateCatalog(ctx context.Context) {
	if s.cacheRepo == nil {
		return
	}
	if err := s.cacheRepo.Delete(ctx, catalogCacheKey); err != nil {
		s.log.Warn("Не удалось сбросить кеш каталога", "error", err)
	}
}
