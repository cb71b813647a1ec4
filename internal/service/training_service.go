package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yourusername/training-api/internal/domain/entity"
	"github.com/yourusername/training-api/internal/domain/repository"
	apperrors "github.com/yourusername/training-api/internal/pkg/errors"
	"github.com/yourusername/training-api/internal/pkg/logger"
	"github.com/yourusername/training-api/internal/service/watchgate"
)

const positionKeyPrefix = "watch:pos:"

// VideoStatus: состояние видео для конкретного сотрудника
type VideoStatus struct {
	VideoID          uint   `json:"video_id"`
	Title            string `json:"title"`
	Description      string `json:"description"`
	Order            int    `json:"order"`
	Duration         int    `json:"duration"`
	DurationDisplay  string `json:"duration_display"`
	Status           string `json:"status,omitempty"`
	Watched          bool   `json:"watched"`
	HasExam          bool   `json:"has_exam"`
	ExamID           *uint  `json:"exam_id,omitempty"`
	ExamPassed       bool   `json:"exam_passed"`
	AttemptsCount    int    `json:"attempts_count"`
	IsFullyCompleted bool   `json:"is_fully_completed"`
}

// ModuleStatus: модуль с состоянием его видео
type ModuleStatus struct {
	ModuleID       uint          `json:"module_id"`
	Title          string        `json:"title"`
	Description    string        `json:"description"`
	Order          int           `json:"order"`
	Videos         []VideoStatus `json:"videos"`
	CompletedCount int           `json:"completed_count"`
}

// Dashboard: сводка обучения сотрудника
type Dashboard struct {
	Modules         []ModuleStatus `json:"modules"`
	TotalVideos     int            `json:"total_videos"`
	CompletedVideos int            `json:"completed_videos"`
}

// ExamRef: краткая информация об экзамене, закрывающем видео
type ExamRef struct {
	ID     uint   `json:"id"`
	Title  string `json:"title"`
	Passed bool   `json:"passed"`
}

// PlaybackView: все, что нужно плееру для просмотра видео
type PlaybackView struct {
	Video           *entity.Video    `json:"video"`
	PlaybackURL     string           `json:"playback_url"`
	DurationDisplay string           `json:"duration_display"`
	Watched         bool             `json:"watched"`
	Furthest        float64          `json:"furthest"`
	Exam            *ExamRef         `json:"exam,omitempty"`
	NextVideo       *entity.Video    `json:"next_video,omitempty"`
	Rules           watchgate.Config `json:"rules"`
}

// PositionResult: результат применения правил к отчету плеера
type PositionResult struct {
	watchgate.Event
	Furthest float64             `json:"furthest"`
	Watched  bool                `json:"watched"`
	Next     *watchgate.Decision `json:"next,omitempty"`
}

// positionRecord хранится в Redis на пару (пользователь, видео)
type positionRecord struct {
	State     watchgate.State `json:"state"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// TrainingService собирает прохождение обучения: дашборд, просмотр, следующий шаг
type TrainingService struct {
	catalog     *CatalogService
	progress    *ProgressService
	exams       *ExamService
	media       *MediaService
	examRepo    repository.ExamRepository
	cacheRepo   repository.CacheRepository
	rules       watchgate.Config
	positionTTL time.Duration
	log         *logger.Logger
	now         func() time.Time
}

// NewTrainingService создает сервис прохождения обучения.
// Без cacheRepo серверная проверка позиции отключена.
func NewTrainingService(
	catalog *CatalogService,
	progress *ProgressService,
	exams *ExamService,
	media *MediaService,
	examRepo repository.ExamRepository,
	cacheRepo repository.CacheRepository,
	rules watchgate.Config,
	positionTTL time.Duration,
	log *logger.Logger,
) *TrainingService {
	if positionTTL <= 0 {
		positionTTL = 24 * time.Hour
	}
	return &TrainingService{
		catalog:     catalog,
		progress:    progress,
		exams:       exams,
		media:       media,
		examRepo:    examRepo,
		cacheRepo:   cacheRepo,
		rules:       rules,
		positionTTL: positionTTL,
		log:         log.With("service", "TrainingService"),
		now:         time.Now,
	}
}

// Rules возвращает действующие правила просмотра
func (s *TrainingService) Rules() watchgate.Config {
	return s.rules
}

// Dashboard строит состояние всех видео для сотрудника.
// Видео полностью пройдено, если просмотрено и его экзамен (если есть) сдан.
func (s *TrainingService) Dashboard(ctx context.Context, userID uint) (*Dashboard, error) {
	modules, err := s.catalog.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	progressRows, err := s.progress.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	gated, err := s.examRepo.ListVideoGated(ctx)
	if err != nil {
		return nil, apperrors.NewStoreError("list gated exams", err)
	}
	attempts, err := s.exams.ListAttempts(ctx, userID)
	if err != nil {
		return nil, err
	}

	statusByVideo := make(map[uint]string, len(progressRows))
	for _, p := range progressRows {
		statusByVideo[p.VideoID] = p.Status
	}
	// на видео действует экзамен с наименьшим id
	examByVideo := make(map[uint]uint, len(gated))
	for _, e := range gated {
		if e.VideoID == nil {
			continue
		}
		if _, exists := examByVideo[*e.VideoID]; !exists {
			examByVideo[*e.VideoID] = e.ID
		}
	}
	attemptsByExam := make(map[uint]int)
	passedExams := make(map[uint]bool)
	for i := range attempts {
		a := &attempts[i]
		attemptsByExam[a.ExamID]++
		if a.IsPassed() {
			passedExams[a.ExamID] = true
		}
	}

	dash := &Dashboard{Modules: make([]ModuleStatus, 0, len(modules))}
	for _, m := range modules {
		ms := ModuleStatus{
			ModuleID:    m.ID,
			Title:       m.Title,
			Description: m.Description,
			Order:       m.Order,
			Videos:      make([]VideoStatus, 0, len(m.Videos)),
		}
		for _, v := range m.Videos {
			vs := VideoStatus{
				VideoID:         v.ID,
				Title:           v.Title,
				Description:     v.Description,
				Order:           v.Order,
				Duration:        v.Duration,
				DurationDisplay: watchgate.FormatDuration(v.Duration),
				Status:          statusByVideo[v.ID],
			}
			vs.Watched = vs.Status == entity.ProgressStatusCompleted
			if examID, ok := examByVideo[v.ID]; ok {
				id := examID
				vs.HasExam = true
				vs.ExamID = &id
				vs.ExamPassed = passedExams[examID]
				vs.AttemptsCount = attemptsByExam[examID]
			}
			vs.IsFullyCompleted = vs.Watched && (!vs.HasExam || vs.ExamPassed)
			if vs.IsFullyCompleted {
				ms.CompletedCount++
			}
			ms.Videos = append(ms.Videos, vs)
		}
		dash.TotalVideos += len(ms.Videos)
		dash.CompletedVideos += ms.CompletedCount
		dash.Modules = append(dash.Modules, ms)
	}
	return dash, nil
}

// VideoForPlayback открывает видео для просмотра: отмечает старт, подписывает ссылку,
// находит экзамен и следующее видео.
func (s *TrainingService) VideoForPlayback(ctx context.Context, userID, videoID uint) (*PlaybackView, error) {
	video, err := s.catalog.GetVideo(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if err := s.progress.MarkStarted(ctx, userID, videoID); err != nil {
		return nil, err
	}
	watched, err := s.progress.IsWatched(ctx, userID, videoID)
	if err != nil {
		return nil, err
	}

	view := &PlaybackView{
		Video:           video,
		PlaybackURL:     s.media.PlaybackURL(ctx, video),
		DurationDisplay: watchgate.FormatDuration(video.Duration),
		Watched:         watched,
		Rules:           s.rules,
	}

	exam, passed, err := s.gatingExam(ctx, userID, videoID)
	if err != nil {
		return nil, err
	}
	if exam != nil {
		view.Exam = &ExamRef{ID: exam.ID, Title: exam.Title, Passed: passed}
	}

	ordered, err := s.catalog.OrderedVideos(ctx)
	if err != nil {
		return nil, err
	}
	view.NextVideo = watchgate.NextVideo(ordered, videoID)

	if rec, ok := s.loadPosition(ctx, userID, videoID); ok {
		view.Furthest = rec.State.Furthest
	}
	return view, nil
}

// NextStep выбирает действие после видео
func (s *TrainingService) NextStep(ctx context.Context, userID, videoID uint) (*watchgate.Decision, error) {
	if _, err := s.catalog.GetVideo(ctx, videoID); err != nil {
		return nil, err
	}
	watched, err := s.progress.IsWatched(ctx, userID, videoID)
	if err != nil {
		return nil, err
	}
	return s.decide(ctx, userID, videoID, watched)
}

// RecordPosition применяет правила просмотра к позиции, сообщенной плеером.
// Состояние хранится в Redis и служит подсказкой, а не границей безопасности.
// Пересечение порога отмечает видео просмотренным.
func (s *TrainingService) RecordPosition(ctx context.Context, userID, videoID uint, position float64, seek bool) (*PositionResult, error) {
	if s.cacheRepo == nil {
		return nil, fmt.Errorf("position tracking is disabled")
	}
	video, err := s.catalog.GetVideo(ctx, videoID)
	if err != nil {
		return nil, err
	}

	rec, found := s.loadPosition(ctx, userID, videoID)
	if !found {
		watched, err := s.progress.IsWatched(ctx, userID, videoID)
		if err != nil {
			return nil, err
		}
		// после просмотра перемотка свободна
		rec.State.Completed = watched
		if watched {
			rec.State.Furthest = float64(video.Duration)
		}
	}

	tracker := watchgate.Restore(s.rules, float64(video.Duration), rec.State)
	now := s.now()
	var ev watchgate.Event
	if seek {
		ev = tracker.Seek(position)
	} else {
		var elapsed time.Duration
		if found {
			elapsed = now.Sub(rec.UpdatedAt)
		}
		ev = tracker.ProgressAfter(position, elapsed)
	}
	if ev.Clamped {
		s.log.Debug("Позиция ограничена", "user_id", userID, "video_id", videoID, "reported", position, "furthest", tracker.Furthest())
	}

	state := tracker.State()
	if ev.Completed {
		if err := s.progress.MarkCompleted(ctx, userID, videoID); err != nil {
			// завершение не записано: следующий отчет должен снова пересечь порог
			state.Completed = false
			s.savePosition(ctx, userID, videoID, positionRecord{State: state, UpdatedAt: now})
			return nil, err
		}
	}
	// время отчета сохраняется и для отклоненной позиции
	s.savePosition(ctx, userID, videoID, positionRecord{State: state, UpdatedAt: now})

	result := &PositionResult{Event: ev, Furthest: tracker.Furthest(), Watched: tracker.Completed()}
	if ev.Completed {
		next, err := s.decide(ctx, userID, videoID, true)
		if err != nil {
			return nil, err
		}
		result.Next = next
	}
	return result, nil
}

func (s *TrainingService) decide(ctx context.Context, userID, videoID uint, watched bool) (*watchgate.Decision, error) {
	in := watchgate.StepInput{Watched: watched}
	if !watched {
		d := watchgate.NextStep(in)
		return &d, nil
	}

	exam, passed, err := s.gatingExam(ctx, userID, videoID)
	if err != nil {
		return nil, err
	}
	if exam != nil {
		id := exam.ID
		in.ExamID = &id
		in.ExamPassed = passed
	}

	ordered, err := s.catalog.OrderedVideos(ctx)
	if err != nil {
		return nil, err
	}
	if next := watchgate.NextVideo(ordered, videoID); next != nil {
		id := next.ID
		in.NextVideoID = &id
	}
	d := watchgate.NextStep(in)
	return &d, nil
}

// gatingExam возвращает экзамен видео (или nil) и признак его сдачи
func (s *TrainingService) gatingExam(ctx context.Context, userID, videoID uint) (*entity.Exam, bool, error) {
	exam, err := s.exams.GetExamForVideo(ctx, videoID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	passed, err := s.exams.HasPassed(ctx, userID, exam.ID)
	if err != nil {
		return nil, false, err
	}
	return exam, passed, nil
}

func positionKey(userID, videoID uint) string {
	return fmt.Sprintf("%s%d:%d", positionKeyPrefix, userID, videoID)
}

func (s *TrainingService) loadPosition(ctx context.Context, userID, videoID uint) (positionRecord, bool) {
	var rec positionRecord
	if s.cacheRepo == nil {
		return rec, false
	}
	err := s.cacheRepo.GetJSON(ctx, positionKey(userID, videoID), &rec)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.log.Warn("Не удалось прочитать позицию просмотра", "user_id", userID, "video_id", videoID, "error", err)
		}
		return positionRecord{}, false
	}
	return rec, true
}

func (s *TrainingService) savePosition(ctx context.Context, userID, videoID uint, rec positionRecord) {
	if err := s.cacheRepo.SetJSON(ctx, positionKey(userID, videoID), rec, s.positionTTL); err != nil {
		s.log.Warn("Не удалось сохранить позицию просмотра", "user_id", userID, "video_id", videoID, "error", err)
	}
}
