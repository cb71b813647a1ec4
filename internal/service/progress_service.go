package service

import (
	"context"
	"errors"
	"time"

	"github.com/yourusername/training-api/internal/domain/entity"
	"github.com/yourusername/training-api/internal/domain/repository"
	apperrors "github.com/yourusername/training-api/internal/pkg/errors"
	"github.com/yourusername/training-api/internal/pkg/logger"
)

// ProgressService ведет прогресс просмотра видео.
// Статус строки только растет: нет строки -> started -> completed.
type ProgressService struct {
	progressRepo repository.ProgressRepository
	videoRepo    repository.VideoRepository
	log          *logger.Logger
	now          func() time.Time
}

// NewProgressService создает сервис прогресса
func NewProgressService(
	progressRepo repository.ProgressRepository,
	videoRepo repository.VideoRepository,
	log *logger.Logger,
) *ProgressService {
	return &ProgressService{
		progressRepo: progressRepo,
		videoRepo:    videoRepo,
		log:          log.With("service", "ProgressService"),
		now:          time.Now,
	}
}

// MarkStarted отмечает начало просмотра. Запись некритичная:
// ошибки хранилища логируются и не возвращаются, конкурентный дубль считается успехом.
// Возвращает ErrNotFound, если видео не существует.
func (s *ProgressService) MarkStarted(ctx context.Context, userID, videoID uint) error {
	if _, err := s.videoRepo.GetByID(ctx, videoID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return err
		}
		s.log.Error("Не удалось проверить видео перед отметкой старта", "user_id", userID, "video_id", videoID, "error", err)
		return nil
	}

	existing, err := s.progressRepo.Get(ctx, userID, videoID)
	if err == nil && existing != nil {
		return nil
	}
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		s.log.Error("Ошибка чтения прогресса", "user_id", userID, "video_id", videoID, "error", err)
		return nil
	}

	err = s.progressRepo.Insert(ctx, &entity.UserProgress{
		UserID:        userID,
		VideoID:       videoID,
		Status:        entity.ProgressStatusStarted,
		LastWatchedAt: s.now(),
	})
	switch {
	case err == nil:
		s.log.Debug("Просмотр начат", "user_id", userID, "video_id", videoID)
	case errors.Is(err, apperrors.ErrConflict):
		// строку уже вставил параллельный запрос
	default:
		s.log.Error("Не удалось сохранить старт просмотра", "user_id", userID, "video_id", videoID, "error", err)
	}
	return nil
}

// MarkCompleted отмечает видео досмотренным. Ошибки хранилища возвращаются вызывающему.
func (s *ProgressService) MarkCompleted(ctx context.Context, userID, videoID uint) error {
	if _, err := s.videoRepo.GetByID(ctx, videoID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return err
		}
		return apperrors.NewStoreError("get video", err)
	}

	existing, err := s.progressRepo.Get(ctx, userID, videoID)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return apperrors.NewStoreError("get progress", err)
	}
	if existing != nil && existing.IsCompleted() {
		return nil
	}

	if err := s.progressRepo.UpsertCompleted(ctx, userID, videoID, s.now()); err != nil {
		s.log.Error("Не удалось отметить видео просмотренным", "user_id", userID, "video_id", videoID, "error", err)
		return apperrors.NewStoreError("upsert progress", err)
	}
	s.log.Info("Видео просмотрено", "user_id", userID, "video_id", videoID)
	return nil
}

// IsWatched возвращает true, если пользователь досмотрел видео
func (s *ProgressService) IsWatched(ctx context.Context, userID, videoID uint) (bool, error) {
	p, err := s.progressRepo.Get(ctx, userID, videoID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return false, nil
		}
		return false, apperrors.NewStoreError("get progress", err)
	}
	return p.IsCompleted(), nil
}

// ListForUser возвращает прогресс пользователя по всем видео
func (s *ProgressService) ListForUser(ctx context.Context, userID uint) ([]entity.UserProgress, error) {
	rows, err := s.progressRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.NewStoreError("list progress", err)
	}
	return rows, nil
}
