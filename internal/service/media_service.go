package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/yourusername/training-api/internal/domain/entity"
	apperrors "github.com/yourusername/training-api/internal/pkg/errors"
	"github.com/yourusername/training-api/internal/pkg/logger"
	"github.com/yourusername/training-api/pkg/storage"
)

// UploadTicket: подписанная ссылка для загрузки видео напрямую в хранилище
type UploadTicket struct {
	URL       string    `json:"url"`
	Key       string    `json:"key"`
	ViewURL   string    `json:"view_url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// MediaService выдает ссылки на загрузку и просмотр видео
type MediaService struct {
	presigner      storage.Presigner
	uploadExpiry   time.Duration
	playbackExpiry time.Duration
	log            *logger.Logger
	now            func() time.Time
}

// NewMediaService создает сервис медиа. Нулевые сроки заменяются значениями по умолчанию.
func NewMediaService(presigner storage.Presigner, uploadExpiry, playbackExpiry time.Duration, log *logger.Logger) *MediaService {
	if uploadExpiry <= 0 {
		uploadExpiry = storage.DefaultUploadExpiry
	}
	if playbackExpiry <= 0 {
		playbackExpiry = storage.DefaultPlaybackExpiry
	}
	return &MediaService{
		presigner:      presigner,
		uploadExpiry:   uploadExpiry,
		playbackExpiry: playbackExpiry,
		log:            log.With("service", "MediaService"),
		now:            time.Now,
	}
}

// PresignUpload выдает PUT-ссылку для нового объекта
func (s *MediaService) PresignUpload(ctx context.Context, filename, contentType string) (*UploadTicket, error) {
	if strings.TrimSpace(filename) == "" {
		return nil, fmt.Errorf("%w: filename is required", apperrors.ErrValidation)
	}
	key := storage.NewObjectKey(filename)
	if strings.TrimSpace(contentType) == "" {
		contentType = storage.ContentTypeForKey(key)
	}

	url, err := s.presigner.PresignUpload(ctx, key, contentType, s.uploadExpiry)
	if err != nil {
		s.log.Error("Не удалось подписать ссылку загрузки", "key", key, "provider", s.presigner.Provider(), "error", err)
		return nil, apperrors.NewStoreError("presign upload", err)
	}
	s.log.Info("Выдана ссылка загрузки", "key", key, "content_type", contentType)
	return &UploadTicket{
		URL:       url,
		Key:       key,
		ViewURL:   s.presigner.PublicURL(key),
		ExpiresAt: s.now().Add(s.uploadExpiry),
	}, nil
}

// PlaybackURL возвращает подписанную ссылку на просмотр.
// При ошибке подписи возвращается сохраненный URL видео.
func (s *MediaService) PlaybackURL(ctx context.Context, video *entity.Video) string {
	key := video.ObjectKey
	if key == "" && video.VideoURL != "" {
		derived, err := s.presigner.KeyFromURL(video.VideoURL)
		if err != nil {
			s.log.Debug("URL видео не из бакета, подпись не нужна", "video_id", video.ID, "error", err)
			return video.VideoURL
		}
		key = derived
	}
	if key == "" {
		return video.VideoURL
	}

	url, err := s.presigner.PresignDownload(ctx, key, s.playbackExpiry)
	if err != nil {
		s.log.Error("Не удалось подписать ссылку просмотра, используется сохраненный URL",
			"video_id", video.ID, "key", key, "error", err)
		return video.VideoURL
	}
	return url
}

// CheckStorage проверяет доступ к бакету
func (s *MediaService) CheckStorage(ctx context.Context) error {
	if err := s.presigner.CheckAccess(ctx); err != nil {
		s.log.Error("Хранилище недоступно", "provider", s.presigner.Provider(), "error", err)
		return apperrors.NewStoreError("check storage", err)
	}
	return nil
}

// Provider возвращает имя провайдера хранилища
func (s *MediaService) Provider() string {
	return s.presigner.Provider()
}
