package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/training-api/internal/domain/entity"
	apperrors "github.com/yourusername/training-api/internal/pkg/errors"
	"github.com/yourusername/training-api/internal/pkg/logger"
	"github.com/yourusername/training-api/pkg/storage"
)

func TestMediaService_PresignUpload(t *testing.T) {
	// Arrange
	presigner := new(MockPresigner)
	svc := NewMediaService(presigner, 0, 0, logger.NewNop())
	presigner.On("PresignUpload", mock.Anything, mock.MatchedBy(func(key string) bool {
		return strings.HasSuffix(key, "-egitim.mp4")
	}), "video/mp4", storage.DefaultUploadExpiry).Return("https://signed/put", nil)
	presigner.On("PublicURL", mock.Anything).Return("https://public/key")

	// Act
	ticket, err := svc.PresignUpload(context.Background(), "egitim.mp4", "")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "https://signed/put", ticket.URL)
	assert.Equal(t, "https://public/key", ticket.ViewURL)
	assert.True(t, strings.HasSuffix(ticket.Key, "-egitim.mp4"))
}

func TestMediaService_PresignUpload_RequiresFilename(t *testing.T) {
	svc := NewMediaService(new(MockPresigner), 0, 0, logger.NewNop())

	_, err := svc.PresignUpload(context.Background(), "  ", "video/mp4")

	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestMediaService_PlaybackURL(t *testing.T) {
	presigner := new(MockPresigner)
	svc := NewMediaService(presigner, 0, 0, logger.NewNop())
	ctx := context.Background()

	presigner.On("PresignDownload", mock.Anything, "k1", storage.DefaultPlaybackExpiry).Return("https://signed/k1", nil)
	presigner.On("PresignDownload", mock.Anything, "k2", storage.DefaultPlaybackExpiry).Return("", errors.New("no credentials"))
	presigner.On("KeyFromURL", "https://bucket/k1").Return("k1", nil)
	presigner.On("KeyFromURL", "https://youtube.example/v").Return("", storage.ErrForeignURL)

	assert.Equal(t, "https://signed/k1", svc.PlaybackURL(ctx, &entity.Video{ObjectKey: "k1"}))
	assert.Equal(t, "https://signed/k1", svc.PlaybackURL(ctx, &entity.Video{VideoURL: "https://bucket/k1"}), "Ключ выводится из сохраненного URL")
	assert.Equal(t, "https://stored/k2", svc.PlaybackURL(ctx, &entity.Video{ObjectKey: "k2", VideoURL: "https://stored/k2"}), "При ошибке подписи возвращается сохраненный URL")
	assert.Equal(t, "https://youtube.example/v", svc.PlaybackURL(ctx, &entity.Video{VideoURL: "https://youtube.example/v"}))
}
