// Package storage выдает подписанные ссылки на объекты видео в S3 или GCS.
package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Сроки жизни ссылок по умолчанию
const (
	DefaultUploadExpiry   = time.Hour
	DefaultPlaybackExpiry = 3 * time.Hour
)

// ErrForeignURL возвращается, если URL не указывает на объект настроенного бакета
var ErrForeignURL = errors.New("url does not belong to the configured bucket")

// Presigner выдает подписанные ссылки на загрузку и просмотр объектов
type Presigner interface {
	// PresignUpload возвращает URL для PUT-загрузки объекта
	PresignUpload(ctx context.Context, key, contentType string, expiry time.Duration) (string, error)
	// PresignDownload возвращает URL для GET-чтения объекта
	PresignDownload(ctx context.Context, key string, expiry time.Duration) (string, error)
	// PublicURL возвращает неподписанный адрес объекта (сохраняется в videos.video_url)
	PublicURL(key string) string
	// KeyFromURL извлекает ключ объекта из сохраненного публичного URL
	KeyFromURL(rawURL string) (string, error)
	// CheckAccess проверяет доступ к бакету
	CheckAccess(ctx context.Context) error
	// Provider возвращает имя провайдера ("s3" или "gcs")
	Provider() string
}

var unsafeKeyChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// NewObjectKey строит ключ объекта вида "<uuid>-<имя файла>"
func NewObjectKey(filename string) string {
	base := path.Base(strings.ReplaceAll(strings.TrimSpace(filename), "\\", "/"))
	base = unsafeKeyChars.ReplaceAllString(base, "_")
	base = strings.Trim(base, "_")
	if base == "" || base == "." {
		base = "video"
	}
	return fmt.Sprintf("%s-%s", uuid.New().String(), base)
}

// ContentTypeForKey определяет MIME-тип видео по расширению
func ContentTypeForKey(key string) string {
	s := strings.ToLower(strings.TrimSpace(key))
	if i := strings.Index(s, "?"); i >= 0 {
		s = s[:i]
	}
	switch {
	case strings.HasSuffix(s, ".mp4"), strings.HasSuffix(s, ".m4v"):
		return "video/mp4"
	case strings.HasSuffix(s, ".webm"):
		return "video/webm"
	case strings.HasSuffix(s, ".mov"):
		return "video/quicktime"
	case strings.HasSuffix(s, ".mkv"):
		return "video/x-matroska"
	case strings.HasSuffix(s, ".m3u8"):
		return "application/vnd.apple.mpegurl"
	default:
		return "application/octet-stream"
	}
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}
