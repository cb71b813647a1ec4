package storage

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

const gcsHost = "https://storage.googleapis.com/"

// GCSConfig содержит параметры Google Cloud Storage
type GCSConfig struct {
	Bucket string
	// CredentialsFile: путь к JSON сервисного аккаунта или сам JSON.
	// Пустое значение означает Application Default Credentials.
	CredentialsFile string
}

// GCSPresigner реализует Presigner через V4-подпись GCS
type GCSPresigner struct {
	bucket string
	client *gcs.Client
}

// NewGCSPresigner создает клиент GCS
func NewGCSPresigner(ctx context.Context, cfg GCSConfig) (*GCSPresigner, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("gcs bucket is required")
	}
	var opts []option.ClientOption
	if creds := strings.TrimSpace(cfg.CredentialsFile); creds != "" {
		if strings.HasPrefix(creds, "{") {
			opts = append(opts, option.WithCredentialsJSON([]byte(creds)))
		} else {
			opts = append(opts, option.WithCredentialsFile(creds))
		}
	}
	opts = append(opts, option.WithScopes(gcs.ScopeReadWrite))

	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return &GCSPresigner{bucket: cfg.Bucket, client: client}, nil
}

// Provider возвращает "gcs"
func (p *GCSPresigner) Provider() string { return "gcs" }

// PresignUpload подписывает PUT-запрос
func (p *GCSPresigner) PresignUpload(_ context.Context, key, contentType string, expiry time.Duration) (string, error) {
	opts := &gcs.SignedURLOptions{
		Scheme:  gcs.SigningSchemeV4,
		Method:  http.MethodPut,
		Expires: time.Now().Add(orDefault(expiry, DefaultUploadExpiry)),
	}
	if contentType != "" {
		opts.ContentType = contentType
	}
	u, err := p.client.Bucket(p.bucket).SignedURL(key, opts)
	if err != nil {
		return "", fmt.Errorf("sign put %q: %w", key, err)
	}
	return u, nil
}

// PresignDownload подписывает GET-запрос
func (p *GCSPresigner) PresignDownload(_ context.Context, key string, expiry time.Duration) (string, error) {
	u, err := p.client.Bucket(p.bucket).SignedURL(key, &gcs.SignedURLOptions{
		Scheme:  gcs.SigningSchemeV4,
		Method:  http.MethodGet,
		Expires: time.Now().Add(orDefault(expiry, DefaultPlaybackExpiry)),
	})
	if err != nil {
		return "", fmt.Errorf("sign get %q: %w", key, err)
	}
	return u, nil
}

// PublicURL возвращает адрес объекта без подписи
func (p *GCSPresigner) PublicURL(key string) string {
	return gcsHost + p.bucket + "/" + (&url.URL{Path: key}).EscapedPath()
}

// KeyFromURL извлекает ключ из https://storage.googleapis.com/<bucket>/<key>
func (p *GCSPresigner) KeyFromURL(rawURL string) (string, error) {
	prefix := gcsHost + p.bucket + "/"
	if !strings.HasPrefix(rawURL, prefix) {
		return "", ErrForeignURL
	}
	escapedKey := strings.TrimPrefix(rawURL, prefix)
	if i := strings.IndexAny(escapedKey, "?#"); i >= 0 {
		escapedKey = escapedKey[:i]
	}
	key, err := url.PathUnescape(escapedKey)
	if err != nil {
		return "", fmt.Errorf("invalid object url %q: %w", rawURL, err)
	}
	if key == "" {
		return "", ErrForeignURL
	}
	return key, nil
}

// CheckAccess читает атрибуты бакета
func (p *GCSPresigner) CheckAccess(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if _, err := p.client.Bucket(p.bucket).Attrs(ctx); err != nil {
		return fmt.Errorf("gcs bucket %q is not accessible: %w", p.bucket, err)
	}
	return nil
}

// Close закрывает клиент GCS
func (p *GCSPresigner) Close() error {
	return p.client.Close()
}
