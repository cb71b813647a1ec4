package storage

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const amazonawsHost = ".amazonaws.com/"

// S3Config содержит параметры подключения к S3 или S3-совместимому хранилищу
type S3Config struct {
	Bucket          string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	// Endpoint задается для MinIO и подобных, тогда используется path-style адресация
	Endpoint string
}

// S3Presigner реализует Presigner поверх aws-sdk-go-v2
type S3Presigner struct {
	bucket   string
	region   string
	endpoint string
	client   *s3.Client
	presign  *s3.PresignClient
}

// NewS3Presigner создает клиент S3. Без ключей используется стандартная цепочка учетных данных AWS.
func NewS3Presigner(ctx context.Context, cfg S3Config) (*S3Presigner, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	endpoint := strings.TrimRight(cfg.Endpoint, "/")
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Presigner{
		bucket:   cfg.Bucket,
		region:   cfg.Region,
		endpoint: endpoint,
		client:   client,
		presign:  s3.NewPresignClient(client),
	}, nil
}

// Provider возвращает "s3"
func (p *S3Presigner) Provider() string { return "s3" }

// PresignUpload подписывает PUT-запрос
func (p *S3Presigner) PresignUpload(ctx context.Context, key, contentType string, expiry time.Duration) (string, error) {
	input := &s3.PutObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	req, err := p.presign.PresignPutObject(ctx, input, s3.WithPresignExpires(orDefault(expiry, DefaultUploadExpiry)))
	if err != nil {
		return "", fmt.Errorf("presign put %q: %w", key, err)
	}
	return req.URL, nil
}

// PresignDownload подписывает GET-запрос
func (p *S3Presigner) PresignDownload(ctx context.Context, key string, expiry time.Duration) (string, error) {
	req, err := p.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(orDefault(expiry, DefaultPlaybackExpiry)))
	if err != nil {
		return "", fmt.Errorf("presign get %q: %w", key, err)
	}
	return req.URL, nil
}

// PublicURL возвращает адрес объекта без подписи
func (p *S3Presigner) PublicURL(key string) string {
	escaped := (&url.URL{Path: key}).EscapedPath()
	if p.endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", p.endpoint, p.bucket, escaped)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", p.bucket, p.region, escaped)
}

// KeyFromURL извлекает ключ из URL вида https://<bucket>.s3.<region>.amazonaws.com/<key>
// или <endpoint>/<bucket>/<key>
func (p *S3Presigner) KeyFromURL(rawURL string) (string, error) {
	var escapedKey string
	switch {
	case p.endpoint != "" && strings.HasPrefix(rawURL, p.endpoint+"/"+p.bucket+"/"):
		escapedKey = strings.TrimPrefix(rawURL, p.endpoint+"/"+p.bucket+"/")
	case strings.Contains(rawURL, amazonawsHost):
		escapedKey = rawURL[strings.Index(rawURL, amazonawsHost)+len(amazonawsHost):]
	default:
		return "", ErrForeignURL
	}
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

// CheckAccess проверяет, что бакет существует и доступен с текущими ключами
func (p *S3Presigner) CheckAccess(ctx context.Context) error {
	_, err := p.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(p.bucket)})
	if err != nil {
		return fmt.Errorf("s3 bucket %q is not accessible: %w", p.bucket, err)
	}
	return nil
}
