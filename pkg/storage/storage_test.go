package storage

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewObjectKey(t *testing.T) {
	key := NewObjectKey("İş Güvenliği 1.mp4")

	// uuid (36 символов) + "-" + очищенное имя
	require.Greater(t, len(key), 37)
	assert.Equal(t, "-", key[36:37])
	assert.True(t, strings.HasSuffix(key, ".mp4"), "Расширение должно сохраняться")
	assert.NotContains(t, key, " ", "Пробелы должны заменяться")

	assert.NotEqual(t, NewObjectKey("a.mp4"), NewObjectKey("a.mp4"), "Ключи должны быть уникальными")
	assert.True(t, strings.HasSuffix(NewObjectKey("../../etc/passwd"), "-passwd"), "Путь должен отбрасываться")
	assert.True(t, strings.HasSuffix(NewObjectKey(""), "-video"))
}

func TestContentTypeForKey(t *testing.T) {
	assert.Equal(t, "video/mp4", ContentTypeForKey("x.MP4"))
	assert.Equal(t, "video/webm", ContentTypeForKey("x.webm?sig=1"))
	assert.Equal(t, "application/octet-stream", ContentTypeForKey("x.bin"))
}

func TestS3Presigner_URLRoundTrip(t *testing.T) {
	p := &S3Presigner{bucket: "training-videos", region: "eu-central-1"}

	u := p.PublicURL("abc-İlk Ders.mp4")
	assert.True(t, strings.HasPrefix(u, "https://training-videos.s3.eu-central-1.amazonaws.com/"))

	key, err := p.KeyFromURL(u)
	require.NoError(t, err)
	assert.Equal(t, "abc-İlk Ders.mp4", key)

	// подписанный URL с query тоже разбирается
	key, err = p.KeyFromURL("https://training-videos.s3.amazonaws.com/folder/a.mp4?X-Amz-Signature=1")
	require.NoError(t, err)
	assert.Equal(t, "folder/a.mp4", key)

	_, err = p.KeyFromURL("https://cdn.example.com/a.mp4")
	assert.ErrorIs(t, err, ErrForeignURL)
}

func TestS3Presigner_CustomEndpoint(t *testing.T) {
	p := &S3Presigner{bucket: "videos", region: "us-east-1", endpoint: "http://minio:9000"}

	u := p.PublicURL("k.mp4")
	assert.Equal(t, "http://minio:9000/videos/k.mp4", u)

	key, err := p.KeyFromURL(u)
	require.NoError(t, err)
	assert.Equal(t, "k.mp4", key)
}

func TestGCSPresigner_URLRoundTrip(t *testing.T) {
	p := &GCSPresigner{bucket: "videos"}

	u := p.PublicURL("a b.mp4")
	assert.Equal(t, "https://storage.googleapis.com/videos/a%20b.mp4", u)

	key, err := p.KeyFromURL(u)
	require.NoError(t, err)
	assert.Equal(t, "a b.mp4", key)

	_, err = p.KeyFromURL("https://storage.googleapis.com/other/a.mp4")
	assert.ErrorIs(t, err, ErrForeignURL)
}
