package storage

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"regportal/internal/config"
)

func TestMemoryStorage(t *testing.T) {
	ctx := context.Background()
	s := NewMemory("regportal")

	info, err := s.Put(ctx, "registrations/REG-1/photo.jpg", strings.NewReader("jpeg"), PutObjectOptions{Size: 4, ContentType: "image/jpeg"})
	require.NoError(t, err)
	assert.Equal(t, int64(4), info.Size)
	assert.NotEmpty(t, info.ETag)

	rc, got, err := s.Get(ctx, "registrations/REG-1/photo.jpg")
	require.NoError(t, err)
	body, _ := io.ReadAll(rc)
	assert.Equal(t, "jpeg", string(body))
	assert.Equal(t, "image/jpeg", got.ContentType)

	url, err := s.PresignGet(ctx, "registrations/REG-1/photo.jpg", time.Minute)
	require.NoError(t, err)
	assert.Contains(t, url, "memory://regportal/registrations/REG-1/photo.jpg")

	require.NoError(t, s.Delete(ctx, "registrations/REG-1/photo.jpg"))
	_, _, err = s.Get(ctx, "registrations/REG-1/photo.jpg")
	assert.ErrorIs(t, err, ErrObjectNotFound)
	_, err = s.PresignGet(ctx, "registrations/REG-1/photo.jpg", time.Minute)
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestNewMinIO_Validation(t *testing.T) {
	_, err := NewMinIO(configWith("", "a", "s", "b"))
	assert.ErrorContains(t, err, "endpoint")
	_, err = NewMinIO(configWith("localhost:9000", "", "s", "b"))
	assert.ErrorContains(t, err, "credentials")
	_, err = NewMinIO(configWith("localhost:9000", "a", "s", ""))
	assert.ErrorContains(t, err, "bucket")
}

func configWith(endpoint, access, secret, bucket string) config.MinIOConfig {
	return config.MinIOConfig{Endpoint: endpoint, AccessKey: access, SecretKey: secret, Bucket: bucket}
}
