package storage

import (
	"errors"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"

	"regportal/internal/config"
)

func TestCheckMinIOConfig(t *testing.T) {
	full := config.MinIOConfig{Endpoint: "minio:9000", AccessKey: "ak", SecretKey: "sk", Bucket: "regportal"}
	assert.NoError(t, checkMinIOConfig(full))

	partial := full
	partial.AccessKey = ""
	partial.Bucket = ""
	assert.EqualError(t, checkMinIOConfig(partial), "minio storage needs MINIO_ACCESS_KEY, MINIO_BUCKET")

	_, err := NewMinIO(config.MinIOConfig{})
	assert.ErrorContains(t, err, "MINIO_ENDPOINT")
}

func TestClampExpiry(t *testing.T) {
	assert.Equal(t, time.Minute, clampExpiry(0))
	assert.Equal(t, 15*time.Minute, clampExpiry(15*time.Minute))
	assert.Equal(t, maxPresignExpiry, clampExpiry(30*24*time.Hour))
}

func TestDownloadParams(t *testing.T) {
	q := downloadParams("credentials/batches/b-1.pdf")
	assert.Equal(t, `attachment; filename="b-1.pdf"`, q.Get("response-content-disposition"))
	assert.Empty(t, downloadParams("registrations/REG-1/photo.jpg"))
}

func TestIsNoSuchKey(t *testing.T) {
	assert.True(t, isNoSuchKey(minio.ErrorResponse{Code: "NoSuchKey"}))
	assert.False(t, isNoSuchKey(minio.ErrorResponse{Code: "AccessDenied"}))
	assert.False(t, isNoSuchKey(errors.New("dial tcp: refused")))
}
