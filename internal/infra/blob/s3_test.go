package blob

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/userlink/userlink-server/internal/config"
)

func TestNewS3_Disabled(t *testing.T) {
	d, err := NewS3(context.Background(), &config.Config{})
	require.NoError(t, err)
	assert.Nil(t, d)

	assert.ErrorIs(t, d.Upload(context.Background(), "k", "text/plain", strings.NewReader("x")), ErrDisabled)
	_, err = d.PresignGet(context.Background(), "k", time.Minute)
	assert.ErrorIs(t, err, ErrDisabled)
	assert.ErrorIs(t, d.Delete(context.Background(), "k"), ErrDisabled)
}

func TestNewS3_RequiresBucket(t *testing.T) {
	_, err := NewS3(context.Background(), &config.Config{S3: config.S3Cfg{Enabled: true}})
	assert.Error(t, err)
}

func TestPresignGet_StaticCredentials(t *testing.T) {
	cfg := &config.Config{S3: config.S3Cfg{
		Enabled:      true,
		Endpoint:     "http://127.0.0.1:9000",
		Region:       "us-east-1",
		AccessKey:    "minio",
		SecretKey:    "minio123",
		Bucket:       "userlink",
		UsePathStyle: true,
	}}
	d, err := NewS3(context.Background(), cfg)
	require.NoError(t, err)

	url, err := d.PresignGet(context.Background(), "files/f1/report.pdf", 5*time.Minute)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "http://127.0.0.1:9000/userlink/files/f1/report.pdf"))
	assert.Contains(t, url, "X-Amz-Signature=")
}
