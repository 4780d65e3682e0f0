package storage

import (
	"context"
	"net/http"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/agrodesk/internal/config"
)

func testConfig() config.S3Config {
	return config.S3Config{
		Bucket:     "agrodesk",
		Region:     "us-east-1",
		Key:        "minioadmin",
		Secret:     "minioadmin",
		Endpoint:   "http://127.0.0.1:9000",
		PresignTTL: 5 * time.Minute,
	}
}

func TestObjectKey(t *testing.T) {
	key, err := ObjectKey(42, "image/JPEG; charset=binary")
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^reports/42/[0-9a-f-]{36}\.jpg$`), key)

	_, err = ObjectKey(42, "application/pdf")
	assert.ErrorIs(t, err, ErrUnsupportedType)
	_, err = ObjectKey(42, "")
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestNewImageStore_RequiresBucket(t *testing.T) {
	cfg := testConfig()
	cfg.Bucket = ""
	_, err := NewImageStore(context.Background(), cfg)
	assert.Error(t, err)
}

func TestPresignUpload_PathStyleURL(t *testing.T) {
	store, err := NewImageStore(context.Background(), testConfig())
	require.NoError(t, err)
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return fixed }

	up, err := store.PresignUpload(context.Background(), 7, "image/png")
	require.NoError(t, err)

	assert.Equal(t, http.MethodPut, up.Method)
	assert.True(t, strings.HasPrefix(up.Key, "reports/7/"))
	assert.True(t, strings.HasPrefix(up.URL, "http://127.0.0.1:9000/agrodesk/"+up.Key), up.URL)
	assert.Contains(t, up.URL, "X-Amz-Signature=")
	assert.Contains(t, up.URL, "X-Amz-Expires=300")
	assert.Equal(t, fixed.Add(5*time.Minute), up.ExpiresAt)
}

func TestPresignUpload_RejectsNonImage(t *testing.T) {
	store, err := NewImageStore(context.Background(), testConfig())
	require.NoError(t, err)

	_, err = store.PresignUpload(context.Background(), 7, "text/plain")
	assert.ErrorIs(t, err, ErrUnsupportedType)
}
