package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir, added in Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, StorageLocal, cfg.StorageBackend)
	assert.Equal(t, "/media/", cfg.MediaURL)
	assert.Equal(t, int64(10<<20), cfg.MaxFileSize)
	assert.Equal(t, 10*time.Second, cfg.ProcessorTimeout)
	assert.Empty(t, cfg.RedisURL)
	assert.False(t, cfg.IsProduction())
}

func TestLoadFromEnvironment(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("PORT", "9090")
	t.Setenv("APP_ENV", "production")
	t.Setenv("FEED_TIMEOUT", "5s")
	t.Setenv("FEED_RETRIES", "not-a-number")
	t.Setenv("LOG_PRETTY", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 5*time.Second, cfg.FeedTimeout)
	assert.Equal(t, 3, cfg.FeedRetries, "invalid ints fall back to the default")
	assert.False(t, cfg.LogPretty)
}

func TestR2BackendRequiresCredentials(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("STORAGE_BACKEND", "r2")

	_, err := Load()
	require.Error(t, err)

	t.Setenv("R2_ACCESS_KEY", "access")
	t.Setenv("R2_SECRET_ACCESS_KEY", "secret")
	t.Setenv("R2_BUCKET", "media")
	t.Setenv("CLOUDFLARE_ACCOUNT_ID", "abc123")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://abc123.r2.cloudflarestorage.com", cfg.R2Endpoint)
}

func TestRejectsUnknownBackend(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("STORAGE_BACKEND", "ftp")

	_, err := Load()
	assert.Error(t, err)
}
