package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"microblog/internal/model"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, key := range []string{
		"DB_DRIVER", "DATABASE_URL", "SERVER_PORT", "SHUTDOWN_TIMEOUT", "MEDIA_BACKEND",
		"MEDIA_MAX_BYTES", "MEDIA_ALLOWED_TYPES", "MEDIA_URL_PREFIX", "TWEET_MAX_MEDIA",
		"DB_AUTO_MIGRATE", "API_KEY_CACHE_TTL", "MEDIA_MAX_IMAGE_DIMENSION",
	} {
		t.Setenv(key, "")
	}

	cfg, err := FromEnv()
	require.NoError(t, err)
	require.Equal(t, DriverPostgres, cfg.DBDriver)
	require.Equal(t, "8080", cfg.ServerPort)
	require.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	require.Equal(t, MediaBackendLocal, cfg.MediaBackend)
	require.Equal(t, "media", cfg.MediaURLPrefix)
	require.EqualValues(t, 10<<20, cfg.MediaMaxBytes)
	require.Equal(t, 10, cfg.TweetMaxMedia)
	require.True(t, cfg.DBAutoMigrate)
	require.Equal(t, model.DefaultAllowedMediaTypes, cfg.MediaAllowedTypes)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite3")
	t.Setenv("DATABASE_URL", "file:test.db")
	t.Setenv("MEDIA_URL_PREFIX", "/uploads/")
	t.Setenv("MEDIA_ALLOWED_TYPES", "image/PNG, video/mp4,,")
	t.Setenv("TWEET_MAX_MEDIA", "0")
	t.Setenv("SHUTDOWN_TIMEOUT", "3s")

	cfg, err := FromEnv()
	require.NoError(t, err)
	require.Equal(t, DriverSQLite, cfg.DBDriver)
	require.Equal(t, "uploads", cfg.MediaURLPrefix)
	require.Equal(t, []string{"image/png", "video/mp4"}, cfg.MediaAllowedTypes)
	require.Equal(t, 0, cfg.TweetMaxMedia)
	require.Equal(t, 3*time.Second, cfg.ShutdownTimeout)
}

func TestFromEnvRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"unknown driver", "DB_DRIVER", "mysql"},
		{"unknown backend", "MEDIA_BACKEND", "ftp"},
		{"bad duration", "SHUTDOWN_TIMEOUT", "soon"},
		{"bad size", "MEDIA_MAX_BYTES", "ten"},
		{"negative media cap", "TWEET_MAX_MEDIA", "-1"},
		{"bad bool", "DB_AUTO_MIGRATE", "maybe"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			_, err := FromEnv()
			require.Error(t, err)
		})
	}
}

func TestSQLiteRequiresURL(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite3")
	t.Setenv("DATABASE_URL", "")
	_, err := FromEnv()
	require.Error(t, err)
}
