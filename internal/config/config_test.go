package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ADMIN_IDS", "")
	t.Setenv("POLL_INTERVAL", "")
	t.Setenv("TOKEN_STORE", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 30*time.Second, cfg.PollInterval)
	assert.Equal(t, 5*time.Second, cfg.BannerTTL)
	assert.Equal(t, "file", cfg.TokenStore)
	assert.True(t, cfg.RegisterWithToken)
	assert.Empty(t, cfg.AdminIDs)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("ADMIN_IDS", "10, 20,30")
	t.Setenv("POLL_INTERVAL", "5s")
	t.Setenv("STUDENTS_URL", "http://students.local/")
	t.Setenv("REGISTER_WITH_TOKEN", "false")
	t.Setenv("TOKEN_STORE", "redis")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []int64{10, 20, 30}, cfg.AdminIDs)
	assert.Equal(t, 5*time.Second, cfg.PollInterval)
	assert.Equal(t, "http://students.local", cfg.StudentsURL)
	assert.False(t, cfg.RegisterWithToken)
	assert.Equal(t, "redis", cfg.TokenStore)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"bad admin id", "ADMIN_IDS", "12,abc"},
		{"bad duration", "POLL_INTERVAL", "soon"},
		{"negative duration", "BANNER_TTL", "-1s"},
		{"bad float", "JITTER_FACTOR", "x"},
		{"unknown store", "TOKEN_STORE", "sqlite"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
