package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPasetoKey = "0123456789abcdef0123456789abcdef"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PASETO_KEY", testPasetoKey)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.True(t, cfg.Server.IsDevelopment())
	assert.Equal(t, 24*time.Hour, cfg.Auth.SessionDuration)
	assert.Equal(t, "localhost:6379", cfg.Redis.Address())
}

func TestLoadRejectsBadPasetoKey(t *testing.T) {
	testCases := []struct {
		name string
		key  string
	}{
		{"missing", ""},
		{"too short", "short"},
		{"too long", testPasetoKey + "x"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("PASETO_KEY", tc.key)

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "PASETO_KEY")
		})
	}
}

func TestConnectionString(t *testing.T) {
	db := DatabaseConfig{
		Host:     "db.internal",
		Port:     "5432",
		User:     "app",
		Password: "secret",
		DBName:   "taskflow",
		SSLMode:  "require",
	}

	connStr := db.ConnectionString()
	assert.Contains(t, connStr, "host=db.internal")
	assert.Contains(t, connStr, "sslmode=require")
	assert.NotContains(t, connStr, "channel_binding")

	db.ChannelBinding = "require"
	assert.Contains(t, db.ConnectionString(), "channel_binding=require")
}

func TestTrustedOriginsFromEnv(t *testing.T) {
	t.Setenv("PASETO_KEY", testPasetoKey)
	t.Setenv("TRUSTED_ORIGINS", "https://app.example.com, https://staging.example.com ,")

	cfg, err := Load()
	require.NoError(t, err)

	require.Len(t, cfg.Server.TrustedOrigins, 2)
	for _, origin := range cfg.Server.TrustedOrigins {
		assert.False(t, strings.ContainsAny(origin, " ,"))
	}
}

func TestSessionDurationFromEnv(t *testing.T) {
	t.Setenv("PASETO_KEY", testPasetoKey)
	t.Setenv("SESSION_DURATION", "3600")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, time.Hour, cfg.Auth.SessionDuration)
}
