package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks variables that would shadow defaults. Viper treats empty
// values as unset.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"PORT", "LOG_LEVEL", "TOKEN_TTL", "NOTIFY_CHANNEL", "NOTIFY_WORKERS", "NOTIFY_TIMEOUT"} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, 72*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, ChannelLog, cfg.Notify.Channel)
	assert.Equal(t, 4, cfg.Notify.Workers)
	assert.Equal(t, 10*time.Second, cfg.Notify.Timeout)
	assert.NoError(t, cfg.Validate())
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("PORT", "9000")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("TOKEN_TTL", "30m")
	t.Setenv("NOTIFY_CHANNEL", "SMTP")
	t.Setenv("SMTP_HOST", "mail.example.com")
	t.Setenv("SMTP_PORT", "2525")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_NAME", "qa")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, 30*time.Minute, cfg.Auth.TokenTTL)
	assert.Equal(t, ChannelSMTP, cfg.Notify.Channel)
	assert.Equal(t, 2525, cfg.Notify.SMTPPort)
	assert.Contains(t, cfg.Database.DSN(), "host=db")
	assert.Contains(t, cfg.Database.DSN(), "dbname=qa")
	assert.NoError(t, cfg.Validate())
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("GIN_MODE=debug\n"), 0o600))
	t.Setenv("GIN_MODE", "") // restores the original value after the test
	require.NoError(t, os.Unsetenv("GIN_MODE"))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.GinMode)
}

func TestLoadRejectsBadLogLevel(t *testing.T) {
	t.Setenv("LOG_LEVEL", "loud")
	_, err := Load("")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := Config{
		Auth:   Auth{JWTSecret: "x", TokenTTL: time.Hour},
		Notify: Notify{Channel: ChannelLog, Workers: 1},
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty secret", func(c *Config) { c.Auth.JWTSecret = " " }},
		{"zero ttl", func(c *Config) { c.Auth.TokenTTL = 0 }},
		{"no workers", func(c *Config) { c.Notify.Workers = 0 }},
		{"unknown channel", func(c *Config) { c.Notify.Channel = "fax" }},
		{"smtp without host", func(c *Config) { c.Notify.Channel = ChannelSMTP }},
		{"sms without credentials", func(c *Config) { c.Notify.Channel = ChannelSMS }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
