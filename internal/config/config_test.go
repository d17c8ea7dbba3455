package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigMethods(t *testing.T) {
	t.Run("Addr returns formatted port", func(t *testing.T) {
		cfg := &Config{Port: 3000}
		assert.Equal(t, ":3000", cfg.Addr())
	})

	t.Run("InvitationTTL converts hours to duration", func(t *testing.T) {
		cfg := &Config{InvitationTTLHours: 168}
		assert.Equal(t, 7*24*time.Hour, cfg.InvitationTTL())
	})

	t.Run("reminder cooldowns convert seconds to duration", func(t *testing.T) {
		cfg := &Config{DailyReminderCooldownSeconds: 60, TuneReminderCooldownSeconds: 90}
		assert.Equal(t, 60*time.Second, cfg.DailyReminderCooldown())
		assert.Equal(t, 90*time.Second, cfg.TuneReminderCooldown())
	})

	t.Run("NotificationRetention converts days to duration", func(t *testing.T) {
		cfg := &Config{NotificationRetentionDays: 2}
		assert.Equal(t, 48*time.Hour, cfg.NotificationRetention())
	})
}

func validConfig() *Config {
	return &Config{
		InvitationTTLHours:           168,
		DailyReminderCooldownSeconds: 60,
		TuneReminderCooldownSeconds:  60,
		InitDataMaxAgeSeconds:        86400,
		CleanupSchedule:              "@every 5m",
		RedisURL:                     "rediss://localhost:6379",
	}
}

func TestValidate(t *testing.T) {
	t.Run("accepts defaults", func(t *testing.T) {
		assert.NoError(t, validConfig().Validate(true))
	})

	t.Run("rejects non-positive invitation ttl", func(t *testing.T) {
		cfg := validConfig()
		cfg.InvitationTTLHours = 0
		assert.Error(t, cfg.Validate(false))
	})

	t.Run("rejects non-positive cooldown", func(t *testing.T) {
		cfg := validConfig()
		cfg.TuneReminderCooldownSeconds = -1
		assert.Error(t, cfg.Validate(false))
	})

	t.Run("rejects invalid cron spec", func(t *testing.T) {
		cfg := validConfig()
		cfg.CleanupSchedule = "every five minutes"
		assert.Error(t, cfg.Validate(false))
	})

	t.Run("accepts standard cron spec", func(t *testing.T) {
		cfg := validConfig()
		cfg.CleanupSchedule = "*/10 * * * *"
		assert.NoError(t, cfg.Validate(false))
	})
}

func TestLoad(t *testing.T) {
	keys := []string{
		"PORT", "DATABASE_URL", "REDIS_URL", "TELEGRAM_BOT_TOKEN",
		"INVITATION_TTL_HOURS", "DAILY_REMINDER_COOLDOWN_SECONDS", "LOG_LEVEL",
		"TELEGRAM_BOT_POLLING",
	}
	originalEnv := make(map[string]string, len(keys))
	for _, k := range keys {
		originalEnv[k] = os.Getenv(k)
	}

	defer func() {
		for k, v := range originalEnv {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	}()

	setRequired := func() {
		os.Setenv("DATABASE_URL", "postgres://localhost/test")
		os.Setenv("REDIS_URL", "redis://localhost:6379")
		os.Setenv("TELEGRAM_BOT_TOKEN", "123456:test-token")
	}

	t.Run("loads config with defaults", func(t *testing.T) {
		setRequired()
		os.Unsetenv("PORT")
		os.Unsetenv("INVITATION_TTL_HOURS")
		os.Unsetenv("DAILY_REMINDER_COOLDOWN_SECONDS")
		os.Unsetenv("LOG_LEVEL")
		os.Unsetenv("TELEGRAM_BOT_POLLING")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, 8080, cfg.Port)
		assert.Equal(t, "postgres://localhost/test", cfg.DatabaseURL)
		assert.Equal(t, "redis://localhost:6379", cfg.RedisURL)
		assert.Equal(t, 168, cfg.InvitationTTLHours)
		assert.Equal(t, 60, cfg.DailyReminderCooldownSeconds)
		assert.Equal(t, "@every 5m", cfg.CleanupSchedule)
		assert.False(t, cfg.TelegramBotPolling)
		assert.True(t, cfg.AutoMigrate)
		assert.Equal(t, "info", cfg.LogLevel)
	})

	t.Run("loads custom values", func(t *testing.T) {
		setRequired()
		os.Setenv("PORT", "3000")
		os.Setenv("DAILY_REMINDER_COOLDOWN_SECONDS", "120")
		os.Setenv("LOG_LEVEL", "debug")
		os.Setenv("TELEGRAM_BOT_POLLING", "true")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, 3000, cfg.Port)
		assert.Equal(t, 120, cfg.DailyReminderCooldownSeconds)
		assert.Equal(t, "debug", cfg.LogLevel)
		assert.True(t, cfg.TelegramBotPolling)
	})

	t.Run("fails without required DATABASE_URL", func(t *testing.T) {
		setRequired()
		os.Unsetenv("DATABASE_URL")

		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("fails without required TELEGRAM_BOT_TOKEN", func(t *testing.T) {
		setRequired()
		os.Unsetenv("TELEGRAM_BOT_TOKEN")

		_, err := Load()
		assert.Error(t, err)
	})
}
