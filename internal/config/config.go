package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Port                         int    `env:"PORT" envDefault:"8080"`
	DatabaseURL                  string `env:"DATABASE_URL,required"`
	RedisURL                     string `env:"REDIS_URL,required"`
	TelegramBotToken             string `env:"TELEGRAM_BOT_TOKEN,required"`
	TelegramWebAppURL            string `env:"TELEGRAM_WEBAPP_URL" envDefault:""`
	TelegramBotUsername          string `env:"TELEGRAM_BOT_USERNAME" envDefault:""`
	TelegramAppName              string `env:"TELEGRAM_APP_NAME" envDefault:"app"`
	TelegramBotPolling           bool   `env:"TELEGRAM_BOT_POLLING" envDefault:"false"`
	InitDataMaxAgeSeconds        int    `env:"INIT_DATA_MAX_AGE_SECONDS" envDefault:"86400"`
	InvitationTTLHours           int    `env:"INVITATION_TTL_HOURS" envDefault:"168"`
	DailyReminderCooldownSeconds int    `env:"DAILY_REMINDER_COOLDOWN_SECONDS" envDefault:"60"`
	TuneReminderCooldownSeconds  int    `env:"TUNE_REMINDER_COOLDOWN_SECONDS" envDefault:"60"`
	APIRateLimitPerMin           int    `env:"API_RATE_LIMIT_PER_MIN" envDefault:"120"`
	CleanupSchedule              string `env:"CLEANUP_SCHEDULE" envDefault:"@every 5m"`
	NotificationRetentionDays    int    `env:"NOTIFICATION_RETENTION_DAYS" envDefault:"90"`
	AutoMigrate                  bool   `env:"AUTO_MIGRATE" envDefault:"true"`
	LogLevel                     string `env:"LOG_LEVEL" envDefault:"info"`
}

func (c *Config) InitDataMaxAge() time.Duration {
	return time.Duration(c.InitDataMaxAgeSeconds) * time.Second
}

func (c *Config) InvitationTTL() time.Duration {
	return time.Duration(c.InvitationTTLHours) * time.Hour
}

func (c *Config) DailyReminderCooldown() time.Duration {
	return time.Duration(c.DailyReminderCooldownSeconds) * time.Second
}

func (c *Config) TuneReminderCooldown() time.Duration {
	return time.Duration(c.TuneReminderCooldownSeconds) * time.Second
}

func (c *Config) NotificationRetention() time.Duration {
	return time.Duration(c.NotificationRetentionDays) * 24 * time.Hour
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *Config) Validate(isProduction bool) error {
	if c.InvitationTTLHours <= 0 {
		return fmt.Errorf("INVITATION_TTL_HOURS must be positive")
	}
	if c.DailyReminderCooldownSeconds <= 0 || c.TuneReminderCooldownSeconds <= 0 {
		return fmt.Errorf("reminder cooldowns must be positive")
	}
	if c.InitDataMaxAgeSeconds <= 0 {
		return fmt.Errorf("INIT_DATA_MAX_AGE_SECONDS must be positive")
	}
	if _, err := cron.ParseStandard(c.CleanupSchedule); err != nil {
		return fmt.Errorf("CLEANUP_SCHEDULE is not a valid cron spec: %w", err)
	}

	if isProduction {
		if c.TelegramWebAppURL == "" {
			log.Warn().Msg("TELEGRAM_WEBAPP_URL is empty in production: reminder buttons will not open the mini app")
		}
		if strings.HasPrefix(c.RedisURL, "redis://") {
			log.Warn().Msg("REDIS_URL uses redis:// (not TLS) in production: consider using rediss://")
		}
	}

	return nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
