package config

import (
	"fmt"

	"github.com/Netflix/go-env"
)

type Config struct {
	DatabaseDSN       string `env:"DATABASE_DSN,required=true"`
	RedisURL          string `env:"REDIS_URL,required=true"`
	MailRelayURL      string `env:"MAIL_RELAY_URL,required=true"`
	MailFrom          string `env:"MAIL_FROM,default=noreply@timecapsule.app"`
	AppURL            string `env:"APP_URL,default=http://localhost:3000"`
	BatchSize         int    `env:"SCHEDULER_BATCH_SIZE,default=10"`
	MaxRetries        int    `env:"SCHEDULER_MAX_RETRIES,default=3"`
	RetryDelayMillis  int    `env:"SCHEDULER_RETRY_DELAY_MS,default=2000"`
	ReminderScanLimit int    `env:"SCHEDULER_REMINDER_SCAN_LIMIT,default=200"`
	DeliveryCron      string `env:"SCHEDULER_DELIVERY_CRON,default=* * * * *"`
	ReminderCron      string `env:"SCHEDULER_REMINDER_CRON,default=0 * * * *"`
	MailRatePerSec    int    `env:"MAIL_RATE_PER_SEC,default=25"`
	MetricsPort       int    `env:"METRICS_PORT,default=9091"`
	LogLevel          string `env:"LOG_LEVEL,default=info"`
}

func Load() (*Config, error) {
	var cfg Config
	_, err := env.UnmarshalFromEnviron(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}
