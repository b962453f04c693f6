package config

import (
	"testing"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_DSN", "host=localhost user=test password=test dbname=test port=5432 sslmode=disable")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("MAIL_RELAY_URL", "https://mail.internal/v1/send")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.BatchSize != 10 {
		t.Errorf("BatchSize = %d, want 10", cfg.BatchSize)
	}
	if cfg.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want 3", cfg.MaxRetries)
	}
	if cfg.RetryDelayMillis != 2000 {
		t.Errorf("RetryDelayMillis = %d, want 2000", cfg.RetryDelayMillis)
	}
	if cfg.ReminderScanLimit != 200 {
		t.Errorf("ReminderScanLimit = %d, want 200", cfg.ReminderScanLimit)
	}
	if cfg.DeliveryCron != "* * * * *" {
		t.Errorf("DeliveryCron = %q, want every minute", cfg.DeliveryCron)
	}
	if cfg.ReminderCron != "0 * * * *" {
		t.Errorf("ReminderCron = %q, want hourly", cfg.ReminderCron)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %s, want info", cfg.LogLevel)
	}
}

func TestLoad_CustomValues(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SCHEDULER_BATCH_SIZE", "25")
	t.Setenv("SCHEDULER_MAX_RETRIES", "4")
	t.Setenv("SCHEDULER_RETRY_DELAY_MS", "500")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.BatchSize != 25 {
		t.Errorf("BatchSize = %d, want 25", cfg.BatchSize)
	}
	if cfg.MaxRetries != 4 {
		t.Errorf("MaxRetries = %d, want 4", cfg.MaxRetries)
	}
	if cfg.RetryDelayMillis != 500 {
		t.Errorf("RetryDelayMillis = %d, want 500", cfg.RetryDelayMillis)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %s, want debug", cfg.LogLevel)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	t.Setenv("DATABASE_DSN", "host=localhost")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error when MAIL_RELAY_URL is missing")
	}
}
