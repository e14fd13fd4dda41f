package config

import (
	"context"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Addr   string `env:"ADDR, default=127.0.0.1:8080"` // API bind address
	LogDir string `env:"LOG_DIR, default=logs"`

	DatabaseDriver string `env:"DATABASE_DRIVER, default=sqlite"` // sqlite | postgres | memory
	DatabaseURL    string `env:"DATABASE_URL, default=clients.db"`

	SMTPHost       string `env:"SMTP_HOST, default=smtp.gmail.com"`
	SMTPPort       int    `env:"SMTP_PORT, default=587"`
	SenderEmail    string `env:"SENDER_EMAIL"`
	SenderPassword string `env:"SENDER_PASSWORD"`

	AlertWebhookURL string `env:"ALERT_WEBHOOK_URL"` // optional secondary channel

	AlertCooldownSeconds int           `env:"ALERT_COOLDOWN_SECONDS, default=3600"`
	PollInterval         time.Duration `env:"POLL_INTERVAL, default=30s"`
	MaxConcurrentChecks  int           `env:"MAX_CONCURRENT_CHECKS, default=8"`
	PingPrivileged       bool          `env:"PING_PRIVILEGED, default=false"`

	AddRPM    int `env:"ADD_RPM, default=10"`
	DeleteRPM int `env:"DELETE_RPM, default=20"`
}

func (c Config) AlertCooldown() time.Duration {
	return time.Duration(c.AlertCooldownSeconds) * time.Second
}

// FromEnv loads configuration from the process environment.
func FromEnv(ctx context.Context) (Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
