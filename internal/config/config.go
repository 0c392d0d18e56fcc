package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	DatabaseURL    string `env:"DATABASE_URL,required"`
	ClerkSecretKey string `env:"CLERK_SECRET_KEY,required"`
	Port           int    `env:"PORT" envDefault:"3333"`

	// EnforceTierGating gates TRADE and COLLABORATION joins behind the
	// three-tier progression. Off by default.
	EnforceTierGating bool `env:"ENFORCE_TIER_GATING" envDefault:"false"`

	// FCM credentials fall back to this file when FCM_SERVICE_ACCOUNT_JSON
	// is not set. Push delivery is optional either way.
	FCMKeyFile string `env:"FCM_KEY_FILE" envDefault:"./serviceAccountKey.json"`

	MetricsUser string `env:"METRICS_USER"`
	MetricsPass string `env:"METRICS_PASS"`
	PprofSecret string `env:"PPROF_SECRET"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
