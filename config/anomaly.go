package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/aicanalytics/gptmenu/utils"
)

// AnomalyConfig drives cmd/anomaly.
type AnomalyConfig struct {
	// Seed of 0 means seed from the clock.
	Seed      int64          `env:"AD_SEED" envDefault:"0"`
	StartDate time.Time      `env:"AD_START_DATE" envDefault:"2020-01-01T00:00:00Z"`
	Bins      int            `env:"AD_BINS" envDefault:"10" validate:"min=2,max=1000"`
	Neighbors int            `env:"AD_NEIGHBORS" envDefault:"5" validate:"min=1,max=100"`
	LogLevel  utils.LogLevel `env:"AD_LOG_LEVEL" envDefault:"WARN"`
}

func LoadAnomalyConfig(envFiles ...string) (*AnomalyConfig, error) {
	if err := loadEnvFiles(envFiles...); err != nil {
		return nil, err
	}
	cfg := &AnomalyConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid anomaly configuration: %w", err)
	}
	return cfg, nil
}
