package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/recall/pkg/log"
)

type AppConfig struct {
	RuntimePath string `env:"RECALL_RUNTIME_PATH" envDefault:".recall"`
	// Backend selects the persistence service: "sqlite" or "redis"
	Backend  string `env:"RECALL_BACKEND" envDefault:"sqlite"`
	RedisURL string `env:"RECALL_REDIS_URL" envDefault:"redis://localhost:6379/0"`

	// Every backend round-trip is bounded by this timeout
	CommandTimeout time.Duration `env:"RECALL_COMMAND_TIMEOUT" envDefault:"10s"`

	// Store tuning
	BoostAmount    float64 `env:"RECALL_BOOST_AMOUNT" envDefault:"8"`
	HotSetSize     int64   `env:"RECALL_HOT_SET_SIZE" envDefault:"100"`
	SearchWindow   int64   `env:"RECALL_SEARCH_WINDOW" envDefault:"100"`
	PruneThreshold float64 `env:"RECALL_PRUNE_THRESHOLD" envDefault:"10"`
}

func NewAppConfig(ctx context.Context) *AppConfig {
	c := &AppConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse App config")
	}
	return c
}

func (c AppConfig) GetDatabasePath() string {
	return filepath.Join(c.RuntimePath, "recall.db")
}
