package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	BotToken string `envconfig:"BOT_TOKEN" required:"true"`
	DBPath   string `envconfig:"DB_PATH" default:"./data/coach.db"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`  // debug|info|warn|error
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"` // /healthz and /metrics

	TickInterval           time.Duration `envconfig:"TICK_INTERVAL" default:"60s"`
	PatternRefreshInterval time.Duration `envconfig:"PATTERN_REFRESH_INTERVAL" default:"24h"`
	AdaptInterval          time.Duration `envconfig:"ADAPT_INTERVAL" default:"24h"`
	Workers                int           `envconfig:"WORKERS" default:"8"`         // per-run user fan-out
	DispatchQueue          int           `envconfig:"DISPATCH_QUEUE" default:"256"` // outbound buffer

	RedisAddr   string `envconfig:"REDIS_ADDR"` // empty keeps patterns in memory
	RedisPrefix string `envconfig:"REDIS_PREFIX" default:"coach:pattern:"`
}

// Load reads environment variables into Config.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
