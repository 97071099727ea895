package generatematches

import (
	"time"

	"brokerage-matchmaking/internal/common/config"
)

type Config struct {
	Timeout time.Duration
	// MaxLimit caps the limit a process may request.
	MaxLimit int
}

func LoadConfig(wcfg config.WorkerConfig) *Config {
	cfg := &Config{
		Timeout:  60 * time.Second,
		MaxLimit: 50,
	}
	if wcfg.Timeout > 0 {
		cfg.Timeout = config.GetDuration(wcfg.Timeout)
	}
	return cfg
}
