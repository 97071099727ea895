package expirematches

import (
	"time"

	"brokerage-matchmaking/internal/common/config"
)

type Config struct {
	Timeout time.Duration
	// MaxAgeDays applies when the job carries no maxAgeDays variable.
	MaxAgeDays int
}

func LoadConfig(wcfg config.WorkerConfig, mcfg config.MatchmakingConfig) *Config {
	cfg := &Config{Timeout: 60 * time.Second, MaxAgeDays: 30}
	if wcfg.Timeout > 0 {
		cfg.Timeout = config.GetDuration(wcfg.Timeout)
	}
	if mcfg.MatchTTLDays > 0 {
		cfg.MaxAgeDays = mcfg.MatchTTLDays
	}
	return cfg
}
