// cmd/matchctl/root.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"brokerage-matchmaking/internal/app"
	"brokerage-matchmaking/internal/common/config"
	"brokerage-matchmaking/internal/common/logger"
)

const appName = "matchctl"

var (
	cfgFile string
	debug   bool

	rootCmd = &cobra.Command{
		Use:          appName,
		Short:        "matchctl runs matchmaking operations against the marketplace database",
		SilenceUsage: true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is configs/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "verbose/debug output")
}

func loadConfig() (*config.Config, error) {
	if cfgFile != "" {
		return config.LoadFromFile(cfgFile)
	}
	return config.Load()
}

// session is one connected command run.
type session struct {
	cfg   *config.Config
	log   logger.Logger
	infra *app.Infra
	core  *app.Components
}

func (s *session) Close() {
	s.infra.Close()
}

func openSession(ctx context.Context) (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	logCfg := cfg.Logging
	if debug {
		logCfg.Level = "debug"
	}
	log := logger.FromConfig(logCfg).WithFields(map[string]interface{}{"app": appName})

	infra, err := app.Connect(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	core, err := app.Build(cfg, infra, log)
	if err != nil {
		infra.Close()
		return nil, err
	}
	return &session{cfg: cfg, log: log, infra: infra, core: core}, nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
