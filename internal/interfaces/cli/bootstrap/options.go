// Package bootstrap wires configuration, connections, repositories and use
// cases for the CLI commands.
package bootstrap

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/orris-inc/trafficstat/internal/infrastructure/config"
	"github.com/orris-inc/trafficstat/internal/infrastructure/database"
	"github.com/orris-inc/trafficstat/internal/shared/biztime"
	"github.com/orris-inc/trafficstat/internal/shared/logger"
)

// Options holds the flags shared by every command.
type Options struct {
	Env        string
	ConfigPath string
}

// Bind registers --env and --config as persistent flags of cmd.
func (o *Options) Bind(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVarP(&o.Env, "env", "e", "", "Environment (development, test, production); overrides server.mode")
	cmd.PersistentFlags().StringVarP(&o.ConfigPath, "config", "c", "", "Path to config file (default: ./configs/config.yaml)")
}

// InitEnv loads configuration and initialises the logger, business clock and
// database. Callers close the database with database.Close.
func InitEnv(opts *Options) (*config.Config, logger.Interface, error) {
	cfg, err := config.Load(opts.Env, opts.ConfigPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(&cfg.Logger, cfg.Server.Mode); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.NewLogger()

	if err := biztime.Init(cfg.Server.Timezone); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize business timezone: %w", err)
	}

	if err := database.Init(&cfg.Database); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return cfg, log, nil
}
