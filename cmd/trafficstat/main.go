package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/orris-inc/trafficstat/internal/interfaces/cli/cleanup"
	"github.com/orris-inc/trafficstat/internal/interfaces/cli/drain"
	"github.com/orris-inc/trafficstat/internal/interfaces/cli/migrate"
	"github.com/orris-inc/trafficstat/internal/interfaces/cli/report"
	"github.com/orris-inc/trafficstat/internal/interfaces/cli/rollup"
	"github.com/orris-inc/trafficstat/internal/interfaces/cli/stats"
	"github.com/orris-inc/trafficstat/internal/interfaces/cli/worker"
	"github.com/orris-inc/trafficstat/internal/shared/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "trafficstat",
		Short: "Traffic accounting and statistics for V2Board panels",
		Long: `trafficstat drains the per-user traffic counters nodes report into the
panel's Redis, applies them to user accounts and rolls up daily user, server
and global statistics.`,
		Version:      version.String(),
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		worker.NewCommand(),
		drain.NewCommand(),
		rollup.NewCommand(),
		cleanup.NewCommand(),
		report.NewCommand(),
		stats.NewCommand(),
		migrate.NewCommand(),
	)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
