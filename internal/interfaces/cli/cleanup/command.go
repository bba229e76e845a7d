package cleanup

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/orris-inc/trafficstat/internal/application/traffic/usecases"
	"github.com/orris-inc/trafficstat/internal/infrastructure/scheduler"
	"github.com/orris-inc/trafficstat/internal/interfaces/cli/bootstrap"
	"github.com/orris-inc/trafficstat/internal/shared/constants"
)

var opts bootstrap.Options

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete traffic logs and drain ledger rows past retention",
		RunE:  run,
	}

	opts.Bind(cmd)

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	app, err := bootstrap.New(ctx, &opts)
	if err != nil {
		return err
	}
	defer app.Close()

	uc := app.CleanupUseCase()
	var result *usecases.CleanupResult
	job := scheduler.JobFunc(func(ctx context.Context) error {
		r, err := uc.Execute(ctx)
		result = r
		return err
	})

	ctx, cancel := context.WithTimeout(ctx, app.Config.Scheduler.RollupTimeout)
	defer cancel()

	if err := app.Runner.Run(ctx, constants.JobCleanup, constants.LockCleanup, job); err != nil {
		if errors.Is(err, scheduler.ErrJobLocked) {
			fmt.Fprintln(cmd.OutOrStdout(), "another cleanup is running, skipped")
			return nil
		}
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "deleted %d traffic log rows, %d ledger rows\n",
		result.LogsDeleted, result.LedgerDeleted)
	return nil
}
