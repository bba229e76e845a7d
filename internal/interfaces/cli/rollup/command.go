package rollup

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/orris-inc/trafficstat/internal/application/stat/usecases"
	"github.com/orris-inc/trafficstat/internal/infrastructure/scheduler"
	"github.com/orris-inc/trafficstat/internal/interfaces/cli/bootstrap"
	"github.com/orris-inc/trafficstat/internal/shared/constants"
)

var (
	opts bootstrap.Options
	date string
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rollup",
		Short: "Persist one day's user, server and global statistics",
		Long: `Compute and store the statistics of one business day. Re-running a day
overwrites its rows. Defaults to the previous business day.`,
		RunE: run,
	}

	opts.Bind(cmd)
	cmd.Flags().StringVarP(&date, "date", "d", "", "Business day to roll up (YYYY-MM-DD, default: yesterday)")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	app, err := bootstrap.New(ctx, &opts)
	if err != nil {
		return err
	}
	defer app.Close()

	day, err := bootstrap.ResolveDay(date)
	if err != nil {
		return err
	}

	uc := app.RollupUseCase()
	var report *usecases.RollupReport
	job := scheduler.JobFunc(func(ctx context.Context) error {
		report = uc.Execute(ctx, day)
		if !report.OK() {
			return fmt.Errorf("rollup incomplete: %s", report)
		}
		return nil
	})

	ctx, cancel := context.WithTimeout(ctx, app.Config.Scheduler.RollupTimeout)
	defer cancel()

	runErr := app.Runner.Run(ctx, constants.JobRollup, constants.LockRollup, job)
	if errors.Is(runErr, scheduler.ErrJobLocked) {
		fmt.Fprintln(cmd.OutOrStdout(), "another rollup is running, skipped")
		return nil
	}

	if report != nil {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "rollup %s (%s)\n", report.Window.Day(), report.Window)
		for _, s := range report.Stages {
			fmt.Fprintf(out, "  %s\n", s)
		}
	}
	return runErr
}
