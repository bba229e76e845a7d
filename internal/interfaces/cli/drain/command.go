package drain

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/orris-inc/trafficstat/internal/application/traffic/usecases"
	"github.com/orris-inc/trafficstat/internal/infrastructure/scheduler"
	"github.com/orris-inc/trafficstat/internal/interfaces/cli/bootstrap"
	"github.com/orris-inc/trafficstat/internal/shared/constants"
	"github.com/orris-inc/trafficstat/internal/shared/utils"
)

var opts bootstrap.Options

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "drain",
		Short: "Apply pending traffic counters to user accounts once",
		Long: `Claim every pending per-user counter, add it to the user rows in one
transaction and acknowledge the claims. Skips when another drain holds the lock.`,
		RunE: run,
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

	uc := app.DrainUseCase()
	var result *usecases.DrainResult
	job := scheduler.JobFunc(func(ctx context.Context) error {
		r, err := uc.Execute(ctx)
		result = r
		return err
	})

	ctx, cancel := context.WithTimeout(ctx, app.Config.Scheduler.DrainTimeout)
	defer cancel()

	if err := app.Runner.Run(ctx, constants.JobDrain, constants.LockDrain, job); err != nil {
		if errors.Is(err, scheduler.ErrJobLocked) {
			fmt.Fprintln(cmd.OutOrStdout(), "another drain is running, skipped")
			return nil
		}
		return err
	}

	printResult(cmd, result)
	return nil
}

func printResult(cmd *cobra.Command, r *usecases.DrainResult) {
	out := cmd.OutOrStdout()
	if r.OrphansAcked > 0 || r.OrphansRestored > 0 {
		fmt.Fprintf(out, "orphan claims: %d acknowledged, %d restored\n", r.OrphansAcked, r.OrphansRestored)
	}
	if r.Empty {
		fmt.Fprintln(out, "nothing to drain")
		return
	}
	fmt.Fprintf(out, "cycle %s: %d users, upload %s, download %s\n",
		r.CycleID, len(r.Applied), utils.FormatBytes(r.Upload), utils.FormatBytes(r.Download))
	if len(r.SkippedUsers) > 0 {
		fmt.Fprintf(out, "skipped unknown users: %v\n", r.SkippedUsers)
	}
	if r.Malformed > 0 {
		fmt.Fprintf(out, "dropped malformed fields: %d\n", r.Malformed)
	}
}
