package worker

import (
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/orris-inc/trafficstat/internal/infrastructure/scheduler"
	"github.com/orris-inc/trafficstat/internal/interfaces/cli/bootstrap"
	httpRouter "github.com/orris-inc/trafficstat/internal/interfaces/http"
	"github.com/orris-inc/trafficstat/internal/interfaces/http/handlers"
	"github.com/orris-inc/trafficstat/internal/shared/version"
)

var (
	opts     bootstrap.Options
	noServer bool
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Run the scheduled drain, rollup and cleanup jobs",
		Long: `Start the long-running worker: drains traffic counters every interval,
rolls up the previous day's statistics and trims old rows on cron, and serves
/healthz and /metrics on the ops listener.`,
		RunE: run,
	}

	opts.Bind(cmd)
	cmd.Flags().BoolVar(&noServer, "no-server", false, "Do not start the ops HTTP listener")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, &opts)
	if err != nil {
		return err
	}
	defer app.Close()

	log := app.Logger
	cfg := app.Config
	log.Infow("starting worker",
		"version", version.String(),
		"mode", cfg.Server.Mode,
		"timezone", cfg.Server.Timezone,
		"stats_source", cfg.Stats.Source,
		"accumulator", cfg.Stats.Accumulator)

	sched, err := scheduler.NewSchedulerManager(app.Runner, log)
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}

	if err := sched.RegisterDrainJob(
		bootstrap.DrainJob(app.DrainUseCase()),
		cfg.Scheduler.DrainInterval, cfg.Scheduler.DrainTimeout,
	); err != nil {
		return fmt.Errorf("failed to register drain job: %w", err)
	}
	if err := sched.RegisterRollupJob(
		bootstrap.RollupJob(app.RollupUseCase(), bootstrap.YesterdayFunc),
		cfg.Scheduler.RollupCron, cfg.Scheduler.RollupTimeout,
	); err != nil {
		return fmt.Errorf("failed to register rollup job: %w", err)
	}
	if err := sched.RegisterCleanupJob(
		bootstrap.CleanupJob(app.CleanupUseCase()),
		cfg.Scheduler.CleanupCron, cfg.Scheduler.RollupTimeout,
	); err != nil {
		return fmt.Errorf("failed to register cleanup job: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	if !noServer && cfg.Metrics.Listen != "" {
		gin.SetMode(ginMode(cfg.Server.Mode))
		gin.DefaultWriter = io.Discard

		health := handlers.NewHealthHandler(5*time.Second, log)
		health.AddCheck("database", app.PingDB)
		health.AddCheck("redis", app.PingRedis)

		router := httpRouter.NewRouter(health, app.Registry, log)
		router.SetupRoutes()

		server := httpRouter.NewServer(cfg.Metrics.Listen, router, log)
		g.Go(func() error {
			if err := server.Run(gctx); err != nil {
				return fmt.Errorf("ops server failed: %w", err)
			}
			return nil
		})
	}

	sched.Start()

	g.Go(func() error {
		<-gctx.Done()
		if ctx.Err() != nil {
			log.Infow("shutdown signal received")
		}
		if err := sched.Stop(); err != nil {
			log.Errorw("failed to stop scheduler", "error", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Errorw("worker stopped with error", "error", err)
		return err
	}

	log.Infow("worker exited gracefully")
	return nil
}

func ginMode(mode string) string {
	switch mode {
	case "debug", "development":
		return gin.DebugMode
	case "test":
		return gin.TestMode
	default:
		return gin.ReleaseMode
	}
}
