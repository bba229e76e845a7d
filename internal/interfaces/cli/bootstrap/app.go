package bootstrap

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	appstat "github.com/orris-inc/trafficstat/internal/application/stat"
	statUsecases "github.com/orris-inc/trafficstat/internal/application/stat/usecases"
	trafficUsecases "github.com/orris-inc/trafficstat/internal/application/traffic/usecases"
	"github.com/orris-inc/trafficstat/internal/domain/order"
	"github.com/orris-inc/trafficstat/internal/domain/stat"
	"github.com/orris-inc/trafficstat/internal/domain/traffic"
	"github.com/orris-inc/trafficstat/internal/domain/user"
	"github.com/orris-inc/trafficstat/internal/infrastructure/cache"
	"github.com/orris-inc/trafficstat/internal/infrastructure/config"
	"github.com/orris-inc/trafficstat/internal/infrastructure/database"
	"github.com/orris-inc/trafficstat/internal/infrastructure/metrics"
	"github.com/orris-inc/trafficstat/internal/infrastructure/repository"
	"github.com/orris-inc/trafficstat/internal/infrastructure/scheduler"
	"github.com/orris-inc/trafficstat/internal/shared/db"
	"github.com/orris-inc/trafficstat/internal/shared/logger"
)

// App holds every component a command may need. Use cases are built on
// demand from the shared repositories and connections.
type App struct {
	Config   *config.Config
	Logger   logger.Interface
	DB       *gorm.DB
	Redis    *redis.Client
	Direct   *redis.Client
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics
	Runner   *scheduler.JobRunner

	keys        trafficUsecases.CounterKeys
	users       user.Repository
	orders      order.Repository
	stats       stat.Repository
	ledger      traffic.LedgerRepository
	logs        *repository.TrafficLogRepositoryImpl
	accumulator stat.Accumulator
	txMgr       *db.TransactionManager
}

// New initialises the environment and connects to the database and Redis.
func New(ctx context.Context, opts *Options) (*App, error) {
	cfg, log, err := InitEnv(opts)
	if err != nil {
		return nil, err
	}

	redisClient, err := cache.NewClient(ctx, &cfg.Redis)
	if err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	log.Infow("redis connection established", "addr", cfg.Redis.GetAddr(), "prefix", cfg.Redis.Prefix)

	direct := cache.NewDirectClient(&cfg.Redis.Direct)
	if direct != nil {
		log.Infow("direct counter source enabled", "addr", cfg.Redis.Direct.GetAddr())
	}

	gormDB := database.Get()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewMetrics(registry)

	app := &App{
		Config:   cfg,
		Logger:   log,
		DB:       gormDB,
		Redis:    redisClient,
		Direct:   direct,
		Registry: registry,
		Metrics:  m,
		Runner:   scheduler.NewJobRunner(cache.NewRedisJobLock(redisClient), cfg.Scheduler.LockTTL, m, log),
		keys: trafficUsecases.CounterKeys{
			Upload:   cfg.Counter.UploadKeys,
			Download: cfg.Counter.DownloadKeys,
		},
		users:  repository.NewUserRepository(gormDB, log),
		orders: repository.NewOrderRepository(gormDB),
		stats:  repository.NewStatRepository(gormDB, log),
		ledger: repository.NewDrainLedgerRepository(gormDB),
		logs:   repository.NewTrafficLogRepository(gormDB, log),
		txMgr:  db.NewTransactionManager(gormDB),
	}

	switch cfg.Stats.Accumulator {
	case "memory":
		app.accumulator = appstat.NewMemoryAccumulator()
	default:
		app.accumulator = cache.NewRedisAccumulator(redisClient, cfg.AccumulatorTTL(), log)
	}

	return app, nil
}

// Close releases every connection. Errors are logged, not returned.
func (a *App) Close() {
	if a.Direct != nil {
		if err := a.Direct.Close(); err != nil {
			a.Logger.Warnw("failed to close direct redis client", "error", err)
		}
	}
	if err := a.Redis.Close(); err != nil {
		a.Logger.Warnw("failed to close redis client", "error", err)
	}
	if err := database.Close(); err != nil {
		a.Logger.Warnw("failed to close database", "error", err)
	}
	_ = logger.Sync()
}

// PingDB checks the database connection.
func (a *App) PingDB(ctx context.Context) error {
	sqlDB, err := a.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// PingRedis checks the primary Redis connection.
func (a *App) PingRedis(ctx context.Context) error {
	return a.Redis.Ping(ctx).Err()
}

func (a *App) Stats() stat.Repository { return a.stats }

func (a *App) Ledger() traffic.LedgerRepository { return a.ledger }

func (a *App) DrainUseCase() *trafficUsecases.DrainCountersUseCase {
	sources := cache.CounterSources(a.Redis, a.Direct, a.Config.Redis.Prefix, a.Logger)
	return trafficUsecases.NewDrainCountersUseCase(
		sources, a.keys, a.users, a.ledger, a.txMgr, a.accumulator, a.Metrics, a.Logger,
	)
}

func (a *App) ReportUseCase() *trafficUsecases.ReportTrafficUseCase {
	writer := cache.NewCounterWriter(a.Redis, a.Config.Redis.Prefix)
	return trafficUsecases.NewReportTrafficUseCase(writer, a.keys, a.accumulator, a.logs, a.Logger)
}

func (a *App) CleanupUseCase() *trafficUsecases.CleanupUseCase {
	return trafficUsecases.NewCleanupUseCase(
		a.logs, a.ledger,
		a.Config.Stats.LogRetentionDays, a.Config.Stats.LedgerRetentionDays,
		a.Logger,
	)
}

// UsageSource picks where the rollup reads traffic from.
func (a *App) UsageSource() appstat.UsageSource {
	if a.Config.Stats.Source == appstat.SourceLog {
		return appstat.NewLogUsageSource(a.logs)
	}
	return appstat.NewLiveUsageSource(a.accumulator)
}

func (a *App) RollupUseCase() *statUsecases.RollupUseCase {
	return statUsecases.NewRollupUseCase(a.UsageSource(), a.orders, a.users, a.stats, a.Metrics, a.Logger)
}
