package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"

	sharedConfig "github.com/orris-inc/trafficstat/internal/shared/config"
	"github.com/orris-inc/trafficstat/internal/shared/constants"
)

// EnvPrefix is prepended to every environment override, e.g.
// TRAFFICSTAT_DATABASE_HOST.
const EnvPrefix = "TRAFFICSTAT"

type Config struct {
	Server    sharedConfig.ServerConfig    `mapstructure:"server"`
	Database  sharedConfig.DatabaseConfig  `mapstructure:"database"`
	Logger    sharedConfig.LoggerConfig    `mapstructure:"logger"`
	Redis     sharedConfig.RedisConfig     `mapstructure:"redis"`
	Counter   sharedConfig.CounterConfig   `mapstructure:"counter"`
	Stats     sharedConfig.StatsConfig     `mapstructure:"stats"`
	Scheduler sharedConfig.SchedulerConfig `mapstructure:"scheduler"`
	Metrics   sharedConfig.MetricsConfig   `mapstructure:"metrics"`
}

var (
	appConfig   *Config
	appConfigMu sync.RWMutex
)

// Load reads configs/config.yaml (or the file at path), applies TRAFFICSTAT_*
// environment overrides and validates the result. Without an explicit path a
// missing file is fine: defaults and environment suffice.
func Load(env, path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath("./configs")
		v.AddConfigPath("../configs")
		v.AddConfigPath("../../configs")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Allow env parameter to override server mode if provided
	if env != "" && env != "default" {
		v.Set("server.mode", env)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := newValidator().Struct(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	appConfigMu.Lock()
	appConfig = &config
	appConfigMu.Unlock()

	return &config, nil
}

// newValidator adds the "cron" tag: a standard five-field expression as the
// scheduler accepts it.
func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("cron", func(fl validator.FieldLevel) bool {
		_, err := cron.ParseStandard(fl.Field().String())
		return err == nil
	})
	return v
}

// Get returns the loaded configuration
func Get() *Config {
	appConfigMu.RLock()
	defer appConfigMu.RUnlock()
	return appConfig
}

// AccumulatorTTL is how long a day's running totals survive without writes.
func (c *Config) AccumulatorTTL() time.Duration {
	return time.Duration(c.Stats.AccumulatorTTLHours) * time.Hour
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.timezone", "Asia/Shanghai")

	// Database defaults
	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.username", "root")
	v.SetDefault("database.password", "")
	v.SetDefault("database.database", "v2board")
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.conn_max_lifetime", 60)

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.output_path", "stdout")

	// Redis defaults
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "")
	v.SetDefault("redis.direct.enabled", false)
	v.SetDefault("redis.direct.port", 6379)

	// Counter keys, current scheme first
	v.SetDefault("counter.upload_keys", []string{constants.UploadTrafficKey, constants.LegacyUploadTrafficKey})
	v.SetDefault("counter.download_keys", []string{constants.DownloadTrafficKey, constants.LegacyDownloadTrafficKey})

	// Stats defaults
	v.SetDefault("stats.source", "live")
	v.SetDefault("stats.accumulator", "redis")
	v.SetDefault("stats.accumulator_ttl_hours", 72)
	v.SetDefault("stats.log_retention_days", 31)
	v.SetDefault("stats.ledger_retention_days", 7)

	// Scheduler defaults
	v.SetDefault("scheduler.drain_interval", time.Minute)
	v.SetDefault("scheduler.drain_timeout", 50*time.Second)
	v.SetDefault("scheduler.rollup_cron", "10 0 * * *")
	v.SetDefault("scheduler.rollup_timeout", 30*time.Minute)
	v.SetDefault("scheduler.cleanup_cron", "30 3 * * *")
	v.SetDefault("scheduler.lock_ttl", 10*time.Minute)

	// Metrics defaults
	v.SetDefault("metrics.listen", ":9102")
}
