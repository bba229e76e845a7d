package config

import (
	"fmt"
	"time"
)

type ServerConfig struct {
	Mode     string `mapstructure:"mode" validate:"oneof=debug release test development production"`
	Timezone string `mapstructure:"timezone"`
}

type DatabaseConfig struct {
	Driver          string `mapstructure:"driver" validate:"oneof=mysql postgres sqlite"`
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port" validate:"gte=0,lte=65535"`
	Username        string `mapstructure:"username"`
	Password        string `mapstructure:"password"`
	Database        string `mapstructure:"database" validate:"required"`
	DSN             string `mapstructure:"dsn"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns" validate:"gte=0"`
	MaxOpenConns    int    `mapstructure:"max_open_conns" validate:"gte=0"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime" validate:"gte=0"` // minutes
}

// GetDSN returns the explicit DSN when configured, otherwise one assembled for
// the selected driver. For sqlite, Database is the file path.
func (d *DatabaseConfig) GetDSN() string {
	if d.DSN != "" {
		return d.DSN
	}
	switch d.Driver {
	case "postgres":
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable TimeZone=UTC",
			d.Host, d.Port, d.Username, d.Password, d.Database)
	case "sqlite":
		return d.Database
	default:
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&collation=utf8mb4_general_ci&parseTime=true&loc=Local",
			d.Username, d.Password, d.Host, d.Port, d.Database)
	}
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format" validate:"omitempty,oneof=console json"`
	OutputPath string `mapstructure:"output_path"`
}

// RedisConfig describes the shared connection the panel uses. Prefix is the
// key prefix the panel's framework prepends to every key it writes.
type RedisConfig struct {
	Host     string            `mapstructure:"host" validate:"required"`
	Port     int               `mapstructure:"port" validate:"gt=0,lte=65535"`
	Password string            `mapstructure:"password"`
	DB       int               `mapstructure:"db" validate:"gte=0"`
	Prefix   string            `mapstructure:"prefix"`
	Direct   DirectRedisConfig `mapstructure:"direct"`
}

func (r *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// DirectRedisConfig is the secondary, unprefixed connection some node
// backends write to directly.
type DirectRedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host" validate:"required_if=Enabled true"`
	Port     int    `mapstructure:"port" validate:"gte=0,lte=65535"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db" validate:"gte=0"`
}

func (r *DirectRedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// CounterConfig lists every hash name nodes may report under, oldest scheme last.
type CounterConfig struct {
	UploadKeys   []string `mapstructure:"upload_keys" validate:"required,min=1,dive,required"`
	DownloadKeys []string `mapstructure:"download_keys" validate:"required,min=1,dive,required"`
}

type StatsConfig struct {
	Source              string `mapstructure:"source" validate:"oneof=live log"`
	Accumulator         string `mapstructure:"accumulator" validate:"oneof=redis memory"`
	AccumulatorTTLHours int    `mapstructure:"accumulator_ttl_hours" validate:"gt=0"`
	LogRetentionDays    int    `mapstructure:"log_retention_days" validate:"gt=0"`
	LedgerRetentionDays int    `mapstructure:"ledger_retention_days" validate:"gt=0"`
}

type SchedulerConfig struct {
	DrainInterval time.Duration `mapstructure:"drain_interval" validate:"gt=0"`
	DrainTimeout  time.Duration `mapstructure:"drain_timeout" validate:"gt=0"`
	RollupCron    string        `mapstructure:"rollup_cron" validate:"required,cron"`
	RollupTimeout time.Duration `mapstructure:"rollup_timeout" validate:"gt=0"`
	CleanupCron   string        `mapstructure:"cleanup_cron" validate:"required,cron"`
	LockTTL       time.Duration `mapstructure:"lock_ttl" validate:"gt=0"`
}

type MetricsConfig struct {
	Listen string `mapstructure:"listen"`
}
