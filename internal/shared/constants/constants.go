package constants

const (
	// Environment constants
	EnvDevelopment = "development"
	EnvTest        = "test"
	EnvProduction  = "production"

	// Database table names, shared with the panel.
	TableUser          = "v2_user"
	TableOrder         = "v2_order"
	TableCommissionLog = "v2_commission_log"
	TableStatUser      = "v2_stat_user"
	TableStatServer    = "v2_stat_server"
	TableStat          = "v2_stat"
	TableTrafficLog    = "v2_traffic_log"
	TableDrainLedger   = "v2_drain_ledger"

	// Counter store key names written by the panel, current scheme first.
	UploadTrafficKey         = "v2board_upload_traffic"
	DownloadTrafficKey       = "v2board_download_traffic"
	LegacyUploadTrafficKey   = "privatetracker_database_v2board_upload_traffic"
	LegacyDownloadTrafficKey = "privatetracker_database_v2board_download_traffic"

	// Lock names for one-shot commands.
	LockDrain   = "trafficstat:lock:drain"
	LockRollup  = "trafficstat:lock:rollup"
	LockCleanup = "trafficstat:lock:cleanup"

	// Job names used in logs and metrics.
	JobDrain   = "drain"
	JobRollup  = "rollup"
	JobCleanup = "cleanup"
)
