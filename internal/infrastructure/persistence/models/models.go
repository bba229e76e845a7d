package models

// All returns every model, for AutoMigrate.
func All() []interface{} {
	return []interface{}{
		&UserModel{},
		&OrderModel{},
		&CommissionLogModel{},
		&StatUserModel{},
		&StatServerModel{},
		&StatModel{},
		&TrafficLogModel{},
		&DrainLedgerModel{},
	}
}
