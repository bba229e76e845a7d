package mappers

import (
	"gorm.io/datatypes"

	"github.com/orris-inc/trafficstat/internal/domain/traffic"
	"github.com/orris-inc/trafficstat/internal/infrastructure/persistence/models"
	"github.com/orris-inc/trafficstat/internal/shared/mapper"
)

func TrafficLogToModel(e *traffic.LogEntry) *models.TrafficLogModel {
	return &models.TrafficLogModel{
		UserID:     e.UserID,
		ServerID:   e.ServerID,
		ServerType: e.ServerType,
		ServerRate: e.ServerRate,
		U:          e.Upload,
		D:          e.Download,
		LogAt:      e.LogAt,
	}
}

func TrafficLogsToModels(entries []*traffic.LogEntry) []*models.TrafficLogModel {
	return mapper.MapSlice(entries, TrafficLogToModel)
}

func LedgerToModel(e *traffic.LedgerEntry) *models.DrainLedgerModel {
	keys := e.Keys
	if keys == nil {
		keys = map[string]uint64{}
	}
	return &models.DrainLedgerModel{
		CycleID:       e.CycleID,
		Users:         e.Users,
		UploadTotal:   e.UploadTotal,
		DownloadTotal: e.DownloadTotal,
		Keys:          datatypes.NewJSONType(keys),
		CreatedAt:     e.CreatedAt,
	}
}

func LedgerToEntity(m *models.DrainLedgerModel) *traffic.LedgerEntry {
	return &traffic.LedgerEntry{
		CycleID:       m.CycleID,
		Users:         m.Users,
		UploadTotal:   m.UploadTotal,
		DownloadTotal: m.DownloadTotal,
		Keys:          m.Keys.Data(),
		CreatedAt:     m.CreatedAt,
	}
}
