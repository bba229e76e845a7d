package mappers

import (
	"github.com/orris-inc/trafficstat/internal/domain/stat"
	"github.com/orris-inc/trafficstat/internal/infrastructure/persistence/models"
	"github.com/orris-inc/trafficstat/internal/shared/mapper"
)

func UserStatToModel(s *stat.UserStat) *models.StatUserModel {
	return &models.StatUserModel{
		UserID:     s.UserID,
		ServerRate: s.ServerRate,
		U:          s.Upload,
		D:          s.Download,
		RecordType: s.RecordType.String(),
		RecordAt:   s.RecordAt,
	}
}

func UserStatToEntity(m *models.StatUserModel) *stat.UserStat {
	return &stat.UserStat{
		UserID:     m.UserID,
		ServerRate: m.ServerRate,
		Upload:     m.U,
		Download:   m.D,
		RecordType: stat.Granularity(m.RecordType),
		RecordAt:   m.RecordAt,
	}
}

func ServerStatToModel(s *stat.ServerStat) *models.StatServerModel {
	return &models.StatServerModel{
		ServerID:   s.ServerID,
		ServerType: s.ServerType,
		U:          s.Upload,
		D:          s.Download,
		RecordType: s.RecordType.String(),
		RecordAt:   s.RecordAt,
	}
}

func ServerStatToEntity(m *models.StatServerModel) *stat.ServerStat {
	return &stat.ServerStat{
		ServerID:   m.ServerID,
		ServerType: m.ServerType,
		Upload:     m.U,
		Download:   m.D,
		RecordType: stat.Granularity(m.RecordType),
		RecordAt:   m.RecordAt,
	}
}

func UserStatsToModels(rows []*stat.UserStat) []*models.StatUserModel {
	return mapper.MapSlice(rows, UserStatToModel)
}

func ServerStatsToModels(rows []*stat.ServerStat) []*models.StatServerModel {
	return mapper.MapSlice(rows, ServerStatToModel)
}

// GlobalStatFields returns the mutable columns of a global row, for in-place updates.
func GlobalStatFields(g *stat.GlobalStat) map[string]interface{} {
	return map[string]interface{}{
		"order_count":         g.OrderCount,
		"order_total":         g.OrderTotal,
		"commission_count":    g.CommissionCount,
		"commission_total":    g.CommissionTotal,
		"paid_count":          g.PaidCount,
		"paid_total":          g.PaidTotal,
		"register_count":      g.RegisterCount,
		"invite_count":        g.InviteCount,
		"transfer_used_total": g.TransferUsedTotal,
	}
}

func GlobalStatToModel(g *stat.GlobalStat) *models.StatModel {
	return &models.StatModel{
		RecordAt:          g.RecordAt,
		RecordType:        g.RecordType.String(),
		OrderCount:        g.OrderCount,
		OrderTotal:        g.OrderTotal,
		CommissionCount:   g.CommissionCount,
		CommissionTotal:   g.CommissionTotal,
		PaidCount:         g.PaidCount,
		PaidTotal:         g.PaidTotal,
		RegisterCount:     g.RegisterCount,
		InviteCount:       g.InviteCount,
		TransferUsedTotal: g.TransferUsedTotal,
	}
}

func GlobalStatToEntity(m *models.StatModel) *stat.GlobalStat {
	return &stat.GlobalStat{
		RecordAt:          m.RecordAt,
		RecordType:        stat.Granularity(m.RecordType),
		OrderCount:        m.OrderCount,
		OrderTotal:        m.OrderTotal,
		CommissionCount:   m.CommissionCount,
		CommissionTotal:   m.CommissionTotal,
		PaidCount:         m.PaidCount,
		PaidTotal:         m.PaidTotal,
		RegisterCount:     m.RegisterCount,
		InviteCount:       m.InviteCount,
		TransferUsedTotal: m.TransferUsedTotal,
	}
}
