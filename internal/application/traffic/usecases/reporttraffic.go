package usecases

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/orris-inc/trafficstat/internal/domain/stat"
	"github.com/orris-inc/trafficstat/internal/domain/traffic"
	"github.com/orris-inc/trafficstat/internal/shared/biztime"
	"github.com/orris-inc/trafficstat/internal/shared/errors"
	"github.com/orris-inc/trafficstat/internal/shared/logger"
	"github.com/orris-inc/trafficstat/internal/shared/utils"
)

// ReportTrafficCommand is one node push: raw bytes per user, as
// {"<user id>": [upload, download]}.
type ReportTrafficCommand struct {
	ServerID   uint
	ServerType string
	Rate       float64
	Traffic    map[uint][2]uint64
}

type ReportTrafficResult struct {
	Users int
	// Billed bytes written to the counter store after the rate.
	Upload   uint64
	Download uint64
}

// ReportTrafficUseCase feeds the counter store the way the panel's node
// endpoint does: billed bytes go to the live counters, raw bytes to server
// statistics and the traffic log.
type ReportTrafficUseCase struct {
	counters    traffic.CounterWriter
	uploadKey   string
	downloadKey string
	accumulator stat.Accumulator
	logs        traffic.LogWriter
	logger      logger.Interface
	now         func() time.Time
}

func NewReportTrafficUseCase(
	counters traffic.CounterWriter,
	keys CounterKeys,
	accumulator stat.Accumulator,
	logs traffic.LogWriter,
	logger logger.Interface,
) *ReportTrafficUseCase {
	uc := &ReportTrafficUseCase{
		counters:    counters,
		accumulator: accumulator,
		logs:        logs,
		logger:      logger,
		now:         biztime.NowUTC,
	}
	if len(keys.Upload) > 0 {
		uc.uploadKey = keys.Upload[0]
	}
	if len(keys.Download) > 0 {
		uc.downloadKey = keys.Download[0]
	}
	return uc
}

func (uc *ReportTrafficUseCase) Execute(ctx context.Context, cmd ReportTrafficCommand) (*ReportTrafficResult, error) {
	if err := uc.validateCommand(cmd); err != nil {
		uc.logger.Errorw("invalid report traffic command", "error", err)
		return nil, err
	}

	now := uc.now()
	userIDs := make([]uint, 0, len(cmd.Traffic))
	for userID := range cmd.Traffic {
		userIDs = append(userIDs, userID)
	}
	sort.Slice(userIDs, func(i, j int) bool { return userIDs[i] < userIDs[j] })

	upload := make(traffic.Deltas, len(userIDs))
	download := make(traffic.Deltas, len(userIDs))
	entries := make([]*traffic.LogEntry, 0, len(userIDs))
	var rawUp, rawDown uint64
	for _, userID := range userIDs {
		pair := cmd.Traffic[userID]
		if pair[0] == 0 && pair[1] == 0 {
			continue
		}
		if u := utils.ScaleBytes(pair[0], cmd.Rate); u > 0 {
			upload.Add(userID, u)
		}
		if d := utils.ScaleBytes(pair[1], cmd.Rate); d > 0 {
			download.Add(userID, d)
		}
		rawUp = utils.SaturatingAdd(rawUp, pair[0])
		rawDown = utils.SaturatingAdd(rawDown, pair[1])
		entries = append(entries, &traffic.LogEntry{
			UserID:     userID,
			ServerID:   cmd.ServerID,
			ServerType: cmd.ServerType,
			ServerRate: cmd.Rate,
			Upload:     pair[0],
			Download:   pair[1],
			LogAt:      now.Unix(),
		})
	}

	if err := uc.counters.Increment(ctx, uc.uploadKey, upload); err != nil {
		uc.logger.Errorw("failed to increment upload counters", "server_id", cmd.ServerID, "error", err)
		return nil, fmt.Errorf("failed to increment upload counters: %w", err)
	}
	if err := uc.counters.Increment(ctx, uc.downloadKey, download); err != nil {
		uc.logger.Errorw("failed to increment download counters", "server_id", cmd.ServerID, "error", err)
		return nil, fmt.Errorf("failed to increment download counters: %w", err)
	}

	// Counters are the source of truth for accounts; statistics failures
	// below are logged and do not fail the report.
	if uc.accumulator != nil {
		if err := uc.accumulator.AddServer(ctx, now, cmd.ServerID, cmd.ServerType, rawUp, rawDown); err != nil {
			uc.logger.Errorw("failed to accumulate server traffic", "server_id", cmd.ServerID, "error", err)
		}
	}
	if uc.logs != nil {
		if err := uc.logs.Append(ctx, entries); err != nil {
			uc.logger.Errorw("failed to append traffic log", "server_id", cmd.ServerID, "error", err)
		}
	}

	result := &ReportTrafficResult{
		Users:    len(entries),
		Upload:   upload.Total(),
		Download: download.Total(),
	}
	uc.logger.Infow("traffic report accepted",
		"server_id", cmd.ServerID,
		"server_type", cmd.ServerType,
		"users", result.Users,
		"upload", utils.FormatBytes(result.Upload),
		"download", utils.FormatBytes(result.Download))
	return result, nil
}

func (uc *ReportTrafficUseCase) validateCommand(cmd ReportTrafficCommand) error {
	if cmd.ServerID == 0 {
		return errors.NewValidationError("server ID is required")
	}
	if cmd.ServerType == "" {
		return errors.NewValidationError("server type is required")
	}
	if !(cmd.Rate > 0) {
		return errors.NewValidationError(fmt.Sprintf("server rate must be positive, got %v", cmd.Rate))
	}
	if uc.uploadKey == "" || uc.downloadKey == "" {
		return errors.NewValidationError("no counter keys configured")
	}
	for userID := range cmd.Traffic {
		if userID == 0 {
			return errors.NewValidationError("user ID 0 in report")
		}
	}
	return nil
}
