package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/orris-inc/trafficstat/internal/domain/traffic"
	"github.com/orris-inc/trafficstat/internal/shared/biztime"
	"github.com/orris-inc/trafficstat/internal/shared/logger"
)

type CleanupResult struct {
	LogsDeleted   int64
	LedgerDeleted int64
}

// CleanupUseCase trims traffic log and drain ledger rows past retention.
type CleanupUseCase struct {
	logs            traffic.LogWriter
	ledger          traffic.LedgerRepository
	logRetention    time.Duration
	ledgerRetention time.Duration
	logger          logger.Interface
	now             func() time.Time
}

func NewCleanupUseCase(
	logs traffic.LogWriter,
	ledger traffic.LedgerRepository,
	logRetentionDays, ledgerRetentionDays int,
	logger logger.Interface,
) *CleanupUseCase {
	return &CleanupUseCase{
		logs:            logs,
		ledger:          ledger,
		logRetention:    time.Duration(logRetentionDays) * 24 * time.Hour,
		ledgerRetention: time.Duration(ledgerRetentionDays) * 24 * time.Hour,
		logger:          logger,
		now:             biztime.NowUTC,
	}
}

func (uc *CleanupUseCase) Execute(ctx context.Context) (*CleanupResult, error) {
	now := uc.now()
	result := &CleanupResult{}

	logCutoff := biztime.StartOfDayUTC(now.Add(-uc.logRetention)).Unix()
	n, err := uc.logs.DeleteOlderThan(ctx, logCutoff)
	if err != nil {
		uc.logger.Errorw("failed to trim traffic logs", "cutoff", logCutoff, "error", err)
		return nil, fmt.Errorf("failed to trim traffic logs: %w", err)
	}
	result.LogsDeleted = n

	ledgerCutoff := now.Add(-uc.ledgerRetention).Unix()
	n, err = uc.ledger.DeleteOlderThan(ctx, ledgerCutoff)
	if err != nil {
		uc.logger.Errorw("failed to trim drain ledger", "cutoff", ledgerCutoff, "error", err)
		return nil, fmt.Errorf("failed to trim drain ledger: %w", err)
	}
	result.LedgerDeleted = n

	uc.logger.Infow("retention cleanup completed",
		"logs_deleted", result.LogsDeleted,
		"ledger_deleted", result.LedgerDeleted)
	return result, nil
}
