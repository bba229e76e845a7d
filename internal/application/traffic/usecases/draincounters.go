package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/orris-inc/trafficstat/internal/domain/stat"
	"github.com/orris-inc/trafficstat/internal/domain/traffic"
	"github.com/orris-inc/trafficstat/internal/domain/user"
	"github.com/orris-inc/trafficstat/internal/infrastructure/metrics"
	"github.com/orris-inc/trafficstat/internal/shared/biztime"
	"github.com/orris-inc/trafficstat/internal/shared/db"
	"github.com/orris-inc/trafficstat/internal/shared/id"
	"github.com/orris-inc/trafficstat/internal/shared/logger"
	"github.com/orris-inc/trafficstat/internal/shared/utils"
	"github.com/orris-inc/trafficstat/internal/shared/utils/setutil"
)

// drainRate is the multiplier attached to drained deltas when they are
// forwarded to the statistics accumulator. Node reports already applied the
// server rate before the bytes reached the counter store.
const drainRate = 1.0

// CounterKeys lists the hash names each direction may be reported under.
type CounterKeys struct {
	Upload   []string
	Download []string
}

func (k CounterKeys) forDirection(d traffic.Direction) []string {
	if d == traffic.DirectionUpload {
		return k.Upload
	}
	return k.Download
}

func (k CounterKeys) all() []string {
	keys := make([]string, 0, len(k.Upload)+len(k.Download))
	keys = append(keys, k.Upload...)
	return append(keys, k.Download...)
}

type DrainResult struct {
	CycleID string
	// Empty is set when no source held any bytes; nothing was written.
	Empty        bool
	Applied      []traffic.UserDelta
	SkippedUsers []uint
	Upload       uint64
	Download     uint64
	Malformed    int
	// Orphan claims found on entry, split by how they were settled.
	OrphansAcked    int
	OrphansRestored int
}

// drainCycle is the working state of one Execute call.
type drainCycle struct {
	id     string
	claims []*traffic.Claim
	totals map[traffic.Direction]traffic.Deltas
}

func (c *drainCycle) isEmpty() bool {
	return len(c.totals[traffic.DirectionUpload]) == 0 && len(c.totals[traffic.DirectionDownload]) == 0
}

func (c *drainCycle) malformed() int {
	n := 0
	for _, claim := range c.claims {
		n += claim.Malformed
	}
	return n
}

// userIDs returns the sorted union of users with bytes in either direction.
func (c *drainCycle) userIDs() []uint {
	up, down := c.totals[traffic.DirectionUpload], c.totals[traffic.DirectionDownload]
	set := setutil.NewUintSetWithCap(len(up) + len(down))
	setutil.AddKeys(set, up)
	setutil.AddKeys(set, down)
	return set.Sorted()
}

func (c *drainCycle) keyTotals() map[string]uint64 {
	totals := make(map[string]uint64, len(c.claims))
	for _, claim := range c.claims {
		k := claim.Source + "/" + claim.Key
		totals[k] = utils.SaturatingAdd(totals[k], claim.Entries.Total())
	}
	return totals
}

// DrainCountersUseCase moves pending per-user counters from the counter
// store onto user rows. Claims are only deleted after the account updates
// commit; on failure they are put back for the next cycle.
type DrainCountersUseCase struct {
	sources     []traffic.CounterSource
	keys        CounterKeys
	users       user.Repository
	ledger      traffic.LedgerRepository
	txMgr       *db.TransactionManager
	accumulator stat.Accumulator
	metrics     DrainMetrics
	logger      logger.Interface
	now         func() time.Time
}

func NewDrainCountersUseCase(
	sources []traffic.CounterSource,
	keys CounterKeys,
	users user.Repository,
	ledger traffic.LedgerRepository,
	txMgr *db.TransactionManager,
	accumulator stat.Accumulator,
	m DrainMetrics,
	logger logger.Interface,
) *DrainCountersUseCase {
	return &DrainCountersUseCase{
		sources:     sources,
		keys:        keys,
		users:       users,
		ledger:      ledger,
		txMgr:       txMgr,
		accumulator: accumulator,
		metrics:     m,
		logger:      logger,
		now:         biztime.NowUTC,
	}
}

func (uc *DrainCountersUseCase) Execute(ctx context.Context) (*DrainResult, error) {
	cycleID, err := id.NewDrainCycleID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate cycle id: %w", err)
	}
	log := uc.logger.With("cycle_id", cycleID)
	result := &DrainResult{CycleID: cycleID}

	result.OrphansAcked, result.OrphansRestored = uc.recoverOrphans(ctx, log)

	cycle, err := uc.claimAll(ctx, cycleID, log)
	if err != nil {
		uc.recordCycle(metrics.ResultFailed)
		return nil, err
	}
	result.Malformed = cycle.malformed()

	if cycle.isEmpty() {
		uc.ackAll(ctx, cycle, log)
		uc.recordCycle(metrics.ResultEmpty)
		log.Debugw("no traffic to drain")
		result.Empty = true
		return result, nil
	}

	ids := cycle.userIDs()
	accounts, err := uc.users.FindByIDs(ctx, ids)
	if err != nil {
		log.Errorw("failed to load users, restoring counters", "error", err, "users", len(ids))
		uc.restoreAll(ctx, cycle, log)
		uc.recordCycle(metrics.ResultFailed)
		return nil, fmt.Errorf("failed to load users: %w", err)
	}

	known := make(map[uint]struct{}, len(accounts))
	for _, a := range accounts {
		known[a.ID()] = struct{}{}
	}

	up, down := cycle.totals[traffic.DirectionUpload], cycle.totals[traffic.DirectionDownload]
	var deltas []traffic.UserDelta
	for _, userID := range ids {
		if _, ok := known[userID]; !ok {
			result.SkippedUsers = append(result.SkippedUsers, userID)
			continue
		}
		d := traffic.UserDelta{UserID: userID, Upload: up[userID], Download: down[userID]}
		if d.IsZero() {
			continue
		}
		deltas = append(deltas, d)
	}
	if len(result.SkippedUsers) > 0 {
		log.Warnw("skipping counters of unknown users", "user_ids", result.SkippedUsers)
	}

	now := uc.now()
	entry := &traffic.LedgerEntry{
		CycleID:   cycleID,
		Users:     len(deltas),
		Keys:      cycle.keyTotals(),
		CreatedAt: now.Unix(),
	}
	for _, d := range deltas {
		entry.UploadTotal = utils.SaturatingAdd(entry.UploadTotal, d.Upload)
		entry.DownloadTotal = utils.SaturatingAdd(entry.DownloadTotal, d.Download)
	}

	err = uc.txMgr.RunInTransaction(ctx, func(txCtx context.Context) error {
		for _, d := range deltas {
			if err := uc.users.ApplyTrafficDelta(txCtx, d.UserID, d.Upload, d.Download, now.Unix()); err != nil {
				return fmt.Errorf("failed to apply traffic for user %d: %w", d.UserID, err)
			}
		}
		if err := uc.ledger.Record(txCtx, entry); err != nil {
			return fmt.Errorf("failed to record drain ledger: %w", err)
		}
		return nil
	})
	if err != nil {
		log.Errorw("drain transaction rolled back, restoring counters", "error", err, "users", len(deltas))
		uc.restoreAll(ctx, cycle, log)
		uc.recordCycle(metrics.ResultFailed)
		return nil, err
	}

	uc.ackAll(ctx, cycle, log)
	uc.forward(ctx, now, deltas, log)

	for _, d := range deltas {
		log.Infow("applied traffic", "user_id", d.UserID,
			"upload", utils.FormatBytes(d.Upload),
			"download", utils.FormatBytes(d.Download))
	}
	log.Infow("drain cycle committed",
		"users", len(deltas),
		"skipped", len(result.SkippedUsers),
		"upload", utils.FormatBytes(entry.UploadTotal),
		"download", utils.FormatBytes(entry.DownloadTotal))

	result.Applied = deltas
	result.Upload = entry.UploadTotal
	result.Download = entry.DownloadTotal

	uc.recordCycle(metrics.ResultSuccess)
	if uc.metrics != nil {
		uc.metrics.DrainedBytes(traffic.DirectionUpload.String(), entry.UploadTotal)
		uc.metrics.DrainedBytes(traffic.DirectionDownload.String(), entry.DownloadTotal)
		uc.metrics.DrainUsers(metrics.OutcomeApplied, len(deltas))
		uc.metrics.DrainUsers(metrics.OutcomeUnknown, len(result.SkippedUsers))
	}
	return result, nil
}

// claimAll claims every key on every source and sums the entries per
// direction. A failing mandatory source aborts the cycle after everything
// claimed so far is restored.
func (uc *DrainCountersUseCase) claimAll(ctx context.Context, cycleID string, log logger.Interface) (*drainCycle, error) {
	cycle := &drainCycle{
		id:     cycleID,
		totals: make(map[traffic.Direction]traffic.Deltas, len(traffic.Directions)),
	}

	for _, dir := range traffic.Directions {
		merged := make(traffic.Deltas)
		for _, key := range uc.keys.forDirection(dir) {
			for _, src := range uc.sources {
				claim, err := src.Claim(ctx, key, cycleID)
				if err != nil {
					if src.Optional() {
						log.Warnw("optional counter source failed, skipping", "source", src.Name(), "key", key, "error", err)
						continue
					}
					log.Errorw("failed to claim counters", "source", src.Name(), "key", key, "error", err)
					uc.restoreAll(ctx, cycle, log)
					return nil, fmt.Errorf("failed to claim %s from %s: %w", key, src.Name(), err)
				}
				if claim.IsEmpty() && claim.Malformed == 0 {
					continue
				}
				log.Infow("claimed counters", "source", src.Name(), "key", key,
					"users", len(claim.Entries), "bytes", utils.FormatBytes(claim.Entries.Total()))
				cycle.claims = append(cycle.claims, claim)
				merged.Merge(claim.Entries)
			}
		}
		cycle.totals[dir] = merged
	}
	return cycle, nil
}

func (uc *DrainCountersUseCase) sourceByName(name string) traffic.CounterSource {
	for _, src := range uc.sources {
		if src.Name() == name {
			return src
		}
	}
	return nil
}

func (uc *DrainCountersUseCase) ackAll(ctx context.Context, cycle *drainCycle, log logger.Interface) {
	for _, claim := range cycle.claims {
		src := uc.sourceByName(claim.Source)
		if src == nil {
			continue
		}
		// A failed ack leaves an orphan the next cycle settles through the ledger.
		if err := src.Ack(ctx, claim); err != nil {
			log.Errorw("failed to ack claim", "source", claim.Source, "key", claim.Key, "error", err)
		}
	}
}

func (uc *DrainCountersUseCase) restoreAll(ctx context.Context, cycle *drainCycle, log logger.Interface) {
	for _, claim := range cycle.claims {
		src := uc.sourceByName(claim.Source)
		if src == nil {
			continue
		}
		if err := src.Restore(ctx, claim); err != nil {
			log.Errorw("failed to restore claim", "source", claim.Source, "key", claim.Key, "error", err)
		}
	}
}

// recoverOrphans settles staging keys left by cycles that died between
// claiming and acking: committed cycles (present in the ledger) are acked,
// the rest are restored.
func (uc *DrainCountersUseCase) recoverOrphans(ctx context.Context, log logger.Interface) (acked, restored int) {
	for _, key := range uc.keys.all() {
		for _, src := range uc.sources {
			orphans, err := src.Orphans(ctx, key)
			if err != nil {
				log.Warnw("failed to list orphan claims", "source", src.Name(), "key", key, "error", err)
				continue
			}
			for _, claim := range orphans {
				committed, err := uc.ledger.Exists(ctx, claim.CycleID)
				if err != nil {
					log.Errorw("failed to check drain ledger", "orphan_cycle_id", claim.CycleID, "error", err)
					continue
				}
				if committed {
					if err := src.Ack(ctx, claim); err != nil {
						log.Errorw("failed to ack orphan claim", "orphan_cycle_id", claim.CycleID, "error", err)
						continue
					}
					acked++
				} else {
					if err := src.Restore(ctx, claim); err != nil {
						log.Errorw("failed to restore orphan claim", "orphan_cycle_id", claim.CycleID, "error", err)
						continue
					}
					restored++
				}
				log.Infow("settled orphan claim", "source", src.Name(), "key", key,
					"orphan_cycle_id", claim.CycleID, "committed", committed)
			}
		}
	}
	return acked, restored
}

// forward adds committed deltas to today's running statistics. Failures are
// logged only: the account rows are already correct.
func (uc *DrainCountersUseCase) forward(ctx context.Context, now time.Time, deltas []traffic.UserDelta, log logger.Interface) {
	if uc.accumulator == nil {
		return
	}
	for _, d := range deltas {
		if err := uc.accumulator.AddUser(ctx, now, drainRate, d.UserID, d.Upload, d.Download); err != nil {
			log.Errorw("failed to forward delta to statistics", "user_id", d.UserID, "error", err)
		}
	}
}

func (uc *DrainCountersUseCase) recordCycle(result string) {
	if uc.metrics != nil {
		uc.metrics.DrainCycle(result)
	}
}
