package cache

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/orris-inc/trafficstat/internal/domain/stat"
	"github.com/orris-inc/trafficstat/internal/shared/biztime"
	"github.com/orris-inc/trafficstat/internal/shared/logger"
	"github.com/orris-inc/trafficstat/internal/shared/utils"
)

const (
	accumulatorKeyPrefix = "trafficstat:acc:"

	// Hash fields are "<direction>:<id>:<rest>" where rest is the rate for
	// users and the server type for servers.
	accFieldUpload   = "u"
	accFieldDownload = "d"
)

// RedisAccumulator keeps per-day running totals in Redis hashes so the drain
// and rollup processes can run apart.
type RedisAccumulator struct {
	client redis.UniversalClient
	ttl    time.Duration
	logger logger.Interface
}

// NewRedisAccumulator creates an accumulator whose day hashes expire ttl
// after their last write.
func NewRedisAccumulator(client redis.UniversalClient, ttl time.Duration, log logger.Interface) *RedisAccumulator {
	return &RedisAccumulator{
		client: client,
		ttl:    ttl,
		logger: log.With("component", "redis_accumulator"),
	}
}

func userAccKey(day time.Time) string {
	return accumulatorKeyPrefix + "user:" + biztime.FormatDate(day)
}

func serverAccKey(day time.Time) string {
	return accumulatorKeyPrefix + "server:" + biztime.FormatDate(day)
}

func formatRate(rate float64) string {
	return strconv.FormatFloat(rate, 'f', -1, 64)
}

func (a *RedisAccumulator) add(ctx context.Context, key, member string, upload, download uint64) error {
	if upload == 0 && download == 0 {
		return nil
	}

	pipe := a.client.TxPipeline()
	if upload > 0 {
		pipe.HIncrBy(ctx, key, accFieldUpload+":"+member, utils.SafeUint64ToInt64(upload))
	}
	if download > 0 {
		pipe.HIncrBy(ctx, key, accFieldDownload+":"+member, utils.SafeUint64ToInt64(download))
	}
	if a.ttl > 0 {
		pipe.Expire(ctx, key, a.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to accumulate %s: %w", key, err)
	}
	return nil
}

// AddUser implements stat.Accumulator.
func (a *RedisAccumulator) AddUser(ctx context.Context, day time.Time, rate float64, userID uint, upload, download uint64) error {
	member := strconv.FormatUint(uint64(userID), 10) + ":" + formatRate(rate)
	return a.add(ctx, userAccKey(day), member, upload, download)
}

// AddServer implements stat.Accumulator.
func (a *RedisAccumulator) AddServer(ctx context.Context, day time.Time, serverID uint, serverType string, upload, download uint64) error {
	member := strconv.FormatUint(uint64(serverID), 10) + ":" + serverType
	return a.add(ctx, serverAccKey(day), member, upload, download)
}

// accEntry is one parsed hash field.
type accEntry struct {
	dir   string
	id    uint
	rest  string
	value uint64
}

func (a *RedisAccumulator) read(ctx context.Context, key string) ([]accEntry, error) {
	values, err := a.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}

	entries := make([]accEntry, 0, len(values))
	for field, raw := range values {
		parts := strings.SplitN(field, ":", 3)
		if len(parts) != 3 {
			a.logger.Warnw("ignoring malformed accumulator field", "key", key, "field", field)
			continue
		}
		id, err := strconv.ParseUint(parts[1], 10, 0)
		if err != nil {
			a.logger.Warnw("ignoring malformed accumulator field", "key", key, "field", field)
			continue
		}
		n, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			a.logger.Warnw("ignoring malformed accumulator value", "key", key, "field", field, "value", raw)
			continue
		}
		entries = append(entries, accEntry{dir: parts[0], id: uint(id), rest: parts[2], value: n})
	}
	return entries, nil
}

// Users implements stat.Accumulator. Rows are ordered by user id, then rate.
func (a *RedisAccumulator) Users(ctx context.Context, day time.Time) ([]stat.UserUsage, error) {
	key := userAccKey(day)
	entries, err := a.read(ctx, key)
	if err != nil {
		return nil, err
	}

	type userKey struct {
		id   uint
		rate float64
	}
	byKey := make(map[userKey]*stat.UserUsage)
	for _, e := range entries {
		rate, err := strconv.ParseFloat(e.rest, 64)
		if err != nil {
			a.logger.Warnw("ignoring accumulator field with bad rate", "key", key, "rate", e.rest)
			continue
		}
		k := userKey{id: e.id, rate: rate}
		u, ok := byKey[k]
		if !ok {
			u = &stat.UserUsage{UserID: e.id, ServerRate: rate}
			byKey[k] = u
		}
		switch e.dir {
		case accFieldUpload:
			u.Upload = utils.SaturatingAdd(u.Upload, e.value)
		case accFieldDownload:
			u.Download = utils.SaturatingAdd(u.Download, e.value)
		}
	}

	out := make([]stat.UserUsage, 0, len(byKey))
	for _, u := range byKey {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UserID != out[j].UserID {
			return out[i].UserID < out[j].UserID
		}
		return out[i].ServerRate < out[j].ServerRate
	})
	return out, nil
}

// Servers implements stat.Accumulator. Rows are ordered by server id, then type.
func (a *RedisAccumulator) Servers(ctx context.Context, day time.Time) ([]stat.ServerUsage, error) {
	entries, err := a.read(ctx, serverAccKey(day))
	if err != nil {
		return nil, err
	}

	type serverKey struct {
		id  uint
		typ string
	}
	byKey := make(map[serverKey]*stat.ServerUsage)
	for _, e := range entries {
		k := serverKey{id: e.id, typ: e.rest}
		s, ok := byKey[k]
		if !ok {
			s = &stat.ServerUsage{ServerID: e.id, ServerType: e.rest}
			byKey[k] = s
		}
		switch e.dir {
		case accFieldUpload:
			s.Upload = utils.SaturatingAdd(s.Upload, e.value)
		case accFieldDownload:
			s.Download = utils.SaturatingAdd(s.Download, e.value)
		}
	}

	out := make([]stat.ServerUsage, 0, len(byKey))
	for _, s := range byKey {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ServerID != out[j].ServerID {
			return out[i].ServerID < out[j].ServerID
		}
		return out[i].ServerType < out[j].ServerType
	})
	return out, nil
}

// ResetUsers implements stat.Accumulator.
func (a *RedisAccumulator) ResetUsers(ctx context.Context, day time.Time) error {
	if err := a.client.Del(ctx, userAccKey(day)).Err(); err != nil {
		return fmt.Errorf("failed to reset user accumulation: %w", err)
	}
	return nil
}

// ResetServers implements stat.Accumulator.
func (a *RedisAccumulator) ResetServers(ctx context.Context, day time.Time) error {
	if err := a.client.Del(ctx, serverAccKey(day)).Err(); err != nil {
		return fmt.Errorf("failed to reset server accumulation: %w", err)
	}
	return nil
}
