package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/orris-inc/trafficstat/internal/domain/traffic"
	"github.com/orris-inc/trafficstat/internal/shared/logger"
	"github.com/orris-inc/trafficstat/internal/shared/utils"
)

// claimScript moves a live counter hash into its staging key and returns the
// staged entries. A staging key that already exists means the same physical
// hash was claimed earlier in this cycle through another source or key name,
// so the claim comes back empty and the live hash is left for the next cycle.
// KEYS[1] = live key, KEYS[2] = staging key
var claimScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[2]) == 1 then
    return {}
end
if redis.call('EXISTS', KEYS[1]) == 0 then
    return {}
end
redis.call('RENAME', KEYS[1], KEYS[2])
return redis.call('HGETALL', KEYS[2])
`)

// restoreScript adds staged entries back onto the live key and drops the
// staging key in one step. It returns -1 without touching the live key when
// the staging key is already gone, so a claim is put back at most once.
// KEYS[1] = live key, KEYS[2] = staging key
// ARGV = field, increment pairs
var restoreScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[2]) == 0 then
    return -1
end
for i = 1, #ARGV, 2 do
    redis.call('HINCRBY', KEYS[1], ARGV[i], ARGV[i + 1])
end
redis.call('DEL', KEYS[2])
return #ARGV / 2
`)

const orphanScanCount = 100

// RedisCounterSource claims counter hashes from one Redis connection. The
// panel may write the same logical key through a prefixed client and a raw
// one, so a source carries the prefix it applies to every key.
type RedisCounterSource struct {
	client   redis.UniversalClient
	name     string
	prefix   string
	optional bool
	logger   logger.Interface
}

// NewRedisCounterSource creates a counter source. Errors from an optional
// source are tolerated by the reconciler.
func NewRedisCounterSource(
	client redis.UniversalClient,
	name, prefix string,
	optional bool,
	log logger.Interface,
) *RedisCounterSource {
	return &RedisCounterSource{
		client:   client,
		name:     name,
		prefix:   prefix,
		optional: optional,
		logger:   log.With("component", "counter_source", "source", name),
	}
}

func (s *RedisCounterSource) Name() string { return s.name }

func (s *RedisCounterSource) Optional() bool { return s.optional }

func (s *RedisCounterSource) liveKey(key string) string {
	return s.prefix + key
}

func (s *RedisCounterSource) stagingKey(key, cycleID string) string {
	return s.prefix + traffic.StagingKey(key, cycleID)
}

// Claim implements traffic.CounterSource.
func (s *RedisCounterSource) Claim(ctx context.Context, key, cycleID string) (*traffic.Claim, error) {
	res, err := claimScript.Run(ctx, s.client,
		[]string{s.liveKey(key), s.stagingKey(key, cycleID)}).StringSlice()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to claim %s on %s: %w", key, s.name, err)
	}

	claim := &traffic.Claim{Source: s.name, Key: key, CycleID: cycleID}
	s.fill(claim, pairsToMap(res))
	return claim, nil
}

// Ack implements traffic.CounterSource.
func (s *RedisCounterSource) Ack(ctx context.Context, claim *traffic.Claim) error {
	if err := s.client.Del(ctx, s.stagingKey(claim.Key, claim.CycleID)).Err(); err != nil {
		return fmt.Errorf("failed to ack claim %s/%s: %w", claim.Key, claim.CycleID, err)
	}
	return nil
}

// Restore implements traffic.CounterSource. Malformed entries are not put
// back, and a claim whose staging key is gone is not put back again.
func (s *RedisCounterSource) Restore(ctx context.Context, claim *traffic.Claim) error {
	args := make([]interface{}, 0, len(claim.Entries)*2)
	for userID, n := range claim.Entries {
		if n == 0 {
			continue
		}
		args = append(args, strconv.FormatUint(uint64(userID), 10), utils.SafeUint64ToInt64(n))
	}

	n, err := restoreScript.Run(ctx, s.client,
		[]string{s.liveKey(claim.Key), s.stagingKey(claim.Key, claim.CycleID)}, args...).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("failed to restore claim %s/%s: %w", claim.Key, claim.CycleID, err)
	}
	if n < 0 {
		s.logger.Debugw("counter claim already settled", "key", claim.Key, "cycle_id", claim.CycleID)
		return nil
	}

	s.logger.Infow("restored counter claim",
		"key", claim.Key,
		"cycle_id", claim.CycleID,
		"users", len(claim.Entries),
		"bytes", utils.FormatBytes(claim.Entries.Total()),
	)
	return nil
}

// Orphans implements traffic.CounterSource.
func (s *RedisCounterSource) Orphans(ctx context.Context, key string) ([]*traffic.Claim, error) {
	pattern := escapeGlob(s.prefix+traffic.StagingKey(key, "")) + "*"

	var claims []*traffic.Claim
	iter := s.client.Scan(ctx, 0, pattern, orphanScanCount).Iterator()
	for iter.Next(ctx) {
		staging := strings.TrimPrefix(iter.Val(), s.prefix)
		live, cycleID, ok := traffic.ParseStagingKey(staging)
		if !ok || live != key {
			continue
		}

		values, err := s.client.HGetAll(ctx, iter.Val()).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to read staging key %s: %w", iter.Val(), err)
		}

		claim := &traffic.Claim{Source: s.name, Key: key, CycleID: cycleID}
		s.fill(claim, values)
		claims = append(claims, claim)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan staging keys for %s: %w", key, err)
	}
	return claims, nil
}

// fill parses hash entries into the claim. Fields must be user ids and
// values non-negative integers; anything else is counted and dropped.
func (s *RedisCounterSource) fill(claim *traffic.Claim, values map[string]string) {
	claim.Entries = make(traffic.Deltas, len(values))
	for field, raw := range values {
		userID, err := strconv.ParseUint(field, 10, 0)
		if err != nil || userID == 0 {
			claim.Malformed++
			s.logger.Warnw("ignoring malformed counter field", "key", claim.Key, "field", field, "value", raw)
			continue
		}
		n, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			claim.Malformed++
			s.logger.Warnw("ignoring malformed counter value", "key", claim.Key, "field", field, "value", raw)
			continue
		}
		if n == 0 {
			continue
		}
		claim.Entries.Add(uint(userID), n)
	}
}

// CounterWriter increments live counter hashes the way proxy node reports do.
type CounterWriter struct {
	client redis.UniversalClient
	prefix string
}

// NewCounterWriter creates a writer that targets prefixed keys.
func NewCounterWriter(client redis.UniversalClient, prefix string) *CounterWriter {
	return &CounterWriter{client: client, prefix: prefix}
}

// Increment implements traffic.CounterWriter.
func (w *CounterWriter) Increment(ctx context.Context, key string, deltas traffic.Deltas) error {
	if len(deltas) == 0 {
		return nil
	}

	pipe := w.client.Pipeline()
	for userID, n := range deltas {
		if n == 0 {
			continue
		}
		pipe.HIncrBy(ctx, w.prefix+key, strconv.FormatUint(uint64(userID), 10), utils.SafeUint64ToInt64(n))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to increment %s: %w", key, err)
	}
	return nil
}

func pairsToMap(pairs []string) map[string]string {
	m := make(map[string]string, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		m[pairs[i]] = pairs[i+1]
	}
	return m
}

var globReplacer = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

func escapeGlob(s string) string {
	return globReplacer.Replace(s)
}
