package traffic

import (
	"context"
	"strings"
)

// claimMarker separates a live key from the cycle id in a staging key.
const claimMarker = ":claim:"

// StagingKey names the key a live counter hash is moved to while a cycle
// holds it.
func StagingKey(key, cycleID string) string {
	return key + claimMarker + cycleID
}

// ParseStagingKey splits a staging key back into the live key and cycle id.
func ParseStagingKey(stagingKey string) (key, cycleID string, ok bool) {
	i := strings.LastIndex(stagingKey, claimMarker)
	if i <= 0 || i+len(claimMarker) >= len(stagingKey) {
		return "", "", false
	}
	return stagingKey[:i], stagingKey[i+len(claimMarker):], true
}

// Claim is the set of entries a cycle took out of one counter hash on one
// source. Until it is acked or restored the bytes live only in the staging key.
type Claim struct {
	Source    string
	Key       string
	CycleID   string
	Entries   Deltas
	Malformed int
}

// IsEmpty reports whether the claim carries no bytes to apply.
func (c *Claim) IsEmpty() bool {
	return c == nil || len(c.Entries) == 0
}

// CounterSource is one path to the counter store. Sources are consulted in
// order and their results summed.
type CounterSource interface {
	// Name identifies the source in logs and ledger rows.
	Name() string

	// Optional sources may fail without failing the cycle.
	Optional() bool

	// Claim atomically moves the live hash key into the staging key for
	// cycleID and returns its entries. A missing key, or one whose staging
	// key for cycleID already exists, yields an empty claim.
	Claim(ctx context.Context, key, cycleID string) (*Claim, error)

	// Ack discards a claim whose bytes were committed.
	Ack(ctx context.Context, claim *Claim) error

	// Restore adds a claim's entries back onto the live key and discards the
	// staging key.
	Restore(ctx context.Context, claim *Claim) error

	// Orphans returns claims on key left behind by cycles that never
	// acked or restored them.
	Orphans(ctx context.Context, key string) ([]*Claim, error)
}

// CounterWriter increments live counters, as proxy node reports do.
type CounterWriter interface {
	Increment(ctx context.Context, key string, deltas Deltas) error
}
