// Package traffic models pending per-user byte counters and their consumption.
package traffic

import (
	"fmt"

	"github.com/orris-inc/trafficstat/internal/shared/utils"
)

// Direction is upload or download.
type Direction string

const (
	DirectionUpload   Direction = "upload"
	DirectionDownload Direction = "download"
)

// Directions lists both directions in drain order.
var Directions = []Direction{DirectionUpload, DirectionDownload}

func (d Direction) String() string {
	return string(d)
}

func (d Direction) IsValid() bool {
	return d == DirectionUpload || d == DirectionDownload
}

// Deltas maps a user id to a pending byte count for one direction.
type Deltas map[uint]uint64

// Add accumulates n bytes for userID.
func (d Deltas) Add(userID uint, n uint64) {
	d[userID] = utils.SaturatingAdd(d[userID], n)
}

// Merge sums other into d. Entries for the same user from different key
// schemes or connections are added, never replaced.
func (d Deltas) Merge(other Deltas) {
	for userID, n := range other {
		d.Add(userID, n)
	}
}

// Total returns the sum of all entries.
func (d Deltas) Total() uint64 {
	var total uint64
	for _, n := range d {
		total = utils.SaturatingAdd(total, n)
	}
	return total
}

// UserDelta is the combined change applied to one account in a cycle.
type UserDelta struct {
	UserID   uint
	Upload   uint64
	Download uint64
}

func (u UserDelta) IsZero() bool {
	return u.Upload == 0 && u.Download == 0
}

func (u UserDelta) String() string {
	return fmt.Sprintf("user=%d upload=%s download=%s", u.UserID, utils.FormatBytes(u.Upload), utils.FormatBytes(u.Download))
}
