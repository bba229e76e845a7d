// Package biztime provides business timezone day boundaries.
// Storage uses UTC epoch seconds. The business timezone only decides where a
// calendar day starts and ends; statistics periods are always computed here
// first and then converted to UTC for queries.
package biztime

import (
	"fmt"
	"sync"
	"time"
)

const (
	// DefaultTimezone is the default business timezone.
	DefaultTimezone = "Asia/Shanghai"

	// DateLayout is the layout accepted by ParseDate.
	DateLayout = "2006-01-02"
)

var (
	bizLocation     *time.Location
	bizLocationOnce sync.Once
	initErr         error
)

// Init initializes the business timezone. Should be called once at startup.
// If tz is empty, defaults to Asia/Shanghai.
func Init(tz string) error {
	bizLocationOnce.Do(func() {
		if tz == "" {
			tz = DefaultTimezone
		}
		bizLocation, initErr = time.LoadLocation(tz)
	})
	return initErr
}

// MustInit initializes the business timezone and panics on error.
func MustInit(tz string) {
	if err := Init(tz); err != nil {
		panic(fmt.Sprintf("failed to initialize business timezone %q: %v", tz, err))
	}
}

// Location returns the business timezone location, initializing the default
// timezone on first use.
func Location() *time.Location {
	if bizLocation == nil {
		if err := Init(""); err != nil {
			panic(fmt.Sprintf("biztime: failed to auto-initialize with default timezone: %v", err))
		}
	}
	return bizLocation
}

// NowUTC returns current time in UTC.
func NowUTC() time.Time {
	return time.Now().UTC()
}

// StartOfDayUTC returns business midnight of the day containing t, in UTC.
func StartOfDayUTC(t time.Time) time.Time {
	bizTime := t.In(Location())
	startOfDay := time.Date(bizTime.Year(), bizTime.Month(), bizTime.Day(), 0, 0, 0, 0, Location())
	return startOfDay.UTC()
}

// NextDayStartUTC returns business midnight of the day after the one containing t.
// AddDate is applied in the business location so DST days keep their real length.
func NextDayStartUTC(t time.Time) time.Time {
	start := StartOfDayUTC(t).In(Location())
	return start.AddDate(0, 0, 1).UTC()
}

// PreviousDayStartUTC returns business midnight of the day before the one containing t.
func PreviousDayStartUTC(t time.Time) time.Time {
	start := StartOfDayUTC(t).In(Location())
	return start.AddDate(0, 0, -1).UTC()
}

// ParseDate parses YYYY-MM-DD as business midnight and returns the UTC equivalent.
func ParseDate(dateStr string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, dateStr, Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date format %q: %w", dateStr, err)
	}
	return t.UTC(), nil
}

// FormatDate formats t as the business calendar date.
func FormatDate(t time.Time) string {
	return t.In(Location()).Format(DateLayout)
}

// FromUnix converts epoch seconds back into a UTC time.
func FromUnix(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}
