package biztime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDayBoundaries(t *testing.T) {
	require.NoError(t, Init(DefaultTimezone))

	// 2024-03-10 01:30 in Asia/Shanghai is 2024-03-09 17:30 UTC.
	ts := time.Date(2024, 3, 9, 17, 30, 0, 0, time.UTC)

	start := StartOfDayUTC(ts)
	assert.Equal(t, time.Date(2024, 3, 9, 16, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2024, 3, 10, 16, 0, 0, 0, time.UTC), NextDayStartUTC(ts))
	assert.Equal(t, time.Date(2024, 3, 8, 16, 0, 0, 0, time.UTC), PreviousDayStartUTC(ts))
	assert.Equal(t, "2024-03-10", FormatDate(ts))
}

func TestParseDate(t *testing.T) {
	require.NoError(t, Init(DefaultTimezone))

	got, err := ParseDate("2024-01-02")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 1, 16, 0, 0, 0, time.UTC), got)
	assert.Equal(t, got, StartOfDayUTC(got))

	_, err = ParseDate("02/01/2024")
	assert.Error(t, err)
}

func TestFromUnix(t *testing.T) {
	ts := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, ts, FromUnix(ts.Unix()))
}
