package utils

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   uint64
		want string
	}{
		{0, "0 B"},
		{1, "1 B"},
		{1023, "1023 B"},
		{1024, "1 KB"},
		{1536, "1.5 KB"},
		{1024*1024 + 10*1024, "1.01 MB"},
		{5 * 1024 * 1024 * 1024, "5 GB"},
		{3 * 1024 * 1024 * 1024 * 1024, "3 TB"},
		{2048 * 1024 * 1024 * 1024 * 1024, "2048 TB"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatBytes(tt.in))
		})
	}
}

func TestSafeConversions(t *testing.T) {
	assert.Equal(t, int64(math.MaxInt64), SafeUint64ToInt64(math.MaxUint64))
	assert.Equal(t, int64(42), SafeUint64ToInt64(42))
	assert.Equal(t, uint64(0), SafeInt64ToUint64(-1))
	assert.Equal(t, uint64(7), SafeInt64ToUint64(7))
}

func TestSaturatingAdd(t *testing.T) {
	assert.Equal(t, uint64(3), SaturatingAdd(1, 2))
	assert.Equal(t, uint64(math.MaxUint64), SaturatingAdd(math.MaxUint64-1, 5))
}

func TestScaleBytes(t *testing.T) {
	assert.Equal(t, uint64(150), ScaleBytes(100, 1.5))
	assert.Equal(t, uint64(100), ScaleBytes(100, 1))
	assert.Equal(t, uint64(0), ScaleBytes(100, 0))
	assert.Equal(t, uint64(0), ScaleBytes(100, -2))
	assert.Equal(t, uint64(0), ScaleBytes(100, math.NaN()))
}
