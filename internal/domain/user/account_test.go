package user

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconstructAccount(t *testing.T) {
	_, err := ReconstructAccount(0, "a@example.com", 0, 0, 0, 0, nil, 0)
	assert.Error(t, err)

	inviter := uint(7)
	a, err := ReconstructAccount(3, "a@example.com", 100, 200, 1700000000, 1000, &inviter, 1690000000)
	require.NoError(t, err)
	assert.Equal(t, uint(3), a.ID())
	assert.Equal(t, uint64(300), a.Used())
	assert.Equal(t, &inviter, a.InviteUserID())
	assert.False(t, a.OverQuota())
}

func TestAccountOverQuota(t *testing.T) {
	tests := []struct {
		name     string
		u, d     uint64
		quota    uint64
		expected bool
	}{
		{"unlimited", 500, 500, 0, false},
		{"below", 100, 100, 1000, false},
		{"exact", 500, 500, 1000, true},
		{"saturated", math.MaxUint64, 1, math.MaxUint64, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := ReconstructAccount(1, "", tt.u, tt.d, 0, tt.quota, nil, 0)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, a.OverQuota())
		})
	}
}
