package setutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUintSet(t *testing.T) {
	s := NewUintSetWithCap(4)
	assert.Equal(t, 0, s.Len())

	s.Add(3)
	s.Add(1)
	s.Add(3)
	AddKeys(s, map[uint]uint64{2: 10, 1: 5})

	assert.Equal(t, 3, s.Len())
	assert.True(t, s.Has(2))
	assert.False(t, s.Has(9))
	assert.Equal(t, []uint{1, 2, 3}, s.Sorted())
}

func TestUintSetEmptySorted(t *testing.T) {
	assert.Empty(t, NewUintSetWithCap(0).Sorted())
}
