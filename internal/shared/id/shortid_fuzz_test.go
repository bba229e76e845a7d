package id

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDrainCycleID(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		cycleID, err := NewDrainCycleID()
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(cycleID, PrefixDrainCycle+"_"))
		assert.True(t, IsDrainCycleID(cycleID), cycleID)
		seen[cycleID] = struct{}{}
	}
	assert.Len(t, seen, 100)
}

func TestIsDrainCycleID(t *testing.T) {
	assert.False(t, IsDrainCycleID(""))
	assert.False(t, IsDrainCycleID("dc_short"))
	assert.False(t, IsDrainCycleID("xx_ABCDEFGHIJKL"))
	assert.False(t, IsDrainCycleID("dc_ABCDEF-HIJKL"))
	assert.True(t, IsDrainCycleID("dc_ABCDEFGHIJKL"))
}

// FuzzParsePrefixedID tests the ParsePrefixedID function with random inputs
func FuzzParsePrefixedID(f *testing.F) {
	seeds := []string{
		"dc_xK9mP2vL3nQ",
		"",
		"nounderscore",
		"_leadingunderscore",
		"trailing_",
		"multiple_under_scores_here",
		"中文_测试",
		strings.Repeat("a", 1000) + "_" + strings.Repeat("b", 1000),
	}

	for _, seed := range seeds {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, input string) {
		if !utf8.ValidString(input) {
			return
		}

		prefix, shortID, err := ParsePrefixedID(input)

		if !strings.Contains(input, "_") {
			if err == nil {
				t.Errorf("ParsePrefixedID(%q) should return error for input without underscore", input)
			}
			return
		}

		if err == nil {
			if !strings.HasPrefix(input, prefix+"_") {
				t.Errorf("ParsePrefixedID(%q) returned prefix=%q which doesn't match input", input, prefix)
			}
			parts := strings.SplitN(input, "_", 2)
			if len(parts) == 2 && shortID != parts[1] {
				t.Errorf("ParsePrefixedID(%q) returned shortID=%q, expected %q", input, shortID, parts[1])
			}
		}
	})
}
