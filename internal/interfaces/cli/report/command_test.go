package report

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTraffic(t *testing.T) {
	traffic, err := parseTraffic(strings.NewReader(`{"1":[1024,4096],"42":[0,7]}`))
	require.NoError(t, err)
	assert.Equal(t, map[uint][2]uint64{
		1:  {1024, 4096},
		42: {0, 7},
	}, traffic)
}

func TestParseTraffic_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `hello`},
		{"non numeric user", `{"abc":[1,2]}`},
		{"zero user", `{"0":[1,2]}`},
		{"negative bytes", `{"1":[-1,2]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseTraffic(strings.NewReader(tt.body))
			assert.Error(t, err)
		})
	}
}

func TestNewCommandRequiresServer(t *testing.T) {
	cmd := NewCommand()
	cmd.SetArgs([]string{"--rate", "2"})
	cmd.SetIn(strings.NewReader(`{}`))
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server-id")
}
