package rollup

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewCommandFlags(t *testing.T) {
	cmd := NewCommand()

	flag := cmd.Flags().Lookup("date")
	if assert.NotNil(t, flag) {
		assert.Equal(t, "d", flag.Shorthand)
		assert.Equal(t, "", flag.DefValue)
	}
	assert.NotNil(t, cmd.PersistentFlags().Lookup("env"))
}
