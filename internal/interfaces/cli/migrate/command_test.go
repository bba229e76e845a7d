package migrate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCommandSubcommands(t *testing.T) {
	cmd := NewCommand()

	names := make([]string, 0, len(cmd.Commands()))
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"up", "down", "status"}, names)
	assert.NotNil(t, cmd.PersistentFlags().Lookup("config"))
}

func TestDownRejectsNonPositiveSteps(t *testing.T) {
	cmd := NewCommand()
	cmd.SetArgs([]string{"down", "--steps", "0"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--steps must be positive")
}
