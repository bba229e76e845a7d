package drain

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/orris-inc/trafficstat/internal/application/traffic/usecases"
	"github.com/orris-inc/trafficstat/internal/domain/traffic"
)

func TestPrintResult(t *testing.T) {
	cmd := NewCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)

	printResult(cmd, &usecases.DrainResult{
		CycleID:      "abc",
		Applied:      []traffic.UserDelta{{UserID: 1, Upload: 1024}},
		SkippedUsers: []uint{9},
		Upload:       1024,
		Download:     0,
		Malformed:    2,
	})

	out := buf.String()
	assert.Contains(t, out, "cycle abc: 1 users")
	assert.Contains(t, out, "skipped unknown users: [9]")
	assert.Contains(t, out, "dropped malformed fields: 2")
}

func TestPrintResult_Empty(t *testing.T) {
	cmd := NewCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)

	printResult(cmd, &usecases.DrainResult{Empty: true, OrphansRestored: 1})

	assert.Contains(t, buf.String(), "orphan claims: 0 acknowledged, 1 restored")
	assert.Contains(t, buf.String(), "nothing to drain")
}
