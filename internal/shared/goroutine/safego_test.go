package goroutine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/orris-inc/trafficstat/internal/testutil"
)

func TestRunSafe(t *testing.T) {
	log := testutil.NewMockLogger()

	assert.NoError(t, RunSafe(log, "ok", func() error { return nil }))

	boom := errors.New("boom")
	assert.ErrorIs(t, RunSafe(log, "fails", func() error { return boom }), boom)

	err := RunSafe(log, "panics", func() error { panic("kaboom") })
	assert.EqualError(t, err, "panics panicked: kaboom")
	assert.True(t, log.HasMessage("ERROR", "job panicked"))
}
