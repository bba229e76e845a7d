package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "v1.2.3", Normalize("1.2.3"))
	assert.Equal(t, "v1.2.3", Normalize(" v1.2.3 "))
	assert.Equal(t, "", Normalize(""))
}

func TestString(t *testing.T) {
	orig := Current
	t.Cleanup(func() { Current = orig })

	Current = "dev"
	assert.Equal(t, "dev", String())
	assert.False(t, IsRelease())

	Current = "1.4"
	assert.Equal(t, "v1.4.0", String())
	assert.True(t, IsRelease())

	Current = "v2.0.0-rc.1"
	assert.Equal(t, "v2.0.0-rc.1", String())
	assert.False(t, IsRelease())
}
