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

func TestIsRelease(t *testing.T) {
	old := Version
	defer func() { Version = old }()

	Version = "dev"
	assert.False(t, IsRelease())
	assert.Equal(t, "dev", Current())

	Version = "0.3.1"
	assert.True(t, IsRelease())
	assert.Equal(t, "v0.3.1", Current())

	Version = "v1.2"
	assert.Equal(t, "v1.2.0", Current())
}
