package valueobjects

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSubscriptionStatus(t *testing.T) {
	for _, s := range []string{"active", "cancelled", "past_due"} {
		status, err := ParseSubscriptionStatus(s)
		require.NoError(t, err)
		assert.Equal(t, s, status.String())
	}

	_, err := ParseSubscriptionStatus("expired")
	assert.Error(t, err)
}

func TestExecutionPath(t *testing.T) {
	p, err := ParseExecutionPath("")
	require.NoError(t, err)
	assert.Equal(t, PathAuto, p)
	assert.Equal(t, PathRelay, p.Resolve())

	p, err = ParseExecutionPath("direct")
	require.NoError(t, err)
	assert.Equal(t, PathDirect, p.Resolve())

	assert.Equal(t, PathRelay, PathRelay.Resolve())

	_, err = ParseExecutionPath("bridge")
	assert.Error(t, err)
}
