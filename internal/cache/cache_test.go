package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRgCommandIDDeterministic(t *testing.T) {
	a := NewRgCommand("/some/project")
	b := NewRgCommand("/some/project")
	c := NewRgCommand("/other/project")

	assert.Equal(t, a.ID(), b.ID())
	assert.NotEqual(t, a.ID(), c.ID())
}

func TestPathForIsStablePerDirectory(t *testing.T) {
	p1, err := PathFor("/some/project")
	require.NoError(t, err)
	p2, err := PathFor("/some/project")
	require.NoError(t, err)
	p3, err := PathFor("/other/project")
	require.NoError(t, err)

	assert.Equal(t, p1, p2)
	assert.NotEqual(t, p1, p3)
}

func TestDigestMissingCache(t *testing.T) {
	_, _, ok := Digest("/definitely/not/warmed/up")
	assert.False(t, ok)
}
