package tle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorePutAndLookup(t *testing.T) {
	s := NewStore()
	assert.Nil(t, s.Get())
	assert.Equal(t, -1.0, s.AgeSeconds())

	s.Put(&History{Label: "b"})
	before := s.Get()
	s.Put(&History{Label: "a"})

	require.NotNil(t, s.Get())
	assert.Equal(t, []string{"a", "b"}, s.Get().Labels())
	// Earlier snapshots are not mutated.
	assert.Equal(t, []string{"b"}, before.Labels())

	h, ok := s.Lookup("a")
	require.True(t, ok)
	assert.Equal(t, "a", h.Label)

	_, ok = s.Lookup("zzz")
	assert.False(t, ok)
	assert.GreaterOrEqual(t, s.AgeSeconds(), 0.0)
}
