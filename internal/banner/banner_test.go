package banner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoard_ExpiresAfterTTL(t *testing.T) {
	now := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	b := NewBoard(5 * time.Second)
	b.now = func() time.Time { return now }

	_, ok := b.Current()
	assert.False(t, ok)

	b.Error("Failed to create/update student. Please try again.")
	got, ok := b.Current()
	require.True(t, ok)
	assert.Equal(t, Error, got.Kind)

	now = now.Add(4 * time.Second)
	_, ok = b.Current()
	assert.True(t, ok)

	now = now.Add(time.Second)
	_, ok = b.Current()
	assert.False(t, ok)
}

func TestBoard_LatestWins(t *testing.T) {
	b := NewBoard(time.Minute)
	b.Error("first")
	b.Success("second")
	got, ok := b.Current()
	require.True(t, ok)
	assert.Equal(t, "second", got.Message)
	assert.Equal(t, Success, got.Kind)

	b.Dismiss()
	_, ok = b.Current()
	assert.False(t, ok)
}
