package session

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(at time.Time) Clock {
	return Clock{Now: func() time.Time { return at }}
}

func TestClockExpiredWhenKeyMissing(t *testing.T) {
	store, err := NewStore(filepath.Join(t.TempDir(), "s.json"))
	require.NoError(t, err)

	clock := fixedClock(time.Now())
	assert.True(t, clock.Expired(store))
}

func TestClockExpiredAtAndAfterDeadline(t *testing.T) {
	store, err := NewStore(filepath.Join(t.TempDir(), "s.json"))
	require.NoError(t, err)

	deadline := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.SetExpirationTime(deadline.UnixMilli()))

	assert.False(t, fixedClock(deadline.Add(-time.Minute)).Expired(store))
	assert.True(t, fixedClock(deadline).Expired(store), "exactly at the deadline counts as expired")
	assert.True(t, fixedClock(deadline.Add(time.Minute)).Expired(store))
}

func TestClockExpiredOnUnreadableValue(t *testing.T) {
	store, err := NewStore(filepath.Join(t.TempDir(), "s.json"))
	require.NoError(t, err)
	require.NoError(t, store.Set(KeyExpirationTime, "garbage"))

	assert.True(t, fixedClock(time.Now()).Expired(store))
}

func TestClockDefaultsToWallClock(t *testing.T) {
	store, err := NewStore(filepath.Join(t.TempDir(), "s.json"))
	require.NoError(t, err)
	require.NoError(t, store.SetExpirationTime(time.Now().Add(time.Hour).UnixMilli()))

	var clock Clock
	assert.False(t, clock.Expired(store))
}
