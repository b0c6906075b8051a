package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestLimiter(window time.Duration, max int) (*Limiter, *time.Time) {
	l := NewLimiter(window, max)
	current := time.Date(2024, 6, 3, 14, 30, 0, 0, time.UTC)
	l.now = func() time.Time { return current }
	return l, &current
}

func TestLimiter_SlidingWindow(t *testing.T) {
	l, current := newTestLimiter(time.Second, 3)

	require.True(t, l.CanMakeRequest("k"))
	require.True(t, l.CanMakeRequest("k"))
	require.True(t, l.CanMakeRequest("k"))
	require.False(t, l.CanMakeRequest("k"))

	*current = current.Add(1001 * time.Millisecond)
	require.True(t, l.CanMakeRequest("k"))
}

func TestLimiter_KeysAreIndependent(t *testing.T) {
	l, _ := newTestLimiter(time.Minute, 2)

	require.True(t, l.CanMakeRequest("brokerage-user1-acc1"))
	require.True(t, l.CanMakeRequest("brokerage-user1-acc1"))
	require.False(t, l.CanMakeRequest("brokerage-user1-acc1"))

	require.True(t, l.CanMakeRequest("brokerage-user1-acc2"))
	require.True(t, l.CanMakeRequest("brokerage-user2-acc1"))
}

func TestLimiter_TimeUntilReset(t *testing.T) {
	t.Run("unknown key resets immediately", func(t *testing.T) {
		l, _ := newTestLimiter(time.Minute, 5)
		require.Equal(t, time.Duration(0), l.TimeUntilReset("never-seen"))
	})

	t.Run("tracks oldest in-window request", func(t *testing.T) {
		l, current := newTestLimiter(time.Minute, 5)
		require.True(t, l.CanMakeRequest("k"))

		*current = current.Add(20 * time.Second)
		require.Equal(t, 40*time.Second, l.TimeUntilReset("k"))
	})

	t.Run("fully elapsed window behaves fresh", func(t *testing.T) {
		l, current := newTestLimiter(time.Minute, 1)
		require.True(t, l.CanMakeRequest("k"))
		require.False(t, l.CanMakeRequest("k"))

		*current = current.Add(61 * time.Second)
		require.Equal(t, time.Duration(0), l.TimeUntilReset("k"))
		require.True(t, l.CanMakeRequest("k"))
	})
}

func TestLimiter_ZeroMaxAlwaysRejects(t *testing.T) {
	l, _ := newTestLimiter(time.Minute, 0)
	require.False(t, l.CanMakeRequest("k"))
	require.False(t, l.CanMakeRequest("k"))
}

func TestLimiter_Snapshot(t *testing.T) {
	l, current := newTestLimiter(time.Second, 10)
	require.Equal(t, 0, l.Snapshot("k"))

	l.CanMakeRequest("k")
	l.CanMakeRequest("k")
	require.Equal(t, 2, l.Snapshot("k"))

	*current = current.Add(2 * time.Second)
	require.Equal(t, 0, l.Snapshot("k"))
}
