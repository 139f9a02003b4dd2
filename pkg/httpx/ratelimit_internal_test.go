package httpx

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBucketSetEvictsIdleKeys(t *testing.T) {
	t.Parallel()

	now := time.Unix(1_700_000_000, 0)
	s := newBucketSet(RateLimitConfig{RequestsPerWindow: 1, Window: time.Minute, Burst: 1})
	s.now = func() time.Time { return now }
	s.lastSweep = now

	ok, _ := s.reserve("a")
	require.True(t, ok)
	ok, delay := s.reserve("a")
	require.False(t, ok)
	require.Positive(t, delay)
	require.LessOrEqual(t, delay, time.Minute)

	now = now.Add(30 * time.Second)
	ok, _ = s.reserve("b")
	require.True(t, ok)
	require.Len(t, s.buckets, 2)

	now = now.Add(45 * time.Second)
	ok, _ = s.reserve("b")
	require.False(t, ok, "b was used 45s ago and has not refilled")
	require.Len(t, s.buckets, 1, "a has been idle past a full refill")
}
