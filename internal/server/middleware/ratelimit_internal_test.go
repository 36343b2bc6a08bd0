package middleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiterSet_SweepDropsIdleBuckets(t *testing.T) {
	t.Parallel()

	// IdleTTL of zero disables the background loop; sweep is driven by hand.
	set := newLimiterSet[string](t.Context(), Limits{RPS: 1, Burst: 1})
	set.limits.IdleTTL = 30 * time.Minute

	start := time.Now()
	ok, _ := set.reserve("10.0.0.1", start)
	require.True(t, ok)
	ok, _ = set.reserve("10.0.0.2", start.Add(20*time.Minute))
	require.True(t, ok)

	set.sweep(start.Add(40 * time.Minute))

	assert.Equal(t, 1, set.size())

	// The surviving bucket keeps its state.
	ok, wait := set.reserve("10.0.0.2", start.Add(20*time.Minute))
	assert.False(t, ok)
	assert.Positive(t, wait)
}

func TestLimiterSet_RefillsOverTime(t *testing.T) {
	t.Parallel()

	set := newLimiterSet[string](t.Context(), Limits{RPS: 1, Burst: 1})

	now := time.Now()
	ok, _ := set.reserve("k", now)
	require.True(t, ok)

	ok, wait := set.reserve("k", now)
	require.False(t, ok)
	assert.InDelta(t, time.Second, wait, float64(10*time.Millisecond))

	ok, _ = set.reserve("k", now.Add(time.Second))
	assert.True(t, ok)
}
