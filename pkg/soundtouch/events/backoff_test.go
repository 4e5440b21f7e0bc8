package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBackoff_Sequence(t *testing.T) {
	b := NewBackoff(BackoffConfig{Initial: time.Second, Max: 5 * time.Second, Multiplier: 2, Jitter: -1})

	var got []time.Duration
	for i := 0; i < 5; i++ {
		got = append(got, b.Next())
	}
	require.Equal(t, []time.Duration{
		1 * time.Second,
		2 * time.Second,
		4 * time.Second,
		5 * time.Second,
		5 * time.Second,
	}, got)
	require.Equal(t, 5, b.Attempts())

	b.Reset()
	require.Zero(t, b.Attempts())
	require.Equal(t, time.Second, b.Next())
}

func TestBackoff_JitterBounds(t *testing.T) {
	b := NewBackoff(BackoffConfig{Initial: 100 * time.Millisecond, Max: 100 * time.Millisecond, Jitter: 0.5})
	for i := 0; i < 50; i++ {
		d := b.Next()
		require.GreaterOrEqual(t, d, 100*time.Millisecond)
		require.LessOrEqual(t, d, 150*time.Millisecond)
	}
}

func TestBackoff_Defaults(t *testing.T) {
	b := NewBackoff(BackoffConfig{})
	require.Equal(t, DefaultBackoffJitter, b.jitter)
	require.Equal(t, DefaultInitialBackoff, b.initial)
	require.Equal(t, DefaultMaxBackoff, b.max)
	require.Equal(t, DefaultBackoffFactor, b.multiplier)

	d := b.Next()
	require.GreaterOrEqual(t, d, DefaultInitialBackoff)
	require.LessOrEqual(t, d, time.Duration(float64(DefaultInitialBackoff)*(1+DefaultBackoffJitter)))
}
