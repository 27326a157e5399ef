package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFakeAdvance(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	f := NewFake(start)
	require.Equal(t, start, f.Now())

	f.Advance(time.Hour)
	require.Equal(t, start.Add(time.Hour), f.Now())

	later := start.Add(24 * time.Hour)
	f.Set(later)
	require.Equal(t, later, f.Now())
}

func TestSystemClockMonotonicEnough(t *testing.T) {
	var s System
	a := s.Now()
	b := s.Now()
	require.False(t, b.Before(a))
}
