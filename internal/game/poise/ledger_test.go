package poise_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/skirmish/internal/game/poise"
)

func newLedger(t *testing.T, max float64) *poise.Ledger {
	t.Helper()
	l, err := poise.NewLedger(max, 2*time.Second, 10)
	require.NoError(t, err)
	return l
}

func TestNewLedger_RejectsBadArguments(t *testing.T) {
	_, err := poise.NewLedger(0, time.Second, 1)
	require.Error(t, err)
	_, err = poise.NewLedger(100, -time.Second, 1)
	require.Error(t, err)
	_, err = poise.NewLedger(100, time.Second, -1)
	require.Error(t, err)
}

func TestApplyPoiseDamage_BreakAtExactSum(t *testing.T) {
	l := newLedger(t, 100)

	// Repeated applications summing to exactly the maximum trigger exactly
	// one break, and the ledger reads zero immediately after.
	broke := l.ApplyPoiseDamage(40, 0)
	assert.False(t, broke)
	broke = l.ApplyPoiseDamage(40, time.Second)
	assert.False(t, broke)
	broke = l.ApplyPoiseDamage(20, 2*time.Second)
	assert.True(t, broke)
	assert.Equal(t, 0.0, l.Current())

	// Immediate re-application starts from zero.
	broke = l.ApplyPoiseDamage(40, 2*time.Second)
	assert.False(t, broke)
	assert.Equal(t, 40.0, l.Current())
}

func TestApplyPoiseDamage_NegativeClamped(t *testing.T) {
	l := newLedger(t, 100)
	l.ApplyPoiseDamage(-50, 0)
	assert.Equal(t, 0.0, l.Current())
}

func TestApplyPoiseDamage_Property_NeverNegativeSingleBreak(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		max := rapid.Float64Range(1, 500).Draw(rt, "max")
		l, err := poise.NewLedger(max, time.Second, 5)
		require.NoError(rt, err)

		hits := rapid.SliceOfN(rapid.Float64Range(0, 200), 1, 20).Draw(rt, "hits")
		breaks := 0
		running := 0.0
		for i, h := range hits {
			if l.ApplyPoiseDamage(h, time.Duration(i)*time.Millisecond) {
				breaks++
				running = 0
			} else {
				running += h
			}
			assert.GreaterOrEqual(rt, l.Current(), 0.0)
			assert.Less(rt, l.Current(), max)
		}
		_ = running
	})
}

func TestTick_DecayOnlyAfterGrace(t *testing.T) {
	l, err := poise.NewLedger(100, 2*time.Second, 10)
	require.NoError(t, err)

	l.ApplyPoiseDamage(50, 0)

	// Inside the grace window: no decay.
	l.Tick(time.Second, time.Second)
	assert.Equal(t, 50.0, l.Current())

	// Past the grace window: rate-based decay, 10 per second.
	l.Tick(time.Second, 3*time.Second)
	assert.InDelta(t, 40.0, l.Current(), 1e-9)

	// Decay floors at zero.
	l.Tick(time.Minute, 4*time.Minute)
	assert.Equal(t, 0.0, l.Current())
}

func TestResetPoise(t *testing.T) {
	l := newLedger(t, 100)
	l.ApplyPoiseDamage(70, 0)
	l.ResetPoise()
	assert.Equal(t, 0.0, l.Current())
}

func TestNormalized(t *testing.T) {
	l := newLedger(t, 200)
	l.ApplyPoiseDamage(50, 0)
	assert.InDelta(t, 0.25, l.Normalized(), 1e-9)
}
