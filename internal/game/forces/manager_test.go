package forces_test

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/game/forces"
)

func newManager(t *testing.T) *forces.Manager {
	t.Helper()
	return forces.NewManager(zap.NewNop(), 50, 10*time.Second)
}

func TestAddForce_RejectsNonFinite(t *testing.T) {
	m := newManager(t)

	assert.False(t, m.AddForce(forces.Force{Kind: forces.Instant, Vector: forces.Vec2{X: math.NaN()}}))
	assert.False(t, m.AddForce(forces.Force{Kind: forces.Instant, Vector: forces.Vec2{Y: math.Inf(1)}}))
	assert.False(t, m.AddForce(forces.Force{Kind: forces.Continuous, Vector: forces.Vec2{X: 1}, Duration: -time.Second}))
	assert.False(t, m.AddForce(forces.Force{Kind: forces.KindUnknown, Vector: forces.Vec2{X: 1}}))
	assert.Equal(t, 0, m.Count())
}

func TestAddForce_ClampsMagnitudeAndLifetime(t *testing.T) {
	m := newManager(t)

	require.True(t, m.AddForce(forces.Force{
		Kind:     forces.Continuous,
		Vector:   forces.Vec2{X: 300},
		Duration: time.Hour,
	}))
	sum := m.Tick(time.Millisecond)
	assert.InDelta(t, 50.0, sum.Len(), 1e-9) // clamped to max speed
}

func TestAddForce_FullTableRefusesLowOrEqualPriority(t *testing.T) {
	m := newManager(t)
	for i := 0; i < forces.MaxForces; i++ {
		require.True(t, m.AddForce(forces.Force{
			Kind: forces.Continuous, Vector: forces.Vec2{X: 1}, Duration: time.Second, Priority: 5,
		}))
	}

	// A 9th force with priority not strictly greater than the lowest is a no-op.
	assert.False(t, m.AddForce(forces.Force{
		Kind: forces.Continuous, Vector: forces.Vec2{X: 1}, Duration: time.Second, Priority: 5,
	}))
	assert.Equal(t, forces.MaxForces, m.Count())
}

func TestAddForce_FullTableEvictsLowestOldest(t *testing.T) {
	m := newManager(t)

	// Two priority-1 forces inserted first, distinguishable by direction,
	// then six priority-9 fillers.
	require.True(t, m.AddForce(forces.Force{Kind: forces.Continuous, Vector: forces.Vec2{X: 10}, Duration: time.Second, Priority: 1}))
	require.True(t, m.AddForce(forces.Force{Kind: forces.Continuous, Vector: forces.Vec2{Y: 10}, Duration: time.Second, Priority: 1}))
	for i := 0; i < forces.MaxForces-2; i++ {
		require.True(t, m.AddForce(forces.Force{Kind: forces.Continuous, Vector: forces.Vec2{X: 1}, Duration: time.Second, Priority: 9}))
	}

	// Higher-priority insert evicts the oldest priority-1 entry (the X one).
	require.True(t, m.AddForce(forces.Force{Kind: forces.Continuous, Vector: forces.Vec2{X: 2}, Duration: time.Second, Priority: 5}))
	assert.Equal(t, forces.MaxForces, m.Count())

	sum := m.Tick(time.Millisecond)
	assert.InDelta(t, 10.0, sum.Y, 1e-9)       // younger priority-1 force survived
	assert.InDelta(t, 6+2.0, sum.X, 1e-9)      // fillers plus the new force, old X-10 gone
}

func TestTick_InstantAppliesOnce(t *testing.T) {
	m := newManager(t)
	require.True(t, m.AddForce(forces.Force{Kind: forces.Instant, Vector: forces.Vec2{X: 5}}))

	sum := m.Tick(16 * time.Millisecond)
	assert.InDelta(t, 5.0, sum.X, 1e-9)

	sum = m.Tick(16 * time.Millisecond)
	assert.Equal(t, 0.0, sum.X)
	assert.Equal(t, 0, m.Count())
}

func TestTick_ContinuousExpires(t *testing.T) {
	m := newManager(t)
	require.True(t, m.AddForce(forces.Force{Kind: forces.Continuous, Vector: forces.Vec2{X: 3}, Duration: 100 * time.Millisecond}))

	sum := m.Tick(60 * time.Millisecond)
	assert.InDelta(t, 3.0, sum.X, 1e-9)
	sum = m.Tick(60 * time.Millisecond)
	assert.InDelta(t, 3.0, sum.X, 1e-9) // still active at tick start
	sum = m.Tick(60 * time.Millisecond)
	assert.Equal(t, 0.0, sum.X) // expired
	assert.Equal(t, 0, m.Count())
}

func TestTick_ImpulseDecaysLinearly(t *testing.T) {
	m := newManager(t)
	curve, err := forces.DecayCurve("linear")
	require.NoError(t, err)
	require.True(t, m.AddForce(forces.Force{
		Kind:     forces.Impulse,
		Vector:   forces.Vec2{X: 10},
		Duration: time.Second,
		Decay:    curve,
	}))

	// First tick: no elapsed time yet, full contribution.
	sum := m.Tick(500 * time.Millisecond)
	assert.InDelta(t, 10.0, sum.X, 1e-6)

	// Halfway through: linear decay leaves half the contribution.
	sum = m.Tick(500 * time.Millisecond)
	assert.InDelta(t, 5.0, sum.X, 1e-6)

	assert.Equal(t, 0, m.Count())
}

func TestDecayCurve_UnknownName(t *testing.T) {
	_, err := forces.DecayCurve("bounce")
	require.Error(t, err)

	for _, name := range []string{"linear", "quad", "cubic", "expo"} {
		fn, err := forces.DecayCurve(name)
		require.NoError(t, err)
		require.NotNil(t, fn)
	}
}
