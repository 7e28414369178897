// Package clock provides the monotonic simulation time source shared by the
// combat core. Simulation time is a time.Duration measured from arena start,
// advanced only by the simulation loop; components read it, never write it.
package clock

import "time"

// Clock holds the current simulation time.
//
// Invariant: Now() never decreases.
type Clock struct {
	now time.Duration
}

// New returns a Clock at simulation time zero.
func New() *Clock {
	return &Clock{}
}

// Now returns the current simulation time.
func (c *Clock) Now() time.Duration {
	return c.now
}

// Advance moves simulation time forward by dt.
//
// Precondition: dt must be >= 0.
func (c *Clock) Advance(dt time.Duration) {
	if dt < 0 {
		panic("clock.Advance: dt must be >= 0")
	}
	c.now += dt
}

// Accumulator converts variable frame deltas into a whole number of
// fixed-duration physics steps.
type Accumulator struct {
	step    time.Duration
	pending time.Duration
}

// NewAccumulator creates an Accumulator with the given fixed step.
//
// Precondition: step must be > 0.
func NewAccumulator(step time.Duration) *Accumulator {
	if step <= 0 {
		panic("clock.NewAccumulator: step must be > 0")
	}
	return &Accumulator{step: step}
}

// Step returns the fixed step duration.
func (a *Accumulator) Step() time.Duration {
	return a.step
}

// Steps accrues dt and returns the number of fixed steps now due.
// The remainder below one step is carried into the next call.
//
// Precondition: dt must be >= 0.
// Postcondition: Returns >= 0.
func (a *Accumulator) Steps(dt time.Duration) int {
	if dt < 0 {
		panic("clock.Accumulator.Steps: dt must be >= 0")
	}
	a.pending += dt
	n := int(a.pending / a.step)
	a.pending -= time.Duration(n) * a.step
	return n
}
