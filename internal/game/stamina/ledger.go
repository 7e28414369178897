// Package stamina tracks a per-actor resource pool with delayed regeneration.
// Costed actions gate on TryConsume; free actions use the same path with a
// zero amount so every gate reads identically.
package stamina

import (
	"fmt"
	"time"
)

// Ledger is one actor's stamina pool.
//
// Invariant: current is always in [0, max]; regeneration resumes only after
// the delay since the last successful paid consume reaches zero.
type Ledger struct {
	current        float64
	max            float64
	regenRate      float64 // stamina restored per second once the delay lapses
	regenDelay     time.Duration
	delayRemaining time.Duration
}

// NewLedger creates a full Ledger.
//
// Postcondition: Returns an error if max <= 0, regenRate < 0, or regenDelay < 0.
func NewLedger(max, regenRate float64, regenDelay time.Duration) (*Ledger, error) {
	if max <= 0 {
		return nil, fmt.Errorf("stamina.NewLedger: max must be > 0, got %v", max)
	}
	if regenRate < 0 {
		return nil, fmt.Errorf("stamina.NewLedger: regen rate must be >= 0, got %v", regenRate)
	}
	if regenDelay < 0 {
		return nil, fmt.Errorf("stamina.NewLedger: regen delay must be >= 0, got %v", regenDelay)
	}
	return &Ledger{current: max, max: max, regenRate: regenRate, regenDelay: regenDelay}, nil
}

// TryConsume deducts amount if the pool covers it and resets the regeneration
// delay; otherwise it deducts nothing and reports failure. A zero amount
// always succeeds and leaves the delay untouched, keeping the gating path
// uniform for actions that are explicitly free.
//
// Precondition: amount must be >= 0.
// Postcondition: On failure Current() is unchanged.
func (l *Ledger) TryConsume(amount float64) bool {
	if amount < 0 {
		return false
	}
	if amount == 0 {
		return true
	}
	if l.current < amount {
		return false
	}
	l.current -= amount
	l.delayRemaining = l.regenDelay
	return true
}

// Tick advances the regeneration timer and, once the delay has lapsed,
// applies rate-based regeneration clamped at the maximum.
//
// Precondition: dt must be >= 0.
func (l *Ledger) Tick(dt time.Duration) {
	if l.delayRemaining > 0 {
		l.delayRemaining -= dt
		if l.delayRemaining > 0 {
			return
		}
		// Remainder of the tick regenerates.
		dt = -l.delayRemaining
		l.delayRemaining = 0
	}
	l.current += l.regenRate * dt.Seconds()
	if l.current > l.max {
		l.current = l.max
	}
}

// Current returns the available stamina.
func (l *Ledger) Current() float64 {
	return l.current
}

// Max returns the pool size.
func (l *Ledger) Max() float64 {
	return l.max
}

// Normalized returns available stamina as a fraction of the maximum, in [0, 1].
// Exposed for UI readouts.
func (l *Ledger) Normalized() float64 {
	return l.current / l.max
}
