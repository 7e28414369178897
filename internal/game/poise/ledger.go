// Package poise tracks per-actor stagger resistance. Poise damage accumulates
// until it reaches the actor's maximum, at which point the ledger signals a
// break and resets in the same call.
package poise

import (
	"fmt"
	"time"
)

// Ledger accumulates poise damage for one actor.
//
// Invariant: current is always in [0, max]; a break and its reset are atomic
// from the caller's perspective.
type Ledger struct {
	current   float64
	max       float64
	lastHit   time.Duration
	everHit   bool
	grace     time.Duration
	decayRate float64 // poise damage removed per second once the grace window lapses
}

// NewLedger creates a Ledger with the given maximum, decay grace window and
// decay rate.
//
// Postcondition: Returns an error if max <= 0, grace < 0, or decayRate < 0.
func NewLedger(max float64, grace time.Duration, decayRate float64) (*Ledger, error) {
	if max <= 0 {
		return nil, fmt.Errorf("poise.NewLedger: max must be > 0, got %v", max)
	}
	if grace < 0 || decayRate < 0 {
		return nil, fmt.Errorf("poise.NewLedger: negative grace (%v) or decay rate (%v)", grace, decayRate)
	}
	return &Ledger{max: max, grace: grace, decayRate: decayRate}, nil
}

// ApplyPoiseDamage adds amount to the running total and reports whether poise
// broke. When the total reaches or exceeds the maximum the ledger resets to
// zero as part of the same call; a caller never observes a post-break,
// pre-reset value. Negative amounts are clamped to zero.
//
// Postcondition: Current() >= 0; returns true exactly once per accumulation
// that reaches the maximum.
func (l *Ledger) ApplyPoiseDamage(amount float64, now time.Duration) (broke bool) {
	if amount < 0 {
		amount = 0
	}
	l.lastHit = now
	l.everHit = true
	l.current += amount
	if l.current >= l.max {
		l.current = 0
		return true
	}
	return false
}

// ResetPoise clears accumulated poise damage. Called by stagger-recovery
// completion in addition to the automatic reset on break.
//
// Postcondition: Current() == 0.
func (l *Ledger) ResetPoise() {
	l.current = 0
}

// Tick applies rate-based decay toward zero when no hit has landed within the
// grace window. Decay is never instantaneous.
//
// Precondition: dt must be >= 0.
func (l *Ledger) Tick(dt time.Duration, now time.Duration) {
	if l.current <= 0 {
		return
	}
	if l.everHit && now-l.lastHit < l.grace {
		return
	}
	l.current -= l.decayRate * dt.Seconds()
	if l.current < 0 {
		l.current = 0
	}
}

// Current returns the accumulated poise damage.
func (l *Ledger) Current() float64 {
	return l.current
}

// Max returns the break threshold.
func (l *Ledger) Max() float64 {
	return l.max
}

// Normalized returns accumulated poise damage as a fraction of the maximum,
// in [0, 1]. Exposed for UI readouts.
func (l *Ledger) Normalized() float64 {
	return l.current / l.max
}
