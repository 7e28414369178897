package ai

import (
	"time"

	"github.com/cory-johannsen/skirmish/internal/game/intent"
)

// PatternStep is one beat of a scripted cadence.
type PatternStep struct {
	Kind intent.Kind
	// MinStamina gates the step: below this normalized stamina the driver
	// skips its beat and waits for the next one.
	MinStamina float64
}

// PatternDriver is the reference Driver: a fixed cadence of steps pushed in
// rotation while the target is in range, plus a reactive parry attempt when
// its own health drops low. It carries no memory of the fight beyond the
// rotation index.
type PatternDriver struct {
	buf     Pusher
	cadence time.Duration
	steps   []PatternStep

	next     time.Duration
	step     int
	parryAt  float64
	lastHP   float64
}

// NewPatternDriver builds a driver over the actor's intent buffer. A nil or
// empty step list falls back to a light attack rotation.
//
// Precondition: buf must not be nil; cadence must be positive.
func NewPatternDriver(buf Pusher, cadence time.Duration, steps []PatternStep) *PatternDriver {
	if buf == nil {
		panic("ai.NewPatternDriver: buf must not be nil")
	}
	if cadence <= 0 {
		panic("ai.NewPatternDriver: cadence must be positive")
	}
	if len(steps) == 0 {
		steps = []PatternStep{
			{Kind: intent.LightAttack, MinStamina: 0.2},
			{Kind: intent.LightAttack, MinStamina: 0.2},
			{Kind: intent.HeavyAttack, MinStamina: 0.4},
		}
	}
	return &PatternDriver{
		buf:     buf,
		cadence: cadence,
		steps:   steps,
		parryAt: 0.3,
		lastHP:  1,
	}
}

// Act pushes the next pattern step when the cadence elapses and the target is
// in range. Taking damage below the parry threshold queues a parry attempt
// regardless of cadence.
func (d *PatternDriver) Act(now time.Duration, view View) {
	if view.SelfHealthNorm < d.lastHP && view.SelfHealthNorm <= d.parryAt {
		d.buf.Push(intent.Parry, intent.Direction{})
	}
	d.lastHP = view.SelfHealthNorm

	if !view.TargetInRange {
		// The chase state handles closing distance; hold the rotation.
		d.next = now + d.cadence
		return
	}
	if now < d.next {
		return
	}
	step := d.steps[d.step%len(d.steps)]
	if view.SelfStaminaNorm < step.MinStamina {
		d.next = now + d.cadence
		return
	}
	dir := intent.Direction{X: view.TargetDirection.X, Y: view.TargetDirection.Y}
	d.buf.Push(step.Kind, dir)
	d.step++
	d.next = now + d.cadence
}
