// Package timing grades defensive actions against their reaction windows.
package timing

import (
	"fmt"
	"time"
)

// Grade is the quality of a timed action relative to its window.
// The zero value (GradeUnknown) is intentionally invalid.
type Grade int

const (
	GradeUnknown Grade = iota // zero value; intentionally invalid
	Perfect                   // inside the perfect phase
	Partial                   // after the perfect phase, inside the window
	Expired                   // outside the window
)

// String returns the human-readable grade label.
func (g Grade) String() string {
	switch g {
	case Perfect:
		return "perfect"
	case Partial:
		return "partial"
	case Expired:
		return "expired"
	default:
		return "unknown"
	}
}

// Evaluate grades elapsed time against a window.
// Perfect iff elapsed <= perfectPhase; Partial iff perfectPhase < elapsed <= duration;
// Expired otherwise. Boundary cases: elapsed == perfectPhase is Perfect,
// elapsed == duration is Partial.
//
// Evaluate is a pure function: no state, no side effects, safe to call any
// number of times per frame.
//
// Precondition: perfectPhase <= duration; now >= start.
func Evaluate(start, duration, perfectPhase, now time.Duration) Grade {
	elapsed := now - start
	switch {
	case elapsed <= perfectPhase:
		return Perfect
	case elapsed <= duration:
		return Partial
	default:
		return Expired
	}
}

// Window is an active reaction window. Derived quantities (elapsed, grade)
// are computed on demand, never stored.
type Window struct {
	Start        time.Duration
	Duration     time.Duration
	PerfectPhase time.Duration
}

// NewWindow creates a Window starting at start.
//
// Postcondition: Returns an error if perfectPhase > duration or either is negative.
func NewWindow(start, duration, perfectPhase time.Duration) (Window, error) {
	if duration < 0 || perfectPhase < 0 {
		return Window{}, fmt.Errorf("timing.NewWindow: negative duration (%v) or perfect phase (%v)", duration, perfectPhase)
	}
	if perfectPhase > duration {
		return Window{}, fmt.Errorf("timing.NewWindow: perfect phase %v exceeds duration %v", perfectPhase, duration)
	}
	return Window{Start: start, Duration: duration, PerfectPhase: perfectPhase}, nil
}

// Grade evaluates the window at simulation time now.
func (w Window) Grade(now time.Duration) Grade {
	return Evaluate(w.Start, w.Duration, w.PerfectPhase, now)
}

// Elapsed returns time spent in the window at now.
func (w Window) Elapsed(now time.Duration) time.Duration {
	return now - w.Start
}
