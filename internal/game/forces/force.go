// Package forces collects timed external forces acting on an actor and sums
// them into a single displacement request per tick. The movement integrator
// is an external collaborator; this package only produces the summed vector.
package forces

import (
	"fmt"
	"math"
	"time"

	"github.com/tanema/gween/ease"
)

// Kind classifies how a force contributes over its lifetime.
// The zero value (KindUnknown) is intentionally invalid.
type Kind int

const (
	KindUnknown Kind = iota // zero value; intentionally invalid
	Instant                 // full vector on the next tick, then removed
	Impulse                 // vector scaled down by the decay curve over the duration
	Continuous              // constant vector until the duration elapses
)

// String returns the human-readable kind label.
func (k Kind) String() string {
	switch k {
	case Instant:
		return "instant"
	case Impulse:
		return "impulse"
	case Continuous:
		return "continuous"
	default:
		return "unknown"
	}
}

// Vec2 is a 2D vector in world units.
type Vec2 struct {
	X, Y float64
}

// Add returns v + o.
func (v Vec2) Add(o Vec2) Vec2 {
	return Vec2{X: v.X + o.X, Y: v.Y + o.Y}
}

// Scale returns v scaled by s.
func (v Vec2) Scale(s float64) Vec2 {
	return Vec2{X: v.X * s, Y: v.Y * s}
}

// Len returns the vector magnitude.
func (v Vec2) Len() float64 {
	return math.Hypot(v.X, v.Y)
}

// Finite reports whether both components are finite numbers.
func (v Vec2) Finite() bool {
	return !math.IsNaN(v.X) && !math.IsInf(v.X, 0) &&
		!math.IsNaN(v.Y) && !math.IsInf(v.Y, 0)
}

// Force is one timed external force. Owned exclusively by the Manager for its
// lifetime once added.
type Force struct {
	Kind     Kind
	Vector   Vec2
	Duration time.Duration
	Decay    ease.TweenFunc // impulse decay curve; nil means linear
	Priority int

	remaining time.Duration
	seq       uint64
}

// DecayCurve resolves a configured curve name to an easing function.
// Supported names: "linear", "quad", "cubic", "expo".
//
// Postcondition: Returns a non-nil function or an error for unknown names.
func DecayCurve(name string) (ease.TweenFunc, error) {
	switch name {
	case "linear":
		return ease.Linear, nil
	case "quad":
		return ease.OutQuad, nil
	case "cubic":
		return ease.OutCubic, nil
	case "expo":
		return ease.OutExpo, nil
	default:
		return nil, fmt.Errorf("forces.DecayCurve: unknown curve %q", name)
	}
}

// scaleAt returns the decayed contribution factor for an impulse at the given
// elapsed time, in [0, 1].
func (f *Force) scaleAt(elapsed time.Duration) float64 {
	if f.Duration <= 0 {
		return 0
	}
	curve := f.Decay
	if curve == nil {
		curve = ease.Linear
	}
	progress := float64(curve(float32(elapsed.Seconds()), 0, 1, float32(f.Duration.Seconds())))
	s := 1 - progress
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}
