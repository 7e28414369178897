// Package intent buffers discrete action requests from input or AI drivers
// until a behavioral state consumes them.
package intent

import (
	"time"

	"github.com/cory-johannsen/skirmish/internal/game/clock"
)

// Kind identifies a buffered action request.
// The zero value (KindUnknown) is intentionally invalid.
type Kind int

const (
	KindUnknown Kind = iota // zero value; intentionally invalid
	LightAttack
	HeavyAttack
	Parry
	Block
	BlockRelease
	Dodge
	Move

	kindCount
)

// String returns the human-readable kind label.
func (k Kind) String() string {
	switch k {
	case LightAttack:
		return "light_attack"
	case HeavyAttack:
		return "heavy_attack"
	case Parry:
		return "parry"
	case Block:
		return "block"
	case BlockRelease:
		return "block_release"
	case Dodge:
		return "dodge"
	case Move:
		return "move"
	default:
		return "unknown"
	}
}

// Direction is an optional 2D direction attached to an intent, for example
// a dodge roll direction. The zero value means "no direction".
type Direction struct {
	X, Y float64
}

// Intent is one buffered action request.
type Intent struct {
	Kind      Kind
	Timestamp time.Duration
	Direction Direction
}

type slot struct {
	intent   Intent
	present  bool
	consumed bool
}

// Buffer records action requests with a timestamp and hands each out at most
// once. Entries live in a fixed table keyed by kind; Push and TryConsume never
// allocate. A newer Push of the same kind overwrites the older entry,
// consumed or not. Stale entries are dropped lazily by readers, never pruned
// on a timer.
//
// Buffer is not safe for concurrent use; within a frame the input/AI driver
// writes before the state machine reads.
type Buffer struct {
	clk   *clock.Clock
	slots [kindCount]slot
}

// NewBuffer creates an empty Buffer stamping intents from clk.
//
// Precondition: clk must not be nil.
func NewBuffer(clk *clock.Clock) *Buffer {
	if clk == nil {
		panic("intent.NewBuffer: clk must not be nil")
	}
	return &Buffer{clk: clk}
}

// Push records an intent of the given kind at the current simulation time,
// replacing any previous intent of the same kind.
//
// Precondition: kind must be a valid Kind.
func (b *Buffer) Push(kind Kind, dir Direction) {
	if kind <= KindUnknown || kind >= kindCount {
		return
	}
	b.slots[kind] = slot{
		intent:  Intent{Kind: kind, Timestamp: b.clk.Now(), Direction: dir},
		present: true,
	}
}

// TryConsume returns the buffered intent of the given kind if one exists, has
// not been consumed, and was pushed no longer than window ago. On success the
// entry is marked consumed; the same buffered input never satisfies two
// consumers.
//
// Postcondition: On success, a second TryConsume for the same entry fails.
func (b *Buffer) TryConsume(kind Kind, window time.Duration) (Intent, bool) {
	if kind <= KindUnknown || kind >= kindCount {
		return Intent{}, false
	}
	s := &b.slots[kind]
	if !s.present || s.consumed {
		return Intent{}, false
	}
	if b.clk.Now()-s.intent.Timestamp > window {
		// Stale entry: inert, dropped lazily.
		s.present = false
		return Intent{}, false
	}
	s.consumed = true
	return s.intent, true
}

// Peek reports whether an unconsumed intent of the given kind is buffered
// within window, without consuming it. Used by movement polling.
func (b *Buffer) Peek(kind Kind, window time.Duration) (Intent, bool) {
	if kind <= KindUnknown || kind >= kindCount {
		return Intent{}, false
	}
	s := b.slots[kind]
	if !s.present || s.consumed || b.clk.Now()-s.intent.Timestamp > window {
		return Intent{}, false
	}
	return s.intent, true
}
