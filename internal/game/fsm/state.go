// Package fsm implements the generic behavioral state machine driving both
// player-controlled and AI-controlled actors. The machine validates and
// executes transitions, runs the state lifecycle, and exposes the forced
// interruption path used by combat resolution.
package fsm

import "time"

// StateID identifies a behavioral state. The set is closed; machines register
// the subset they use from an explicit table built once per machine kind.
// The zero value (StateNone) is intentionally invalid.
type StateID int

const (
	StateNone StateID = iota // zero value; intentionally invalid

	Idle
	Locomotion
	LightAttack
	HeavyAttack
	Parry
	Block
	Dodge
	Stagger
	Death

	// AI-only states, mirroring locomotion/attacks for opponent machines.
	Alert
	Chase
	AttackPattern
)

// String returns the human-readable state label.
func (s StateID) String() string {
	switch s {
	case Idle:
		return "idle"
	case Locomotion:
		return "locomotion"
	case LightAttack:
		return "light_attack"
	case HeavyAttack:
		return "heavy_attack"
	case Parry:
		return "parry"
	case Block:
		return "block"
	case Dodge:
		return "dodge"
	case Stagger:
		return "stagger"
	case Death:
		return "death"
	case Alert:
		return "alert"
	case Chase:
		return "chase"
	case AttackPattern:
		return "attack_pattern"
	default:
		return "none"
	}
}

// State is one behavioral state of a machine with context type T. Exactly one
// state is active per machine at any time. States are created when their
// machine is built and re-entered on transition; per-activation data is reset
// in Enter.
type State[T any] interface {
	// ID returns the state's identifier.
	ID() StateID
	// Enter runs when the state becomes active. State time has been reset.
	Enter(m *Machine[T])
	// Exit runs when the state is left, including on forced interruption.
	Exit(m *Machine[T])
	// Execute runs once per simulation frame. This is where a state reads
	// the intent buffer and its own timers, and may request one transition.
	Execute(m *Machine[T], dt time.Duration)
	// PhysicsExecute runs once per fixed physics step.
	PhysicsExecute(m *Machine[T], dt time.Duration)
	// CanTransitionTo reports whether a requested transition to target is
	// allowed while this state is active. Forced interruptions bypass this.
	CanTransitionTo(target StateID) bool
	// CanBeInterrupted reports whether a forced interruption may preempt
	// this state right now.
	CanBeInterrupted() bool
}
