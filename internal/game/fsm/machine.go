package fsm

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Machine owns one actor's active behavioral state and is the sole transition
// authority. ChangeState is the public transition-request entry point;
// ForceInterrupt is the one-shot preemption path used by combat resolution.
//
// At most one transition request is honored per Execute, PhysicsExecute, or
// Exit call; later requests in the same call lose first-wins, including a
// request made by Exit while the winning transition is in flight.
//
// Machine is not safe for concurrent use; each actor's machine is owned by
// the single simulation loop.
type Machine[T any] struct {
	reg    *Registry[T]
	logger *zap.Logger

	ctx         T
	initialized bool

	states      map[StateID]State[T]
	current     State[T]
	timeInState time.Duration

	inFrame       bool
	requested     bool
	transitioning bool
}

// NewMachine creates a machine over the given registration table. The table
// is shared machine metadata; state instances are created per machine.
//
// Precondition: reg and logger must not be nil.
func NewMachine[T any](reg *Registry[T], logger *zap.Logger) *Machine[T] {
	if reg == nil {
		panic("fsm.NewMachine: reg must not be nil")
	}
	if logger == nil {
		panic("fsm.NewMachine: logger must not be nil")
	}
	return &Machine[T]{reg: reg, logger: logger}
}

// Initialize binds the machine to exactly one actor context, instantiates the
// state set, and enters the initial state. Must be called before any other
// method.
//
// Postcondition: Returns an error on double initialization or on a registry
// constructor producing a state whose ID does not match its registration;
// both are configuration defects and must abort setup.
func (m *Machine[T]) Initialize(ctx T) error {
	if m.initialized {
		return fmt.Errorf("fsm.Machine %q: already initialized", m.reg.Name())
	}
	states := m.reg.instantiate()
	for id, s := range states {
		if s.ID() != id {
			return fmt.Errorf("fsm.Machine %q: constructor for %v produced state %v", m.reg.Name(), id, s.ID())
		}
	}
	m.ctx = ctx
	m.states = states
	m.current = states[m.reg.Initial()]
	m.timeInState = 0
	m.initialized = true

	m.transitioning = true
	m.current.Enter(m)
	m.transitioning = false
	return nil
}

// Context returns the bound actor context.
func (m *Machine[T]) Context() T {
	m.mustInit("Context")
	return m.ctx
}

// Current returns the active state's ID.
func (m *Machine[T]) Current() StateID {
	m.mustInit("Current")
	return m.current.ID()
}

// TimeInState returns the time elapsed in the active state.
func (m *Machine[T]) TimeInState() time.Duration {
	return m.timeInState
}

// Execute runs the active state's per-frame logic.
func (m *Machine[T]) Execute(dt time.Duration) {
	m.mustInit("Execute")
	m.timeInState += dt
	m.inFrame = true
	m.requested = false
	m.current.Execute(m, dt)
	m.inFrame = false
}

// PhysicsExecute runs the active state's fixed-step physics logic. State time
// advances in Execute only.
func (m *Machine[T]) PhysicsExecute(dt time.Duration) {
	m.mustInit("PhysicsExecute")
	m.inFrame = true
	m.requested = false
	m.current.PhysicsExecute(m, dt)
	m.inFrame = false
}

// ChangeState requests a transition to target, reporting whether it was
// executed. The request is rejected when the active state's CanTransitionTo
// predicate refuses, when target equals the active state, when the actor is
// in the terminal Death state, or when an earlier request already won this
// call. Rejection is a normal negative outcome, not an error.
func (m *Machine[T]) ChangeState(target StateID) bool {
	m.mustInit("ChangeState")
	if m.transitioning {
		return false
	}
	if m.inFrame && m.requested {
		m.logger.Debug("transition rejected: request already made this call",
			zap.String("machine", m.reg.Name()),
			zap.Stringer("target", target))
		return false
	}
	cur := m.current
	if cur.ID() == Death {
		// Terminal steady state; expected, rejected silently.
		return false
	}
	if target == cur.ID() {
		return false
	}
	next, ok := m.states[target]
	if !ok {
		m.logger.Error("transition rejected: no instance for target state",
			zap.String("machine", m.reg.Name()),
			zap.Stringer("target", target))
		return false
	}
	if !cur.CanTransitionTo(target) {
		m.logger.Debug("transition rejected by state policy",
			zap.String("machine", m.reg.Name()),
			zap.Stringer("from", cur.ID()),
			zap.Stringer("target", target))
		return false
	}
	if m.inFrame {
		m.requested = true
	}
	m.transition(next)
	return true
}

// ForceInterrupt preempts the active state regardless of its transition
// policy, subject only to CanBeInterrupted. It either fully preempts the
// state, running Exit immediately, or is entirely refused. A Death-state
// machine refuses everything.
func (m *Machine[T]) ForceInterrupt(target StateID) bool {
	m.mustInit("ForceInterrupt")
	if m.transitioning {
		return false
	}
	cur := m.current
	if cur.ID() == Death {
		return false
	}
	if target == cur.ID() {
		return false
	}
	next, ok := m.states[target]
	if !ok {
		m.logger.Error("forced interruption rejected: no instance for target state",
			zap.String("machine", m.reg.Name()),
			zap.Stringer("target", target))
		return false
	}
	if !cur.CanBeInterrupted() {
		m.logger.Debug("forced interruption refused by state",
			zap.String("machine", m.reg.Name()),
			zap.Stringer("from", cur.ID()),
			zap.Stringer("target", target))
		return false
	}
	m.logger.Debug("forced interruption",
		zap.String("machine", m.reg.Name()),
		zap.Stringer("from", cur.ID()),
		zap.Stringer("target", target))
	m.transition(next)
	return true
}

// transition runs the Exit/Enter lifecycle and resets state time.
func (m *Machine[T]) transition(next State[T]) {
	m.transitioning = true
	m.current.Exit(m)
	m.timeInState = 0
	m.current = next
	next.Enter(m)
	m.transitioning = false
}

func (m *Machine[T]) mustInit(op string) {
	if !m.initialized {
		panic(fmt.Sprintf("fsm.Machine %q: %s called before Initialize", m.reg.Name(), op))
	}
}
