package states

import (
	"time"

	"github.com/cory-johannsen/skirmish/internal/game/forces"
	"github.com/cory-johannsen/skirmish/internal/game/fsm"
	"github.com/cory-johannsen/skirmish/internal/game/intent"
	"github.com/cory-johannsen/skirmish/internal/game/timing"
)

var playerRegistry = fsm.NewBuilder[*Context]("player", fsm.Idle).
	Register(fsm.Idle, func() fsm.State[*Context] { return &idleState{} },
		fsm.Locomotion, fsm.LightAttack, fsm.HeavyAttack, fsm.Parry, fsm.Block, fsm.Dodge).
	Register(fsm.Locomotion, func() fsm.State[*Context] { return &locomotionState{} },
		fsm.Idle, fsm.LightAttack, fsm.HeavyAttack, fsm.Parry, fsm.Block, fsm.Dodge).
	Register(fsm.LightAttack, func() fsm.State[*Context] { return newAttackState(fsm.LightAttack, fsm.Idle) },
		fsm.Idle).
	Register(fsm.HeavyAttack, func() fsm.State[*Context] { return newAttackState(fsm.HeavyAttack, fsm.Idle) },
		fsm.Idle).
	Register(fsm.Parry, func() fsm.State[*Context] { return &parryState{returnTo: fsm.Idle} },
		fsm.Idle).
	Register(fsm.Block, func() fsm.State[*Context] { return &blockState{} },
		fsm.Idle, fsm.Parry).
	Register(fsm.Dodge, func() fsm.State[*Context] { return &dodgeState{} },
		fsm.Idle).
	Register(fsm.Stagger, func() fsm.State[*Context] { return &staggerState{returnTo: fsm.Idle} },
		fsm.Idle).
	Register(fsm.Death, func() fsm.State[*Context] { return deathState{} }).
	MustBuild()

// PlayerRegistry returns the compiled player state table. It is built once at
// package load and shared by every player machine.
func PlayerRegistry() *fsm.Registry[*Context] {
	return playerRegistry
}

// combatDispatch is one buffered action a neutral state may consume. Entries
// are ordered defensive-first so a buffered dodge beats a buffered attack
// pressed in the same window.
type combatDispatch struct {
	kind   intent.Kind
	target fsm.StateID
	cost   float64
}

func playerDispatches(t Tuning) []combatDispatch {
	return []combatDispatch{
		{intent.Dodge, fsm.Dodge, t.DodgeStaminaCost},
		{intent.Parry, fsm.Parry, t.ParryStaminaCost},
		{intent.Block, fsm.Block, 0},
		{intent.HeavyAttack, fsm.HeavyAttack, t.Heavy.StaminaCost},
		{intent.LightAttack, fsm.LightAttack, t.Light.StaminaCost},
	}
}

// dispatch consumes the highest-priority fresh intent the actor can afford
// and requests the matching transition. An intent the actor cannot afford is
// left buffered until it expires. Reports whether a transition was requested.
func dispatch(m *fsm.Machine[*Context], entries []combatDispatch) bool {
	ctx := m.Context()
	buf := ctx.Actor.Intents
	window := ctx.Tuning.InputBuffer
	for _, e := range entries {
		if _, ok := buf.Peek(e.kind, window); !ok {
			continue
		}
		if ctx.Actor.Stamina.Current() < e.cost {
			continue
		}
		in, ok := buf.TryConsume(e.kind, window)
		if !ok {
			continue
		}
		ctx.noteIntent(in)
		ctx.Actor.Stamina.TryConsume(e.cost)
		return m.ChangeState(e.target)
	}
	return false
}

type idleState struct{}

func (idleState) ID() fsm.StateID              { return fsm.Idle }
func (idleState) Enter(m *fsm.Machine[*Context]) {}
func (idleState) Exit(m *fsm.Machine[*Context])  {}

func (idleState) Execute(m *fsm.Machine[*Context], dt time.Duration) {
	ctx := m.Context()
	if dispatch(m, playerDispatches(ctx.Tuning)) {
		return
	}
	if in, ok := ctx.Actor.Intents.TryConsume(intent.Move, ctx.Tuning.InputBuffer); ok {
		ctx.noteIntent(in)
		m.ChangeState(fsm.Locomotion)
	}
}

func (idleState) PhysicsExecute(m *fsm.Machine[*Context], dt time.Duration) {}

func (idleState) CanTransitionTo(target fsm.StateID) bool {
	switch target {
	case fsm.Locomotion, fsm.LightAttack, fsm.HeavyAttack, fsm.Parry, fsm.Block, fsm.Dodge:
		return true
	}
	return false
}
func (idleState) CanBeInterrupted() bool { return true }

// locomotionState keeps moving while fresh Move intents arrive and falls back
// to Idle once input goes quiet for longer than the buffer window.
type locomotionState struct {
	sinceMove time.Duration
}

func (*locomotionState) ID() fsm.StateID { return fsm.Locomotion }

func (s *locomotionState) Enter(m *fsm.Machine[*Context]) {
	s.sinceMove = 0
}
func (*locomotionState) Exit(m *fsm.Machine[*Context]) {}

func (s *locomotionState) Execute(m *fsm.Machine[*Context], dt time.Duration) {
	ctx := m.Context()
	if dispatch(m, playerDispatches(ctx.Tuning)) {
		return
	}
	s.sinceMove += dt
	if in, ok := ctx.Actor.Intents.TryConsume(intent.Move, ctx.Tuning.InputBuffer); ok {
		ctx.noteIntent(in)
		s.sinceMove = 0
		return
	}
	if s.sinceMove > ctx.Tuning.InputBuffer {
		m.ChangeState(fsm.Idle)
	}
}

func (*locomotionState) PhysicsExecute(m *fsm.Machine[*Context], dt time.Duration) {}

func (*locomotionState) CanTransitionTo(target fsm.StateID) bool {
	switch target {
	case fsm.Idle, fsm.LightAttack, fsm.HeavyAttack, fsm.Parry, fsm.Block, fsm.Dodge:
		return true
	}
	return false
}
func (*locomotionState) CanBeInterrupted() bool { return true }

// attackState runs windup, active, and recovery phases by time in state. The
// hit window is reported open for exactly the active phase; a forced
// interruption mid-swing closes it from Exit.
type attackState struct {
	id         fsm.StateID
	returnTo   fsm.StateID
	windowOpen bool
}

func newAttackState(id, returnTo fsm.StateID) *attackState {
	return &attackState{id: id, returnTo: returnTo}
}

func (s *attackState) ID() fsm.StateID { return s.id }

func (s *attackState) tuning(m *fsm.Machine[*Context]) AttackTuning {
	if s.id == fsm.HeavyAttack {
		return m.Context().Tuning.Heavy
	}
	return m.Context().Tuning.Light
}

func (s *attackState) Enter(m *fsm.Machine[*Context]) {
	s.windowOpen = false
}

func (s *attackState) Exit(m *fsm.Machine[*Context]) {
	if s.windowOpen {
		s.windowOpen = false
		m.Context().reportClosed()
	}
}

func (s *attackState) Execute(m *fsm.Machine[*Context], dt time.Duration) {
	ctx := m.Context()
	a := s.tuning(m)
	elapsed := m.TimeInState()

	inActive := elapsed >= a.Windup && elapsed < a.Windup+a.Active
	if inActive && !s.windowOpen {
		s.windowOpen = true
		ctx.reportOpened(AttackSpec{
			Kind:        s.intentKind(),
			Damage:      a.Damage,
			PoiseDamage: a.PoiseDamage,
			Direction:   ctx.Facing(),
			Parryable:   a.Parryable,
		})
	}
	if !inActive && s.windowOpen {
		s.windowOpen = false
		ctx.reportClosed()
	}
	if elapsed >= a.total() {
		m.ChangeState(s.returnTo)
	}
}

func (s *attackState) intentKind() intent.Kind {
	if s.id == fsm.HeavyAttack {
		return intent.HeavyAttack
	}
	return intent.LightAttack
}

func (*attackState) PhysicsExecute(m *fsm.Machine[*Context], dt time.Duration) {}

func (s *attackState) CanTransitionTo(target fsm.StateID) bool {
	return target == s.returnTo
}
func (*attackState) CanBeInterrupted() bool { return true }

// parryState opens the actor's timing window on entry; grading against it is
// the resolver's job. The posture is cleared on exit no matter how the state
// ends.
type parryState struct {
	returnTo fsm.StateID
}

func (*parryState) ID() fsm.StateID { return fsm.Parry }

func (*parryState) Enter(m *fsm.Machine[*Context]) {
	ctx := m.Context()
	t := ctx.Tuning
	w, err := timing.NewWindow(ctx.Clock.Now(), t.ParryDuration, t.ParryPerfect)
	if err != nil {
		// Tuning validation guarantees this cannot happen at runtime.
		return
	}
	ctx.Actor.SetParryWindow(w)
}

func (*parryState) Exit(m *fsm.Machine[*Context]) {
	m.Context().Actor.ClearParry()
}

func (s *parryState) Execute(m *fsm.Machine[*Context], dt time.Duration) {
	t := m.Context().Tuning
	if m.TimeInState() >= t.ParryDuration+t.ParryRecovery {
		m.ChangeState(s.returnTo)
	}
}

func (*parryState) PhysicsExecute(m *fsm.Machine[*Context], dt time.Duration) {}

func (s *parryState) CanTransitionTo(target fsm.StateID) bool {
	return target == s.returnTo
}
func (*parryState) CanBeInterrupted() bool { return true }

// blockState holds the blocking posture until a release intent arrives.
type blockState struct{}

func (blockState) ID() fsm.StateID { return fsm.Block }

func (blockState) Enter(m *fsm.Machine[*Context]) {
	m.Context().Actor.SetBlocking(true)
}

func (blockState) Exit(m *fsm.Machine[*Context]) {
	m.Context().Actor.SetBlocking(false)
}

func (blockState) Execute(m *fsm.Machine[*Context], dt time.Duration) {
	ctx := m.Context()
	t := ctx.Tuning
	// A parry pressed while holding block upgrades the guard.
	if _, ok := ctx.Actor.Intents.Peek(intent.Parry, t.InputBuffer); ok {
		if ctx.Actor.Stamina.Current() >= t.ParryStaminaCost {
			in, _ := ctx.Actor.Intents.TryConsume(intent.Parry, t.InputBuffer)
			ctx.noteIntent(in)
			ctx.Actor.Stamina.TryConsume(t.ParryStaminaCost)
			m.ChangeState(fsm.Parry)
			return
		}
	}
	if _, ok := ctx.Actor.Intents.TryConsume(intent.BlockRelease, t.InputBuffer); ok {
		m.ChangeState(fsm.Idle)
	}
}

func (blockState) PhysicsExecute(m *fsm.Machine[*Context], dt time.Duration) {}

func (blockState) CanTransitionTo(target fsm.StateID) bool {
	return target == fsm.Idle || target == fsm.Parry
}
func (blockState) CanBeInterrupted() bool { return true }

// dodgeState grants invulnerability frames and pushes a displacement impulse
// into the actor's force manager on entry.
type dodgeState struct{}

func (dodgeState) ID() fsm.StateID { return fsm.Dodge }

func (dodgeState) Enter(m *fsm.Machine[*Context]) {
	ctx := m.Context()
	t := ctx.Tuning
	now := ctx.Clock.Now()
	ctx.Actor.SetInvulnerableUntil(now + t.DodgeIFrames)
	ctx.Actor.Forces.AddForce(forces.Force{
		Kind:     forces.Impulse,
		Vector:   ctx.Facing().Scale(t.DodgeSpeed),
		Duration: t.DodgeDuration,
		Decay:    t.dodgeCurve(),
		Priority: 2,
	})
}

func (dodgeState) Exit(m *fsm.Machine[*Context]) {
	m.Context().Actor.ClearInvulnerability()
}

func (dodgeState) Execute(m *fsm.Machine[*Context], dt time.Duration) {
	if m.TimeInState() >= m.Context().Tuning.DodgeDuration {
		m.ChangeState(fsm.Idle)
	}
}

func (dodgeState) PhysicsExecute(m *fsm.Machine[*Context], dt time.Duration) {}

func (dodgeState) CanTransitionTo(target fsm.StateID) bool {
	return target == fsm.Idle
}
func (dodgeState) CanBeInterrupted() bool { return true }

// staggerState is the interruptible poise-break recovery. Completion restores
// poise footing and returns to the neutral state for the machine's kind.
type staggerState struct {
	returnTo fsm.StateID
}

func (*staggerState) ID() fsm.StateID                 { return fsm.Stagger }
func (*staggerState) Enter(m *fsm.Machine[*Context])  {}
func (*staggerState) Exit(m *fsm.Machine[*Context])   {}

func (s *staggerState) Execute(m *fsm.Machine[*Context], dt time.Duration) {
	if m.TimeInState() >= m.Context().Tuning.StaggerDuration {
		m.Context().Actor.Poise.ResetPoise()
		m.ChangeState(s.returnTo)
	}
}

func (*staggerState) PhysicsExecute(m *fsm.Machine[*Context], dt time.Duration) {}

func (s *staggerState) CanTransitionTo(target fsm.StateID) bool {
	return target == s.returnTo
}
func (*staggerState) CanBeInterrupted() bool { return true }

// deathState is terminal. Entry drops every transient combat effect; the
// machine refuses all further transitions, forced or not.
type deathState struct{}

func (deathState) ID() fsm.StateID { return fsm.Death }

func (deathState) Enter(m *fsm.Machine[*Context]) {
	a := m.Context().Actor
	a.SetBlocking(false)
	a.ClearParry()
	a.ClearInvulnerability()
	a.Forces.Clear()
}

func (deathState) Exit(m *fsm.Machine[*Context])                          {}
func (deathState) Execute(m *fsm.Machine[*Context], dt time.Duration)     {}
func (deathState) PhysicsExecute(m *fsm.Machine[*Context], dt time.Duration) {}
func (deathState) CanTransitionTo(target fsm.StateID) bool                { return false }
func (deathState) CanBeInterrupted() bool                                 { return false }
