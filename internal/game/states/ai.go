package states

import (
	"time"

	"github.com/cory-johannsen/skirmish/internal/game/fsm"
	"github.com/cory-johannsen/skirmish/internal/game/intent"
)

var aiRegistry = fsm.NewBuilder[*Context]("ai", fsm.Alert).
	Register(fsm.Alert, func() fsm.State[*Context] { return alertState{} },
		fsm.Chase).
	Register(fsm.Chase, func() fsm.State[*Context] { return chaseState{} },
		fsm.Alert, fsm.AttackPattern).
	Register(fsm.AttackPattern, func() fsm.State[*Context] { return &attackPatternState{} },
		fsm.Chase, fsm.LightAttack, fsm.HeavyAttack, fsm.Parry).
	Register(fsm.LightAttack, func() fsm.State[*Context] { return newAttackState(fsm.LightAttack, fsm.AttackPattern) },
		fsm.AttackPattern).
	Register(fsm.HeavyAttack, func() fsm.State[*Context] { return newAttackState(fsm.HeavyAttack, fsm.AttackPattern) },
		fsm.AttackPattern).
	Register(fsm.Parry, func() fsm.State[*Context] { return &parryState{returnTo: fsm.AttackPattern} },
		fsm.AttackPattern).
	Register(fsm.Stagger, func() fsm.State[*Context] { return &staggerState{returnTo: fsm.Alert} },
		fsm.Alert).
	Register(fsm.Death, func() fsm.State[*Context] { return deathState{} }).
	MustBuild()

// AIRegistry returns the compiled opponent state table. Opponent machines
// replace locomotion and free attack selection with the alert/chase/pattern
// cycle and share the stagger and death states with player machines.
func AIRegistry() *fsm.Registry[*Context] {
	return aiRegistry
}

// alertState is the opponent's spawn posture: it holds position until the
// alert delay elapses, then begins closing distance.
type alertState struct{}

func (alertState) ID() fsm.StateID                 { return fsm.Alert }
func (alertState) Enter(m *fsm.Machine[*Context])  {}
func (alertState) Exit(m *fsm.Machine[*Context])   {}

func (alertState) Execute(m *fsm.Machine[*Context], dt time.Duration) {
	ctx := m.Context()
	if ctx.Sensors == nil {
		return
	}
	if m.TimeInState() >= ctx.Tuning.AlertDelay {
		m.ChangeState(fsm.Chase)
	}
}

func (alertState) PhysicsExecute(m *fsm.Machine[*Context], dt time.Duration) {}

func (alertState) CanTransitionTo(target fsm.StateID) bool {
	return target == fsm.Chase
}
func (alertState) CanBeInterrupted() bool { return true }

// chaseState pushes Move intents toward the target until it is in range.
// The simulation's sensors supply both the range signal and the bearing.
type chaseState struct{}

func (chaseState) ID() fsm.StateID                 { return fsm.Chase }
func (chaseState) Enter(m *fsm.Machine[*Context])  {}
func (chaseState) Exit(m *fsm.Machine[*Context])   {}

func (chaseState) Execute(m *fsm.Machine[*Context], dt time.Duration) {
	ctx := m.Context()
	s := ctx.Sensors
	if s == nil {
		m.ChangeState(fsm.Alert)
		return
	}
	if s.TargetInRange() {
		m.ChangeState(fsm.AttackPattern)
		return
	}
	dir := s.TargetDirection()
	if dir.Len() > 0 && dir.Finite() {
		ctx.Actor.Intents.Push(intent.Move, intent.Direction{X: dir.X, Y: dir.Y})
		ctx.noteIntent(intent.Intent{Kind: intent.Move, Timestamp: ctx.Clock.Now(),
			Direction: intent.Direction{X: dir.X, Y: dir.Y}})
	}
}

func (chaseState) PhysicsExecute(m *fsm.Machine[*Context], dt time.Duration) {}

func (chaseState) CanTransitionTo(target fsm.StateID) bool {
	return target == fsm.Alert || target == fsm.AttackPattern
}
func (chaseState) CanBeInterrupted() bool { return true }

// attackPatternState sequences the opponent's offense. Driver-pushed intents
// take priority; when the buffer is quiet the state advances its own
// light, light, heavy rotation on the configured cadence.
type attackPatternState struct {
	step    int
	sinceAt time.Duration
}

var patternRotation = [...]fsm.StateID{fsm.LightAttack, fsm.LightAttack, fsm.HeavyAttack}

func (*attackPatternState) ID() fsm.StateID { return fsm.AttackPattern }

func (s *attackPatternState) Enter(m *fsm.Machine[*Context]) {
	s.sinceAt = 0
}
func (*attackPatternState) Exit(m *fsm.Machine[*Context]) {}

func (s *attackPatternState) Execute(m *fsm.Machine[*Context], dt time.Duration) {
	ctx := m.Context()
	if ctx.Sensors != nil && !ctx.Sensors.TargetInRange() {
		m.ChangeState(fsm.Chase)
		return
	}
	t := ctx.Tuning
	if dispatch(m, []combatDispatch{
		{intent.Parry, fsm.Parry, t.ParryStaminaCost},
		{intent.HeavyAttack, fsm.HeavyAttack, t.Heavy.StaminaCost},
		{intent.LightAttack, fsm.LightAttack, t.Light.StaminaCost},
	}) {
		return
	}
	s.sinceAt += dt
	if s.sinceAt < t.AttackCadence {
		return
	}
	next := patternRotation[s.step%len(patternRotation)]
	cost := t.Light.StaminaCost
	if next == fsm.HeavyAttack {
		cost = t.Heavy.StaminaCost
	}
	if !ctx.Actor.Stamina.TryConsume(cost) {
		// Winded; hold the cadence and retry once stamina recovers.
		return
	}
	s.sinceAt = 0
	s.step++
	m.ChangeState(next)
}

func (*attackPatternState) PhysicsExecute(m *fsm.Machine[*Context], dt time.Duration) {}

func (*attackPatternState) CanTransitionTo(target fsm.StateID) bool {
	switch target {
	case fsm.Chase, fsm.LightAttack, fsm.HeavyAttack, fsm.Parry:
		return true
	}
	return false
}
func (*attackPatternState) CanBeInterrupted() bool { return true }
