package fsm_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/game/fsm"
)

// testCtx is the machine context used by the stub states.
type testCtx struct {
	log []string
}

// stubState is a configurable state for machine behavior tests.
type stubState struct {
	id            fsm.StateID
	allowed       map[fsm.StateID]bool
	interruptible bool

	enters, exits int

	// onExecute runs inside Execute, letting tests request transitions.
	onExecute func(m *fsm.Machine[*testCtx])
}

func (s *stubState) ID() fsm.StateID { return s.id }
func (s *stubState) Enter(m *fsm.Machine[*testCtx]) {
	s.enters++
	m.Context().log = append(m.Context().log, "enter "+s.id.String())
}
func (s *stubState) Exit(m *fsm.Machine[*testCtx]) {
	s.exits++
	m.Context().log = append(m.Context().log, "exit "+s.id.String())
}
func (s *stubState) Execute(m *fsm.Machine[*testCtx], _ time.Duration) {
	if s.onExecute != nil {
		s.onExecute(m)
	}
}
func (s *stubState) PhysicsExecute(*fsm.Machine[*testCtx], time.Duration) {}
func (s *stubState) CanTransitionTo(target fsm.StateID) bool             { return s.allowed[target] }
func (s *stubState) CanBeInterrupted() bool                              { return s.interruptible }

type harness struct {
	machine *fsm.Machine[*testCtx]
	ctx     *testCtx
	states  map[fsm.StateID]*stubState
}

// newHarness builds a three-state machine: Idle <-> LightAttack, plus Stagger
// and Death reachable only by force.
func newHarness(t *testing.T) *harness {
	t.Helper()
	states := map[fsm.StateID]*stubState{
		fsm.Idle: {
			id:            fsm.Idle,
			allowed:       map[fsm.StateID]bool{fsm.LightAttack: true},
			interruptible: true,
		},
		fsm.LightAttack: {
			id:            fsm.LightAttack,
			allowed:       map[fsm.StateID]bool{fsm.Idle: true},
			interruptible: true,
		},
		fsm.Stagger: {
			id:            fsm.Stagger,
			allowed:       map[fsm.StateID]bool{fsm.Idle: true},
			interruptible: true,
		},
		fsm.Death: {
			id:            fsm.Death,
			allowed:       map[fsm.StateID]bool{},
			interruptible: false,
		},
	}

	reg, err := fsm.NewBuilder[*testCtx]("test", fsm.Idle).
		Register(fsm.Idle, func() fsm.State[*testCtx] { return states[fsm.Idle] }, fsm.LightAttack).
		Register(fsm.LightAttack, func() fsm.State[*testCtx] { return states[fsm.LightAttack] }, fsm.Idle).
		Register(fsm.Stagger, func() fsm.State[*testCtx] { return states[fsm.Stagger] }, fsm.Idle).
		Register(fsm.Death, func() fsm.State[*testCtx] { return states[fsm.Death] }).
		Build()
	require.NoError(t, err)

	ctx := &testCtx{}
	m := fsm.NewMachine(reg, zap.NewNop())
	require.NoError(t, m.Initialize(ctx))
	return &harness{machine: m, ctx: ctx, states: states}
}

func TestMachine_InitializeEntersInitialState(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, fsm.Idle, h.machine.Current())
	assert.Equal(t, 1, h.states[fsm.Idle].enters)
	assert.Equal(t, []string{"enter idle"}, h.ctx.log)
}

func TestMachine_DoubleInitializeFails(t *testing.T) {
	h := newHarness(t)
	err := h.machine.Initialize(&testCtx{})
	require.Error(t, err)
}

func TestMachine_UseBeforeInitializePanics(t *testing.T) {
	reg, err := fsm.NewBuilder[*testCtx]("uninit", fsm.Idle).
		Register(fsm.Idle, func() fsm.State[*testCtx] { return &stubState{id: fsm.Idle} }).
		Build()
	require.NoError(t, err)
	m := fsm.NewMachine(reg, zap.NewNop())
	assert.Panics(t, func() { m.Execute(time.Millisecond) })
	assert.Panics(t, func() { m.ChangeState(fsm.Idle) })
}

func TestMachine_ChangeStateRunsLifecycle(t *testing.T) {
	h := newHarness(t)
	require.True(t, h.machine.ChangeState(fsm.LightAttack))

	assert.Equal(t, fsm.LightAttack, h.machine.Current())
	assert.Equal(t, 1, h.states[fsm.Idle].exits)
	assert.Equal(t, 1, h.states[fsm.LightAttack].enters)
	assert.Equal(t, []string{"enter idle", "exit idle", "enter light_attack"}, h.ctx.log)
	assert.Equal(t, time.Duration(0), h.machine.TimeInState())
}

func TestMachine_SameStateRejected(t *testing.T) {
	h := newHarness(t)
	assert.False(t, h.machine.ChangeState(fsm.Idle))
	// Enter/Exit did not re-run.
	assert.Equal(t, 1, h.states[fsm.Idle].enters)
	assert.Equal(t, 0, h.states[fsm.Idle].exits)
}

func TestMachine_PredicateRejection(t *testing.T) {
	h := newHarness(t)
	// Idle does not allow Stagger by request.
	assert.False(t, h.machine.ChangeState(fsm.Stagger))
	assert.Equal(t, fsm.Idle, h.machine.Current())
	assert.Equal(t, 0, h.states[fsm.Idle].exits)
}

func TestMachine_FirstRequestWinsWithinExecute(t *testing.T) {
	h := newHarness(t)
	var second bool
	h.states[fsm.Idle].onExecute = func(m *fsm.Machine[*testCtx]) {
		require.True(t, m.ChangeState(fsm.LightAttack))
		// A second request in the same call is rejected.
		second = m.ChangeState(fsm.Idle)
	}
	h.machine.Execute(16 * time.Millisecond)

	assert.False(t, second)
	assert.Equal(t, fsm.LightAttack, h.machine.Current())
}

func TestMachine_TimeInStateAccumulatesAndResets(t *testing.T) {
	h := newHarness(t)
	h.machine.Execute(10 * time.Millisecond)
	h.machine.Execute(10 * time.Millisecond)
	assert.Equal(t, 20*time.Millisecond, h.machine.TimeInState())

	require.True(t, h.machine.ChangeState(fsm.LightAttack))
	assert.Equal(t, time.Duration(0), h.machine.TimeInState())
}

func TestMachine_ForceInterruptBypassesPolicy(t *testing.T) {
	h := newHarness(t)
	// Stagger is not an allowed request target from Idle, but force succeeds.
	require.True(t, h.machine.ForceInterrupt(fsm.Stagger))
	assert.Equal(t, fsm.Stagger, h.machine.Current())
	assert.Equal(t, 1, h.states[fsm.Idle].exits)
}

func TestMachine_ForceInterruptRespectsCanBeInterrupted(t *testing.T) {
	h := newHarness(t)
	h.states[fsm.Idle].interruptible = false
	assert.False(t, h.machine.ForceInterrupt(fsm.Stagger))
	assert.Equal(t, fsm.Idle, h.machine.Current())
	// Entirely refused: Exit did not run.
	assert.Equal(t, 0, h.states[fsm.Idle].exits)
}

func TestMachine_DeathIsTerminal(t *testing.T) {
	h := newHarness(t)
	require.True(t, h.machine.ForceInterrupt(fsm.Death))
	assert.Equal(t, fsm.Death, h.machine.Current())

	// All further transitions, requested or forced, are rejected.
	assert.False(t, h.machine.ChangeState(fsm.Idle))
	assert.False(t, h.machine.ForceInterrupt(fsm.Stagger))
	assert.Equal(t, fsm.Death, h.machine.Current())
	assert.Equal(t, 0, h.states[fsm.Death].exits)
}

func TestBuilder_ValidatesConfiguration(t *testing.T) {
	// Initial state not registered.
	_, err := fsm.NewBuilder[*testCtx]("bad", fsm.Idle).
		Register(fsm.Dodge, func() fsm.State[*testCtx] { return &stubState{id: fsm.Dodge} }).
		Build()
	require.Error(t, err)

	// Declared target without a registered state.
	_, err = fsm.NewBuilder[*testCtx]("bad", fsm.Idle).
		Register(fsm.Idle, func() fsm.State[*testCtx] { return &stubState{id: fsm.Idle} }, fsm.Parry).
		Build()
	require.Error(t, err)

	// Duplicate registration.
	_, err = fsm.NewBuilder[*testCtx]("bad", fsm.Idle).
		Register(fsm.Idle, func() fsm.State[*testCtx] { return &stubState{id: fsm.Idle} }).
		Register(fsm.Idle, func() fsm.State[*testCtx] { return &stubState{id: fsm.Idle} }).
		Build()
	require.Error(t, err)

	// Empty table.
	_, err = fsm.NewBuilder[*testCtx]("bad", fsm.Idle).Build()
	require.Error(t, err)
}

func TestMachine_InitializeRejectsMismatchedConstructor(t *testing.T) {
	reg, err := fsm.NewBuilder[*testCtx]("mismatch", fsm.Idle).
		Register(fsm.Idle, func() fsm.State[*testCtx] { return &stubState{id: fsm.Dodge} }).
		Build()
	require.NoError(t, err)

	m := fsm.NewMachine(reg, zap.NewNop())
	require.Error(t, m.Initialize(&testCtx{}))
}
