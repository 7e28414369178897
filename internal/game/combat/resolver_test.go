package combat_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/game/actor"
	"github.com/cory-johannsen/skirmish/internal/game/clock"
	"github.com/cory-johannsen/skirmish/internal/game/combat"
	"github.com/cory-johannsen/skirmish/internal/game/forces"
	"github.com/cory-johannsen/skirmish/internal/game/fsm"
	"github.com/cory-johannsen/skirmish/internal/game/timing"
)

// fakeDriver records forced interruptions issued by the resolver.
type fakeDriver struct {
	forced  []fsm.StateID
	current fsm.StateID
}

func (f *fakeDriver) ForceInterrupt(target fsm.StateID) bool {
	f.forced = append(f.forced, target)
	f.current = target
	return true
}
func (f *fakeDriver) Current() fsm.StateID { return f.current }

type damageRecorder struct {
	results []combat.DamageResult
}

func (d *damageRecorder) DamageApplied(_ string, _ combat.DamageInfo, result combat.DamageResult) {
	d.results = append(d.results, result)
}

type fixture struct {
	clk      *clock.Clock
	resolver *combat.Resolver
	attacker *actor.Context
	defender *actor.Context
	atkDrv   *fakeDriver
	defDrv   *fakeDriver
	recorder *damageRecorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clk := clock.New()
	resolver, err := combat.NewResolver(combat.Config{
		PartialParryFactor: 0.4,
		BlockFactor:        0.5,
	}, clk, zap.NewNop())
	require.NoError(t, err)

	params := actor.Params{
		Name:              "fighter",
		Faction:           "players",
		MaxHealth:         100,
		MaxPoise:          100,
		PoiseGrace:        2 * time.Second,
		PoiseDecayRate:    10,
		MaxStamina:        100,
		StaminaRegenRate:  20,
		StaminaRegenDelay: time.Second,
		MaxForceSpeed:     50,
		MaxForceLifetime:  10 * time.Second,
	}
	attacker, err := actor.New(params, clk, zap.NewNop())
	require.NoError(t, err)
	defender, err := actor.New(params, clk, zap.NewNop())
	require.NoError(t, err)

	atkDrv := &fakeDriver{current: fsm.LightAttack}
	defDrv := &fakeDriver{current: fsm.Idle}
	attacker.BindDriver(atkDrv)
	defender.BindDriver(defDrv)

	recorder := &damageRecorder{}
	resolver.Observe(recorder)

	return &fixture{
		clk: clk, resolver: resolver,
		attacker: attacker, defender: defender,
		atkDrv: atkDrv, defDrv: defDrv,
		recorder: recorder,
	}
}

func hit(t *testing.T, fx *fixture, amount int, poiseDamage float64, parryable bool) combat.DamageInfo {
	t.Helper()
	info, err := combat.NewDamageInfo(amount, poiseDamage, combat.Physical,
		fx.attacker.ID(), forces.Vec2{}, forces.Vec2{X: 1}, parryable)
	require.NoError(t, err)
	return info
}

func TestResolve_IFramesDodge(t *testing.T) {
	fx := newFixture(t)
	fx.defender.SetInvulnerableUntil(300 * time.Millisecond)

	res := fx.resolver.Resolve(hit(t, fx, 25, 30, true), fx.attacker, fx.defender)

	assert.True(t, res.Dodged)
	assert.False(t, res.Parried)
	assert.Equal(t, 0, res.FinalDamage)
	assert.Equal(t, 0.0, fx.defender.Poise.Current())
	cur, _ := fx.defender.Health()
	assert.Equal(t, 100, cur)
	assert.Len(t, fx.recorder.results, 1)
}

func TestResolve_PerfectParry(t *testing.T) {
	fx := newFixture(t)
	w, err := timing.NewWindow(fx.clk.Now(), 400*time.Millisecond, 150*time.Millisecond)
	require.NoError(t, err)
	fx.defender.SetParryWindow(w)
	fx.clk.Advance(100 * time.Millisecond) // inside the perfect phase

	res := fx.resolver.Resolve(hit(t, fx, 25, 30, true), fx.attacker, fx.defender)

	assert.True(t, res.Parried)
	assert.Equal(t, 0, res.FinalDamage)
	assert.Equal(t, 0.0, res.FinalPoiseDamage)
	assert.Equal(t, 0.0, fx.defender.Poise.Current())
	cur, _ := fx.defender.Health()
	assert.Equal(t, 100, cur)
	// The attacker is punished with a forced stagger.
	assert.Equal(t, []fsm.StateID{fsm.Stagger}, fx.atkDrv.forced)
	assert.Empty(t, fx.defDrv.forced)
}

func TestResolve_PartialParry(t *testing.T) {
	fx := newFixture(t)
	w, err := timing.NewWindow(fx.clk.Now(), 400*time.Millisecond, 150*time.Millisecond)
	require.NoError(t, err)
	fx.defender.SetParryWindow(w)
	fx.clk.Advance(300 * time.Millisecond) // past the perfect phase

	res := fx.resolver.Resolve(hit(t, fx, 25, 30, true), fx.attacker, fx.defender)

	assert.True(t, res.PartialParried)
	assert.False(t, res.Parried)
	assert.Equal(t, 10, res.FinalDamage) // 25 * 0.4 truncated
	assert.Equal(t, 30.0, fx.defender.Poise.Current())
	// No stagger on a partial parry.
	assert.Empty(t, fx.atkDrv.forced)
}

func TestResolve_PartialParryChipDamage(t *testing.T) {
	fx := newFixture(t)
	w, err := timing.NewWindow(fx.clk.Now(), 400*time.Millisecond, 150*time.Millisecond)
	require.NoError(t, err)
	fx.defender.SetParryWindow(w)
	fx.clk.Advance(300 * time.Millisecond) // past the perfect phase

	res := fx.resolver.Resolve(hit(t, fx, 1, 0, true), fx.attacker, fx.defender)

	// 1 * 0.4 truncates to 0 but a late parry still lets at least 1 through.
	assert.True(t, res.PartialParried)
	assert.Equal(t, 1, res.FinalDamage)
}

func TestResolve_UnparryableAttackIgnoresParry(t *testing.T) {
	fx := newFixture(t)
	w, err := timing.NewWindow(fx.clk.Now(), 400*time.Millisecond, 150*time.Millisecond)
	require.NoError(t, err)
	fx.defender.SetParryWindow(w)

	res := fx.resolver.Resolve(hit(t, fx, 20, 10, false), fx.attacker, fx.defender)

	assert.False(t, res.Parried)
	assert.False(t, res.PartialParried)
	assert.Equal(t, 20, res.FinalDamage)
}

func TestResolve_ExpiredParryFallsThroughToBlock(t *testing.T) {
	fx := newFixture(t)
	w, err := timing.NewWindow(fx.clk.Now(), 200*time.Millisecond, 100*time.Millisecond)
	require.NoError(t, err)
	fx.defender.SetParryWindow(w)
	fx.defender.SetBlocking(true)
	fx.clk.Advance(time.Second) // window long expired

	res := fx.resolver.Resolve(hit(t, fx, 15, 10, true), fx.attacker, fx.defender)

	assert.True(t, res.Blocked)
	assert.Equal(t, 7, res.FinalDamage) // 15 * 0.5 truncated toward zero
}

func TestResolve_BlockReducesDamagePoiseStillApplies(t *testing.T) {
	fx := newFixture(t)
	fx.defender.SetBlocking(true)

	res := fx.resolver.Resolve(hit(t, fx, 15, 20, true), fx.attacker, fx.defender)

	assert.True(t, res.Blocked)
	assert.Equal(t, 7, res.FinalDamage)
	assert.Equal(t, 20.0, fx.defender.Poise.Current())
	cur, _ := fx.defender.Health()
	assert.Equal(t, 93, cur)
}

func TestResolve_BlockChipDamage(t *testing.T) {
	fx := newFixture(t)
	fx.defender.SetBlocking(true)

	res := fx.resolver.Resolve(hit(t, fx, 1, 0, true), fx.attacker, fx.defender)

	// 1 * 0.5 truncates to 0 but an unparried landed hit costs at least 1.
	assert.Equal(t, 1, res.FinalDamage)
}

func TestResolve_PoiseBreakForcesStagger(t *testing.T) {
	fx := newFixture(t)

	res := fx.resolver.Resolve(hit(t, fx, 10, 60, true), fx.attacker, fx.defender)
	assert.False(t, res.PoiseBroken)

	res = fx.resolver.Resolve(hit(t, fx, 10, 60, true), fx.attacker, fx.defender)
	assert.True(t, res.PoiseBroken)
	assert.Equal(t, 0.0, fx.defender.Poise.Current())
	assert.Equal(t, []fsm.StateID{fsm.Stagger}, fx.defDrv.forced)
}

func TestResolve_DeathSupersedesStagger(t *testing.T) {
	fx := newFixture(t)
	fx.defender.SetBlocking(true)
	fx.defender.ApplyDamage(95) // down to health 5

	// Blocked 15 -> final damage 7 >= 5: lethal, and the poise damage alone
	// would break poise in the same hit.
	res := fx.resolver.Resolve(hit(t, fx, 15, 150, true), fx.attacker, fx.defender)

	assert.True(t, res.Blocked)
	assert.Equal(t, 7, res.FinalDamage)
	assert.True(t, res.PoiseBroken)
	assert.True(t, res.CausedDeath)
	// Both flags report, but only the Death transition is issued.
	assert.Equal(t, []fsm.StateID{fsm.Death}, fx.defDrv.forced)
	assert.False(t, fx.defender.Alive())
}

func TestResolve_DeadDefenderIsNoOp(t *testing.T) {
	fx := newFixture(t)
	fx.defender.ApplyDamage(100)
	require.False(t, fx.defender.Alive())

	res := fx.resolver.Resolve(hit(t, fx, 10, 10, true), fx.attacker, fx.defender)
	assert.Equal(t, combat.DamageResult{}, res)
	assert.Empty(t, fx.recorder.results)
}

func TestResolve_EnvironmentalDamageHasNoAttacker(t *testing.T) {
	fx := newFixture(t)
	info, err := combat.NewDamageInfo(10, 5, combat.Environmental, "",
		forces.Vec2{}, forces.Vec2{Y: -1}, false)
	require.NoError(t, err)

	res := fx.resolver.Resolve(info, nil, fx.defender)
	assert.Equal(t, 10, res.FinalDamage)
	cur, _ := fx.defender.Health()
	assert.Equal(t, 90, cur)
}

type halvingHook struct{}

func (halvingHook) ModifyDamage(_, _ string, damage int) int { return damage / 2 }

func TestResolve_DamageHookModifiesBeforeLedger(t *testing.T) {
	fx := newFixture(t)
	fx.resolver.SetDamageHook(halvingHook{})

	res := fx.resolver.Resolve(hit(t, fx, 20, 0, true), fx.attacker, fx.defender)
	assert.Equal(t, 10, res.FinalDamage)
	cur, _ := fx.defender.Health()
	assert.Equal(t, 90, cur)
}

func TestResolve_ResultInvariants(t *testing.T) {
	fx := newFixture(t)

	// Dodge and parry never both report.
	fx.defender.SetInvulnerableUntil(time.Second)
	w, err := timing.NewWindow(fx.clk.Now(), 400*time.Millisecond, 150*time.Millisecond)
	require.NoError(t, err)
	fx.defender.SetParryWindow(w)

	res := fx.resolver.Resolve(hit(t, fx, 25, 30, true), fx.attacker, fx.defender)
	assert.True(t, res.Dodged)
	assert.False(t, res.Parried)
	assert.False(t, res.PartialParried)
	assert.True(t, res.WasDefended())
}
