// Package states provides the concrete behavioral states for player and AI
// actors, registered into per-kind tables over the generic machine. Player
// machines dispatch buffered intents into attacks, parries, blocks, and
// dodges; AI machines replace locomotion and attack selection with an
// alert/chase/pattern cycle while sharing the stagger and death states.
package states

import (
	"fmt"
	"time"

	"github.com/tanema/gween/ease"

	"github.com/cory-johannsen/skirmish/internal/game/actor"
	"github.com/cory-johannsen/skirmish/internal/game/clock"
	"github.com/cory-johannsen/skirmish/internal/game/forces"
	"github.com/cory-johannsen/skirmish/internal/game/intent"
)

// AttackSpec describes an open attack window for the hit-detection
// collaborator. The collaborator is responsible for turning an overlap during
// the window into a damage event.
type AttackSpec struct {
	Kind        intent.Kind
	Damage      int
	PoiseDamage float64
	Direction   forces.Vec2
	Parryable   bool
}

// HitReporter receives attack window lifecycle events from attack states.
type HitReporter interface {
	AttackWindowOpened(a *actor.Context, spec AttackSpec)
	AttackWindowClosed(a *actor.Context)
}

// Sensors supplies AI states with target awareness. The simulation owns the
// spatial model; states only ask whether the target is reachable and where.
type Sensors interface {
	TargetInRange() bool
	TargetDirection() forces.Vec2
}

// AttackTuning parameterizes one attack's phases and payload.
type AttackTuning struct {
	Windup      time.Duration `mapstructure:"windup"`
	Active      time.Duration `mapstructure:"active"`
	Recovery    time.Duration `mapstructure:"recovery"`
	StaminaCost float64       `mapstructure:"stamina_cost"`
	Damage      int           `mapstructure:"damage"`
	PoiseDamage float64       `mapstructure:"poise_damage"`
	Parryable   bool          `mapstructure:"parryable"`
}

func (a AttackTuning) total() time.Duration {
	return a.Windup + a.Active + a.Recovery
}

// Tuning holds every timing and cost knob the concrete states read. One
// Tuning is shared by all machines in an arena; states never mutate it.
type Tuning struct {
	InputBuffer time.Duration `mapstructure:"input_buffer"`

	Light AttackTuning `mapstructure:"light"`
	Heavy AttackTuning `mapstructure:"heavy"`

	ParryDuration    time.Duration `mapstructure:"parry_duration"`
	ParryPerfect     time.Duration `mapstructure:"parry_perfect"`
	ParryRecovery    time.Duration `mapstructure:"parry_recovery"`
	ParryStaminaCost float64       `mapstructure:"parry_stamina_cost"`

	DodgeDuration    time.Duration `mapstructure:"dodge_duration"`
	DodgeIFrames     time.Duration `mapstructure:"dodge_iframes"`
	DodgeStaminaCost float64       `mapstructure:"dodge_stamina_cost"`
	DodgeSpeed       float64       `mapstructure:"dodge_speed"`
	DodgeDecay       string        `mapstructure:"dodge_decay"`

	StaggerDuration time.Duration `mapstructure:"stagger_duration"`

	AlertDelay    time.Duration `mapstructure:"alert_delay"`
	AttackCadence time.Duration `mapstructure:"attack_cadence"`
}

// DefaultTuning returns the baseline knob set used when configuration leaves
// the combat section empty.
func DefaultTuning() Tuning {
	return Tuning{
		InputBuffer: 150 * time.Millisecond,
		Light: AttackTuning{
			Windup:      200 * time.Millisecond,
			Active:      150 * time.Millisecond,
			Recovery:    250 * time.Millisecond,
			StaminaCost: 15,
			Damage:      10,
			PoiseDamage: 20,
			Parryable:   true,
		},
		Heavy: AttackTuning{
			Windup:      450 * time.Millisecond,
			Active:      200 * time.Millisecond,
			Recovery:    400 * time.Millisecond,
			StaminaCost: 30,
			Damage:      25,
			PoiseDamage: 45,
			Parryable:   true,
		},
		ParryDuration:    300 * time.Millisecond,
		ParryPerfect:     120 * time.Millisecond,
		ParryRecovery:    200 * time.Millisecond,
		ParryStaminaCost: 10,
		DodgeDuration:    400 * time.Millisecond,
		DodgeIFrames:     250 * time.Millisecond,
		DodgeStaminaCost: 20,
		DodgeSpeed:       8,
		DodgeDecay:       "quad",
		StaggerDuration:  800 * time.Millisecond,
		AlertDelay:       500 * time.Millisecond,
		AttackCadence:    1200 * time.Millisecond,
	}
}

// Validate rejects tuning that would produce degenerate states. Called at
// startup; a failure is a configuration error.
func (t Tuning) Validate() error {
	if t.InputBuffer <= 0 {
		return fmt.Errorf("states.Tuning: input_buffer must be positive, got %v", t.InputBuffer)
	}
	for name, a := range map[string]AttackTuning{"light": t.Light, "heavy": t.Heavy} {
		if a.total() <= 0 {
			return fmt.Errorf("states.Tuning: %s attack has no duration", name)
		}
		if a.StaminaCost < 0 || a.Damage < 0 || a.PoiseDamage < 0 {
			return fmt.Errorf("states.Tuning: %s attack has negative cost or payload", name)
		}
	}
	if t.ParryDuration <= 0 || t.ParryPerfect <= 0 || t.ParryPerfect > t.ParryDuration {
		return fmt.Errorf("states.Tuning: parry window %v/%v invalid", t.ParryPerfect, t.ParryDuration)
	}
	if t.DodgeDuration <= 0 || t.DodgeIFrames <= 0 || t.DodgeIFrames > t.DodgeDuration {
		return fmt.Errorf("states.Tuning: dodge windows %v/%v invalid", t.DodgeIFrames, t.DodgeDuration)
	}
	if _, err := forces.DecayCurve(t.DodgeDecay); err != nil {
		return fmt.Errorf("states.Tuning: %w", err)
	}
	if t.StaggerDuration <= 0 {
		return fmt.Errorf("states.Tuning: stagger_duration must be positive, got %v", t.StaggerDuration)
	}
	return nil
}

func (t Tuning) dodgeCurve() ease.TweenFunc {
	curve, err := forces.DecayCurve(t.DodgeDecay)
	if err != nil {
		return ease.Linear
	}
	return curve
}

// Context is the per-actor payload every concrete state operates on. The
// machine hands it to states on each lifecycle call.
type Context struct {
	Actor    *actor.Context
	Clock    *clock.Clock
	Tuning   Tuning
	Reporter HitReporter // nil disables attack window reporting
	Sensors  Sensors     // nil pins AI states in place

	lastIntent intent.Intent
	facing     forces.Vec2
}

// NewContext binds an actor to the shared clock and tuning. Reporter and
// sensors are optional collaborators supplied by the simulation.
//
// Precondition: a, clk must not be nil; tuning must have passed Validate.
func NewContext(a *actor.Context, clk *clock.Clock, tuning Tuning, reporter HitReporter, sensors Sensors) *Context {
	if a == nil {
		panic("states.NewContext: actor must not be nil")
	}
	if clk == nil {
		panic("states.NewContext: clock must not be nil")
	}
	return &Context{
		Actor:    a,
		Clock:    clk,
		Tuning:   tuning,
		Reporter: reporter,
		Sensors:  sensors,
		facing:   forces.Vec2{X: 1},
	}
}

// Facing returns the actor's current facing, updated from the most recently
// consumed directional intent. Always a non-zero vector.
func (c *Context) Facing() forces.Vec2 {
	return c.facing
}

// noteIntent records a consumed intent and refreshes the facing when the
// intent carried a direction.
func (c *Context) noteIntent(in intent.Intent) {
	c.lastIntent = in
	dir := forces.Vec2{X: in.Direction.X, Y: in.Direction.Y}
	if dir.Len() > 0 && dir.Finite() {
		c.facing = dir
	}
}

func (c *Context) reportOpened(spec AttackSpec) {
	if c.Reporter != nil {
		c.Reporter.AttackWindowOpened(c.Actor, spec)
	}
}

func (c *Context) reportClosed() {
	if c.Reporter != nil {
		c.Reporter.AttackWindowClosed(c.Actor)
	}
}
