// Package actor owns the combat context shared by every participant: identity,
// health, the poise/stamina ledgers, the external forces table, the intent
// buffer, and the defensive posture read by combat resolution. The context is
// created at spawn and shares its lifetime with the actor's ledgers and state
// machine; callers mutate it only through the ledger and state machine APIs.
package actor

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/game/clock"
	"github.com/cory-johannsen/skirmish/internal/game/forces"
	"github.com/cory-johannsen/skirmish/internal/game/fsm"
	"github.com/cory-johannsen/skirmish/internal/game/intent"
	"github.com/cory-johannsen/skirmish/internal/game/poise"
	"github.com/cory-johannsen/skirmish/internal/game/stamina"
	"github.com/cory-johannsen/skirmish/internal/game/timing"
)

// StateDriver is the slice of the state machine the context exposes to combat
// resolution: the single writer permitted to force a transition on an actor
// other than the one driving the current call.
type StateDriver interface {
	ForceInterrupt(target fsm.StateID) bool
	Current() fsm.StateID
}

// Observer receives actor lifecycle notifications. Each notification fires
// exactly once per occurrence.
type Observer interface {
	// HealthChanged reports a health mutation with the applied delta.
	HealthChanged(actorID string, current, max, delta int)
	// Died reports the actor's death. Fired at most once per actor.
	Died(actorID string)
}

// Params configures a new combat context. Zero ID means a generated UUID.
type Params struct {
	ID      string
	Name    string
	Faction string

	MaxHealth int

	MaxPoise       float64
	PoiseGrace     time.Duration
	PoiseDecayRate float64

	MaxStamina        float64
	StaminaRegenRate  float64
	StaminaRegenDelay time.Duration

	MaxForceSpeed    float64
	MaxForceLifetime time.Duration
}

// Context is one actor's combat context.
//
// Invariant: Alive() == false implies the bound state machine is in the
// terminal Death state and accepts no further transitions.
type Context struct {
	id      string
	name    string
	faction string
	alive   bool

	health    int
	maxHealth int

	Poise   *poise.Ledger
	Stamina *stamina.Ledger
	Forces  *forces.Manager
	Intents *intent.Buffer

	posture posture

	driver    StateDriver
	observers []Observer
	logger    *zap.Logger
}

// posture is the defensive stance the active state maintains and combat
// resolution reads.
type posture struct {
	parrying    bool
	parryWindow timing.Window
	blocking    bool
	invulnUntil time.Duration
	invulnSet   bool
}

// New creates a live Context with full health and stamina and empty poise.
//
// Precondition: clk and logger must not be nil.
// Postcondition: Returns an error for non-positive maxima or invalid ledger
// tuning; configuration defects abort actor spawn.
func New(p Params, clk *clock.Clock, logger *zap.Logger) (*Context, error) {
	if clk == nil || logger == nil {
		panic("actor.New: clk and logger must not be nil")
	}
	if p.MaxHealth <= 0 {
		return nil, fmt.Errorf("actor.New: max health must be > 0, got %d", p.MaxHealth)
	}
	poiseLedger, err := poise.NewLedger(p.MaxPoise, p.PoiseGrace, p.PoiseDecayRate)
	if err != nil {
		return nil, fmt.Errorf("actor.New %q: %w", p.Name, err)
	}
	staminaLedger, err := stamina.NewLedger(p.MaxStamina, p.StaminaRegenRate, p.StaminaRegenDelay)
	if err != nil {
		return nil, fmt.Errorf("actor.New %q: %w", p.Name, err)
	}
	id := p.ID
	if id == "" {
		id = uuid.NewString()
	}
	return &Context{
		id:        id,
		name:      p.Name,
		faction:   p.Faction,
		alive:     true,
		health:    p.MaxHealth,
		maxHealth: p.MaxHealth,
		Poise:     poiseLedger,
		Stamina:   staminaLedger,
		Forces:    forces.NewManager(logger, p.MaxForceSpeed, p.MaxForceLifetime),
		Intents:   intent.NewBuffer(clk),
		logger:    logger,
	}, nil
}

// ID returns the actor's opaque identity.
func (c *Context) ID() string { return c.id }

// Name returns the display name.
func (c *Context) Name() string { return c.name }

// Faction returns the actor's faction tag.
func (c *Context) Faction() string { return c.faction }

// Alive reports whether the actor is alive.
func (c *Context) Alive() bool { return c.alive }

// Health returns current and maximum health.
func (c *Context) Health() (current, max int) {
	return c.health, c.maxHealth
}

// HealthNormalized returns current health as a fraction of maximum, in [0, 1].
// Exposed for UI readouts.
func (c *Context) HealthNormalized() float64 {
	return float64(c.health) / float64(c.maxHealth)
}

// ApplyDamage decrements health by delta, flooring at zero, and returns the
// remaining health. Fires HealthChanged once, and Died once if this damage
// reduced health to zero for the first time. Negative deltas are clamped to
// zero.
//
// Postcondition: Returns >= 0; Died fires at most once over the actor's life.
func (c *Context) ApplyDamage(delta int) int {
	if delta < 0 {
		delta = 0
	}
	if delta == 0 {
		return c.health
	}
	before := c.health
	c.health -= delta
	if c.health < 0 {
		c.health = 0
	}
	applied := before - c.health
	for _, o := range c.observers {
		o.HealthChanged(c.id, c.health, c.maxHealth, -applied)
	}
	if c.health == 0 && c.alive {
		c.alive = false
		for _, o := range c.observers {
			o.Died(c.id)
		}
	}
	return c.health
}

// BindDriver attaches the actor's state machine slice. Called once at wiring.
//
// Precondition: d must not be nil.
func (c *Context) BindDriver(d StateDriver) {
	if d == nil {
		panic("actor.BindDriver: d must not be nil")
	}
	c.driver = d
}

// Driver returns the bound state driver, or nil before wiring completes.
func (c *Context) Driver() StateDriver { return c.driver }

// Observe registers an observer for this actor's notifications.
//
// Precondition: o must not be nil.
func (c *Context) Observe(o Observer) {
	if o == nil {
		panic("actor.Observe: o must not be nil")
	}
	c.observers = append(c.observers, o)
}

// SetParryWindow marks the actor as parrying inside w. Maintained by the
// Parry state between Enter and Exit.
func (c *Context) SetParryWindow(w timing.Window) {
	c.posture.parrying = true
	c.posture.parryWindow = w
}

// ClearParry clears the parrying posture.
func (c *Context) ClearParry() {
	c.posture.parrying = false
}

// Parrying returns the active parry window, if any.
func (c *Context) Parrying() (timing.Window, bool) {
	return c.posture.parryWindow, c.posture.parrying
}

// SetBlocking sets or clears the blocking posture.
func (c *Context) SetBlocking(blocking bool) {
	c.posture.blocking = blocking
}

// Blocking reports whether the actor is blocking.
func (c *Context) Blocking() bool { return c.posture.blocking }

// SetInvulnerableUntil grants i-frames lasting until simulation time t.
func (c *Context) SetInvulnerableUntil(t time.Duration) {
	c.posture.invulnUntil = t
	c.posture.invulnSet = true
}

// ClearInvulnerability revokes any active i-frames.
func (c *Context) ClearInvulnerability() {
	c.posture.invulnSet = false
}

// Invulnerable reports whether i-frames are active at simulation time now.
func (c *Context) Invulnerable(now time.Duration) bool {
	return c.posture.invulnSet && now < c.posture.invulnUntil
}
