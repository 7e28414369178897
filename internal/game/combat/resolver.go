package combat

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/game/actor"
	"github.com/cory-johannsen/skirmish/internal/game/clock"
	"github.com/cory-johannsen/skirmish/internal/game/fsm"
	"github.com/cory-johannsen/skirmish/internal/game/timing"
)

// Config holds the resolver's tuning factors, sourced from external
// configuration.
type Config struct {
	// PartialParryFactor scales damage surviving a partial parry, in [0, 1].
	PartialParryFactor float64 `mapstructure:"partial_parry_factor"`
	// BlockFactor scales the damage that penetrates a block, in [0, 1]:
	// 0.5 on a 15-damage hit means 7 taken.
	BlockFactor float64 `mapstructure:"block_factor"`
}

// DamageHook is an optional extension point consulted after the defensive
// branch is chosen and before any ledger is mutated. A Lua scripting manager
// satisfies this; a nil hook costs nothing on the resolution path.
type DamageHook interface {
	ModifyDamage(attackerID, defenderID string, damage int) int
}

// Observer receives one notification per resolved hit.
type Observer interface {
	DamageApplied(defenderID string, info DamageInfo, result DamageResult)
}

// Resolver is the combat resolution engine. It is the single writer permitted
// to force a transition on an actor other than the one driving the current
// call: the attacker staggering the defender on poise break, or the defender
// staggering the attacker on a perfect parry.
type Resolver struct {
	cfg       Config
	clk       *clock.Clock
	logger    *zap.Logger
	hook      DamageHook
	observers []Observer
}

// NewResolver creates a Resolver.
//
// Precondition: clk and logger must not be nil.
// Postcondition: Returns an error if either factor is outside [0, 1].
func NewResolver(cfg Config, clk *clock.Clock, logger *zap.Logger) (*Resolver, error) {
	if clk == nil || logger == nil {
		panic("combat.NewResolver: clk and logger must not be nil")
	}
	if cfg.PartialParryFactor < 0 || cfg.PartialParryFactor > 1 {
		return nil, fmt.Errorf("combat.NewResolver: partial parry factor must be in [0, 1], got %v", cfg.PartialParryFactor)
	}
	if cfg.BlockFactor < 0 || cfg.BlockFactor > 1 {
		return nil, fmt.Errorf("combat.NewResolver: block factor must be in [0, 1], got %v", cfg.BlockFactor)
	}
	return &Resolver{cfg: cfg, clk: clk, logger: logger}, nil
}

// SetDamageHook attaches an optional damage hook. Called once at wiring.
func (r *Resolver) SetDamageHook(h DamageHook) {
	r.hook = h
}

// Observe registers an observer for resolved hits.
//
// Precondition: o must not be nil.
func (r *Resolver) Observe(o Observer) {
	if o == nil {
		panic("combat.Resolver.Observe: o must not be nil")
	}
	r.observers = append(r.observers, o)
}

// Resolve produces the authoritative outcome of attack landing on defender
// and applies it: poise first, then health, then the forced transition.
// Death supersedes Stagger when both would be issued. attacker may be nil for
// environmental damage.
//
// Defensive precedence: i-frames, then parry, then block — a defender somehow
// both parrying and blocking is graded as a parry first, and an expired parry
// window falls through to the block check.
//
// Postcondition: The returned result satisfies the DamageResult invariants;
// observers are notified exactly once.
func (r *Resolver) Resolve(attack DamageInfo, attacker, defender *actor.Context) DamageResult {
	now := r.clk.Now()
	var res DamageResult

	if !defender.Alive() {
		// Already dead; nothing to resolve.
		return res
	}

	switch grade := r.parryGrade(defender, attack, now); {
	case defender.Invulnerable(now):
		res.Dodged = true
		r.finish(defender, attack, res)
		return res

	case grade == timing.Perfect:
		res.Parried = true
		// A successful parry is explicitly free; the zero-amount consume
		// keeps the stamina gating path uniform.
		defender.Stamina.TryConsume(0)
		if attacker != nil && attacker.Driver() != nil {
			attacker.Driver().ForceInterrupt(fsm.Stagger)
		}
		r.finish(defender, attack, res)
		return res

	case grade == timing.Partial:
		res.PartialParried = true
		res.FinalDamage = scaleDamage(attack.Amount(), r.cfg.PartialParryFactor)
		if attack.Amount() > 0 && res.FinalDamage == 0 {
			// Chip damage: a late parry still lets at least 1 through.
			res.FinalDamage = 1
		}

	case defender.Blocking():
		res.Blocked = true
		res.FinalDamage = scaleDamage(attack.Amount(), r.cfg.BlockFactor)
		if attack.Amount() > 0 && res.FinalDamage == 0 {
			// Chip damage: an unparried hit that lands always costs at least 1.
			res.FinalDamage = 1
		}

	default:
		res.FinalDamage = attack.Amount()
	}

	// Poise applies on every branch that reaches here; only a full parry or
	// dodge nullifies it. Poise is evaluated before health: a killing blow
	// that also breaks poise reports both flags.
	res.FinalPoiseDamage = attack.PoiseDamage()
	res.PoiseBroken = defender.Poise.ApplyPoiseDamage(res.FinalPoiseDamage, now)

	if r.hook != nil {
		attackerID := ""
		if attacker != nil {
			attackerID = attacker.ID()
		}
		if modified := r.hook.ModifyDamage(attackerID, defender.ID(), res.FinalDamage); modified >= 0 {
			res.FinalDamage = modified
		}
	}

	remaining := defender.ApplyDamage(res.FinalDamage)
	if remaining <= 0 {
		res.CausedDeath = true
	}

	// Death supersedes Stagger: only one forced transition is issued.
	if driver := defender.Driver(); driver != nil {
		if res.CausedDeath {
			driver.ForceInterrupt(fsm.Death)
		} else if res.PoiseBroken {
			driver.ForceInterrupt(fsm.Stagger)
		}
	}

	r.finish(defender, attack, res)
	return res
}

// parryGrade grades the defender's parry window against the attack, or
// Expired when no parry applies.
func (r *Resolver) parryGrade(defender *actor.Context, attack DamageInfo, now time.Duration) timing.Grade {
	window, parrying := defender.Parrying()
	if !parrying || !attack.CanBeParried() {
		return timing.Expired
	}
	return window.Grade(now)
}

// scaleDamage applies a reduction factor to a damage amount. Rounding policy:
// the scaled value truncates toward zero.
func scaleDamage(amount int, factor float64) int {
	return int(float64(amount) * factor)
}

func (r *Resolver) finish(defender *actor.Context, info DamageInfo, res DamageResult) {
	r.logger.Debug("hit resolved",
		zap.String("defender", defender.ID()),
		zap.String("source", info.SourceID()),
		zap.Int("final_damage", res.FinalDamage),
		zap.Bool("parried", res.Parried),
		zap.Bool("partial_parried", res.PartialParried),
		zap.Bool("dodged", res.Dodged),
		zap.Bool("blocked", res.Blocked),
		zap.Bool("poise_broken", res.PoiseBroken),
		zap.Bool("caused_death", res.CausedDeath),
	)
	for _, o := range r.observers {
		o.DamageApplied(defender.ID(), info, res)
	}
}
