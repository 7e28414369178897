// Package sim owns the single-threaded simulation: the arena holding every
// combatant, hit delivery into the resolver, and the frame/physics scheduler.
// All machines, ledgers, and the shared clock are touched only from the loop
// goroutine; nothing in the per-tick path takes a lock.
package sim

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/game/actor"
	"github.com/cory-johannsen/skirmish/internal/game/ai"
	"github.com/cory-johannsen/skirmish/internal/game/clock"
	"github.com/cory-johannsen/skirmish/internal/game/combat"
	"github.com/cory-johannsen/skirmish/internal/game/forces"
	"github.com/cory-johannsen/skirmish/internal/game/fsm"
	"github.com/cory-johannsen/skirmish/internal/game/states"
	"github.com/cory-johannsen/skirmish/internal/game/stats"
)

// Combatant is one actor registered in the arena together with its machine,
// state context, optional decision driver, and integrated position.
type Combatant struct {
	Actor    *actor.Context
	Machine  *fsm.Machine[*states.Context]
	States   *states.Context
	Driver   ai.Driver // nil for externally driven actors
	Position forces.Vec2
}

// hitEvent is one delivered hit queued for resolution at the top of the next
// frame, before any machine executes.
type hitEvent struct {
	attackerID string
	defenderID string
	info       combat.DamageInfo
}

// openWindow tracks one live attack window reported by an attack state.
type openWindow struct {
	spec   states.AttackSpec
	landed bool
}

// Arena registers combatants and mediates between attack windows, hit
// delivery, and combat resolution. It doubles as the reference hit-detection
// collaborator: an open window lands on the nearest opposing combatant in
// range, once per window. External collaborators can inject hits directly via
// DeliverHit.
type Arena struct {
	clk         *clock.Clock
	resolver    *combat.Resolver
	tuning      states.Tuning
	attackRange float64
	logger      *zap.Logger

	combatants []*Combatant
	byID       map[string]*Combatant
	windows    map[string]*openWindow
	pending    []hitEvent
}

// NewArena creates an empty arena.
//
// Precondition: clk, resolver, and logger must not be nil; attackRange must
// be positive; tuning must have passed Validate.
func NewArena(clk *clock.Clock, resolver *combat.Resolver, tuning states.Tuning, attackRange float64, logger *zap.Logger) *Arena {
	if clk == nil {
		panic("sim.NewArena: clock must not be nil")
	}
	if resolver == nil {
		panic("sim.NewArena: resolver must not be nil")
	}
	if logger == nil {
		panic("sim.NewArena: logger must not be nil")
	}
	if attackRange <= 0 {
		panic("sim.NewArena: attackRange must be positive")
	}
	return &Arena{
		clk:         clk,
		resolver:    resolver,
		tuning:      tuning,
		attackRange: attackRange,
		logger:      logger,
		byID:        make(map[string]*Combatant),
		windows:     make(map[string]*openWindow),
	}
}

// Spawn creates an actor from the sheet, builds the machine for the sheet's
// archetype, and registers the combatant at the given position. The driver is
// optional.
//
// Postcondition: On success the combatant's machine is initialized and bound
// as the actor's state driver.
func (a *Arena) Spawn(sheet *stats.Sheet, pos forces.Vec2, driver ai.Driver) (*Combatant, error) {
	params := sheet.Params()
	// Prefix the minted ID with the sheet ID so damage-hook scripts and logs
	// can tell combatant kinds apart.
	params.ID = sheet.ID + "-" + uuid.NewString()
	act, err := actor.New(params, a.clk, a.logger)
	if err != nil {
		return nil, fmt.Errorf("sim: spawning %q: %w", sheet.ID, err)
	}

	var reg *fsm.Registry[*states.Context]
	switch sheet.Archetype {
	case stats.ArchetypePlayer:
		reg = states.PlayerRegistry()
	case stats.ArchetypeOpponent:
		reg = states.AIRegistry()
	default:
		return nil, fmt.Errorf("sim: sheet %q has unknown archetype %q", sheet.ID, sheet.Archetype)
	}

	c := &Combatant{Actor: act, Position: pos, Driver: driver}
	ctx := states.NewContext(act, a.clk, a.tuning, a, &sensors{arena: a, self: c})
	m := fsm.NewMachine(reg, a.logger)
	if err := m.Initialize(ctx); err != nil {
		return nil, fmt.Errorf("sim: initializing machine for %q: %w", sheet.ID, err)
	}
	act.BindDriver(m)

	c.Machine = m
	c.States = ctx
	a.combatants = append(a.combatants, c)
	a.byID[act.ID()] = c

	a.logger.Info("combatant spawned",
		zap.String("id", act.ID()),
		zap.String("name", act.Name()),
		zap.String("faction", act.Faction()),
		zap.String("archetype", string(sheet.Archetype)),
	)
	return c, nil
}

// Combatant returns the registered combatant with the given actor ID.
func (a *Arena) Combatant(id string) (*Combatant, bool) {
	c, ok := a.byID[id]
	return c, ok
}

// Combatants returns every registered combatant in spawn order.
func (a *Arena) Combatants() []*Combatant {
	return a.combatants
}

// DeliverHit queues a hit for resolution at the top of the next frame, before
// any machine transitions. Unknown IDs are logged and dropped.
func (a *Arena) DeliverHit(attackerID, defenderID string, info combat.DamageInfo) bool {
	if _, ok := a.byID[defenderID]; !ok {
		a.logger.Warn("hit dropped: unknown defender",
			zap.String("defender", defenderID))
		return false
	}
	if attackerID != "" {
		if _, ok := a.byID[attackerID]; !ok {
			a.logger.Warn("hit dropped: unknown attacker",
				zap.String("attacker", attackerID))
			return false
		}
	}
	a.pending = append(a.pending, hitEvent{attackerID: attackerID, defenderID: defenderID, info: info})
	return true
}

// AttackWindowOpened implements states.HitReporter.
func (a *Arena) AttackWindowOpened(owner *actor.Context, spec states.AttackSpec) {
	a.windows[owner.ID()] = &openWindow{spec: spec}
}

// AttackWindowClosed implements states.HitReporter.
func (a *Arena) AttackWindowClosed(owner *actor.Context) {
	delete(a.windows, owner.ID())
}

// Frame runs one simulation frame: queued hits resolve first, then each
// combatant's driver acts, its ledgers tick, and its machine executes. Open
// attack windows are scanned last so a hit lands before the following frame's
// transitions.
func (a *Arena) Frame(dt time.Duration) {
	a.resolvePending()

	now := a.clk.Now()
	for _, c := range a.combatants {
		if c.Driver != nil && c.Actor.Alive() {
			c.Driver.Act(now, a.viewFor(c))
		}
		c.Actor.Poise.Tick(dt, now)
		c.Actor.Stamina.Tick(dt)
		c.Machine.Execute(dt)
	}

	a.scanWindows()
}

// Physics runs one fixed physics step: machine physics logic, then force
// integration into positions.
func (a *Arena) Physics(dt time.Duration) {
	for _, c := range a.combatants {
		c.Machine.PhysicsExecute(dt)
		vel := c.Actor.Forces.Tick(dt)
		c.Position = c.Position.Add(vel.Scale(dt.Seconds()))
	}
}

// Winner reports the last faction standing, if the bout has been decided.
func (a *Arena) Winner() (string, bool) {
	faction := ""
	for _, c := range a.combatants {
		if !c.Actor.Alive() {
			continue
		}
		if faction == "" {
			faction = c.Actor.Faction()
			continue
		}
		if c.Actor.Faction() != faction {
			return "", false
		}
	}
	return faction, faction != ""
}

func (a *Arena) resolvePending() {
	queued := a.pending
	a.pending = nil
	for _, h := range queued {
		defender := a.byID[h.defenderID]
		var attacker *actor.Context
		if h.attackerID != "" {
			if c, ok := a.byID[h.attackerID]; ok {
				attacker = c.Actor
			}
		}
		a.resolver.Resolve(h.info, attacker, defender.Actor)
	}
}

// scanWindows lands each open window on the nearest opposing combatant in
// range, at most once per window. Combatants are visited in spawn order so
// simultaneous windows queue their hits deterministically.
func (a *Arena) scanWindows() {
	for _, owner := range a.combatants {
		ownerID := owner.Actor.ID()
		w, ok := a.windows[ownerID]
		if !ok || w.landed {
			continue
		}
		target := a.nearestFoe(owner)
		if target == nil {
			continue
		}
		if distance(owner.Position, target.Position) > a.attackRange {
			continue
		}
		info, err := combat.NewDamageInfo(
			w.spec.Damage,
			w.spec.PoiseDamage,
			combat.Physical,
			owner.Actor.ID(),
			target.Position,
			attackDirection(owner, target, w.spec),
			w.spec.Parryable,
		)
		if err != nil {
			a.logger.Warn("attack window produced invalid damage",
				zap.String("attacker", ownerID),
				zap.Error(err))
			w.landed = true
			continue
		}
		w.landed = true
		a.pending = append(a.pending, hitEvent{
			attackerID: ownerID,
			defenderID: target.Actor.ID(),
			info:       info,
		})
	}
}

func (a *Arena) nearestFoe(self *Combatant) *Combatant {
	var best *Combatant
	bestDist := 0.0
	for _, c := range a.combatants {
		if c == self || !c.Actor.Alive() || c.Actor.Faction() == self.Actor.Faction() {
			continue
		}
		d := distance(self.Position, c.Position)
		if best == nil || d < bestDist {
			best = c
			bestDist = d
		}
	}
	return best
}

func (a *Arena) viewFor(c *Combatant) ai.View {
	view := ai.View{
		SelfHealthNorm:  c.Actor.HealthNormalized(),
		SelfStaminaNorm: c.Actor.Stamina.Normalized(),
	}
	foe := a.nearestFoe(c)
	if foe == nil {
		return view
	}
	view.TargetInRange = distance(c.Position, foe.Position) <= a.attackRange
	view.TargetDirection = direction(c.Position, foe.Position)
	view.TargetBlocking = foe.Actor.Blocking()
	view.TargetHealthNorm = foe.Actor.HealthNormalized()
	return view
}

// sensors adapts the arena's spatial model to the states.Sensors contract for
// one combatant.
type sensors struct {
	arena *Arena
	self  *Combatant
}

func (s *sensors) TargetInRange() bool {
	foe := s.arena.nearestFoe(s.self)
	if foe == nil {
		return false
	}
	return distance(s.self.Position, foe.Position) <= s.arena.attackRange
}

func (s *sensors) TargetDirection() forces.Vec2 {
	foe := s.arena.nearestFoe(s.self)
	if foe == nil {
		return forces.Vec2{}
	}
	return direction(s.self.Position, foe.Position)
}

func distance(a, b forces.Vec2) float64 {
	return b.Add(a.Scale(-1)).Len()
}

// direction returns the unit vector from a toward b, or zero when coincident.
func direction(a, b forces.Vec2) forces.Vec2 {
	delta := b.Add(a.Scale(-1))
	l := delta.Len()
	if l == 0 {
		return forces.Vec2{}
	}
	return delta.Scale(1 / l)
}

// attackDirection prefers the attacker's facing from the window spec, falling
// back to the bearing toward the target.
func attackDirection(owner, target *Combatant, spec states.AttackSpec) forces.Vec2 {
	if spec.Direction.Len() > 0 && spec.Direction.Finite() {
		return spec.Direction
	}
	return direction(owner.Position, target.Position)
}
