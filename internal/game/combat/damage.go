// Package combat implements authoritative hit resolution: given an incoming
// attack and the defender's live context, it produces the final damage, the
// defensive outcome flags, and the forced Stagger/Death transitions.
package combat

import (
	"fmt"
	"math"

	"github.com/cory-johannsen/skirmish/internal/game/forces"
)

// DamageType classifies the source of a hit.
// The zero value (TypeUnknown) is intentionally invalid.
type DamageType int

const (
	TypeUnknown DamageType = iota // zero value; intentionally invalid
	Physical
	Elemental
	Environmental
)

// String returns the human-readable damage type label.
func (t DamageType) String() string {
	switch t {
	case Physical:
		return "physical"
	case Elemental:
		return "elemental"
	case Environmental:
		return "environmental"
	default:
		return "unknown"
	}
}

// DamageInfo describes one incoming attack. It is immutable once constructed
// and has value semantics, so it is safe to pass across frames without
// aliasing concerns.
type DamageInfo struct {
	amount      int
	poiseDamage float64
	damageType  DamageType
	sourceID    string // empty for environmental damage
	hitPoint    forces.Vec2
	direction   forces.Vec2 // unit length
	parryable   bool
}

// NewDamageInfo validates and constructs a DamageInfo. Numeric inputs are
// defended at this boundary: non-finite values, negative amounts, and
// zero-length hit directions are rejected so they can never reach a ledger.
// The direction is normalized to unit length. sourceID may be empty for
// environmental damage.
//
// Postcondition: Returns an error for invalid input; on success the value is
// internally consistent and immutable.
func NewDamageInfo(amount int, poiseDamage float64, damageType DamageType, sourceID string, hitPoint, direction forces.Vec2, parryable bool) (DamageInfo, error) {
	if amount < 0 {
		return DamageInfo{}, fmt.Errorf("combat.NewDamageInfo: amount must be >= 0, got %d", amount)
	}
	if math.IsNaN(poiseDamage) || math.IsInf(poiseDamage, 0) || poiseDamage < 0 {
		return DamageInfo{}, fmt.Errorf("combat.NewDamageInfo: poise damage must be finite and >= 0, got %v", poiseDamage)
	}
	if damageType <= TypeUnknown || damageType > Environmental {
		return DamageInfo{}, fmt.Errorf("combat.NewDamageInfo: invalid damage type %d", damageType)
	}
	if !hitPoint.Finite() || !direction.Finite() {
		return DamageInfo{}, fmt.Errorf("combat.NewDamageInfo: non-finite hit point or direction")
	}
	mag := direction.Len()
	if mag == 0 {
		return DamageInfo{}, fmt.Errorf("combat.NewDamageInfo: hit direction must be non-zero")
	}
	return DamageInfo{
		amount:      amount,
		poiseDamage: poiseDamage,
		damageType:  damageType,
		sourceID:    sourceID,
		hitPoint:    hitPoint,
		direction:   direction.Scale(1 / mag),
		parryable:   parryable,
	}, nil
}

// Amount returns the base damage.
func (d DamageInfo) Amount() int { return d.amount }

// PoiseDamage returns the poise damage carried by the hit.
func (d DamageInfo) PoiseDamage() float64 { return d.poiseDamage }

// Type returns the damage type.
func (d DamageInfo) Type() DamageType { return d.damageType }

// SourceID returns the attacking actor's ID, or "" for environmental damage.
func (d DamageInfo) SourceID() string { return d.sourceID }

// HitPoint returns the world-space contact point.
func (d DamageInfo) HitPoint() forces.Vec2 { return d.hitPoint }

// Direction returns the unit hit direction.
func (d DamageInfo) Direction() forces.Vec2 { return d.direction }

// CanBeParried reports whether a parry can answer this hit.
func (d DamageInfo) CanBeParried() bool { return d.parryable }
