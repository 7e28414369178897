package combat

// DamageResult is the authoritative outcome of one resolved hit.
//
// Invariant: at most one of Parried and Dodged is true, and neither coexists
// with PartialParried; FinalDamage == 0 with a positive incoming amount
// implies the hit was parried or dodged.
type DamageResult struct {
	// FinalDamage is the health delta actually applied to the defender.
	FinalDamage int
	// FinalPoiseDamage is the poise damage actually applied.
	FinalPoiseDamage float64

	// Parried is true for a perfect parry: damage and poise fully nullified.
	Parried bool
	// PartialParried is true for a late parry that only reduced damage.
	PartialParried bool
	// Dodged is true when active i-frames voided the hit.
	Dodged bool
	// Blocked is true when a blocking posture reduced the damage.
	Blocked bool

	// PoiseBroken is true when the hit's poise damage broke the defender's poise.
	PoiseBroken bool
	// CausedDeath is true when the hit reduced the defender's health to zero.
	CausedDeath bool
}

// WasDefended reports whether any defensive outcome applied to the hit.
func (r DamageResult) WasDefended() bool {
	return r.Parried || r.PartialParried || r.Dodged || r.Blocked
}
