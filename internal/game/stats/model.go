// Package stats defines actor stat sheets and their YAML content loader.
// Sheets are authored content: they are loaded and validated at startup and
// consumed once per actor at spawn.
package stats

import (
	"fmt"
	"time"

	"github.com/cory-johannsen/skirmish/internal/game/actor"
)

// Archetype selects which state table an actor spawned from a sheet runs.
type Archetype string

const (
	ArchetypePlayer   Archetype = "player"
	ArchetypeOpponent Archetype = "opponent"
)

// Valid reports whether the archetype is one of the known values.
func (a Archetype) Valid() bool {
	return a == ArchetypePlayer || a == ArchetypeOpponent
}

// Sheet is one actor's authored stat block.
type Sheet struct {
	ID        string
	Name      string
	Faction   string
	Archetype Archetype

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

// Validate checks the sheet for values that cannot produce a working actor.
//
// Postcondition: A nil return guarantees Params() yields arguments accepted by
// actor.New.
func (s *Sheet) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("sheet has no id")
	}
	if s.Name == "" {
		return fmt.Errorf("sheet %s: name is required", s.ID)
	}
	if !s.Archetype.Valid() {
		return fmt.Errorf("sheet %s: unknown archetype %q", s.ID, s.Archetype)
	}
	if s.MaxHealth <= 0 {
		return fmt.Errorf("sheet %s: max_health must be positive, got %d", s.ID, s.MaxHealth)
	}
	if s.MaxPoise <= 0 {
		return fmt.Errorf("sheet %s: max_poise must be positive, got %v", s.ID, s.MaxPoise)
	}
	if s.PoiseGrace < 0 || s.PoiseDecayRate < 0 {
		return fmt.Errorf("sheet %s: poise recovery values must not be negative", s.ID)
	}
	if s.MaxStamina <= 0 {
		return fmt.Errorf("sheet %s: max_stamina must be positive, got %v", s.ID, s.MaxStamina)
	}
	if s.StaminaRegenRate < 0 || s.StaminaRegenDelay < 0 {
		return fmt.Errorf("sheet %s: stamina regen values must not be negative", s.ID)
	}
	if s.MaxForceSpeed <= 0 {
		return fmt.Errorf("sheet %s: max_force_speed must be positive, got %v", s.ID, s.MaxForceSpeed)
	}
	if s.MaxForceLifetime <= 0 {
		return fmt.Errorf("sheet %s: max_force_lifetime must be positive, got %v", s.ID, s.MaxForceLifetime)
	}
	return nil
}

// Params converts the sheet into actor construction parameters. The actor ID
// is minted at spawn, not taken from the sheet, so several actors can share
// one sheet.
func (s *Sheet) Params() actor.Params {
	return actor.Params{
		Name:              s.Name,
		Faction:           s.Faction,
		MaxHealth:         s.MaxHealth,
		MaxPoise:          s.MaxPoise,
		PoiseGrace:        s.PoiseGrace,
		PoiseDecayRate:    s.PoiseDecayRate,
		MaxStamina:        s.MaxStamina,
		StaminaRegenRate:  s.StaminaRegenRate,
		StaminaRegenDelay: s.StaminaRegenDelay,
		MaxForceSpeed:     s.MaxForceSpeed,
		MaxForceLifetime:  s.MaxForceLifetime,
	}
}
