// Package config provides Viper-based configuration loading for the skirmish
// simulation server.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/cory-johannsen/skirmish/internal/game/states"
)

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// SimulationConfig holds the scheduler and arena settings.
type SimulationConfig struct {
	// FrameStep is the simulation frame interval.
	FrameStep time.Duration `mapstructure:"frame_step"`
	// PhysicsStep is the fixed physics step drained by the accumulator.
	PhysicsStep time.Duration `mapstructure:"physics_step"`
	// BoutDuration caps a headless bout's simulated time.
	BoutDuration time.Duration `mapstructure:"bout_duration"`
	// AttackRange is the distance within which an attack window can land.
	AttackRange float64 `mapstructure:"attack_range"`
}

// CombatConfig holds resolution factors and the state tuning knobs.
type CombatConfig struct {
	// PartialParryFactor scales damage on a partial parry, in [0, 1].
	PartialParryFactor float64 `mapstructure:"partial_parry_factor"`
	// BlockFactor scales the damage that penetrates a block, in [0, 1];
	// lower values mean sturdier blocks.
	BlockFactor float64 `mapstructure:"block_factor"`
	// Tuning parameterizes the concrete behavioral states.
	Tuning states.Tuning `mapstructure:"tuning"`
}

// ContentConfig holds authored content locations.
type ContentConfig struct {
	// StatsDir is the directory of actor stat sheet YAML files.
	StatsDir string `mapstructure:"stats_dir"`
	// ScriptsDir is the optional directory of Lua combat hooks.
	ScriptsDir string `mapstructure:"scripts_dir"`
	// ScriptInstructionLimit caps Lua opcodes per VM; 0 uses the default.
	ScriptInstructionLimit int `mapstructure:"script_instruction_limit"`
}

// Config is the top-level application configuration.
type Config struct {
	Logging    LoggingConfig    `mapstructure:"logging"`
	Simulation SimulationConfig `mapstructure:"simulation"`
	Combat     CombatConfig     `mapstructure:"combat"`
	Content    ContentConfig    `mapstructure:"content"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error
// describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateSimulation(c.Simulation); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateCombat(c.Combat); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateContent(c.Content); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

func validateSimulation(s SimulationConfig) error {
	var errs []string
	if s.FrameStep <= 0 {
		errs = append(errs, fmt.Sprintf("simulation.frame_step must be positive, got %v", s.FrameStep))
	}
	if s.PhysicsStep <= 0 {
		errs = append(errs, fmt.Sprintf("simulation.physics_step must be positive, got %v", s.PhysicsStep))
	}
	if s.PhysicsStep > s.FrameStep {
		errs = append(errs, "simulation.physics_step must not exceed simulation.frame_step")
	}
	if s.BoutDuration <= 0 {
		errs = append(errs, fmt.Sprintf("simulation.bout_duration must be positive, got %v", s.BoutDuration))
	}
	if s.AttackRange <= 0 {
		errs = append(errs, fmt.Sprintf("simulation.attack_range must be positive, got %v", s.AttackRange))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateCombat(c CombatConfig) error {
	var errs []string
	if c.PartialParryFactor < 0 || c.PartialParryFactor > 1 {
		errs = append(errs, fmt.Sprintf("combat.partial_parry_factor must be in [0, 1], got %v", c.PartialParryFactor))
	}
	if c.BlockFactor < 0 || c.BlockFactor > 1 {
		errs = append(errs, fmt.Sprintf("combat.block_factor must be in [0, 1], got %v", c.BlockFactor))
	}
	if err := c.Tuning.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("combat.tuning: %v", err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateContent(c ContentConfig) error {
	var errs []string
	if c.StatsDir == "" {
		errs = append(errs, "content.stats_dir must not be empty")
	}
	if c.ScriptInstructionLimit < 0 {
		errs = append(errs, fmt.Sprintf("content.script_instruction_limit must be >= 0, got %d", c.ScriptInstructionLimit))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// Load reads configuration from the given file path, applies environment
// variable overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Environment variable overrides with SKIRMISH_ prefix
	v.SetEnvPrefix("SKIRMISH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	return LoadFromViper(v)
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	// Tuning defaults are a structured block; mapstructure leaves fields
	// untouched when the config file omits the section, so pre-fill them.
	cfg.Combat.Tuning = states.DefaultTuning()
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("simulation.frame_step", "16ms")
	v.SetDefault("simulation.physics_step", "8ms")
	v.SetDefault("simulation.bout_duration", "2m")
	v.SetDefault("simulation.attack_range", 2.0)

	v.SetDefault("combat.partial_parry_factor", 0.4)
	v.SetDefault("combat.block_factor", 0.5)

	v.SetDefault("content.stats_dir", "content/sheets")
	v.SetDefault("content.scripts_dir", "")
	v.SetDefault("content.script_instruction_limit", 0)
}
