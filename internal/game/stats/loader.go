package stats

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// yamlSheetFile is the top-level YAML structure for sheet files.
type yamlSheetFile struct {
	Sheet yamlSheet `yaml:"sheet"`
}

// yamlSheet is the YAML representation of a stat sheet. Durations are
// authored as strings such as "750ms" or "2s".
type yamlSheet struct {
	ID        string `yaml:"id"`
	Name      string `yaml:"name"`
	Faction   string `yaml:"faction"`
	Archetype string `yaml:"archetype"`

	MaxHealth int `yaml:"max_health"`

	MaxPoise       float64 `yaml:"max_poise"`
	PoiseGrace     string  `yaml:"poise_grace"`
	PoiseDecayRate float64 `yaml:"poise_decay_rate"`

	MaxStamina        float64 `yaml:"max_stamina"`
	StaminaRegenRate  float64 `yaml:"stamina_regen_rate"`
	StaminaRegenDelay string  `yaml:"stamina_regen_delay"`

	MaxForceSpeed    float64 `yaml:"max_force_speed"`
	MaxForceLifetime string  `yaml:"max_force_lifetime"`
}

// LoadSheetFromFile reads and validates a single stat sheet YAML file.
//
// Precondition: path must point to a valid YAML sheet file.
// Postcondition: Returns a validated Sheet or a non-nil error.
func LoadSheetFromFile(path string) (*Sheet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading sheet file %s: %w", path, err)
	}
	return LoadSheetFromBytes(data)
}

// LoadSheetFromBytes parses and validates a stat sheet from YAML bytes.
//
// Precondition: data must be valid YAML conforming to the sheet schema.
// Postcondition: Returns a validated Sheet or a non-nil error.
func LoadSheetFromBytes(data []byte) (*Sheet, error) {
	var file yamlSheetFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing sheet YAML: %w", err)
	}

	sheet, err := convertYAMLSheet(file.Sheet)
	if err != nil {
		return nil, fmt.Errorf("converting sheet %s: %w", file.Sheet.ID, err)
	}
	if err := sheet.Validate(); err != nil {
		return nil, fmt.Errorf("validating sheet: %w", err)
	}

	return sheet, nil
}

// LoadSheetsFromDir loads all YAML files in a directory as stat sheets,
// keyed by sheet ID.
//
// Precondition: dir must be a valid directory path.
// Postcondition: Returns all validated sheets or the first error encountered;
// duplicate sheet IDs are an error.
func LoadSheetsFromDir(dir string) (map[string]*Sheet, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading sheet directory %s: %w", dir, err)
	}

	sheets := make(map[string]*Sheet)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml") {
			continue
		}
		sheet, err := LoadSheetFromFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("loading sheet from %s: %w", name, err)
		}
		if _, exists := sheets[sheet.ID]; exists {
			return nil, fmt.Errorf("duplicate sheet id %q in %s", sheet.ID, name)
		}
		sheets[sheet.ID] = sheet
	}

	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheet files found in %s", dir)
	}

	return sheets, nil
}

// convertYAMLSheet converts the parsed YAML structure into the domain type.
// Empty duration strings convert to zero and are left to Validate to judge.
func convertYAMLSheet(ys yamlSheet) (*Sheet, error) {
	poiseGrace, err := parseDuration("poise_grace", ys.PoiseGrace)
	if err != nil {
		return nil, err
	}
	regenDelay, err := parseDuration("stamina_regen_delay", ys.StaminaRegenDelay)
	if err != nil {
		return nil, err
	}
	forceLifetime, err := parseDuration("max_force_lifetime", ys.MaxForceLifetime)
	if err != nil {
		return nil, err
	}

	return &Sheet{
		ID:                ys.ID,
		Name:              strings.TrimSpace(ys.Name),
		Faction:           ys.Faction,
		Archetype:         Archetype(ys.Archetype),
		MaxHealth:         ys.MaxHealth,
		MaxPoise:          ys.MaxPoise,
		PoiseGrace:        poiseGrace,
		PoiseDecayRate:    ys.PoiseDecayRate,
		MaxStamina:        ys.MaxStamina,
		StaminaRegenRate:  ys.StaminaRegenRate,
		StaminaRegenDelay: regenDelay,
		MaxForceSpeed:     ys.MaxForceSpeed,
		MaxForceLifetime:  forceLifetime,
	}, nil
}

func parseDuration(field, value string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", field, err)
	}
	return d, nil
}
