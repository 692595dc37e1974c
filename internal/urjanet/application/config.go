package application

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"meterdata-cloud/internal/interval"
)

// profileOverride is the YAML shape for one utility entry. Empty fields keep
// the built-in (or default) value.
type profileOverride struct {
	RequireField        string   `yaml:"require_field"`
	OrderBy             string   `yaml:"order_by"`
	PeriodSource        string   `yaml:"period_source"`
	Shift               string   `yaml:"shift"`
	StrictOverlap       *bool    `yaml:"strict_overlap"`
	ToleranceDays       *int     `yaml:"tolerance_days"`
	ExcludedChargeNames []string `yaml:"excluded_charge_names"`
	PeakUnits           []string `yaml:"peak_units"`
}

type profileFile struct {
	Utilities map[string]profileOverride `yaml:"utilities"`
}

// Profiles resolves utility names to reconciliation profiles.
type Profiles struct {
	byName map[string]Profile
}

// LoadProfiles returns the built-in profiles, overlaid with declarative
// overrides from the YAML file at path when path is non-empty.
func LoadProfiles(path string) (*Profiles, error) {
	byName := builtinProfiles()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("profiles: read %s: %w", path, err)
		}
		var file profileFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("profiles: parse %s: %w", path, err)
		}
		for name, override := range file.Utilities {
			base, ok := byName[name]
			if !ok {
				base = DefaultProfile()
				base.Name = name
			}
			applyOverride(&base, override)
			if err := base.Validate(); err != nil {
				return nil, err
			}
			byName[name] = base
		}
	}

	for _, profile := range byName {
		if err := profile.Validate(); err != nil {
			return nil, err
		}
	}
	return &Profiles{byName: byName}, nil
}

// Resolve returns the profile for a utility, falling back to the default.
func (p *Profiles) Resolve(utility string) Profile {
	if profile, ok := p.byName[utility]; ok {
		return profile
	}
	return p.byName["default"]
}

// Names returns the configured utility names.
func (p *Profiles) Names() []string {
	names := make([]string, 0, len(p.byName))
	for name := range p.byName {
		names = append(names, name)
	}
	return names
}

func applyOverride(base *Profile, override profileOverride) {
	if override.RequireField != "" {
		base.RequireField = DateField(override.RequireField)
	}
	if override.OrderBy != "" {
		base.OrderBy = DateField(override.OrderBy)
	}
	if override.PeriodSource != "" {
		base.PeriodSource = PeriodSource(override.PeriodSource)
	}
	if override.Shift != "" {
		base.Shift = interval.ShiftStrategy(override.Shift)
	}
	if override.StrictOverlap != nil {
		base.StrictOverlap = *override.StrictOverlap
	}
	if override.ToleranceDays != nil {
		base.ToleranceDays = *override.ToleranceDays
	}
	if override.ExcludedChargeNames != nil {
		base.ExcludedChargeNames = override.ExcludedChargeNames
	}
	if override.PeakUnits != nil {
		base.PeakUnits = override.PeakUnits
	}
}
