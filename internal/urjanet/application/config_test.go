package application

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meterdata-cloud/internal/interval"
)

func writeProfileFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "profiles.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadProfilesBuiltins(t *testing.T) {
	profiles, err := LoadProfiles("")
	require.NoError(t, err)

	for _, name := range []string{"default", "austin-energy", "ladwp", "sfpuc-water", "pse"} {
		profile := profiles.Resolve(name)
		assert.Equal(t, name, profile.Name)
	}

	// Unknown utilities fall back to the default profile.
	fallback := profiles.Resolve("never-heard-of-it")
	assert.Equal(t, "default", fallback.Name)
}

func TestLoadProfilesOverridesExisting(t *testing.T) {
	path := writeProfileFile(t, `
utilities:
  ladwp:
    tolerance_days: 3
    strict_overlap: false
`)
	profiles, err := LoadProfiles(path)
	require.NoError(t, err)

	ladwp := profiles.Resolve("ladwp")
	assert.Equal(t, 3, ladwp.ToleranceDays)
	assert.False(t, ladwp.StrictOverlap)
	// Untouched fields keep their built-in values.
	assert.Equal(t, DateFieldInterval, ladwp.RequireField)
	assert.Equal(t, interval.StrategyShiftEnd, ladwp.Shift)
}

func TestLoadProfilesAddsNewUtility(t *testing.T) {
	path := writeProfileFile(t, `
utilities:
  metro-water:
    shift: shift-start
    period_source: usage-union
    excluded_charge_names:
      - Backflow Prevention Credit
`)
	profiles, err := LoadProfiles(path)
	require.NoError(t, err)

	profile := profiles.Resolve("metro-water")
	assert.Equal(t, "metro-water", profile.Name)
	assert.Equal(t, interval.StrategyShiftStart, profile.Shift)
	assert.Equal(t, PeriodFromUsage, profile.PeriodSource)
	assert.Equal(t, []string{"Backflow Prevention Credit"}, profile.ExcludedChargeNames)
	// Unset knobs inherit from the default profile.
	assert.Equal(t, 1, profile.ToleranceDays)
}

func TestLoadProfilesRejectsUnknownShift(t *testing.T) {
	path := writeProfileFile(t, `
utilities:
  broken:
    shift: shuffle-sideways
`)
	_, err := LoadProfiles(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "shift")
}

func TestLoadProfilesMissingFile(t *testing.T) {
	_, err := LoadProfiles(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestProfileValidate(t *testing.T) {
	profile := DefaultProfile()
	require.NoError(t, profile.Validate())

	profile.ToleranceDays = -1
	require.Error(t, profile.Validate())

	profile = DefaultProfile()
	profile.PeriodSource = "vibes"
	require.Error(t, profile.Validate())
}

func TestConvertUsage(t *testing.T) {
	assert.InDelta(t, 12, convertUsage("CCF", 12), 1e-9)
	assert.InDelta(t, 12, convertUsage("ccf", 12), 1e-9)
	assert.InDelta(t, 1, convertUsage("GALLONS", 748.052), 1e-9)
	assert.InDelta(t, 1000.0/748.052, convertUsage("KGAL", 1), 1e-9)
	// Unrecognized units pass through.
	assert.InDelta(t, 99, convertUsage("kWh", 99), 1e-9)
}
