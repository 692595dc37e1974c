package application

import "strings"

// One CCF of water is 748.052 gallons. Readings in unrecognized units pass
// through unconverted rather than being guessed at.
const gallonsPerCCF = 748.052

var usageConversions = map[string]float64{
	"CCF":     1,
	"HCF":     1,
	"GALLONS": 1.0 / gallonsPerCCF,
	"GAL":     1.0 / gallonsPerCCF,
	"TGAL":    1000.0 / gallonsPerCCF,
	"KGAL":    1000.0 / gallonsPerCCF,
}

// convertUsage converts a reading to the canonical unit when the source unit
// is recognized; otherwise the amount passes through unchanged.
func convertUsage(unit string, amount float64) float64 {
	if factor, ok := usageConversions[strings.ToUpper(strings.TrimSpace(unit))]; ok {
		return amount * factor
	}
	return amount
}
