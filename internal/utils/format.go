package utils

import (
	"fmt"

	"github.com/t1000cgm/companion/internal/domain"
)

// Sensor saturation limits. Dexcom reports 39 and below as LOW and values
// above 400 as HIGH; the watch shows the literal strings.
const (
	lowClamp  = 40
	highClamp = 400
)

const mgdlPerMmol = 18.0182

// MmolFromMgdl converts a mg/dL value to mmol/L, one decimal.
func MmolFromMgdl(value int) float64 {
	mmol := float64(value) / mgdlPerMmol
	return float64(int(mmol*10+0.5)) / 10
}

// FormatValue renders a glucose value for the watch in the configured unit.
func FormatValue(value int, unit string) string {
	if value < lowClamp {
		return "LOW"
	}
	if value > highClamp {
		return "HIGH"
	}
	if unit == domain.UnitMmol {
		return fmt.Sprintf("%.1f", MmolFromMgdl(value))
	}
	return fmt.Sprintf("%d", value)
}

// FormatDelta renders a signed mg/dL delta in the configured unit.
func FormatDelta(delta int, unit string) string {
	if unit == domain.UnitMmol {
		mmol := float64(delta) / mgdlPerMmol
		return fmt.Sprintf("%+.1f", mmol)
	}
	return fmt.Sprintf("%+d", delta)
}
