package sources

import (
	"strings"

	"github.com/nutriweek/backend/internal/domain"
)

// emptyNutrients returns the tracked nutrient set initialized to zero so
// every normalized record carries a complete map.
func emptyNutrients() map[domain.NutrientKey]float64 {
	out := make(map[domain.NutrientKey]float64, len(domain.NutrientKeys))
	for _, k := range domain.NutrientKeys {
		out[k] = 0
	}
	return out
}

// baseAmount converts a provider amount to base milligrams. Unknown units
// contribute nothing rather than a wrong magnitude.
func baseAmount(value float64, unitName string) float64 {
	switch strings.ToLower(strings.TrimSpace(unitName)) {
	case "g":
		return value * 1000
	case "mg":
		return value
	case "µg", "ug", "mcg":
		return value / 1000
	default:
		return 0
	}
}
