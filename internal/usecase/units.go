package usecase

import "github.com/nutriweek/backend/internal/domain"

// All internal accumulation happens in milligrams. Conversions are exact
// for both units, so a round-trip through the base unit is idempotent.

// ToBaseUnit converts a value from its native unit into milligrams.
func ToBaseUnit(value float64, from domain.Unit) float64 {
	if from == domain.Milligram {
		return value
	}
	return value / 1000
}

// FromBaseUnit converts a milligram value back into the given unit.
func FromBaseUnit(value float64, to domain.Unit) float64 {
	if to == domain.Milligram {
		return value
	}
	return value * 1000
}
