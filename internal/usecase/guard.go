package usecase

import (
	"fmt"

	"github.com/nutriweek/backend/internal/domain"
)

// ApplyGuards checks each tracked nutrient of a food item against its
// configured per-100g plausibility bound. Values whose density exceeds the
// maximum are clamped back to the maximum; values below the minimum are kept
// (trace amounts can be legitimate) but flagged for review. The input item is
// never mutated.
//
// Items with a zero or negative serving size cannot be expressed per 100g,
// so they are skipped entirely: no clamp, no flag.
func ApplyGuards(food domain.FoodItem, limits *domain.Limits) (domain.FoodItem, []string) {
	guarded := food.Clone()
	var flags []string

	if limits == nil || food.ServingSizeG <= 0 {
		return guarded, flags
	}

	for _, nutrient := range domain.NutrientKeys {
		bound, ok := limits.PlausibilityPer100g[nutrient]
		if !ok {
			continue
		}
		value := guarded.Nutrients[nutrient]
		per100g := value * 100 / guarded.ServingSizeG

		switch {
		case per100g > bound.Max:
			guarded.Nutrients[nutrient] = bound.Max * guarded.ServingSizeG / 100
			flags = append(flags, fmt.Sprintf("plausibility_clamped:%s:%.1f>%g", nutrient, per100g, bound.Max))
		case per100g < bound.Min:
			flags = append(flags, fmt.Sprintf("plausibility_low:%s:%.1f<%g", nutrient, per100g, bound.Min))
		}
	}

	return guarded, flags
}
