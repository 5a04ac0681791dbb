package usecase

import (
	"fmt"
	"sort"
	"strings"

	"github.com/nutriweek/backend/internal/domain"
)

// micronutrients are preferentially taken from FDC regardless of confidence
// ranking; the government database is the authority for these.
var micronutrients = map[domain.NutrientKey]bool{
	domain.VitaminARAE: true,
	domain.Selenium:    true,
	domain.Iodine:      true,
	domain.FolateDFE:   true,
}

// conflictRatio is the exclusive max/min ratio beyond which two non-zero
// values from different sources are considered conflicting.
const conflictRatio = 3.0

// conflictConfidence is the confidence a competing source must exceed for
// its disagreement to be worth flagging.
const conflictConfidence = 0.7

// Merger fuses food records from multiple data sources into one record with
// per-nutrient provenance. Source trust comes from the limits table's
// confidence weights.
type Merger struct {
	weights map[string]float64
}

// NewMerger creates a merger using the given per-source confidence weights.
func NewMerger(weights map[string]float64) *Merger {
	return &Merger{weights: weights}
}

func (m *Merger) sourceWeight(source domain.DataSource) float64 {
	return m.weights[string(source)]
}

// completeness is the fraction of tracked nutrients a record reports a
// non-zero value for.
func completeness(food domain.NormalizedFood) float64 {
	present := 0
	for _, nutrient := range domain.NutrientKeys {
		if food.Nutrients[nutrient] > 0 {
			present++
		}
	}
	f := float64(present) / float64(len(domain.NutrientKeys))
	if f > 1 {
		f = 1
	}
	return f
}

func valuesConflict(a, b float64) bool {
	if a == 0 || b == 0 {
		return false
	}
	hi, lo := a, b
	if lo > hi {
		hi, lo = lo, hi
	}
	return hi/lo > conflictRatio
}

type nutrientChoice struct {
	value      float64
	source     domain.DataSource
	confidence float64
	order      int
}

// Merge fuses the primary record with zero or more fallback records.
// Metadata is first-non-empty-wins scanning primary then fallbacks in order.
// Per nutrient: FDC wins for micronutrients when it has a non-zero value;
// otherwise the highest-confidence non-zero value wins, ties broken by
// collection order. Disagreement >3x with another source above 0.7
// confidence is flagged, never fatal. A nutrient no source reports gets
// source none, confidence 0, and a no_data flag.
func (m *Merger) Merge(primary domain.NormalizedFood, fallbacks []domain.NormalizedFood) domain.MergedFood {
	merged := domain.MergedFood{
		NormalizedFood: domain.NormalizedFood{
			Source:       primary.Source,
			SourceID:     primary.SourceID,
			FoodName:     primary.FoodName,
			Brand:        primary.Brand,
			ServingName:  primary.ServingName,
			ServingSizeG: primary.ServingSizeG,
			Barcode:      primary.Barcode,
			Nutrients:    make(map[domain.NutrientKey]float64, len(domain.NutrientKeys)),
		},
		Provenance: make(map[domain.NutrientKey]domain.NutrientProvenance, len(domain.NutrientKeys)),
		Confidence: make(map[domain.NutrientKey]float64, len(domain.NutrientKeys)),
	}
	for k, v := range primary.Nutrients {
		merged.Nutrients[k] = v
	}

	all := append([]domain.NormalizedFood{primary}, fallbacks...)

	for _, food := range all {
		if merged.Brand == "" && food.Brand != "" {
			merged.Brand = food.Brand
		}
		if merged.ServingName == "" && food.ServingName != "" {
			merged.ServingName = food.ServingName
		}
		if merged.ServingSizeG == 0 && food.ServingSizeG != 0 {
			merged.ServingSizeG = food.ServingSizeG
		}
		if merged.Barcode == "" && food.Barcode != "" {
			merged.Barcode = food.Barcode
		}
	}

	for _, nutrient := range domain.NutrientKeys {
		var choices []nutrientChoice
		for i, food := range all {
			value := food.Nutrients[nutrient]
			if value > 0 {
				choices = append(choices, nutrientChoice{
					value:      value,
					source:     food.Source,
					confidence: m.sourceWeight(food.Source) * completeness(food),
					order:      i,
				})
			}
		}

		if len(choices) == 0 {
			merged.Nutrients[nutrient] = 0
			merged.Provenance[nutrient] = domain.NutrientProvenance{
				Source: domain.SourceNone,
				Flags:  []string{"no_data"},
			}
			merged.Confidence[nutrient] = 0
			continue
		}

		// Highest confidence first; collection order breaks ties.
		sort.SliceStable(choices, func(i, j int) bool {
			return choices[i].confidence > choices[j].confidence
		})

		chosen := choices[0]
		var flags []string

		if micronutrients[nutrient] {
			fdc := -1
			for i, c := range choices {
				if c.source == domain.SourceFDC {
					fdc = i
					break
				}
			}
			if fdc >= 0 {
				chosen = choices[fdc]
			} else {
				flags = append(flags, "no_fdc_data")
			}
		}

		for _, other := range choices {
			if other.source == chosen.source || other.confidence <= conflictConfidence {
				continue
			}
			if valuesConflict(chosen.value, other.value) {
				flags = append(flags, fmt.Sprintf("conflict:%s:%.1f", other.source, other.value))
			}
		}

		merged.Nutrients[nutrient] = chosen.value
		merged.Provenance[nutrient] = domain.NutrientProvenance{
			Source:     chosen.source,
			Confidence: chosen.confidence,
			Flags:      flags,
		}
		merged.Confidence[nutrient] = chosen.confidence
	}

	return merged
}

// normalizeName lowercases a food name and strips everything that is not a
// letter or digit, so matching ignores case and punctuation.
func normalizeName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// FindRelatedFoods returns candidates from the pool matching the target,
// excluding the target itself by source id. Barcode matches take absolute
// precedence; name matching (substring containment in either direction on
// normalized names) is attempted only when no barcode match exists.
func FindRelatedFoods(target domain.NormalizedFood, pool []domain.NormalizedFood) []domain.NormalizedFood {
	var related []domain.NormalizedFood

	if target.Barcode != "" {
		for _, food := range pool {
			if food.SourceID == target.SourceID {
				continue
			}
			if food.Barcode == target.Barcode {
				related = append(related, food)
			}
		}
	}
	if len(related) > 0 {
		return related
	}

	name := normalizeName(target.FoodName)
	if name == "" {
		return related
	}
	for _, food := range pool {
		if food.SourceID == target.SourceID {
			continue
		}
		other := normalizeName(food.FoodName)
		if other == "" {
			continue
		}
		if strings.Contains(other, name) || strings.Contains(name, other) {
			related = append(related, food)
		}
	}
	return related
}
