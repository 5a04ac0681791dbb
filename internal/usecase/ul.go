package usecase

import "github.com/nutriweek/backend/internal/domain"

// ulWarnFraction is the fraction of an upper limit at which a warning is
// raised even though the limit itself has not been exceeded.
const ulWarnFraction = 0.8

// EvaluateULs classifies every tracked nutrient's weekly total against the
// upper-limit table for the stage's bucket. Totals are expected in each
// nutrient's native unit, matching the UL table. The result always carries
// an entry for every tracked nutrient; OverBy is nil exactly when severity
// is none. Nutrients with no established UL, or a zero total, are never
// evaluated.
func EvaluateULs(weeklyTotals map[domain.NutrientKey]float64, stage domain.LifeStage, limits *domain.Limits) map[domain.NutrientKey]domain.ULAlert {
	alerts := make(map[domain.NutrientKey]domain.ULAlert, len(domain.NutrientKeys))

	for _, nutrient := range domain.NutrientKeys {
		total := weeklyTotals[nutrient]
		ul := limits.ULFor(stage, nutrient)

		alert := domain.ULAlert{
			Total:    total,
			UL:       ul,
			Severity: domain.SeverityNone,
		}

		if ul != nil && total > 0 {
			switch {
			case total > *ul:
				over := total - *ul
				alert.Severity = domain.SeverityError
				alert.OverBy = &over
			case total >= *ul*ulWarnFraction:
				// Signed distance to the limit; negative while still under it.
				over := total - *ul
				alert.Severity = domain.SeverityWarn
				alert.OverBy = &over
			}
		}

		alerts[nutrient] = alert
	}

	return alerts
}
