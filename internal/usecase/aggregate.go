package usecase

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/nutriweek/backend/internal/domain"
)

// ComputeWeeklyInput carries everything the weekly pipeline needs. Limits is
// optional: without it the plausibility guard and UL evaluation are skipped
// and the computation degrades gracefully.
type ComputeWeeklyInput struct {
	Log    []domain.FoodLogEntry
	Stage  domain.LifeStage
	FoodDB domain.FoodDB
	Goals  domain.Goals
	Schema *domain.Schema
	Limits *domain.Limits
}

const dateLayout = "2006-01-02"

// startOfWeek returns the Sunday on or before t. The week convention is
// fixed to Sunday-start; it is not inferred per entry.
func startOfWeek(t time.Time) time.Time {
	return t.AddDate(0, 0, -int(t.Weekday()))
}

func endOfWeek(t time.Time) time.Time {
	return startOfWeek(t).AddDate(0, 0, 6)
}

// ComputeWeekly aggregates a food log into per-nutrient weekly totals and
// evaluates them against the stage's goals and upper limits.
//
// The week window is derived from the first log entry's date only. Entries
// outside that window are still summed, but their presence is surfaced with
// a week_window_exceeded flag so callers know the week label is approximate.
//
// Failure is all-or-nothing: an empty log, an unknown food, an unparseable
// date, or a missing goal table aborts the whole computation. Every tracked
// nutrient always has an entry in every per-nutrient map of the result.
func ComputeWeekly(input ComputeWeeklyInput) (*domain.Report, error) {
	if len(input.Log) == 0 {
		return nil, domain.ErrNoEntries
	}

	firstDate, err := time.Parse(dateLayout, input.Log[0].Date)
	if err != nil {
		return nil, fmt.Errorf("invalid log date %q: %w", input.Log[0].Date, err)
	}
	weekStart := startOfWeek(firstDate)
	weekEnd := endOfWeek(firstDate)

	stageGoals, ok := input.Goals[input.Stage]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrGoalsNotFound, input.Stage)
	}

	var flags []string
	windowExceeded := false

	// date -> nutrient -> base-unit amount
	daily := make(map[string]map[domain.NutrientKey]float64)

	for _, entry := range input.Log {
		food, ok := input.FoodDB[entry.FoodName]
		if !ok {
			return nil, fmt.Errorf("%w: %q", domain.ErrFoodNotFound, entry.FoodName)
		}

		entryDate, err := time.Parse(dateLayout, entry.Date)
		if err != nil {
			return nil, fmt.Errorf("invalid log date %q: %w", entry.Date, err)
		}
		if entryDate.Before(weekStart) || entryDate.After(weekEnd) {
			windowExceeded = true
		}

		if input.Limits != nil {
			var guardFlags []string
			food, guardFlags = ApplyGuards(food, input.Limits)
			flags = append(flags, guardFlags...)
		}

		day, ok := daily[entry.Date]
		if !ok {
			day = make(map[domain.NutrientKey]float64, len(domain.NutrientKeys))
			daily[entry.Date] = day
		}

		for _, nutrient := range domain.NutrientKeys {
			info := input.Schema.Nutrients[nutrient]
			amount := food.Nutrients[nutrient] * entry.Servings
			day[nutrient] += ToBaseUnit(amount, info.Unit)
		}
	}

	if windowExceeded {
		flags = append(flags, "week_window_exceeded")
	}

	weeklyTotals := make(map[domain.NutrientKey]float64, len(domain.NutrientKeys))
	for _, day := range daily {
		for nutrient, amount := range day {
			weeklyTotals[nutrient] += amount
		}
	}

	nutrients := make(map[domain.NutrientKey]domain.NutrientReport, len(domain.NutrientKeys))
	provenance := make(map[domain.NutrientKey]domain.DataSource, len(domain.NutrientKeys))
	confidence := make(map[domain.NutrientKey]float64, len(domain.NutrientKeys))

	derivedWeight := 0.0
	if input.Limits != nil {
		derivedWeight = input.Limits.ConfidenceWeights[string(domain.SourceDerived)]
	}

	summary := domain.ReportSummary{
		DeficientNutrients: []domain.NutrientKey{},
		SurplusNutrients:   []domain.NutrientKey{},
	}

	for _, nutrient := range domain.NutrientKeys {
		info := input.Schema.Nutrients[nutrient]
		total := weeklyTotals[nutrient]
		goal := ToBaseUnit(stageGoals[nutrient], info.Unit)

		percent := 0
		if goal > 0 {
			percent = int(math.Min(math.Round(total/goal*100), 999))
		}
		gap := total - goal

		nutrients[nutrient] = domain.NutrientReport{
			WeeklyTotal:   total,
			WeeklyGoal:    goal,
			PercentTarget: percent,
			GapSurplus:    gap,
		}
		provenance[nutrient] = domain.SourceDerived
		confidence[nutrient] = derivedWeight

		switch {
		case gap < 0:
			summary.DeficientNutrients = append(summary.DeficientNutrients, nutrient)
		case gap > 0:
			summary.SurplusNutrients = append(summary.SurplusNutrients, nutrient)
		}
		summary.TotalGapSurplus += math.Abs(gap)
	}

	report := &domain.Report{
		Stage:      input.Stage,
		WeekStart:  weekStart.Format(dateLayout),
		WeekEnd:    weekEnd.Format(dateLayout),
		Nutrients:  nutrients,
		Provenance: provenance,
		Confidence: confidence,
		ULAlerts:   make(map[domain.NutrientKey]domain.ULAlert, len(domain.NutrientKeys)),
		ULWarnings: []domain.NutrientKey{},
		ULExceeded: []domain.NutrientKey{},
		Summary:    summary,
		Flags:      flags,
	}
	if report.Flags == nil {
		report.Flags = []string{}
	}

	if input.Limits != nil {
		// The UL table is in native units; convert the base totals back
		// before comparing.
		nativeTotals := make(map[domain.NutrientKey]float64, len(domain.NutrientKeys))
		for _, nutrient := range domain.NutrientKeys {
			info := input.Schema.Nutrients[nutrient]
			nativeTotals[nutrient] = FromBaseUnit(weeklyTotals[nutrient], info.Unit)
		}
		report.ULAlerts = EvaluateULs(nativeTotals, input.Stage, input.Limits)

		for _, nutrient := range domain.NutrientKeys {
			switch report.ULAlerts[nutrient].Severity {
			case domain.SeverityWarn:
				report.ULWarnings = append(report.ULWarnings, nutrient)
			case domain.SeverityError:
				report.ULExceeded = append(report.ULExceeded, nutrient)
			}
		}
		sort.Slice(report.ULWarnings, func(i, j int) bool { return report.ULWarnings[i] < report.ULWarnings[j] })
		sort.Slice(report.ULExceeded, func(i, j int) bool { return report.ULExceeded[i] < report.ULExceeded[j] })
	}

	return report, nil
}
