package domain

// Severity classifies how a weekly total relates to a nutrient's upper limit.
type Severity string

const (
	SeverityNone  Severity = "none"
	SeverityWarn  Severity = "warn"
	SeverityError Severity = "error"
)

// NutrientReport is the weekly view of one nutrient against its goal.
// weekly_total and weekly_goal are in base units; gap_surplus is exactly
// weekly_total - weekly_goal.
type NutrientReport struct {
	WeeklyTotal   float64 `json:"weekly_total"`
	WeeklyGoal    float64 `json:"weekly_goal"`
	PercentTarget int     `json:"percent_target"` // capped at 999
	GapSurplus    float64 `json:"gap_surplus"`
}

// ULAlert is the upper-limit evaluation for one nutrient. Total, UL and
// OverBy are in the nutrient's native unit. OverBy is nil exactly when
// severity is none; it is signed, not an absolute overage.
type ULAlert struct {
	Total    float64  `json:"total"`
	UL       *float64 `json:"ul"`
	OverBy   *float64 `json:"overBy"`
	Severity Severity `json:"severity"`
}

// ReportSummary lists nutrients by the sign of their gap_surplus.
type ReportSummary struct {
	DeficientNutrients []NutrientKey `json:"deficient_nutrients"`
	SurplusNutrients   []NutrientKey `json:"surplus_nutrients"`
	TotalGapSurplus    float64       `json:"total_gap_surplus"`
}

// Report is the weekly nutrition report. Computed fresh per request and
// never persisted by the engine; every per-nutrient map carries an entry
// for every tracked nutrient.
type Report struct {
	Stage      LifeStage                      `json:"stage"`
	WeekStart  string                         `json:"week_start"`
	WeekEnd    string                         `json:"week_end"`
	Nutrients  map[NutrientKey]NutrientReport `json:"nutrients"`
	Provenance map[NutrientKey]DataSource     `json:"provenance"`
	Confidence map[NutrientKey]float64        `json:"confidence"`
	ULAlerts   map[NutrientKey]ULAlert        `json:"ulAlerts"`
	ULWarnings []NutrientKey                  `json:"ul_warnings"`
	ULExceeded []NutrientKey                  `json:"ul_exceeded"`
	Summary    ReportSummary                  `json:"summary"`
	Flags      []string                       `json:"flags"`
}
