package domain

// NutrientKey identifies one of the tracked maternal-health nutrients.
// The set is closed: every per-nutrient map in this package carries exactly
// these keys.
type NutrientKey string

const (
	DHA         NutrientKey = "DHA"
	Selenium    NutrientKey = "Selenium"
	VitaminARAE NutrientKey = "Vitamin_A_RAE"
	Zinc        NutrientKey = "Zinc"
	Iron        NutrientKey = "Iron"
	Iodine      NutrientKey = "Iodine"
	Choline     NutrientKey = "Choline"
	FolateDFE   NutrientKey = "Folate_DFE"
)

// NutrientKeys is the canonical iteration order for the tracked nutrients.
var NutrientKeys = []NutrientKey{
	DHA, Selenium, VitaminARAE, Zinc, Iron, Iodine, Choline, FolateDFE,
}

// Unit is a nutrient mass unit. Only two values exist; milligram is the
// base unit all internal accumulation happens in.
type Unit string

const (
	Milligram Unit = "mg"
	Microgram Unit = "µg"
)

// LifeStage selects which weekly goal table applies.
type LifeStage string

const (
	Preconception  LifeStage = "preconception"
	Trimester1     LifeStage = "pregnancy_trimester1"
	Trimester2     LifeStage = "pregnancy_trimester2"
	Trimester3     LifeStage = "pregnancy_trimester3"
	Lactation      LifeStage = "lactation"
	Interpregnancy LifeStage = "interpregnancy"
)

// LifeStages lists every valid stage, used for validation at load time.
var LifeStages = []LifeStage{
	Preconception, Trimester1, Trimester2, Trimester3, Lactation, Interpregnancy,
}

// ULBucket is the coarser grouping the upper-limit table is keyed by.
// Non-lactation stages all share the pregnancy bucket.
type ULBucket string

const (
	BucketPregnancy ULBucket = "pregnancy"
	BucketLactation ULBucket = "lactation"
)

// BucketForStage collapses a LifeStage into its UL bucket.
func BucketForStage(stage LifeStage) ULBucket {
	if stage == Lactation {
		return BucketLactation
	}
	return BucketPregnancy
}

// NutrientInfo describes one tracked nutrient in the schema.
type NutrientInfo struct {
	Unit    Unit     `yaml:"unit" json:"unit"`
	Aliases []string `yaml:"aliases" json:"aliases,omitempty"`
}

// Schema is the static set of tracked nutrients and the field lists the
// food database is validated against. Loaded once at startup, immutable.
type Schema struct {
	Nutrients      map[NutrientKey]NutrientInfo `yaml:"nutrients"`
	ServingFields  []string                     `yaml:"serving_fields"`
	RequiredFields []string                     `yaml:"food_fields_required"`
}

// Goals maps a life stage to weekly target amounts per nutrient,
// expressed in each nutrient's native unit.
type Goals map[LifeStage]map[NutrientKey]float64

// Range is an inclusive plausibility bound for per-100g nutrient density.
type Range struct {
	Min float64
	Max float64
}

// Limits is the safety reference table: upper limits per bucket, per-100g
// plausibility bounds, and per-source confidence weights. A nil UL entry
// means no established upper limit for that nutrient.
type Limits struct {
	UnitsBase           map[Unit]string
	UL                  map[ULBucket]map[NutrientKey]*float64
	PlausibilityPer100g map[NutrientKey]Range
	ConfidenceWeights   map[string]float64
}

// ULFor returns the upper limit for a nutrient at the given stage, or nil
// when none is established.
func (l *Limits) ULFor(stage LifeStage, nutrient NutrientKey) *float64 {
	if l == nil {
		return nil
	}
	bucket, ok := l.UL[BucketForStage(stage)]
	if !ok {
		return nil
	}
	return bucket[nutrient]
}
