package domain

// FoodItem is one row of the local food database. Nutrient amounts are per
// serving, in each nutrient's native unit. Missing values default to 0,
// never NaN.
type FoodItem struct {
	FoodName     string                  `yaml:"food_name" json:"food_name"`
	Brand        string                  `yaml:"brand" json:"brand"`
	Category     string                  `yaml:"category" json:"category"`
	FDCID        int                     `yaml:"fdc_id" json:"fdc_id"`
	ServingName  string                  `yaml:"serving_name" json:"serving_name"`
	ServingSizeG float64                 `yaml:"serving_size_g" json:"serving_size_g"`
	Nutrients    map[NutrientKey]float64 `yaml:"nutrients" json:"nutrients"`
}

// Clone returns a deep copy; guard logic never mutates its input.
func (f FoodItem) Clone() FoodItem {
	out := f
	out.Nutrients = make(map[NutrientKey]float64, len(f.Nutrients))
	for k, v := range f.Nutrients {
		out.Nutrients[k] = v
	}
	return out
}

// FoodDB is the food database keyed by food name.
type FoodDB map[string]FoodItem

// FoodLogEntry is one logged consumption event. Order within a log is
// irrelevant for aggregation; only date, food name and servings matter.
type FoodLogEntry struct {
	Date     string  `json:"date"` // YYYY-MM-DD
	FoodName string  `json:"food_name"`
	Servings float64 `json:"servings"`
}

// DataSource names an external food-data provider.
type DataSource string

const (
	SourceFDC         DataSource = "FDC"
	SourceNutritionix DataSource = "NUTRITIONIX"
	SourceOFF         DataSource = "OFF"

	// SourceDerived marks values computed by the weekly aggregator rather
	// than traced to a single provider. SourceNone marks absence of data.
	SourceDerived DataSource = "derived"
	SourceNone    DataSource = "none"
)

// NormalizedFood is a provider record reduced to the tracked nutrient set,
// with nutrient amounts already in base units.
type NormalizedFood struct {
	Source       DataSource              `json:"source"`
	SourceID     string                  `json:"source_id"`
	FoodName     string                  `json:"food_name"`
	Brand        string                  `json:"brand,omitempty"`
	ServingName  string                  `json:"serving_name,omitempty"`
	ServingSizeG float64                 `json:"serving_size_g,omitempty"`
	Barcode      string                  `json:"barcode,omitempty"`
	Nutrients    map[NutrientKey]float64 `json:"nutrients"`
}

// NutrientProvenance records which source supplied a nutrient value and how
// much the system trusts it.
type NutrientProvenance struct {
	Source     DataSource `json:"source"`
	Confidence float64    `json:"confidence"` // 0..1
	Flags      []string   `json:"flags"`
}

// MergedFood is a NormalizedFood fused from several providers, with
// per-nutrient provenance and confidence.
type MergedFood struct {
	NormalizedFood
	Provenance map[NutrientKey]NutrientProvenance `json:"provenance"`
	Confidence map[NutrientKey]float64            `json:"confidence"`
}
