package refdata

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nutriweek/backend/internal/domain"
)

// Bundle is the immutable reference data loaded once at startup.
type Bundle struct {
	Schema *domain.Schema
	Goals  domain.Goals
	Limits *domain.Limits
	Foods  domain.FoodDB
}

// Load reads schema.yml, goals.yml, limits.yml and foods.csv from dir.
func Load(dir string) (*Bundle, error) {
	schema, err := LoadSchema(filepath.Join(dir, "schema.yml"))
	if err != nil {
		return nil, err
	}
	goals, err := LoadGoals(filepath.Join(dir, "goals.yml"))
	if err != nil {
		return nil, err
	}
	limits, err := LoadLimits(filepath.Join(dir, "limits.yml"))
	if err != nil {
		return nil, err
	}
	foods, err := LoadFoods(filepath.Join(dir, "foods.csv"), schema)
	if err != nil {
		return nil, err
	}
	return &Bundle{Schema: schema, Goals: goals, Limits: limits, Foods: foods}, nil
}

// LoadSchema reads and validates the nutrient schema.
func LoadSchema(path string) (*domain.Schema, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}

	var schema domain.Schema
	if err := yaml.Unmarshal(raw, &schema); err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}

	if len(schema.Nutrients) == 0 {
		return nil, fmt.Errorf("schema %s: no nutrients defined", path)
	}
	for key, info := range schema.Nutrients {
		if !knownNutrient(key) {
			return nil, fmt.Errorf("schema %s: unknown nutrient %q", path, key)
		}
		if info.Unit != domain.Milligram && info.Unit != domain.Microgram {
			return nil, fmt.Errorf("schema %s: nutrient %s has invalid unit %q", path, key, info.Unit)
		}
	}
	for _, key := range domain.NutrientKeys {
		if _, ok := schema.Nutrients[key]; !ok {
			return nil, fmt.Errorf("schema %s: nutrient %s missing", path, key)
		}
	}
	return &schema, nil
}

// LoadGoals reads and validates the weekly goal tables. Every goal must be
// positive and keyed by a known stage and nutrient.
func LoadGoals(path string) (domain.Goals, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read goals: %w", err)
	}

	var parsed map[string]map[string]float64
	if err := yaml.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("parse goals: %w", err)
	}

	goals := make(domain.Goals, len(parsed))
	for stageName, table := range parsed {
		stage := domain.LifeStage(stageName)
		if !knownStage(stage) {
			return nil, fmt.Errorf("goals %s: unknown life stage %q", path, stageName)
		}
		converted := make(map[domain.NutrientKey]float64, len(table))
		for keyName, value := range table {
			key := domain.NutrientKey(keyName)
			if !knownNutrient(key) {
				return nil, fmt.Errorf("goals %s: unknown nutrient %q in stage %s", path, keyName, stageName)
			}
			if value <= 0 {
				return nil, fmt.Errorf("goals %s: non-positive goal for %s in stage %s", path, keyName, stageName)
			}
			converted[key] = value
		}
		goals[stage] = converted
	}
	return goals, nil
}

var rangePattern = regexp.MustCompile(`^\d+(\.\d+)?\.\.\d+(\.\d+)?$`)

type limitsFile struct {
	UnitsBase map[string]string `yaml:"units_base"`
	UL        struct {
		Pregnancy map[string]*float64 `yaml:"pregnancy"`
		Lactation map[string]*float64 `yaml:"lactation"`
	} `yaml:"UL"`
	PlausibilityPer100g map[string]string  `yaml:"plausibility_per_100g"`
	ConfidenceWeights   map[string]float64 `yaml:"confidence_weights"`
}

// LoadLimits reads and validates the safety reference table. Plausibility
// bounds use the "lo..hi" range syntax; nutrients without a bound default to
// [0, +Inf], and a null UL means no established limit.
func LoadLimits(path string) (*domain.Limits, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read limits: %w", err)
	}

	var parsed limitsFile
	if err := yaml.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("parse limits: %w", err)
	}

	for _, source := range []string{"FDC", "NUTRITIONIX", "OFF"} {
		if _, ok := parsed.ConfidenceWeights[source]; !ok {
			return nil, fmt.Errorf("limits %s: missing confidence weight for %s", path, source)
		}
	}

	plausibility := make(map[domain.NutrientKey]domain.Range, len(domain.NutrientKeys))
	for _, key := range domain.NutrientKeys {
		plausibility[key] = domain.Range{Min: 0, Max: math.Inf(1)}
	}
	for keyName, rangeStr := range parsed.PlausibilityPer100g {
		key := domain.NutrientKey(keyName)
		if !knownNutrient(key) {
			return nil, fmt.Errorf("limits %s: unknown nutrient %q in plausibility table", path, keyName)
		}
		bound, err := parseRange(rangeStr)
		if err != nil {
			return nil, fmt.Errorf("limits %s: nutrient %s: %w", path, keyName, err)
		}
		plausibility[key] = bound
	}

	ul := map[domain.ULBucket]map[domain.NutrientKey]*float64{
		domain.BucketPregnancy: {},
		domain.BucketLactation: {},
	}
	for bucket, table := range map[domain.ULBucket]map[string]*float64{
		domain.BucketPregnancy: parsed.UL.Pregnancy,
		domain.BucketLactation: parsed.UL.Lactation,
	} {
		for keyName, value := range table {
			key := domain.NutrientKey(keyName)
			if !knownNutrient(key) {
				return nil, fmt.Errorf("limits %s: unknown nutrient %q in UL table", path, keyName)
			}
			ul[bucket][key] = value
		}
	}

	unitsBase := make(map[domain.Unit]string, len(parsed.UnitsBase))
	for unit, name := range parsed.UnitsBase {
		unitsBase[domain.Unit(unit)] = name
	}

	return &domain.Limits{
		UnitsBase:           unitsBase,
		UL:                  ul,
		PlausibilityPer100g: plausibility,
		ConfidenceWeights:   parsed.ConfidenceWeights,
	}, nil
}

func parseRange(s string) (domain.Range, error) {
	if !rangePattern.MatchString(s) {
		return domain.Range{}, fmt.Errorf("invalid range %q, want \"lo..hi\"", s)
	}
	parts := strings.SplitN(s, "..", 2)
	lo, _ := strconv.ParseFloat(parts[0], 64)
	hi, _ := strconv.ParseFloat(parts[1], 64)
	if lo > hi {
		return domain.Range{}, fmt.Errorf("inverted range %q", s)
	}
	return domain.Range{Min: lo, Max: hi}, nil
}

var unitSuffix = regexp.MustCompile(`_(mg|µg)$`)

// LoadFoods reads the food database CSV. Column headers may carry unit
// suffixes (DHA_mg, Selenium_µg); those are stripped before matching the
// nutrient keys. Missing nutrient cells default to zero.
func LoadFoods(path string, schema *domain.Schema) (domain.FoodDB, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open foods: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse foods: %w", err)
	}
	if len(records) < 1 {
		return nil, fmt.Errorf("foods %s: missing header row", path)
	}

	header := records[0]
	for i, col := range header {
		header[i] = unitSuffix.ReplaceAllString(strings.TrimSpace(col), "")
	}

	db := make(domain.FoodDB, len(records)-1)
	for lineNo, record := range records[1:] {
		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(record) {
				row[col] = strings.TrimSpace(record[i])
			}
		}

		for _, field := range schema.RequiredFields {
			if row[field] == "" {
				return nil, fmt.Errorf("foods %s: row %d: missing required field %q", path, lineNo+2, field)
			}
		}

		item := domain.FoodItem{
			FoodName:    row["food_name"],
			Brand:       row["brand"],
			Category:    row["category"],
			ServingName: row["serving_name"],
			Nutrients:   make(map[domain.NutrientKey]float64, len(domain.NutrientKeys)),
		}
		if v := row["fdc_id"]; v != "" {
			item.FDCID, err = strconv.Atoi(v)
			if err != nil {
				return nil, fmt.Errorf("foods %s: row %d: invalid fdc_id %q", path, lineNo+2, v)
			}
		}
		item.ServingSizeG, err = strconv.ParseFloat(row["serving_size_g"], 64)
		if err != nil || item.ServingSizeG <= 0 {
			return nil, fmt.Errorf("foods %s: row %d: invalid serving_size_g %q", path, lineNo+2, row["serving_size_g"])
		}

		for _, key := range domain.NutrientKeys {
			cell := row[string(key)]
			if cell == "" {
				item.Nutrients[key] = 0
				continue
			}
			value, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("foods %s: row %d: invalid %s value %q", path, lineNo+2, key, cell)
			}
			item.Nutrients[key] = value
		}

		db[item.FoodName] = item
	}
	return db, nil
}

func knownNutrient(key domain.NutrientKey) bool {
	for _, k := range domain.NutrientKeys {
		if k == key {
			return true
		}
	}
	return false
}

func knownStage(stage domain.LifeStage) bool {
	for _, s := range domain.LifeStages {
		if s == stage {
			return true
		}
	}
	return false
}
