package usecase

import "github.com/nutriweek/backend/internal/domain"

// Shared reference fixtures mirroring the data/ defaults.

func ulOf(v float64) *float64 { return &v }

func testSchema() *domain.Schema {
	return &domain.Schema{
		Nutrients: map[domain.NutrientKey]domain.NutrientInfo{
			domain.DHA:         {Unit: domain.Milligram},
			domain.Selenium:    {Unit: domain.Microgram},
			domain.VitaminARAE: {Unit: domain.Microgram},
			domain.Zinc:        {Unit: domain.Milligram},
			domain.Iron:        {Unit: domain.Milligram},
			domain.Iodine:      {Unit: domain.Microgram},
			domain.Choline:     {Unit: domain.Milligram},
			domain.FolateDFE:   {Unit: domain.Microgram},
		},
		ServingFields:  []string{"serving_name", "serving_size_g"},
		RequiredFields: []string{"food_name", "serving_size_g"},
	}
}

func testLimits() *domain.Limits {
	return &domain.Limits{
		UnitsBase: map[domain.Unit]string{
			domain.Milligram: "milligram",
			domain.Microgram: "microgram",
		},
		UL: map[domain.ULBucket]map[domain.NutrientKey]*float64{
			domain.BucketPregnancy: {
				domain.VitaminARAE: ulOf(3000),
				domain.Selenium:    ulOf(400),
			},
			domain.BucketLactation: {
				domain.VitaminARAE: ulOf(3000),
				domain.Selenium:    ulOf(400),
			},
		},
		PlausibilityPer100g: map[domain.NutrientKey]domain.Range{
			domain.Selenium: {Min: 0, Max: 2000},
			domain.Iron:     {Min: 0, Max: 100},
		},
		ConfidenceWeights: map[string]float64{
			"FDC":         1.0,
			"NUTRITIONIX": 0.8,
			"OFF":         0.6,
			"derived":     0.9,
		},
	}
}

func testGoals() domain.Goals {
	return domain.Goals{
		domain.Trimester2: {
			domain.DHA:         200,
			domain.Selenium:    450,
			domain.VitaminARAE: 5390,
			domain.Zinc:        77,
			domain.Iron:        189,
			domain.Iodine:      1540,
			domain.Choline:     3150,
			domain.FolateDFE:   4200,
		},
	}
}

func foodWith(name string, servingG float64, nutrients map[domain.NutrientKey]float64) domain.FoodItem {
	full := make(map[domain.NutrientKey]float64, len(domain.NutrientKeys))
	for _, k := range domain.NutrientKeys {
		full[k] = nutrients[k]
	}
	return domain.FoodItem{
		FoodName:     name,
		Brand:        "Test Brand",
		Category:     "Test",
		FDCID:        123,
		ServingName:  "1 serving",
		ServingSizeG: servingG,
		Nutrients:    full,
	}
}

func normalizedFood(source domain.DataSource, id, name string, nutrients map[domain.NutrientKey]float64) domain.NormalizedFood {
	full := make(map[domain.NutrientKey]float64, len(domain.NutrientKeys))
	for _, k := range domain.NutrientKeys {
		full[k] = nutrients[k]
	}
	return domain.NormalizedFood{
		Source:    source,
		SourceID:  id,
		FoodName:  name,
		Nutrients: full,
	}
}
