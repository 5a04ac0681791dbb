package sources

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/nutriweek/backend/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const defaultFDCBaseURL = "https://api.nal.usda.gov/fdc"

// fdcNutrientIDs maps FoodData Central nutrient ids to the tracked keys.
var fdcNutrientIDs = map[int]domain.NutrientKey{
	1003: domain.Zinc,
	1004: domain.Iron,
	1005: domain.Selenium,
	1051: domain.VitaminARAE,
	1090: domain.Choline,
	1177: domain.FolateDFE,
	1185: domain.DHA,
	1240: domain.Iodine,
}

// FDCClient talks to the USDA FoodData Central API.
type FDCClient struct {
	rest    *restClient
	apiKey  string
	baseURL string
}

// NewFDCClient creates an FDC client. FDC allows 1000 requests per hour,
// so the limiter runs at roughly 0.28 requests per second with a small burst.
func NewFDCClient(apiKey, baseURL string, log *zap.SugaredLogger) *FDCClient {
	if baseURL == "" {
		baseURL = defaultFDCBaseURL
	}
	return &FDCClient{
		rest:    newRESTClient(log, rate.Limit(0.278), 10),
		apiKey:  apiKey,
		baseURL: baseURL,
	}
}

func (c *FDCClient) Name() domain.DataSource { return domain.SourceFDC }

// fdcFoodNutrient tolerates both wire shapes FDC uses: the search endpoint
// returns flat {nutrientId, unitName, value}, the detail endpoint nests
// {nutrient: {id, unitName}, amount}.
type fdcFoodNutrient struct {
	NutrientID int     `json:"nutrientId"`
	UnitName   string  `json:"unitName"`
	Value      float64 `json:"value"`
	Amount     float64 `json:"amount"`
	Nutrient   struct {
		ID       int    `json:"id"`
		UnitName string `json:"unitName"`
	} `json:"nutrient"`
}

func (n fdcFoodNutrient) id() int {
	if n.Nutrient.ID != 0 {
		return n.Nutrient.ID
	}
	return n.NutrientID
}

func (n fdcFoodNutrient) unit() string {
	if n.Nutrient.UnitName != "" {
		return n.Nutrient.UnitName
	}
	return n.UnitName
}

func (n fdcFoodNutrient) amount() float64 {
	if n.Nutrient.ID != 0 {
		return n.Amount
	}
	return n.Value
}

type fdcFood struct {
	FDCID                    int64             `json:"fdcId"`
	Description              string            `json:"description"`
	BrandName                string            `json:"brandName"`
	GtinUPC                  string            `json:"gtinUpc"`
	ServingSize              float64           `json:"servingSize"`
	ServingSizeUnit          string            `json:"servingSizeUnit"`
	HouseholdServingFullText string            `json:"householdServingFullText"`
	FoodNutrients            []fdcFoodNutrient `json:"foodNutrients"`
}

type fdcSearchResponse struct {
	Foods []fdcFood `json:"foods"`
}

// SearchByName searches FDC by free-text query. An empty result set is not
// an error; the caller aggregates candidates across sources.
func (c *FDCClient) SearchByName(ctx context.Context, query string, limit int) ([]domain.NormalizedFood, error) {
	if limit <= 0 {
		limit = 10
	}

	params := url.Values{}
	params.Set("api_key", c.apiKey)
	params.Set("query", query)
	params.Set("pageSize", strconv.Itoa(limit))
	params.Set("dataType", "Foundation,SR Legacy,Branded")
	params.Set("sortBy", "dataType.keyword")
	params.Set("sortOrder", "asc")

	var resp fdcSearchResponse
	reqURL := fmt.Sprintf("%s/v1/foods/search?%s", c.baseURL, params.Encode())
	if err := c.rest.getJSON(ctx, "FDC", reqURL, nil, &resp); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	out := make([]domain.NormalizedFood, 0, len(resp.Foods))
	for _, food := range resp.Foods {
		out = append(out, c.normalize(food))
	}
	return out, nil
}

// LookupByID fetches one food by FDC id. Missing ids return (nil, nil).
func (c *FDCClient) LookupByID(ctx context.Context, fdcID string) (*domain.NormalizedFood, error) {
	params := url.Values{}
	params.Set("api_key", c.apiKey)

	var food fdcFood
	reqURL := fmt.Sprintf("%s/v1/food/%s?%s", c.baseURL, url.PathEscape(fdcID), params.Encode())
	if err := c.rest.getJSON(ctx, "FDC", reqURL, nil, &food); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	normalized := c.normalize(food)
	return &normalized, nil
}

// LookupByBarcode searches branded foods by GTIN/UPC. FDC has no direct
// barcode endpoint so coverage is weaker than Nutritionix or OFF.
func (c *FDCClient) LookupByBarcode(ctx context.Context, barcode string) (*domain.NormalizedFood, error) {
	params := url.Values{}
	params.Set("api_key", c.apiKey)
	params.Set("query", barcode)
	params.Set("pageSize", "1")
	params.Set("dataType", "Branded")

	var resp fdcSearchResponse
	reqURL := fmt.Sprintf("%s/v1/foods/search?%s", c.baseURL, params.Encode())
	if err := c.rest.getJSON(ctx, "FDC", reqURL, nil, &resp); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if len(resp.Foods) == 0 {
		return nil, nil
	}

	normalized := c.normalize(resp.Foods[0])
	return &normalized, nil
}

func (c *FDCClient) normalize(food fdcFood) domain.NormalizedFood {
	nutrients := emptyNutrients()
	for _, fn := range food.FoodNutrients {
		key, ok := fdcNutrientIDs[fn.id()]
		if !ok {
			continue
		}
		nutrients[key] = baseAmount(fn.amount(), fn.unit())
	}

	var servingSizeG float64
	if food.ServingSize > 0 && food.ServingSizeUnit != "" && baseAmount(1, food.ServingSizeUnit) == 1000 {
		servingSizeG = food.ServingSize
	}

	servingName := food.HouseholdServingFullText
	if servingName == "" {
		size := food.ServingSize
		unit := food.ServingSizeUnit
		if size == 0 {
			size = 100
		}
		if unit == "" {
			unit = "g"
		}
		servingName = fmt.Sprintf("%g %s", size, unit)
	}

	return domain.NormalizedFood{
		Source:       domain.SourceFDC,
		SourceID:     strconv.FormatInt(food.FDCID, 10),
		FoodName:     food.Description,
		Brand:        food.BrandName,
		ServingName:  servingName,
		ServingSizeG: servingSizeG,
		Barcode:      food.GtinUPC,
		Nutrients:    nutrients,
	}
}
