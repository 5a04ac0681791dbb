package sources

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/nutriweek/backend/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const defaultNutritionixBaseURL = "https://trackapi.nutritionix.com"

// nixAttr ties a Nutritionix attr_id to a tracked key and the unit the
// provider reports it in.
type nixAttr struct {
	key  domain.NutrientKey
	unit string
}

var nixAttrIDs = map[int]nixAttr{
	303: {domain.Iron, "mg"},
	309: {domain.Zinc, "mg"},
	314: {domain.Iodine, "µg"},
	317: {domain.Selenium, "µg"},
	320: {domain.VitaminARAE, "µg"},
	421: {domain.Choline, "mg"},
	435: {domain.FolateDFE, "µg"},
	621: {domain.DHA, "g"},
}

// NutritionixClient talks to the Nutritionix track API. It is the best
// barcode source of the three providers.
type NutritionixClient struct {
	rest    *restClient
	appID   string
	appKey  string
	baseURL string
}

// NewNutritionixClient creates a Nutritionix client. Requests without
// credentials fail fast with domain.ErrSourceUnavailable rather than
// burning an attempt against the API.
func NewNutritionixClient(appID, appKey, baseURL string, log *zap.SugaredLogger) *NutritionixClient {
	if baseURL == "" {
		baseURL = defaultNutritionixBaseURL
	}
	return &NutritionixClient{
		rest:    newRESTClient(log, rate.Limit(2), 5),
		appID:   appID,
		appKey:  appKey,
		baseURL: baseURL,
	}
}

func (c *NutritionixClient) Name() domain.DataSource { return domain.SourceNutritionix }

func (c *NutritionixClient) header() http.Header {
	h := http.Header{}
	h.Set("x-app-id", c.appID)
	h.Set("x-app-key", c.appKey)
	h.Set("x-remote-user-id", "0")
	return h
}

type nixNutrient struct {
	AttrID int     `json:"attr_id"`
	Value  float64 `json:"value"`
}

type nixFood struct {
	FoodName           string        `json:"food_name"`
	BrandName          string        `json:"brand_name"`
	NixItemID          string        `json:"nix_item_id"`
	UPC                string        `json:"upc"`
	ServingQty         float64       `json:"serving_qty"`
	ServingUnit        string        `json:"serving_unit"`
	ServingWeightGrams float64       `json:"serving_weight_grams"`
	FullNutrients      []nixNutrient `json:"full_nutrients"`
}

type nixInstantResponse struct {
	Branded []nixFood `json:"branded"`
}

type nixItemResponse struct {
	Foods []nixFood `json:"foods"`
}

// SearchByName searches branded foods via the instant endpoint. detailed=1
// makes the response carry full_nutrients so no second round trip is needed.
func (c *NutritionixClient) SearchByName(ctx context.Context, query string, limit int) ([]domain.NormalizedFood, error) {
	if c.appID == "" || c.appKey == "" {
		return nil, fmt.Errorf("%w: nutritionix credentials not configured", domain.ErrSourceUnavailable)
	}
	if limit <= 0 {
		limit = 10
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("branded", "true")
	params.Set("common", "false")
	params.Set("detailed", "true")

	var resp nixInstantResponse
	reqURL := fmt.Sprintf("%s/v2/search/instant?%s", c.baseURL, params.Encode())
	if err := c.rest.getJSON(ctx, "NUTRITIONIX", reqURL, c.header(), &resp); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	foods := resp.Branded
	if len(foods) > limit {
		foods = foods[:limit]
	}

	out := make([]domain.NormalizedFood, 0, len(foods))
	for _, food := range foods {
		out = append(out, c.normalize(food))
	}
	return out, nil
}

// LookupByBarcode resolves a UPC via the item endpoint. An unknown barcode
// returns (nil, nil).
func (c *NutritionixClient) LookupByBarcode(ctx context.Context, barcode string) (*domain.NormalizedFood, error) {
	if c.appID == "" || c.appKey == "" {
		return nil, fmt.Errorf("%w: nutritionix credentials not configured", domain.ErrSourceUnavailable)
	}

	params := url.Values{}
	params.Set("upc", barcode)

	var resp nixItemResponse
	reqURL := fmt.Sprintf("%s/v2/search/item?%s", c.baseURL, params.Encode())
	if err := c.rest.getJSON(ctx, "NUTRITIONIX", reqURL, c.header(), &resp); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if len(resp.Foods) == 0 {
		return nil, nil
	}

	food := resp.Foods[0]
	if food.UPC == "" {
		food.UPC = barcode
	}
	normalized := c.normalize(food)
	return &normalized, nil
}

// normalize converts a Nutritionix record to the common shape. Nutritionix
// reports full_nutrients per serving, so values are rescaled to the per-100g
// basis the other providers use when a serving weight is known.
func (c *NutritionixClient) normalize(food nixFood) domain.NormalizedFood {
	scale := 1.0
	if food.ServingWeightGrams > 0 {
		scale = 100 / food.ServingWeightGrams
	}

	nutrients := emptyNutrients()
	for _, fn := range food.FullNutrients {
		attr, ok := nixAttrIDs[fn.AttrID]
		if !ok {
			continue
		}
		nutrients[attr.key] = baseAmount(fn.Value*scale, attr.unit)
	}

	servingName := ""
	if food.ServingQty > 0 {
		servingName = fmt.Sprintf("%g %s", food.ServingQty, food.ServingUnit)
	}

	return domain.NormalizedFood{
		Source:       domain.SourceNutritionix,
		SourceID:     food.NixItemID,
		FoodName:     food.FoodName,
		Brand:        food.BrandName,
		ServingName:  servingName,
		ServingSizeG: food.ServingWeightGrams,
		Barcode:      food.UPC,
		Nutrients:    nutrients,
	}
}
