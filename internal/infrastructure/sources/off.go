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

const defaultOFFBaseURL = "https://world.openfoodfacts.org"

// offNutriments maps Open Food Facts nutriment keys to the tracked set.
// The *_100g values are reported in grams.
var offNutriments = map[string]domain.NutrientKey{
	"dha_100g":       domain.DHA,
	"selenium_100g":  domain.Selenium,
	"vitamin-a_100g": domain.VitaminARAE,
	"zinc_100g":      domain.Zinc,
	"iron_100g":      domain.Iron,
	"iodine_100g":    domain.Iodine,
	"choline_100g":   domain.Choline,
	"folates_100g":   domain.FolateDFE,
}

// OFFClient talks to the Open Food Facts API. No credentials are required;
// OFF asks clients to identify themselves via User-Agent and to stay polite
// on request rates.
type OFFClient struct {
	rest    *restClient
	baseURL string
}

func NewOFFClient(baseURL string, log *zap.SugaredLogger) *OFFClient {
	if baseURL == "" {
		baseURL = defaultOFFBaseURL
	}
	return &OFFClient{
		rest:    newRESTClient(log, rate.Limit(1), 5),
		baseURL: baseURL,
	}
}

func (c *OFFClient) Name() domain.DataSource { return domain.SourceOFF }

// offProduct keeps nutriments and serving_quantity loosely typed; OFF mixes
// numbers and numeric strings in both fields.
type offProduct struct {
	Code            string                 `json:"code"`
	ProductName     string                 `json:"product_name"`
	Brands          string                 `json:"brands"`
	ServingSize     string                 `json:"serving_size"`
	ServingQuantity interface{}            `json:"serving_quantity"`
	Nutriments      map[string]interface{} `json:"nutriments"`
}

type offSearchResponse struct {
	Products []offProduct `json:"products"`
}

type offProductResponse struct {
	Status  int        `json:"status"`
	Product offProduct `json:"product"`
}

// SearchByName searches OFF by product name.
func (c *OFFClient) SearchByName(ctx context.Context, query string, limit int) ([]domain.NormalizedFood, error) {
	if limit <= 0 {
		limit = 10
	}

	params := url.Values{}
	params.Set("search_terms", query)
	params.Set("search_simple", "1")
	params.Set("action", "process")
	params.Set("json", "1")
	params.Set("page_size", strconv.Itoa(limit))

	var resp offSearchResponse
	reqURL := fmt.Sprintf("%s/cgi/search.pl?%s", c.baseURL, params.Encode())
	if err := c.rest.getJSON(ctx, "OFF", reqURL, nil, &resp); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	out := make([]domain.NormalizedFood, 0, len(resp.Products))
	for _, product := range resp.Products {
		out = append(out, c.normalize(product))
	}
	return out, nil
}

// LookupByBarcode resolves a barcode via the product endpoint. OFF signals
// unknown codes with status 0 rather than a 404, so both map to (nil, nil).
func (c *OFFClient) LookupByBarcode(ctx context.Context, barcode string) (*domain.NormalizedFood, error) {
	var resp offProductResponse
	reqURL := fmt.Sprintf("%s/api/v2/product/%s.json", c.baseURL, url.PathEscape(barcode))
	if err := c.rest.getJSON(ctx, "OFF", reqURL, nil, &resp); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if resp.Status != 1 {
		return nil, nil
	}

	if resp.Product.Code == "" {
		resp.Product.Code = barcode
	}
	normalized := c.normalize(resp.Product)
	return &normalized, nil
}

func (c *OFFClient) normalize(product offProduct) domain.NormalizedFood {
	nutrients := emptyNutrients()
	for field, key := range offNutriments {
		if grams, ok := looseFloat(product.Nutriments[field]); ok {
			nutrients[key] = baseAmount(grams, "g")
		}
	}

	var servingSizeG float64
	if qty, ok := looseFloat(product.ServingQuantity); ok {
		servingSizeG = qty
	}

	return domain.NormalizedFood{
		Source:       domain.SourceOFF,
		SourceID:     product.Code,
		FoodName:     product.ProductName,
		Brand:        product.Brands,
		ServingName:  product.ServingSize,
		ServingSizeG: servingSizeG,
		Barcode:      product.Code,
		Nutrients:    nutrients,
	}
}

// looseFloat accepts the float64 or numeric-string encodings OFF emits.
func looseFloat(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case string:
		f, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
