package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/nutriweek/backend/internal/domain"
)

// fakeSource is a canned FoodSource with call counters.
type fakeSource struct {
	name          domain.DataSource
	searchResults []domain.NormalizedFood
	barcodeResult *domain.NormalizedFood
	err           error
	searchCalls   int
	barcodeCalls  int
}

func (f *fakeSource) Name() domain.DataSource { return f.name }

func (f *fakeSource) SearchByName(ctx context.Context, query string, limit int) ([]domain.NormalizedFood, error) {
	f.searchCalls++
	return f.searchResults, f.err
}

func (f *fakeSource) LookupByBarcode(ctx context.Context, barcode string) (*domain.NormalizedFood, error) {
	f.barcodeCalls++
	return f.barcodeResult, f.err
}

// fakeCache is a TTL-less map cache.
type fakeCache struct {
	data map[string]interface{}
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string]interface{})}
}

func (c *fakeCache) Get(ctx context.Context, key string) (interface{}, error) {
	if v, ok := c.data[key]; ok {
		return v, nil
	}
	return nil, domain.ErrCacheMiss
}

func (c *fakeCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	c.data[key] = value
	return nil
}

func (c *fakeCache) Delete(ctx context.Context, key string) error {
	delete(c.data, key)
	return nil
}

func (c *fakeCache) Exists(ctx context.Context, key string) (bool, error) {
	_, ok := c.data[key]
	return ok, nil
}

func newTestSearchService(cache domain.CacheRepository, srcs ...domain.FoodSource) *SearchService {
	return NewSearchService(srcs, testMerger(), cache, zap.NewNop().Sugar(), SearchServiceConfig{})
}

func TestSearchFoods(t *testing.T) {
	ctx := context.Background()

	t.Run("rejects empty query", func(t *testing.T) {
		svc := newTestSearchService(newFakeCache())

		_, err := svc.SearchFoods(ctx, "   ")
		if !errors.Is(err, domain.ErrInvalidRequest) {
			t.Errorf("err = %v, want ErrInvalidRequest", err)
		}
	})

	t.Run("joins results from all sources", func(t *testing.T) {
		fdc := &fakeSource{name: domain.SourceFDC, searchResults: []domain.NormalizedFood{
			normalizedFood(domain.SourceFDC, "fdc-1", "Atlantic salmon", nil),
		}}
		off := &fakeSource{name: domain.SourceOFF, searchResults: []domain.NormalizedFood{
			normalizedFood(domain.SourceOFF, "off-1", "Smoked salmon spread", nil),
		}}
		svc := newTestSearchService(newFakeCache(), fdc, off)

		results, err := svc.SearchFoods(ctx, "salmon")
		if err != nil {
			t.Fatalf("SearchFoods failed: %v", err)
		}
		if len(results) != 2 {
			t.Fatalf("results = %d, want 2", len(results))
		}
		if fdc.searchCalls != 1 || off.searchCalls != 1 {
			t.Errorf("calls = %d, %d, want 1 each", fdc.searchCalls, off.searchCalls)
		}
	})

	t.Run("related records collapse into one merged result", func(t *testing.T) {
		fdc := &fakeSource{name: domain.SourceFDC, searchResults: []domain.NormalizedFood{
			normalizedFood(domain.SourceFDC, "fdc-1", "Greek Yogurt", map[domain.NutrientKey]float64{domain.Selenium: 0.01}),
		}}
		nix := &fakeSource{name: domain.SourceNutritionix, searchResults: []domain.NormalizedFood{
			normalizedFood(domain.SourceNutritionix, "nix-1", "greek yogurt", map[domain.NutrientKey]float64{domain.Zinc: 0.5}),
		}}
		svc := newTestSearchService(newFakeCache(), fdc, nix)

		results, err := svc.SearchFoods(ctx, "greek yogurt")
		if err != nil {
			t.Fatalf("SearchFoods failed: %v", err)
		}
		if len(results) != 1 {
			t.Fatalf("results = %d, want 1 merged record", len(results))
		}
		if got := results[0].Provenance[domain.Selenium].Source; got != domain.SourceFDC {
			t.Errorf("Selenium source = %s, want FDC", got)
		}
	})

	t.Run("a failing source contributes nothing", func(t *testing.T) {
		broken := &fakeSource{name: domain.SourceNutritionix, err: domain.ErrSourceUnavailable}
		fdc := &fakeSource{name: domain.SourceFDC, searchResults: []domain.NormalizedFood{
			normalizedFood(domain.SourceFDC, "fdc-1", "Atlantic salmon", nil),
		}}
		svc := newTestSearchService(newFakeCache(), broken, fdc)

		results, err := svc.SearchFoods(ctx, "salmon")
		if err != nil {
			t.Fatalf("SearchFoods failed: %v", err)
		}
		if len(results) != 1 {
			t.Errorf("results = %d, want 1", len(results))
		}
	})

	t.Run("repeated queries hit the cache", func(t *testing.T) {
		fdc := &fakeSource{name: domain.SourceFDC, searchResults: []domain.NormalizedFood{
			normalizedFood(domain.SourceFDC, "fdc-1", "Atlantic salmon", nil),
		}}
		svc := newTestSearchService(newFakeCache(), fdc)

		if _, err := svc.SearchFoods(ctx, "salmon"); err != nil {
			t.Fatalf("first search failed: %v", err)
		}
		// Same query with different whitespace and case maps to the same key.
		if _, err := svc.SearchFoods(ctx, "  Salmon "); err != nil {
			t.Fatalf("second search failed: %v", err)
		}

		if fdc.searchCalls != 1 {
			t.Errorf("searchCalls = %d, want 1 (second hit served from cache)", fdc.searchCalls)
		}
	})
}

func TestLookupBarcode(t *testing.T) {
	ctx := context.Background()

	salmon := normalizedFood(domain.SourceOFF, "0123456789012", "Canned salmon", map[domain.NutrientKey]float64{domain.DHA: 400})
	salmon.Barcode = "0123456789012"

	t.Run("rejects empty barcode", func(t *testing.T) {
		svc := newTestSearchService(newFakeCache())

		_, err := svc.LookupBarcode(ctx, "")
		if !errors.Is(err, domain.ErrInvalidRequest) {
			t.Errorf("err = %v, want ErrInvalidRequest", err)
		}
	})

	t.Run("returns ErrNotFound when no source answers", func(t *testing.T) {
		svc := newTestSearchService(newFakeCache(), &fakeSource{name: domain.SourceOFF})

		_, err := svc.LookupBarcode(ctx, "999")
		if !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
	})

	t.Run("first configured source wins as primary", func(t *testing.T) {
		nixFood := normalizedFood(domain.SourceNutritionix, "nix-1", "Canned salmon premium", map[domain.NutrientKey]float64{domain.DHA: 380})
		nix := &fakeSource{name: domain.SourceNutritionix, barcodeResult: &nixFood}
		off := &fakeSource{name: domain.SourceOFF, barcodeResult: &salmon}
		svc := newTestSearchService(newFakeCache(), nix, off)

		merged, err := svc.LookupBarcode(ctx, "0123456789012")
		if err != nil {
			t.Fatalf("LookupBarcode failed: %v", err)
		}
		if merged.Source != domain.SourceNutritionix {
			t.Errorf("primary source = %s, want NUTRITIONIX", merged.Source)
		}
		// Metadata absent from the primary fills in from the fallback.
		if merged.Barcode != "0123456789012" {
			t.Errorf("barcode = %q, want filled from OFF record", merged.Barcode)
		}
	})

	t.Run("repeated lookups hit the cache", func(t *testing.T) {
		off := &fakeSource{name: domain.SourceOFF, barcodeResult: &salmon}
		svc := newTestSearchService(newFakeCache(), off)

		if _, err := svc.LookupBarcode(ctx, "0123456789012"); err != nil {
			t.Fatalf("first lookup failed: %v", err)
		}
		if _, err := svc.LookupBarcode(ctx, "0123456789012"); err != nil {
			t.Fatalf("second lookup failed: %v", err)
		}

		if off.barcodeCalls != 1 {
			t.Errorf("barcodeCalls = %d, want 1 (second hit served from cache)", off.barcodeCalls)
		}
	})
}
