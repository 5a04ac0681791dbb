package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nutriweek/backend/internal/domain"
)

// SearchServiceConfig holds configuration for the search service.
type SearchServiceConfig struct {
	CacheTTL time.Duration
	Limit    int // per-source result cap
}

// SearchService fans a query out to every configured food-data source,
// joins the candidate sets, and merges related records with per-nutrient
// provenance. A failing source never aborts the others; it simply
// contributes no candidates.
type SearchService struct {
	sources  []domain.FoodSource
	merger   *Merger
	cache    domain.CacheRepository
	log      *zap.SugaredLogger
	cacheTTL time.Duration
	limit    int
}

// NewSearchService creates a search service with dependencies.
func NewSearchService(
	sources []domain.FoodSource,
	merger *Merger,
	cache domain.CacheRepository,
	log *zap.SugaredLogger,
	cfg SearchServiceConfig,
) *SearchService {
	ttl := cfg.CacheTTL
	if ttl == 0 {
		ttl = 15 * time.Minute
	}
	limit := cfg.Limit
	if limit <= 0 {
		limit = 10
	}
	return &SearchService{
		sources:  sources,
		merger:   merger,
		cache:    cache,
		log:      log,
		cacheTTL: ttl,
		limit:    limit,
	}
}

// SearchFoods looks a query up across all sources and returns merged
// candidates. Results are cached by normalized query.
func (s *SearchService) SearchFoods(ctx context.Context, query string) ([]domain.MergedFood, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.ErrInvalidRequest
	}

	cacheKey := fmt.Sprintf("search:%s", normalizeName(query))
	if cached, err := s.cache.Get(ctx, cacheKey); err == nil {
		if results, ok := cached.([]domain.MergedFood); ok {
			return results, nil
		}
	}

	candidates := s.fetchAll(ctx, func(src domain.FoodSource) ([]domain.NormalizedFood, error) {
		return src.SearchByName(ctx, query, s.limit)
	})

	results := s.mergeCandidates(candidates)

	if err := s.cache.Set(ctx, cacheKey, results, s.cacheTTL); err != nil {
		s.log.Warnw("caching search results failed", "query", query, "error", err)
	}
	return results, nil
}

// LookupBarcode resolves a barcode across all sources. The primary record
// comes from the first source in configured priority order that answers;
// every other answer becomes a merge fallback.
func (s *SearchService) LookupBarcode(ctx context.Context, barcode string) (*domain.MergedFood, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return nil, domain.ErrInvalidRequest
	}

	cacheKey := fmt.Sprintf("barcode:%s", barcode)
	if cached, err := s.cache.Get(ctx, cacheKey); err == nil {
		if result, ok := cached.(*domain.MergedFood); ok {
			return result, nil
		}
	}

	candidates := s.fetchAll(ctx, func(src domain.FoodSource) ([]domain.NormalizedFood, error) {
		food, err := src.LookupByBarcode(ctx, barcode)
		if err != nil || food == nil {
			return nil, err
		}
		return []domain.NormalizedFood{*food}, nil
	})

	if len(candidates) == 0 {
		return nil, domain.ErrNotFound
	}

	merged := s.merger.Merge(candidates[0], candidates[1:])

	if err := s.cache.Set(ctx, cacheKey, &merged, s.cacheTTL); err != nil {
		s.log.Warnw("caching barcode result failed", "barcode", barcode, "error", err)
	}
	return &merged, nil
}

// fetchAll runs one fetch per source concurrently and joins the results.
// Source order in s.sources is priority order and is preserved in the
// joined slice. Errors are logged and swallowed per source.
func (s *SearchService) fetchAll(ctx context.Context, fetch func(domain.FoodSource) ([]domain.NormalizedFood, error)) []domain.NormalizedFood {
	perSource := make([][]domain.NormalizedFood, len(s.sources))

	var g errgroup.Group
	for i, src := range s.sources {
		g.Go(func() error {
			foods, err := fetch(src)
			if err != nil {
				s.log.Warnw("source fetch failed", "source", src.Name(), "error", err)
				return nil
			}
			perSource[i] = foods
			return nil
		})
	}
	_ = g.Wait() // per-source errors are already handled

	var joined []domain.NormalizedFood
	for _, foods := range perSource {
		joined = append(joined, foods...)
	}
	return joined
}

// mergeCandidates dedupes the joined candidate set and merges each record
// with its related records from other sources.
func (s *SearchService) mergeCandidates(candidates []domain.NormalizedFood) []domain.MergedFood {
	results := make([]domain.MergedFood, 0, len(candidates))
	processed := make(map[string]bool, len(candidates))

	for _, food := range candidates {
		key := fmt.Sprintf("%s:%s", food.Source, food.SourceID)
		if processed[key] {
			continue
		}
		processed[key] = true

		related := FindRelatedFoods(food, candidates)
		for _, rel := range related {
			processed[fmt.Sprintf("%s:%s", rel.Source, rel.SourceID)] = true
		}
		results = append(results, s.merger.Merge(food, related))
	}
	return results
}
