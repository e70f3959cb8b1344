package usecase

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/sevketugurel/infinitum-agent-sub001/internal/domain"
)

// Package-level compiled regex patterns for performance
var multipleSpacesRegex = regexp.MustCompile(`\s+`)

// contentDomains are hosts that rank well in search but never resolve to a
// scrapeable product page; candidates on these hosts are skipped.
var contentDomains = []string{
	"youtube.com", "wikipedia.org", "reddit.com", "quora.com",
	"facebook.com", "instagram.com", "pinterest.", "twitter.com", "x.com",
}

// SearchServiceConfig holds configuration for the search service
type SearchServiceConfig struct {
	MaxCandidates int // product pages scraped per query
	Concurrency   int // parallel extractions
}

// SearchService orchestrates a product search: web search, candidate
// selection, parallel page extraction, curation, and best-effort snapshot
// persistence.
type SearchService struct {
	search    domain.SearchClient
	extractor *ExtractionService
	cache     domain.ResultCache
	store     domain.SnapshotRepository
	config    SearchServiceConfig
}

// NewSearchService creates a new search service with dependencies. cache and
// store may be nil, in which case caching and persistence are skipped.
func NewSearchService(
	search domain.SearchClient,
	extractor *ExtractionService,
	resultCache domain.ResultCache,
	store domain.SnapshotRepository,
	config SearchServiceConfig,
) *SearchService {
	if config.MaxCandidates == 0 {
		config.MaxCandidates = 5
	}
	if config.Concurrency == 0 {
		config.Concurrency = 3
	}

	return &SearchService{
		search:    search,
		extractor: extractor,
		cache:     resultCache,
		store:     store,
		config:    config,
	}
}

// SearchProducts runs a full product search for query and returns curated
// records, best first.
// Flow: normalize query -> cached search results or SerpAPI -> pick product
// page candidates -> extract in parallel -> drop unusable -> sort -> persist.
func (s *SearchService) SearchProducts(ctx context.Context, query string, limit int) ([]domain.ProductRecord, error) {
	normalized := normalizeQuery(query)
	if normalized == "" {
		return nil, domain.ErrInvalidRequest
	}

	if limit <= 0 {
		limit = s.config.MaxCandidates
	}
	if limit > 10 {
		limit = 10
	}

	results, err := s.searchWeb(ctx, normalized, limit)
	if err != nil {
		return nil, err
	}

	candidates := pickCandidates(results, limit)
	if len(candidates) == 0 {
		log.Printf("[SEARCH] No scrapeable candidates for query: %q", normalized)
		return []domain.ProductRecord{}, nil
	}

	records := s.extractAll(ctx, candidates)

	curated := make([]domain.ProductRecord, 0, len(records))
	for _, record := range records {
		if record.IsUsable() {
			curated = append(curated, record)
		}
	}

	sort.SliceStable(curated, func(i, j int) bool {
		return completenessScore(&curated[i]) > completenessScore(&curated[j])
	})

	s.persist(ctx, curated)

	log.Printf("[SEARCH] Query %q: %d candidates, %d curated records", normalized, len(candidates), len(curated))
	return curated, nil
}

// searchWeb returns search results from cache when fresh, otherwise from the
// search provider.
func (s *SearchService) searchWeb(ctx context.Context, query string, limit int) ([]domain.SearchResult, error) {
	// Ask for extra results so candidate filtering still leaves enough pages
	num := limit * 2
	if num > 20 {
		num = 20
	}

	cacheKey := fmt.Sprintf("google:%s:%d", strings.ToLower(query), num)

	if s.cache != nil {
		if cached, ok := s.cache.Get(cacheKey); ok {
			log.Printf("[SEARCH] Returning cached results for: %q", query)
			return cached, nil
		}
	}

	results, err := s.search.Search(ctx, query, num)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Put(cacheKey, results)
	}

	return results, nil
}

// extractAll runs the extraction pipeline over the candidate URLs with
// bounded concurrency, preserving candidate order.
func (s *SearchService) extractAll(ctx context.Context, candidates []string) []domain.ProductRecord {
	records := make([]domain.ProductRecord, len(candidates))

	sem := make(chan struct{}, s.config.Concurrency)
	var wg sync.WaitGroup

	for i, candidate := range candidates {
		wg.Add(1)
		go func(i int, pageURL string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			records[i] = s.extractor.Extract(ctx, pageURL)
		}(i, candidate)
	}

	wg.Wait()
	return records
}

// persist saves curated records best-effort; a dead store never fails the search
func (s *SearchService) persist(ctx context.Context, records []domain.ProductRecord) {
	if s.store == nil {
		return
	}
	for _, record := range records {
		if _, err := s.store.Save(ctx, record); err != nil {
			log.Printf("[SEARCH] Failed to save snapshot for %s: %v", record.URL, err)
		}
	}
}

// normalizeQuery trims and collapses whitespace in the raw user query
func normalizeQuery(query string) string {
	return strings.TrimSpace(multipleSpacesRegex.ReplaceAllString(query, " "))
}

// pickCandidates selects up to limit scrapeable product-page URLs from the
// search results, skipping content/social domains.
func pickCandidates(results []domain.SearchResult, limit int) []string {
	candidates := make([]string, 0, limit)
	for _, result := range results {
		if len(candidates) >= limit {
			break
		}
		if isContentDomain(result.Link) {
			continue
		}
		candidates = append(candidates, result.Link)
	}
	return candidates
}

// isContentDomain reports whether the link points at a known non-product host
func isContentDomain(link string) bool {
	parsed, err := url.Parse(link)
	if err != nil {
		return true
	}
	host := strings.ToLower(parsed.Hostname())
	for _, blocked := range contentDomains {
		if strings.Contains(host, blocked) {
			return true
		}
	}
	return false
}

// completenessScore ranks records by how much structured data they carry.
// LLM-extracted records outrank regex-recovered ones at equal field coverage.
func completenessScore(record *domain.ProductRecord) float64 {
	var score float64

	if record.Title != nil {
		score += 0.3
	}
	if record.HasPrice() {
		score += 0.3
	}
	if record.Description != nil {
		score += 0.15
	}
	if record.Image != nil {
		score += 0.1
	}
	if record.Brand != nil {
		score += 0.05
	}
	if record.ExtractionMethod == domain.MethodGeminiFallback {
		score += 0.1
	}

	return score
}
