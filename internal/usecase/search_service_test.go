package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/sevketugurel/infinitum-agent-sub001/internal/domain"
)

// MockSearchClient is a mock implementation of domain.SearchClient
type MockSearchClient struct {
	results   []domain.SearchResult
	err       error
	callCount int
	lastQuery string
}

func (m *MockSearchClient) Search(ctx context.Context, query string, num int) ([]domain.SearchResult, error) {
	m.callCount++
	m.lastQuery = query
	if m.err != nil {
		return nil, m.err
	}
	return m.results, nil
}

// MockResultCache is a mock implementation of domain.ResultCache
type MockResultCache struct {
	data map[string][]domain.SearchResult
}

func NewMockResultCache() *MockResultCache {
	return &MockResultCache{data: make(map[string][]domain.SearchResult)}
}

func (m *MockResultCache) Get(key string) ([]domain.SearchResult, bool) {
	results, ok := m.data[key]
	return results, ok
}

func (m *MockResultCache) Put(key string, results []domain.SearchResult) {
	m.data[key] = results
}

// MockSnapshotRepository is a mock implementation of domain.SnapshotRepository
type MockSnapshotRepository struct {
	saved   []domain.ProductRecord
	saveErr error
}

func (m *MockSnapshotRepository) Save(ctx context.Context, record domain.ProductRecord) (string, error) {
	if m.saveErr != nil {
		return "", m.saveErr
	}
	m.saved = append(m.saved, record)
	return "doc_1", nil
}

func (m *MockSnapshotRepository) Recent(ctx context.Context, limit int) ([]domain.Snapshot, error) {
	return nil, nil
}

func newSearchFixture(search *MockSearchClient, ai *MockAIClient) (*SearchService, *MockSnapshotRepository) {
	fetcher := &MockPageFetcher{
		renderResult: &domain.RenderResult{Success: true, CleanedHTML: "<html>$20</html>"},
	}
	extractor := newTestService(fetcher, ai)
	store := &MockSnapshotRepository{}
	service := NewSearchService(search, extractor, NewMockResultCache(), store, SearchServiceConfig{})
	return service, store
}

func TestSearchProducts_InvalidQuery(t *testing.T) {
	service, _ := newSearchFixture(&MockSearchClient{}, &MockAIClient{})

	for _, query := range []string{"", "   ", "\t\n"} {
		if _, err := service.SearchProducts(context.Background(), query, 5); !errors.Is(err, domain.ErrInvalidRequest) {
			t.Errorf("query %q: expected ErrInvalidRequest, got %v", query, err)
		}
	}
}

func TestSearchProducts_SearchErrorPropagates(t *testing.T) {
	search := &MockSearchClient{err: domain.ErrSearchAPIFailure}
	service, _ := newSearchFixture(search, &MockAIClient{})

	_, err := service.SearchProducts(context.Background(), "wireless headphones", 3)
	if !errors.Is(err, domain.ErrSearchAPIFailure) {
		t.Errorf("expected ErrSearchAPIFailure, got %v", err)
	}
}

func TestSearchProducts_CuratesAndPersists(t *testing.T) {
	search := &MockSearchClient{
		results: []domain.SearchResult{
			{Title: "Headphones - Shop", Link: "https://shop.example.com/headphones", Position: 1},
			{Title: "Headphones - Store", Link: "https://store.example.com/hp", Position: 2},
		},
	}
	ai := &MockAIClient{
		response: `{"title": "Wireless Headphones", "price": "$59.99", "brand": "Acme", "image": null, "description": "Over-ear"}`,
	}
	service, store := newSearchFixture(search, ai)

	records, err := service.SearchProducts(context.Background(), "wireless headphones", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	for _, record := range records {
		if record.ExtractionMethod != domain.MethodGeminiFallback {
			t.Errorf("unexpected extraction method: %q", record.ExtractionMethod)
		}
	}
	if len(store.saved) != 2 {
		t.Errorf("expected 2 persisted snapshots, got %d", len(store.saved))
	}
}

func TestSearchProducts_DropsFailedRecords(t *testing.T) {
	search := &MockSearchClient{
		results: []domain.SearchResult{
			{Title: "Dead page", Link: "https://dead.example.com/p", Position: 1},
		},
	}
	// LLM down and no price in the HTML: every extraction fails outright
	fetcher := &MockPageFetcher{
		renderResult: &domain.RenderResult{Success: true, CleanedHTML: "<html>nothing here</html>"},
	}
	extractor := newTestService(fetcher, &MockAIClient{err: errors.New("unavailable")})
	service := NewSearchService(search, extractor, nil, nil, SearchServiceConfig{})

	records, err := service.SearchProducts(context.Background(), "ghost product", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("failed records must be dropped, got %d", len(records))
	}
}

func TestSearchProducts_CacheHitSkipsProvider(t *testing.T) {
	search := &MockSearchClient{
		results: []domain.SearchResult{
			{Title: "Shop", Link: "https://shop.example.com/a", Position: 1},
		},
	}
	ai := &MockAIClient{response: `{"title": "A", "price": "$5", "brand": null, "image": null, "description": null}`}
	service, _ := newSearchFixture(search, ai)

	if _, err := service.SearchProducts(context.Background(), "usb cable", 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := service.SearchProducts(context.Background(), "usb cable", 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if search.callCount != 1 {
		t.Errorf("second search should hit the cache, provider called %d times", search.callCount)
	}
}

func TestSearchProducts_NormalizesQuery(t *testing.T) {
	search := &MockSearchClient{results: []domain.SearchResult{}}
	service, _ := newSearchFixture(search, &MockAIClient{})

	if _, err := service.SearchProducts(context.Background(), "  gaming   mouse ", 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if search.lastQuery != "gaming mouse" {
		t.Errorf("expected normalized query %q, got %q", "gaming mouse", search.lastQuery)
	}
}

func TestPickCandidates_SkipsContentDomains(t *testing.T) {
	results := []domain.SearchResult{
		{Link: "https://www.youtube.com/watch?v=abc"},
		{Link: "https://en.wikipedia.org/wiki/Headphones"},
		{Link: "https://shop.example.com/headphones"},
		{Link: "https://www.reddit.com/r/headphones"},
		{Link: "https://store.example.com/hp"},
	}

	candidates := pickCandidates(results, 5)
	want := []string{"https://shop.example.com/headphones", "https://store.example.com/hp"}

	if len(candidates) != len(want) {
		t.Fatalf("expected %d candidates, got %d: %v", len(want), len(candidates), candidates)
	}
	for i := range want {
		if candidates[i] != want[i] {
			t.Errorf("candidate %d: got %q, want %q", i, candidates[i], want[i])
		}
	}
}

func TestPickCandidates_RespectsLimit(t *testing.T) {
	results := []domain.SearchResult{
		{Link: "https://a.example.com/1"},
		{Link: "https://b.example.com/2"},
		{Link: "https://c.example.com/3"},
	}

	candidates := pickCandidates(results, 2)
	if len(candidates) != 2 {
		t.Errorf("expected 2 candidates, got %d", len(candidates))
	}
}

func TestCompletenessScore_Ordering(t *testing.T) {
	full := domain.ProductRecord{
		Title:            strPtr("Full"),
		Price:            strPtr("$10"),
		Brand:            strPtr("Acme"),
		Image:            strPtr("https://img.example.com/a.jpg"),
		Description:      strPtr("desc"),
		ExtractionMethod: domain.MethodGeminiFallback,
	}
	priceOnly := domain.ProductRecord{
		Price:            strPtr("$10"),
		ExtractionMethod: domain.MethodRegexFallback,
	}

	if completenessScore(&full) <= completenessScore(&priceOnly) {
		t.Error("fully populated gemini record must outrank a regex price-only record")
	}
}

func TestSearchProducts_StoreFailureIsNotFatal(t *testing.T) {
	search := &MockSearchClient{
		results: []domain.SearchResult{
			{Link: "https://shop.example.com/a", Position: 1},
		},
	}
	fetcher := &MockPageFetcher{
		renderResult: &domain.RenderResult{Success: true, CleanedHTML: "<html>$7</html>"},
	}
	ai := &MockAIClient{response: `{"title": "A", "price": "$7", "brand": null, "image": null, "description": null}`}
	extractor := newTestService(fetcher, ai)
	store := &MockSnapshotRepository{saveErr: domain.ErrStoreUnavailable}
	service := NewSearchService(search, extractor, nil, store, SearchServiceConfig{})

	records, err := service.SearchProducts(context.Background(), "gadget", 1)
	if err != nil {
		t.Fatalf("store failure must not fail the search: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("expected 1 record, got %d", len(records))
	}
}
