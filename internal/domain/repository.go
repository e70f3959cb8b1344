package domain

import (
	"context"
	"time"
)

// RenderRequest describes a headless render of a product page. Script holds
// JS statements executed before capture (scroll/wait actions that trigger
// lazy-loaded content).
type RenderRequest struct {
	URL     string
	Headers map[string]string
	Script  []string
	WaitFor string
	Timeout time.Duration
}

// RenderResult is the outcome of a render call.
type RenderResult struct {
	Success     bool
	CleanedHTML string
	ErrorMsg    string
}

// PageFetcher defines the interface for retrieving product page HTML.
// Render drives a headless browser service; Fetch is the simpler direct
// HTTP fallback that returns locally cleaned HTML.
type PageFetcher interface {
	Render(ctx context.Context, req RenderRequest) (*RenderResult, error)
	Fetch(ctx context.Context, url string, timeout time.Duration) (string, error)
}

// AIClient defines the interface for the text completion service.
type AIClient interface {
	Ask(ctx context.Context, prompt string) (string, error)
}

// SearchClient defines the interface for the web search provider.
type SearchClient interface {
	Search(ctx context.Context, query string, num int) ([]SearchResult, error)
}

// SnapshotRepository defines the interface for product snapshot persistence.
type SnapshotRepository interface {
	Save(ctx context.Context, record ProductRecord) (string, error)
	Recent(ctx context.Context, limit int) ([]Snapshot, error)
}

// ResultCache defines the interface for caching search results by query key.
type ResultCache interface {
	Get(key string) ([]SearchResult, bool)
	Put(key string, results []SearchResult)
}
