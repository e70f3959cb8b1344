package serpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/sevketugurel/infinitum-agent-sub001/internal/domain"
)

// maxResultsPerQuery is the SerpAPI per-request cap
const maxResultsPerQuery = 20

// Client handles communication with the SerpAPI Google search endpoint
type Client struct {
	httpClient  *http.Client
	apiKey      string
	baseURL     string
	rateLimiter *rate.Limiter
	debug       bool
}

// NewClient creates a new SerpAPI client
func NewClient(apiKey, baseURL string) *Client {
	// Pace outgoing searches to roughly one per second with a small burst;
	// SerpAPI throttles aggressively on free plans.
	limiter := rate.NewLimiter(rate.Limit(1), 3)

	return &Client{
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		apiKey:      apiKey,
		baseURL:     baseURL,
		rateLimiter: limiter,
	}
}

// SetDebug enables verbose request/response logging
func (c *Client) SetDebug(debug bool) {
	c.debug = debug
}

// organicResult mirrors a single entry of SerpAPI's organic_results
type organicResult struct {
	Title         string `json:"title"`
	Link          string `json:"link"`
	Snippet       string `json:"snippet"`
	Position      int    `json:"position"`
	DisplayedLink string `json:"displayed_link"`
}

// searchResponse is the subset of the SerpAPI response we consume
type searchResponse struct {
	OrganicResults []organicResult `json:"organic_results"`
	Error          string          `json:"error,omitempty"`
}

// exponentialBackoff returns the sleep duration before the next retry
func exponentialBackoff(attempt int) time.Duration {
	return time.Duration(500*(1<<(attempt-1))) * time.Millisecond
}

// waitBackoff sleeps out the backoff for attempt, returning early when ctx
// is canceled
func waitBackoff(ctx context.Context, attempt int) {
	timer := time.NewTimer(exponentialBackoff(attempt))
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// Search performs a Google search via SerpAPI and returns organic results
// with valid HTTP(S) links. Transient failures (429, 5xx, network errors)
// are retried up to 3 times with exponential backoff.
func (c *Client) Search(ctx context.Context, query string, num int) ([]domain.SearchResult, error) {
	log.Printf("[SERP] Search called with query: %q (limit: %d)", query, num)

	if num <= 0 {
		num = 10
	}
	if num > maxResultsPerQuery {
		num = maxResultsPerQuery
	}

	params := url.Values{}
	params.Add("q", query)
	params.Add("location", "United States")
	params.Add("hl", "en")
	params.Add("gl", "us")
	params.Add("google_domain", "google.com")
	params.Add("api_key", c.apiKey)
	params.Add("num", strconv.Itoa(num))
	params.Add("safe", "active")

	reqURL := fmt.Sprintf("%s?%s", c.baseURL, params.Encode())

	const maxAttempts = 3

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter error: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("User-Agent", "infinitum-agent/1.0")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			log.Printf("[SERP] Request error (attempt %d): %v", attempt, err)
			lastErr = fmt.Errorf("%w: %v", domain.ErrSearchAPIFailure, err)
			if attempt < maxAttempts {
				waitBackoff(ctx, attempt)
			}
			continue
		}

		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if c.debug {
			log.Printf("[SERP] Response (attempt %d) - Status: %d, %d bytes", attempt, resp.StatusCode, len(body))
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			log.Printf("[SERP] Rate limited (attempt %d)", attempt)
			if quotaExhausted(body) {
				return nil, fmt.Errorf("%w: search quota exhausted", domain.ErrRateLimited)
			}
			lastErr = fmt.Errorf("%w: status 429", domain.ErrRateLimited)
			if attempt < maxAttempts {
				waitBackoff(ctx, attempt)
			}
			continue
		}

		if resp.StatusCode != http.StatusOK {
			log.Printf("[SERP] API error (attempt %d) - Status: %d, Body: %s", attempt, resp.StatusCode, string(body))
			lastErr = fmt.Errorf("%w: status %d", domain.ErrSearchAPIFailure, resp.StatusCode)
			if attempt < maxAttempts {
				waitBackoff(ctx, attempt)
			}
			continue
		}

		var searchResp searchResponse
		if err := json.Unmarshal(body, &searchResp); err != nil {
			log.Printf("[SERP] JSON decode error: %v", err)
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}
		if searchResp.Error != "" {
			return nil, fmt.Errorf("%w: %s", domain.ErrSearchAPIFailure, searchResp.Error)
		}

		results := formatResults(searchResp.OrganicResults, num)
		log.Printf("[SERP] Found %d valid results for query: %q", len(results), query)
		return results, nil
	}

	log.Printf("[SERP] All retries failed for query: %q", query)
	return nil, lastErr
}

// quotaExhausted distinguishes "out of searches" from a transient rate limit
func quotaExhausted(body []byte) bool {
	var errResp struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &errResp); err != nil {
		return false
	}
	return strings.Contains(strings.ToLower(errResp.Error), "out of searches")
}

// formatResults filters organic results down to entries with valid links
func formatResults(organic []organicResult, num int) []domain.SearchResult {
	results := make([]domain.SearchResult, 0, len(organic))
	for _, r := range organic {
		if len(results) >= num {
			break
		}
		if !strings.HasPrefix(r.Link, "http://") && !strings.HasPrefix(r.Link, "https://") {
			continue
		}
		results = append(results, domain.SearchResult{
			Title:         r.Title,
			Link:          r.Link,
			Snippet:       r.Snippet,
			Position:      r.Position,
			DisplayedLink: r.DisplayedLink,
		})
	}
	return results
}
