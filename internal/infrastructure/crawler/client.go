package crawler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/sevketugurel/infinitum-agent-sub001/internal/domain"
)

// Client talks to a headless render service for JS-heavy product pages and
// falls back to direct HTTP fetches for the simpler second attempt.
type Client struct {
	httpClient *http.Client
	renderURL  string
	debug      bool
}

// NewClient creates a new crawler client. renderURL is the endpoint of the
// headless render service; the per-request timeout is carried in the request
// context rather than the shared http.Client.
func NewClient(renderURL string) *Client {
	return &Client{
		httpClient: &http.Client{},
		renderURL:  renderURL,
	}
}

// SetDebug enables verbose payload logging
func (c *Client) SetDebug(debug bool) {
	c.debug = debug
}

// renderPayload is the request body for the render service
type renderPayload struct {
	URL         string            `json:"url"`
	Headers     map[string]string `json:"headers,omitempty"`
	JS          []string          `json:"js,omitempty"`
	WaitFor     string            `json:"wait_for,omitempty"`
	TimeoutSecs int               `json:"timeout"`
	BypassCache bool              `json:"bypass_cache"`
}

// renderResponse is the response body from the render service
type renderResponse struct {
	Success     bool   `json:"success"`
	CleanedHTML string `json:"cleaned_html"`
	Error       string `json:"error,omitempty"`
}

// Render asks the headless service to load the page, run the pre-capture
// script, and return cleaned HTML.
func (c *Client) Render(ctx context.Context, req domain.RenderRequest) (*domain.RenderResult, error) {
	payload := renderPayload{
		URL:         req.URL,
		Headers:     req.Headers,
		JS:          req.Script,
		WaitFor:     req.WaitFor,
		TimeoutSecs: int(req.Timeout.Seconds()),
		BypassCache: true,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode render request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, req.Timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.renderURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	if c.debug {
		log.Printf("[CRAWL] Render request for %s (%d byte payload)", req.URL, len(body))
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrFetchFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: render service status %d, body: %s", domain.ErrFetchFailure, resp.StatusCode, string(respBody))
	}

	var rendered renderResponse
	if err := json.NewDecoder(resp.Body).Decode(&rendered); err != nil {
		return nil, fmt.Errorf("failed to decode render response: %w", err)
	}

	return &domain.RenderResult{
		Success:     rendered.Success,
		CleanedHTML: rendered.CleanedHTML,
		ErrorMsg:    rendered.Error,
	}, nil
}

// Fetch performs a plain HTTP GET with browser-like headers and cleans the
// HTML locally. Used as the simpler second attempt when rendering fails.
func (c *Client) Fetch(ctx context.Context, url string, timeout time.Duration) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrFetchFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d", domain.ErrFetchFailure, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrFetchFailure, err)
	}

	return CleanHTML(string(body)), nil
}
