package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/sevketugurel/infinitum-agent-sub001/internal/domain"
)

// Price patterns for the regex fallback, evaluated in priority order.
// First match wins. The recovered amount is always re-prefixed with "$"
// regardless of the original symbol; observed behavior, kept as is.
var priceFallbackPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\$([0-9,]+\.?[0-9]*)`),        // $99.99, $1,299
	regexp.MustCompile(`([0-9,]+\.?[0-9]*)\s*USD`),    // 99.99 USD
	regexp.MustCompile(`Price:\s*\$([0-9,]+\.?[0-9]*)`), // Price: $99.99
	regexp.MustCompile(`€([0-9,]+\.?[0-9]*)`),         // €99.99
	regexp.MustCompile(`£([0-9,]+\.?[0-9]*)`),         // £99.99
}

// Pre-capture scroll script to trigger lazy-loaded content before the
// renderer snapshots the page.
var preCaptureScript = []string{
	"window.scrollTo(0, document.body.scrollHeight/3);",
	"await new Promise(resolve => setTimeout(resolve, 1000));",
	"window.scrollTo(0, document.body.scrollHeight);",
}

// Browser-like headers reduce anti-bot rejection on product pages.
var browserHeaders = map[string]string{
	"User-Agent":                "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
	"Accept-Language":           "en-US,en;q=0.5",
	"Accept-Encoding":           "gzip, deflate",
	"DNT":                       "1",
	"Connection":                "keep-alive",
	"Upgrade-Insecure-Requests": "1",
}

const (
	maxHTMLChars       = 15000 // budget for the secondary fetch
	maxPromptHTMLChars = 12000 // HTML budget inside the LLM prompt
	maxDescriptionLen  = 200
)

// ExtractionConfig holds timeouts for the extraction pipeline
type ExtractionConfig struct {
	PrimaryTimeout   time.Duration // headless render
	SecondaryTimeout time.Duration // plain HTTP fallback fetch
	SyncBudget       time.Duration // total wall clock for ExtractSync
}

// ExtractionService extracts structured product data from a URL through a
// fixed fallback chain: headless render -> Gemini on cleaned HTML -> regex
// price scan -> sentinel failure record. Every stage is attempted exactly
// once and every failure is handled locally; Extract never returns an error.
type ExtractionService struct {
	fetcher domain.PageFetcher
	ai      domain.AIClient
	config  ExtractionConfig
}

// NewExtractionService creates a new extraction service with dependencies
func NewExtractionService(fetcher domain.PageFetcher, ai domain.AIClient, config ExtractionConfig) *ExtractionService {
	if config.PrimaryTimeout == 0 {
		config.PrimaryTimeout = 40 * time.Second
	}
	if config.SecondaryTimeout == 0 {
		config.SecondaryTimeout = 20 * time.Second
	}
	if config.SyncBudget == 0 {
		config.SyncBudget = 60 * time.Second
	}

	return &ExtractionService{
		fetcher: fetcher,
		ai:      ai,
		config:  config,
	}
}

// Extract retrieves the page at url and runs the extraction fallback chain.
// All failure paths converge to a record with extraction_method
// "fallback_failed" and a populated error field.
func (s *ExtractionService) Extract(ctx context.Context, url string) domain.ProductRecord {
	// Primary extraction strategy (structured CSS extraction) is disabled
	// in this build; the render result feeds the LLM stage directly.
	result, err := s.fetcher.Render(ctx, domain.RenderRequest{
		URL:     url,
		Headers: browserHeaders,
		Script:  preCaptureScript,
		WaitFor: "css:body",
		Timeout: s.config.PrimaryTimeout,
	})

	if err == nil && result != nil && result.Success && result.CleanedHTML != "" {
		return s.llmExtract(ctx, url, result.CleanedHTML)
	}

	if err != nil {
		log.Printf("[EXTRACT] Render failed for %s: %v", url, err)
	} else if result != nil {
		log.Printf("[EXTRACT] Render failed for %s: %s", url, result.ErrorMsg)
	}

	// Second, simpler fetch attempt with a shorter timeout.
	html, err := s.fetcher.Fetch(ctx, url, s.config.SecondaryTimeout)
	if err != nil {
		log.Printf("[EXTRACT] Fallback fetch failed for %s: %v", url, err)
		return failureRecord(url, fmt.Errorf("%w: %v", domain.ErrFetchFailure, err))
	}
	if len(html) > maxHTMLChars {
		html = html[:maxHTMLChars]
	}

	return s.llmExtract(ctx, url, html)
}

// ExtractSync is the synchronous bridge: it runs Extract on its own worker
// goroutine and blocks the caller for at most the configured wall-clock
// budget. A blown budget surfaces as a timeout failure record, never a hang.
func (s *ExtractionService) ExtractSync(url string) domain.ProductRecord {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.SyncBudget)
	defer cancel()

	done := make(chan domain.ProductRecord, 1)
	go func() {
		done <- s.Extract(ctx, url)
	}()

	select {
	case record := <-done:
		return record
	case <-ctx.Done():
		return failureRecord(url, fmt.Errorf("%w: extraction timed out after %s", domain.ErrFetchFailure, s.config.SyncBudget))
	}
}

// llmExtract submits the page HTML to the completion service and parses the
// response. Parse failures route to the regex price fallback over the same
// HTML.
func (s *ExtractionService) llmExtract(ctx context.Context, url, html string) domain.ProductRecord {
	prompt := buildExtractionPrompt(html)

	response, err := s.ai.Ask(ctx, prompt)
	if err != nil {
		log.Printf("[EXTRACT] LLM call failed for %s: %v", url, err)
		return s.regexFallback(url, html, fmt.Errorf("%w: %v", domain.ErrLLMUnavailable, err))
	}

	fields, err := parseJSONObject(response)
	if err != nil {
		log.Printf("[EXTRACT] Failed to parse LLM JSON response for %s: %v", url, err)
		return s.regexFallback(url, html, fmt.Errorf("%w: %v", domain.ErrParseFailure, err))
	}

	record := domain.ProductRecord{
		Title:            stringField(fields, "title"),
		Price:            stringField(fields, "price"),
		Brand:            stringField(fields, "brand"),
		Image:            stringField(fields, "image"),
		Description:      stringField(fields, "description"),
		URL:              url,
		ExtractionMethod: domain.MethodGeminiFallback,
	}

	return cleanRecord(record)
}

// regexFallback scans the raw HTML for price patterns in priority order and
// produces a price-only record, or the sentinel failure record when nothing
// matches.
func (s *ExtractionService) regexFallback(url, html string, cause error) domain.ProductRecord {
	for _, pattern := range priceFallbackPatterns {
		if m := pattern.FindStringSubmatch(html); m != nil {
			price := "$" + m[1]
			log.Printf("[EXTRACT] Regex fallback recovered price %s for %s", price, url)
			return domain.ProductRecord{
				Price:            &price,
				URL:              url,
				ExtractionMethod: domain.MethodRegexFallback,
				Error:            fmt.Sprintf("extraction failed: %v", cause),
			}
		}
	}

	return failureRecord(url, fmt.Errorf("%w: %v", domain.ErrNoDataFound, cause))
}

// buildExtractionPrompt assembles the fixed instruction around the (truncated)
// page HTML. The schema and price-pattern guidance mirror what the model is
// expected to emit: a bare JSON object with nulls for missing fields.
func buildExtractionPrompt(html string) string {
	if len(html) > maxPromptHTMLChars {
		html = html[:maxPromptHTMLChars]
	}

	var b strings.Builder
	b.WriteString("Extract product information from this HTML content and return ONLY a valid JSON object.\n\n")
	b.WriteString("IMPORTANT: Look carefully for price information in these common formats:\n")
	b.WriteString("- $99.99, $199, €150, £120\n")
	b.WriteString(`- "price": "$99.99", "cost": "$199"` + "\n")
	b.WriteString(`- class="price", class="cost", class="amount"` + "\n")
	b.WriteString("- data-price, data-cost attributes\n")
	b.WriteString(`- Text near words like "Price:", "Cost:", "$", "USD", "EUR"` + "\n\n")
	b.WriteString("HTML Content:\n")
	b.WriteString(html)
	b.WriteString("\n\nReturn JSON with this structure:\n")
	b.WriteString("{\n")
	b.WriteString(`  "title": "product title",` + "\n")
	b.WriteString(`  "price": "price with currency symbol (e.g. $99.99)",` + "\n")
	b.WriteString(`  "brand": "brand name",` + "\n")
	b.WriteString(`  "image": "full image URL",` + "\n")
	b.WriteString(`  "description": "brief description under 200 chars"` + "\n")
	b.WriteString("}\n\n")
	b.WriteString("CRITICAL: If you find ANY price information, include it. Look for:\n")
	b.WriteString("- Sale prices, regular prices, discounted prices\n")
	b.WriteString(`- Text like "Now $99", "Was $199 Now $149", "Starting at $99"` + "\n")
	b.WriteString(`- Price ranges like "$99-$199"` + "\n\n")
	b.WriteString("Use null for missing information. Return ONLY the JSON, no other text.")

	return b.String()
}

// parseJSONObject extracts the JSON object embedded in an LLM response by
// locating the first '{' and the last '}'. Models often wrap the object in
// prose or markdown fences.
func parseJSONObject(response string) (map[string]interface{}, error) {
	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in response")
	}

	var fields map[string]interface{}
	if err := json.Unmarshal([]byte(response[start:end+1]), &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// stringField pulls a string value out of decoded JSON; non-string values
// (including JSON null) come back as nil.
func stringField(fields map[string]interface{}, key string) *string {
	if v, ok := fields[key].(string); ok {
		return &v
	}
	return nil
}

// cleanRecord normalizes a parsed record: whitespace trimmed, the literal
// strings "null"/"none"/"" (any case) mapped to absent, description clamped,
// image kept only when it looks like an HTTP(S) URL.
func cleanRecord(record domain.ProductRecord) domain.ProductRecord {
	record.Title = cleanField(record.Title)
	record.Price = cleanField(record.Price)
	record.Brand = cleanField(record.Brand)
	record.Description = cleanField(record.Description)

	record.Image = cleanField(record.Image)
	if record.Image != nil && !strings.Contains(*record.Image, "http") {
		record.Image = nil
	}

	// The clamp counts characters, not bytes; a byte slice could cut a
	// multi-byte rune in half.
	if record.Description != nil {
		if runes := []rune(*record.Description); len(runes) > maxDescriptionLen {
			truncated := string(runes[:maxDescriptionLen]) + "..."
			record.Description = &truncated
		}
	}

	return record
}

// cleanField trims a value and maps null-like literals to absent
func cleanField(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	switch strings.ToLower(trimmed) {
	case "", "null", "none":
		return nil
	}
	return &trimmed
}

// failureRecord is the sentinel "nothing recovered" record
func failureRecord(url string, cause error) domain.ProductRecord {
	return domain.ProductRecord{
		URL:              url,
		ExtractionMethod: domain.MethodFailed,
		Error:            cause.Error(),
	}
}
