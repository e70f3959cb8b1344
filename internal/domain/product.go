package domain

import "time"

// Extraction method tags. Callers treat these as load-bearing: a
// gemini_fallback record carries full structured fields, a regex_fallback
// record carries at most a price, and fallback_failed means nothing was
// recoverable.
const (
	MethodGeminiFallback = "gemini_fallback"
	MethodRegexFallback  = "regex_fallback"
	MethodFailed         = "fallback_failed"
)

// ProductRecord is the structured result of extracting a single product
// page. Optional fields are pointers so that a missing value serializes as
// an explicit JSON null rather than an empty string.
type ProductRecord struct {
	Title            *string `json:"title"`
	Price            *string `json:"price"`
	Brand            *string `json:"brand"`
	Image            *string `json:"image"`
	Description      *string `json:"description"`
	URL              string  `json:"url"`
	ExtractionMethod string  `json:"extraction_method"`
	Error            string  `json:"error,omitempty"`
}

// HasPrice reports whether the record carries pricing information.
func (r *ProductRecord) HasPrice() bool {
	return r.Price != nil && *r.Price != ""
}

// IsUsable reports whether the record carries anything worth showing to a
// user: a successful extraction, or at least a recovered price.
func (r *ProductRecord) IsUsable() bool {
	if r.ExtractionMethod == MethodFailed {
		return false
	}
	return r.Title != nil || r.HasPrice()
}

// SearchResult is a single organic result from the web search provider.
type SearchResult struct {
	Title         string `json:"title"`
	Link          string `json:"link"`
	Snippet       string `json:"snippet"`
	Position      int    `json:"position"`
	DisplayedLink string `json:"displayed_link,omitempty"`
}

// Snapshot is a persisted copy of an extracted ProductRecord.
type Snapshot struct {
	DocID   string        `json:"document_id"`
	Record  ProductRecord `json:"record"`
	SavedAt time.Time     `json:"saved_at"`
}

// SearchRequest is the body of a product search call.
type SearchRequest struct {
	Query string `json:"query" binding:"required"`
	Limit int    `json:"limit,omitempty"`
}

// ScrapeRequest is the body of a single-URL extraction call.
type ScrapeRequest struct {
	URL string `json:"url" binding:"required"`
}
