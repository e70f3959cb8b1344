package http

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sevketugurel/infinitum-agent-sub001/internal/domain"
	"github.com/sevketugurel/infinitum-agent-sub001/internal/usecase"
)

// Handler holds dependencies for HTTP handlers. store may be nil when no
// snapshot database is configured.
type Handler struct {
	searchService *usecase.SearchService
	extractor     *usecase.ExtractionService
	store         domain.SnapshotRepository
}

// NewHandler creates a new HTTP handler
func NewHandler(searchService *usecase.SearchService, extractor *usecase.ExtractionService, store domain.SnapshotRepository) *Handler {
	return &Handler{
		searchService: searchService,
		extractor:     extractor,
		store:         store,
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "infinitum-agent",
		"version": "1.0.0",
	})
}

// SearchProducts handles product search requests: web search, page
// extraction, curated records in response.
func (h *Handler) SearchProducts(c *gin.Context) {
	var req domain.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query is required"})
		return
	}

	records, err := h.searchService.SearchProducts(c.Request.Context(), req.Query, req.Limit)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidRequest):
			c.JSON(http.StatusBadRequest, gin.H{"error": "query is required"})
		case errors.Is(err, domain.ErrRateLimited):
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "search provider rate limit exceeded"})
		default:
			c.JSON(http.StatusBadGateway, gin.H{"error": "search failed", "detail": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"query":        req.Query,
		"products":     records,
		"result_count": len(records),
	})
}

// ScrapeProduct runs the extraction pipeline for a single URL. Extraction
// never fails outright; callers inspect extraction_method to judge the
// result.
func (h *Handler) ScrapeProduct(c *gin.Context) {
	var req domain.ScrapeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url is required"})
		return
	}

	if !isAbsoluteHTTPURL(req.URL) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url must be an absolute http(s) URL"})
		return
	}

	record := h.extractor.Extract(c.Request.Context(), req.URL)
	c.JSON(http.StatusOK, record)
}

// RecentProducts lists the most recently persisted product snapshots
func (h *Handler) RecentProducts(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "snapshot store not configured"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	snapshots, err := h.store.Recent(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "snapshot store unavailable"})
		return
	}
	if snapshots == nil {
		snapshots = []domain.Snapshot{}
	}

	c.JSON(http.StatusOK, gin.H{
		"snapshots":    snapshots,
		"result_count": len(snapshots),
	})
}

// isAbsoluteHTTPURL validates that raw parses as an absolute http(s) URL
func isAbsoluteHTTPURL(raw string) bool {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Host != ""
}
