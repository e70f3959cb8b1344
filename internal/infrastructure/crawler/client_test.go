package crawler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevketugurel/infinitum-agent-sub001/internal/domain"
)

func TestRender_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "POST", r.Method)

		var payload renderPayload
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "https://shop.example.com/p", payload.URL)
		assert.Equal(t, 40, payload.TimeoutSecs)
		assert.True(t, payload.BypassCache)
		assert.NotEmpty(t, payload.JS, "pre-capture script must be forwarded")
		assert.Contains(t, payload.Headers, "User-Agent")

		json.NewEncoder(w).Encode(renderResponse{
			Success:     true,
			CleanedHTML: "<html><body>Product $99</body></html>",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	result, err := client.Render(context.Background(), domain.RenderRequest{
		URL: "https://shop.example.com/p",
		Headers: map[string]string{
			"User-Agent": "Mozilla/5.0",
		},
		Script:  []string{"window.scrollTo(0, document.body.scrollHeight);"},
		Timeout: 40 * time.Second,
	})

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Contains(t, result.CleanedHTML, "Product $99")
}

func TestRender_ServiceReportsFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(renderResponse{
			Success: false,
			Error:   "navigation timeout",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	result, err := client.Render(context.Background(), domain.RenderRequest{
		URL:     "https://slow.example.com",
		Timeout: 5 * time.Second,
	})

	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "navigation timeout", result.ErrorMsg)
}

func TestRender_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.Render(context.Background(), domain.RenderRequest{
		URL:     "https://shop.example.com",
		Timeout: 5 * time.Second,
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrFetchFailure)
}

func TestRender_ServiceUnreachable(t *testing.T) {
	client := NewClient("http://127.0.0.1:1")
	_, err := client.Render(context.Background(), domain.RenderRequest{
		URL:     "https://shop.example.com",
		Timeout: time.Second,
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrFetchFailure)
}

func TestFetch_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("User-Agent"), "Mozilla")
		w.Write([]byte("<html><head><script>var x=1;</script></head><body>Widget   $42</body></html>"))
	}))
	defer server.Close()

	client := NewClient("http://unused.example.com")
	html, err := client.Fetch(context.Background(), server.URL, 5*time.Second)

	require.NoError(t, err)
	assert.NotContains(t, html, "var x=1", "scripts must be stripped")
	assert.Contains(t, html, "Widget $42", "whitespace must be collapsed")
}

func TestFetch_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient("http://unused.example.com")
	_, err := client.Fetch(context.Background(), server.URL, 5*time.Second)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrFetchFailure)
}
