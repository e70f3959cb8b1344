package gemini

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/sevketugurel/infinitum-agent-sub001/internal/domain"
)

// Client wraps the Gemini generative model behind the domain AIClient
// interface. A small semaphore plus a minimum call interval keeps us under
// the free-tier request rate.
type Client struct {
	client *genai.Client
	model  *genai.GenerativeModel
	sem    chan struct{}
	mu     sync.Mutex
	last   time.Time
	delay  time.Duration
}

// NewClient creates a new Gemini client
func NewClient(ctx context.Context, apiKey, modelName string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: no API key configured", domain.ErrLLMUnavailable)
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)

	// Low temperature: extraction wants determinism, not creativity
	model.SetTemperature(0.3)
	model.SetTopK(20)
	model.SetTopP(0.9)
	model.SetMaxOutputTokens(2048)

	return &Client{
		client: client,
		model:  model,
		sem:    make(chan struct{}, 3),
		delay:  350 * time.Millisecond,
	}, nil
}

// Ask submits a prompt and returns the model's text response
func (c *Client) Ask(ctx context.Context, prompt string) (string, error) {
	release := c.acquire()
	defer release()

	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrLLMUnavailable, err)
	}

	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("%w: no response candidates", domain.ErrLLMUnavailable)
	}

	return extractText(resp), nil
}

// Close releases the underlying API client
func (c *Client) Close() error {
	return c.client.Close()
}

// extractText concatenates the text parts of all candidates
func extractText(resp *genai.GenerateContentResponse) string {
	var result strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content != nil {
			for _, part := range cand.Content.Parts {
				result.WriteString(fmt.Sprintf("%v", part))
			}
		}
	}
	return result.String()
}

// acquire takes a semaphore slot and enforces the minimum interval between
// calls; the returned func releases the slot.
func (c *Client) acquire() func() {
	c.sem <- struct{}{}
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	if !c.last.IsZero() {
		if sleep := c.delay - now.Sub(c.last); sleep > 0 {
			time.Sleep(sleep)
		}
	}
	c.last = time.Now()

	return func() { <-c.sem }
}
