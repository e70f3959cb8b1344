package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevketugurel/infinitum-agent-sub001/internal/domain"
)

func sampleResults() []domain.SearchResult {
	return []domain.SearchResult{
		{Title: "Shop A", Link: "https://a.example.com", Position: 1},
		{Title: "Shop B", Link: "https://b.example.com", Position: 2},
	}
}

func TestSearchCache_PutAndGet(t *testing.T) {
	c := NewSearchCache(time.Minute)

	c.Put("google:headphones:10", sampleResults())

	got, ok := c.Get("google:headphones:10")
	require.True(t, ok)
	require.Len(t, got, 2)
	assert.Equal(t, "Shop A", got[0].Title)
}

func TestSearchCache_MissOnUnknownKey(t *testing.T) {
	c := NewSearchCache(time.Minute)

	_, ok := c.Get("google:nothing:10")
	assert.False(t, ok)
}

func TestSearchCache_Expiry(t *testing.T) {
	c := NewSearchCache(20 * time.Millisecond)

	c.Put("key", sampleResults())

	_, ok := c.Get("key")
	require.True(t, ok)

	time.Sleep(40 * time.Millisecond)

	_, ok = c.Get("key")
	assert.False(t, ok, "expired entry must read as a miss")
}

func TestSearchCache_Delete(t *testing.T) {
	c := NewSearchCache(time.Minute)

	c.Put("key", sampleResults())
	c.Delete("key")

	_, ok := c.Get("key")
	assert.False(t, ok)
}

func TestSearchCache_SizeAndClear(t *testing.T) {
	c := NewSearchCache(time.Minute)

	c.Put("a", sampleResults())
	c.Put("b", sampleResults())
	assert.Equal(t, 2, c.Size())

	c.Clear()
	assert.Equal(t, 0, c.Size())
}

func TestSearchCache_CallerMutationDoesNotCorrupt(t *testing.T) {
	c := NewSearchCache(time.Minute)

	results := sampleResults()
	c.Put("key", results)

	results[0].Title = "mutated"

	got, ok := c.Get("key")
	require.True(t, ok)
	assert.Equal(t, "Shop A", got[0].Title)
}

func TestSearchCache_ReturnedSliceMutationDoesNotCorrupt(t *testing.T) {
	c := NewSearchCache(time.Minute)

	c.Put("key", sampleResults())

	first, ok := c.Get("key")
	require.True(t, ok)
	first[0].Title = "mutated"

	second, ok := c.Get("key")
	require.True(t, ok)
	assert.Equal(t, "Shop A", second[0].Title)
}

func TestSearchCache_DefaultTTL(t *testing.T) {
	c := NewSearchCache(0)
	assert.Equal(t, 30*time.Minute, c.ttl)
}
