package embedding

import (
	"context"
	"sync"

	"github.com/memgraft/memgraft/internal/pkg/hash"
)

// Cache stores embeddings keyed by text hash.
type Cache interface {
	Get(ctx context.Context, text string) ([]float32, bool)
	Set(ctx context.Context, text string, vector []float32)
}

// MemoryCache is an in-process LRU embedding cache.
type MemoryCache struct {
	mu      sync.Mutex
	cache   map[string][]float32
	order   []string // LRU order, oldest first
	maxSize int
}

// NewMemoryCache creates a new in-memory cache.
func NewMemoryCache(maxSize int) *MemoryCache {
	if maxSize <= 0 {
		maxSize = 10000
	}
	return &MemoryCache{
		cache:   make(map[string][]float32),
		order:   make([]string, 0, maxSize),
		maxSize: maxSize,
	}
}

// Get retrieves a cached vector.
func (c *MemoryCache) Get(_ context.Context, text string) ([]float32, bool) {
	key := hash.SHA256String(text)

	c.mu.Lock()
	defer c.mu.Unlock()

	vec, ok := c.cache[key]
	if !ok {
		return nil, false
	}

	c.moveToEnd(key)

	// Return a copy to prevent external mutation.
	out := make([]float32, len(vec))
	copy(out, vec)
	return out, true
}

// Set stores a vector, evicting the least recently used entry if full.
func (c *MemoryCache) Set(_ context.Context, text string, vector []float32) {
	key := hash.SHA256String(text)

	vec := make([]float32, len(vector))
	copy(vec, vector)

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.cache[key]; exists {
		c.cache[key] = vec
		c.moveToEnd(key)
		return
	}

	if len(c.cache) >= c.maxSize && len(c.order) > 0 {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.cache, oldest)
	}

	c.cache[key] = vec
	c.order = append(c.order, key)
}

func (c *MemoryCache) moveToEnd(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			c.order = append(c.order, key)
			return
		}
	}
}

// Len returns the number of cached entries.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.cache)
}

// CachedProvider decorates a Provider with a Cache so record texts are
// embedded at most once per run.
type CachedProvider struct {
	inner Provider
	cache Cache
}

// NewCachedProvider wraps a provider with a cache.
func NewCachedProvider(inner Provider, cache Cache) *CachedProvider {
	return &CachedProvider{inner: inner, cache: cache}
}

// Embed serves cached vectors where possible and delegates the rest.
func (p *CachedProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, len(texts))
	misses := make([]int, 0)
	missTexts := make([]string, 0)

	for i, text := range texts {
		if vec, ok := p.cache.Get(ctx, text); ok {
			results[i] = vec
		} else {
			misses = append(misses, i)
			missTexts = append(missTexts, text)
		}
	}

	if len(misses) > 0 {
		vectors, err := p.inner.Embed(ctx, missTexts)
		if err != nil {
			return nil, err
		}
		for j, idx := range misses {
			results[idx] = vectors[j]
			p.cache.Set(ctx, missTexts[j], vectors[j])
		}
	}

	return results, nil
}

// Dimension returns the inner provider's dimension.
func (p *CachedProvider) Dimension() int {
	return p.inner.Dimension()
}

// Ping delegates to the inner provider.
func (p *CachedProvider) Ping(ctx context.Context) error {
	return p.inner.Ping(ctx)
}
