// Package embedding holds the embedder backends and a caching wrapper
// shared by all of them.
package embedding

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"chatdoc/internal/domain"
)

// Cached memoizes another embedder's vectors by text. Only successful
// results are cached.
type Cached struct {
	next  domain.Embedder
	cache *expirable.LRU[string, []float32]
}

// NewCached wraps next with an LRU of the given size and TTL. A size of
// zero or less returns next unchanged.
func NewCached(next domain.Embedder, size int, ttl time.Duration) domain.Embedder {
	if size <= 0 {
		return next
	}
	return &Cached{
		next:  next,
		cache: expirable.NewLRU[string, []float32](size, nil, ttl),
	}
}

// Name returns the wrapped embedder's identity; the cache is transparent.
func (c *Cached) Name() string { return c.next.Name() }

// Embed returns the cached vector for text or computes and stores it.
func (c *Cached) Embed(ctx context.Context, text string) ([]float32, error) {
	if v, ok := c.cache.Get(text); ok {
		return v, nil
	}
	v, err := c.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	c.cache.Add(text, v)
	return v, nil
}
