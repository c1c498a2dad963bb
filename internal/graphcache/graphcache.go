// Package graphcache keeps recently loaded street networks in memory so
// repeated trails over the same area skip the upstream fetch. Cached graphs
// are shared and must be treated as read-only.
package graphcache

import (
	"context"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/mohammed-shakir/eulerian-streets/internal/cache/keys"
	"github.com/mohammed-shakir/eulerian-streets/internal/core/model"
	"github.com/mohammed-shakir/eulerian-streets/internal/core/observability"
)

const defaultSize = 32

type Loader interface {
	Load(ctx context.Context, q model.Query, network string) (model.Graph, error)
}

type Cache struct {
	mu  sync.Mutex
	lru *lru.Cache[string, model.Graph]
}

func New(size int) *Cache {
	if size <= 0 {
		size = defaultSize
	}
	c, _ := lru.New[string, model.Graph](size)
	return &Cache{lru: c}
}

func (c *Cache) Get(key string) (model.Graph, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	g, ok := c.lru.Get(key)
	if ok {
		observability.IncCacheHit("graph")
	} else {
		observability.IncCacheMiss("graph")
	}
	return g, ok
}

func (c *Cache) Add(key string, g model.Graph) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Add(key, g)
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// Source wraps a Loader with the cache. Failed loads are not cached.
type Source struct {
	next  Loader
	cache *Cache
}

func NewSource(next Loader, cache *Cache) *Source {
	return &Source{next: next, cache: cache}
}

func (s *Source) Load(ctx context.Context, q model.Query, network string) (model.Graph, error) {
	key := keys.Graph(q, network)
	if g, ok := s.cache.Get(key); ok {
		return g, nil
	}
	g, err := s.next.Load(ctx, q, network)
	if err != nil {
		return model.Graph{}, err
	}
	s.cache.Add(key, g)
	return g, nil
}
