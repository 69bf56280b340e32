package store

import (
	"context"

	"github.com/prism-mfg/prism-cli/internal/cache"
)

type storeCache struct {
	s Store
}

// NewCache exposes the store's cache_entries table as a cache.Cache.
func NewCache(s Store) cache.Cache {
	return &storeCache{s: s}
}

func (c *storeCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := c.s.GetCache(ctx, key)
	if err != nil {
		return nil, false, err
	}
	return data, data != nil, nil
}

func (c *storeCache) Set(ctx context.Context, key, version string, data []byte) error {
	return c.s.SetCache(ctx, key, version, data)
}

func (c *storeCache) InvalidateExcept(ctx context.Context, version string) (int, error) {
	return c.s.DeleteCacheExcept(ctx, version)
}
