// Package cache memoizes per-record validation and enhancement results under
// content-addressed keys that include the schema version.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Cache stores opaque results keyed by content hash.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key, version string, data []byte) error
	// InvalidateExcept drops every entry not written under version.
	InvalidateExcept(ctx context.Context, version string) (int, error)
}

// Key returns the SHA-256 hex of the canonical JSON encoding of op, version
// and args. Map keys are sorted by encoding/json so equal inputs hash equally.
func Key(op, version string, args ...any) (string, error) {
	payload := struct {
		Op      string `json:"op"`
		Version string `json:"version"`
		Args    []any  `json:"args"`
	}{op, version, args}

	data, err := json.Marshal(payload)
	if err != nil {
		return "", eris.Wrap(err, "cache: encode key")
	}
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h), nil
}

// Memoize returns the cached value for key or computes, stores and returns it.
// Cache read and write failures are logged and fall through to fn.
func Memoize[T any](ctx context.Context, c Cache, key, version string, fn func() (T, error)) (T, bool, error) {
	if c != nil {
		data, ok, err := c.Get(ctx, key)
		switch {
		case err != nil:
			zap.L().Warn("cache: get failed", zap.String("key", short(key)), zap.Error(err))
		case ok:
			var v T
			if err := json.Unmarshal(data, &v); err == nil {
				return v, true, nil
			}
			zap.L().Warn("cache: discarding undecodable entry", zap.String("key", short(key)))
		}
	}

	v, err := fn()
	if err != nil || c == nil {
		return v, false, err
	}

	data, err := json.Marshal(v)
	if err != nil {
		return v, false, eris.Wrap(err, "cache: encode value")
	}
	if err := c.Set(ctx, key, version, data); err != nil {
		zap.L().Warn("cache: set failed", zap.String("key", short(key)), zap.Error(err))
	}
	return v, false, nil
}

func short(key string) string {
	if len(key) > 12 {
		return key[:12]
	}
	return key
}

type memoryEntry struct {
	version string
	data    []byte
}

// Memory is an in-process Cache.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

// NewMemory creates an empty in-process cache.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]memoryEntry)}
}

// Get implements Cache.
func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(e.data))
	copy(out, e.data)
	return out, true, nil
}

// Set implements Cache.
func (m *Memory) Set(_ context.Context, key, version string, data []byte) error {
	buf := make([]byte, len(data))
	copy(buf, data)
	m.mu.Lock()
	m.entries[key] = memoryEntry{version: version, data: buf}
	m.mu.Unlock()
	return nil
}

// InvalidateExcept implements Cache.
func (m *Memory) InvalidateExcept(_ context.Context, version string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for k, e := range m.entries {
		if e.version != version {
			delete(m.entries, k)
			n++
		}
	}
	return n, nil
}

// Len returns the number of cached entries.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
