package store

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/ninaia/memoria/internal/cache"
	"github.com/ninaia/memoria/types"
)

// =============================================================================
// 💾 Cached Document Store
// =============================================================================

// CachedDocumentStore layers the Redis cache manager over any DocumentStore:
// read-through on misses, write-through on updates. The wrapped store stays
// the source of truth; cache failures degrade to the inner store instead of
// failing the operation.
type CachedDocumentStore struct {
	inner  DocumentStore
	cache  *cache.Manager
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedDocumentStore wraps inner with mgr. A zero ttl uses the cache
// manager's default.
func NewCachedDocumentStore(inner DocumentStore, mgr *cache.Manager, ttl time.Duration, logger *zap.Logger) *CachedDocumentStore {
	return &CachedDocumentStore{
		inner:  inner,
		cache:  mgr,
		ttl:    ttl,
		logger: logger.With(zap.String("component", "cached_document_store")),
	}
}

func cacheKey(key string) string { return "doc:" + key }

// Read serves from cache when possible, falling back to the inner store and
// populating the cache on a miss.
func (s *CachedDocumentStore) Read(ctx context.Context, key string, dest interface{}) error {
	val, err := s.cache.Get(ctx, cacheKey(key))
	if err == nil {
		if jsonErr := json.Unmarshal([]byte(val), dest); jsonErr == nil {
			return nil
		}
		// Poisoned cache entry: drop it and fall through to the inner store.
		_ = s.cache.Delete(ctx, cacheKey(key))
	} else if !cache.IsCacheMiss(err) {
		s.logger.Warn("cache read failed, using document store", zap.String("key", key), zap.Error(err))
	}

	var raw json.RawMessage
	if err := s.inner.Read(ctx, key, &raw); err != nil {
		return err
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		return types.NewError(types.ErrMalformedDocument, "document is not valid JSON").WithEntity(key).WithOperation("read").WithCause(err)
	}

	if err := s.cache.Set(ctx, cacheKey(key), string(raw), s.ttl); err != nil {
		s.logger.Warn("cache populate failed", zap.String("key", key), zap.Error(err))
	}

	return nil
}

// Write updates the inner store first, then the cache.
func (s *CachedDocumentStore) Write(ctx context.Context, key string, value interface{}) error {
	if err := s.inner.Write(ctx, key, value); err != nil {
		return err
	}

	if err := s.cache.SetJSON(ctx, cacheKey(key), value, s.ttl); err != nil {
		s.logger.Warn("cache write-through failed", zap.String("key", key), zap.Error(err))
	}

	return nil
}

// Delete removes the document and invalidates the cache entry.
func (s *CachedDocumentStore) Delete(ctx context.Context, key string) error {
	if err := s.inner.Delete(ctx, key); err != nil {
		return err
	}

	if err := s.cache.Delete(ctx, cacheKey(key)); err != nil {
		s.logger.Warn("cache invalidation failed", zap.String("key", key), zap.Error(err))
	}

	return nil
}

// List always hits the inner store; key listings are not cached.
func (s *CachedDocumentStore) List(ctx context.Context, prefix string) ([]string, error) {
	return s.inner.List(ctx, prefix)
}

// Close closes the inner store. The cache manager is owned by the caller
// and stays open.
func (s *CachedDocumentStore) Close() error {
	return s.inner.Close()
}
