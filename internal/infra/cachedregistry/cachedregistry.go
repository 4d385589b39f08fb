// Package cachedregistry puts a read-through TTL cache in front of a registry.
package cachedregistry

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/domain"
	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/infra/logger"
	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/ports"
)

const (
	DefaultExpiration      = 5 * time.Minute
	DefaultCleanupInterval = 10 * time.Minute
)

// Registry caches Retrieve, Lookup, Entries and Types of an inner registry.
// Writes go straight through and flush the cache; they fail when the inner
// registry is read-only (a remote client, say).
type Registry[T any] struct {
	inner ports.RegistryReader[T]
	cache *gocache.Cache
}

// New wraps inner. A non-positive ttl uses DefaultExpiration.
func New[T any](inner ports.RegistryReader[T], ttl time.Duration) *Registry[T] {
	if ttl <= 0 {
		ttl = DefaultExpiration
	}
	return &Registry[T]{inner: inner, cache: gocache.New(ttl, DefaultCleanupInterval)}
}

var _ ports.Registry[domain.License] = (*Registry[domain.License])(nil)

type retrieved[T any] struct {
	entry domain.RegistryEntry[T]
	ok    bool
}

func (r *Registry[T]) Retrieve(ctx context.Context, id string) (domain.RegistryEntry[T], bool, error) {
	key := "entry:" + id
	if v, ok := get[retrieved[T]](r.cache, key); ok {
		return v.entry.Clone(), v.ok, nil
	}

	e, ok, err := r.inner.Retrieve(ctx, id)
	if err != nil {
		return e, ok, err
	}
	r.cache.SetDefault(key, retrieved[T]{entry: e.Clone(), ok: ok})
	return e, ok, nil
}

func (r *Registry[T]) Lookup(ctx context.Context, keys ...string) ([]domain.RegistryEntry[T], error) {
	sorted := slices.Clone(keys)
	slices.Sort(sorted)
	return r.list(ctx, "lookup:"+strings.Join(sorted, "\x00"), func() ([]domain.RegistryEntry[T], error) {
		return r.inner.Lookup(ctx, keys...)
	})
}

func (r *Registry[T]) Entries(ctx context.Context) ([]domain.RegistryEntry[T], error) {
	return r.list(ctx, "entries", func() ([]domain.RegistryEntry[T], error) {
		return r.inner.Entries(ctx)
	})
}

func (r *Registry[T]) Types(ctx context.Context) ([]string, error) {
	if v, ok := get[[]string](r.cache, "types"); ok {
		return slices.Clone(v), nil
	}
	types, err := r.inner.Types(ctx)
	if err != nil {
		return nil, err
	}
	r.cache.SetDefault("types", slices.Clone(types))
	return types, nil
}

func (r *Registry[T]) Put(ctx context.Context, e domain.RegistryEntry[T]) (domain.RegistryEntry[T], error) {
	w, ok := r.inner.(ports.Registry[T])
	if !ok {
		return domain.RegistryEntry[T]{}, readOnly("cachedregistry.put", e.ID)
	}
	defer r.Flush()
	return w.Put(ctx, e)
}

func (r *Registry[T]) Delete(ctx context.Context, id string) error {
	w, ok := r.inner.(ports.Registry[T])
	if !ok {
		return readOnly("cachedregistry.delete", id)
	}
	defer r.Flush()
	return w.Delete(ctx, id)
}

func readOnly(op, id string) error {
	return &domain.OpError{Op: op, Kind: domain.KindInvalidArgument, Path: id,
		Err: fmt.Errorf("registry is read-only: %w", domain.ErrInvalidArgument)}
}

// Flush drops every cached result.
func (r *Registry[T]) Flush() {
	r.cache.Flush()
}

func (r *Registry[T]) list(_ context.Context, key string, load func() ([]domain.RegistryEntry[T], error)) ([]domain.RegistryEntry[T], error) {
	if v, ok := get[[]domain.RegistryEntry[T]](r.cache, key); ok {
		return cloneAll(v), nil
	}
	out, err := load()
	if err != nil {
		return nil, err
	}
	r.cache.SetDefault(key, cloneAll(out))
	return out, nil
}

func get[V any](c *gocache.Cache, key string) (V, bool) {
	var zero V
	raw, found := c.Get(key)
	if !found {
		return zero, false
	}
	v, ok := raw.(V)
	if !ok {
		logger.L().Error("registry.cache.type_mismatch", "key", key)
		return zero, false
	}
	logger.L().Debug("registry.cache.hit", "key", key)
	return v, true
}

func cloneAll[T any](in []domain.RegistryEntry[T]) []domain.RegistryEntry[T] {
	out := make([]domain.RegistryEntry[T], len(in))
	for i, e := range in {
		out[i] = e.Clone()
	}
	return out
}
