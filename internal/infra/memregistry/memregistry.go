// Package memregistry provides map-backed registries.
package memregistry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/domain"
	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/ports"
)

// Registry is an in-memory ports.Registry. Values handed in and out are
// copies; callers cannot mutate stored key sets.
type Registry[T any] struct {
	mu      sync.RWMutex
	entries map[string]domain.RegistryEntry[T]
}

func New[T any]() *Registry[T] {
	return &Registry[T]{entries: map[string]domain.RegistryEntry[T]{}}
}

var (
	_ ports.Registry[domain.License]         = (*Registry[domain.License])(nil)
	_ ports.RegistryReplacer[domain.License] = (*Registry[domain.License])(nil)
	_ ports.RegistryReplacer[domain.License] = (*TypedRegistry[domain.License])(nil)
)

func (r *Registry[T]) Put(ctx context.Context, e domain.RegistryEntry[T]) (domain.RegistryEntry[T], error) {
	if err := ctx.Err(); err != nil {
		return domain.RegistryEntry[T]{}, err
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	stored := e.Clone()

	r.mu.Lock()
	r.entries[stored.ID] = stored
	r.mu.Unlock()
	return stored.Clone(), nil
}

func (r *Registry[T]) Retrieve(ctx context.Context, id string) (domain.RegistryEntry[T], bool, error) {
	if err := ctx.Err(); err != nil {
		return domain.RegistryEntry[T]{}, false, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	if !ok {
		return domain.RegistryEntry[T]{}, false, nil
	}
	return e.Clone(), true, nil
}

func (r *Registry[T]) Lookup(ctx context.Context, keys ...string) ([]domain.RegistryEntry[T], error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	out := make([]domain.RegistryEntry[T], 0)
	for _, e := range r.entries {
		if e.HasKeys(keys...) {
			out = append(out, e.Clone())
		}
	}
	r.mu.RUnlock()

	domain.SortEntries(out)
	return out, nil
}

func (r *Registry[T]) Entries(ctx context.Context) ([]domain.RegistryEntry[T], error) {
	return r.Lookup(ctx)
}

func (r *Registry[T]) Types(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	seen := map[string]struct{}{}
	r.mu.RLock()
	for _, e := range r.entries {
		seen[e.Type] = struct{}{}
	}
	r.mu.RUnlock()

	out := make([]string, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	sort.Strings(out)
	return out, nil
}

// Delete removes id. Deleting a missing entry is not an error.
func (r *Registry[T]) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	delete(r.entries, id)
	r.mu.Unlock()
	return nil
}

// Replace swaps the whole content atomically. Used by seed reloads.
func (r *Registry[T]) Replace(ctx context.Context, entries []domain.RegistryEntry[T]) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	next := make(map[string]domain.RegistryEntry[T], len(entries))
	for _, e := range entries {
		if e.ID == "" {
			e.ID = uuid.NewString()
		}
		next[e.ID] = e.Clone()
	}
	r.mu.Lock()
	r.entries = next
	r.mu.Unlock()
	return nil
}

// Len returns the number of stored entries.
func (r *Registry[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// TypedRegistry wraps a registry and only accepts entries of a single type.
// Entries put without a type are stamped with it.
type TypedRegistry[T any] struct {
	ports.Registry[T]
	typ string
}

func NewTyped[T any](typ string, inner ports.Registry[T]) *TypedRegistry[T] {
	if inner == nil {
		inner = New[T]()
	}
	return &TypedRegistry[T]{Registry: inner, typ: typ}
}

// Type returns the entry type this registry accepts.
func (r *TypedRegistry[T]) Type() string { return r.typ }

func (r *TypedRegistry[T]) Put(ctx context.Context, e domain.RegistryEntry[T]) (domain.RegistryEntry[T], error) {
	if e.Type == "" {
		e.Type = r.typ
	}
	if e.Type != r.typ {
		return domain.RegistryEntry[T]{}, &domain.OpError{
			Op:   "registry.put",
			Kind: domain.KindInvalidArgument,
			Path: e.ID,
			Err:  fmt.Errorf("entry type %q does not match registry type %q: %w", e.Type, r.typ, domain.ErrInvalidArgument),
		}
	}
	return r.Registry.Put(ctx, e)
}

// Replace forwards to the inner registry after stamping and checking types.
// It fails with errors.ErrUnsupported when the inner registry cannot replace
// its content in one step.
func (r *TypedRegistry[T]) Replace(ctx context.Context, entries []domain.RegistryEntry[T]) error {
	inner, ok := r.Registry.(ports.RegistryReplacer[T])
	if !ok {
		return errors.ErrUnsupported
	}
	stamped := make([]domain.RegistryEntry[T], len(entries))
	for i, e := range entries {
		if e.Type == "" {
			e.Type = r.typ
		}
		if e.Type != r.typ {
			return &domain.OpError{
				Op:   "registry.replace",
				Kind: domain.KindInvalidArgument,
				Path: e.ID,
				Err:  fmt.Errorf("entry type %q does not match registry type %q: %w", e.Type, r.typ, domain.ErrInvalidArgument),
			}
		}
		stamped[i] = e
	}
	return inner.Replace(ctx, stamped)
}
