package ports

import (
	"context"

	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/domain"
)

// RegistryReader is the lookup side of a registry.
type RegistryReader[T any] interface {
	// Retrieve returns the entry with the given id. A missing entry is reported
	// as ok=false with a nil error.
	Retrieve(ctx context.Context, id string) (entry domain.RegistryEntry[T], ok bool, err error)
	// Lookup returns entries whose key set contains every supplied key.
	Lookup(ctx context.Context, keys ...string) ([]domain.RegistryEntry[T], error)
	// Entries lists every entry, sorted by id.
	Entries(ctx context.Context) ([]domain.RegistryEntry[T], error)
	// Types lists the distinct entry types held by the registry.
	Types(ctx context.Context) ([]string, error)
}

// Registry is a read/write registry of typed entries.
type Registry[T any] interface {
	RegistryReader[T]
	// Put stores entry, replacing any entry with the same id. An empty id is
	// assigned a new one; the stored entry is returned.
	Put(ctx context.Context, entry domain.RegistryEntry[T]) (domain.RegistryEntry[T], error)
	Delete(ctx context.Context, id string) error
}

// RegistryReplacer is implemented by registries that can swap their whole
// content in one step, so readers never see a mix of old and new entries.
type RegistryReplacer[T any] interface {
	Replace(ctx context.Context, entries []domain.RegistryEntry[T]) error
}
