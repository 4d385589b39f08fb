package cachedregistry

import (
	"context"
	"testing"
	"time"

	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/domain"
	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/infra/memregistry"
	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/ports"
)

// countingRegistry counts reads that reach the inner registry.
type countingRegistry struct {
	ports.Registry[domain.License]
	retrieves, lookups, types int
}

func (c *countingRegistry) Retrieve(ctx context.Context, id string) (domain.RegistryEntry[domain.License], bool, error) {
	c.retrieves++
	return c.Registry.Retrieve(ctx, id)
}

func (c *countingRegistry) Lookup(ctx context.Context, keys ...string) ([]domain.RegistryEntry[domain.License], error) {
	c.lookups++
	return c.Registry.Lookup(ctx, keys...)
}

func (c *countingRegistry) Types(ctx context.Context) ([]string, error) {
	c.types++
	return c.Registry.Types(ctx)
}

func setup(t *testing.T) (*Registry[domain.License], *countingRegistry) {
	t.Helper()
	inner := &countingRegistry{Registry: memregistry.New[domain.License]()}
	_, err := inner.Put(context.Background(), domain.RegistryEntry[domain.License]{
		ID: "cc0", Type: domain.TypeLicense, Keys: []string{"CC0-1.0", "public-domain"},
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	return New[domain.License](inner, time.Minute), inner
}

func TestRetrieveIsCachedIncludingMisses(t *testing.T) {
	reg, inner := setup(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, ok, err := reg.Retrieve(ctx, "cc0"); !ok || err != nil {
			t.Fatalf("retrieve: ok=%v err=%v", ok, err)
		}
		if _, ok, _ := reg.Retrieve(ctx, "missing"); ok {
			t.Fatalf("unexpected hit for missing id")
		}
	}
	if inner.retrieves != 2 {
		t.Fatalf("expected 2 inner retrieves, got %d", inner.retrieves)
	}
}

func TestLookupKeyOrderSharesCacheEntry(t *testing.T) {
	reg, inner := setup(t)
	ctx := context.Background()

	a, _ := reg.Lookup(ctx, "CC0-1.0", "public-domain")
	b, _ := reg.Lookup(ctx, "public-domain", "CC0-1.0")
	if len(a) != 1 || len(b) != 1 {
		t.Fatalf("unexpected results %v %v", a, b)
	}
	if inner.lookups != 1 {
		t.Fatalf("expected one inner lookup, got %d", inner.lookups)
	}

	a[0].Keys[0] = "mutated"
	c, _ := reg.Lookup(ctx, "CC0-1.0", "public-domain")
	if c[0].Keys[0] != "CC0-1.0" {
		t.Fatalf("cached value was mutated through a returned slice")
	}
}

func TestWritesFlush(t *testing.T) {
	reg, inner := setup(t)
	ctx := context.Background()

	if _, err := reg.Types(ctx); err != nil {
		t.Fatalf("types: %v", err)
	}
	if _, err := reg.Put(ctx, domain.RegistryEntry[domain.License]{ID: "x", Type: "other"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	types, err := reg.Types(ctx)
	if err != nil {
		t.Fatalf("types: %v", err)
	}
	if len(types) != 2 || inner.types != 2 {
		t.Fatalf("expected fresh types after put, got %v (%d inner calls)", types, inner.types)
	}

	if err := reg.Delete(ctx, "cc0"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := reg.Retrieve(ctx, "cc0"); ok {
		t.Fatalf("expected deleted entry to be gone")
	}
}

type readerOnly struct {
	ports.RegistryReader[domain.License]
}

func TestWritesFailOnReadOnlyInner(t *testing.T) {
	reg := New[domain.License](readerOnly{memregistry.New[domain.License]()}, 0)
	ctx := context.Background()

	if _, err := reg.Put(ctx, domain.RegistryEntry[domain.License]{ID: "x"}); !domain.IsKind(err, domain.KindInvalidArgument) {
		t.Fatalf("expected read-only error, got %v", err)
	}
	if err := reg.Delete(ctx, "x"); !domain.IsKind(err, domain.KindInvalidArgument) {
		t.Fatalf("expected read-only error, got %v", err)
	}
}
