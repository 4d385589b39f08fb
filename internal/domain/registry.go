package domain

import (
	"slices"
	"sort"
)

// Registry entry type names used by the built-in registries.
const (
	TypeLicense        = "dataconservancy.types:License"
	TypeMetadataScheme = "dataconservancy.types:MetadataScheme"
	TypeMetadataFormat = "dataconservancy.types:MetadataFormat"
	TypePackage        = "dataconservancy.types:Package"
)

// RegistryEntry is a keyed, typed wrapper around a domain object managed by a registry.
type RegistryEntry[T any] struct {
	ID          string   `json:"id"`
	Type        string   `json:"type"`
	Keys        []string `json:"keys"`
	Description string   `json:"description,omitempty"`
	Entry       T        `json:"entry"`
}

// HasKeys reports whether every supplied key is contained in the entry's key set.
// An empty lookup matches every entry.
func (e RegistryEntry[T]) HasKeys(keys ...string) bool {
	for _, k := range keys {
		if !slices.Contains(e.Keys, k) {
			return false
		}
	}
	return true
}

// Clone returns a copy whose key slice does not alias the receiver's.
func (e RegistryEntry[T]) Clone() RegistryEntry[T] {
	out := e
	out.Keys = slices.Clone(e.Keys)
	return out
}

// SortEntries orders entries by id so listings are stable.
func SortEntries[T any](entries []RegistryEntry[T]) {
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
}
