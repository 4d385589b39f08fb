package domain

import "testing"

func TestRegistryEntryHasKeys(t *testing.T) {
	e := RegistryEntry[License]{
		ID:   "lic-1",
		Type: TypeLicense,
		Keys: []string{"CC-BY", "http://creativecommons.org/licenses/by/4.0/", "Attribution"},
	}

	cases := []struct {
		name string
		keys []string
		want bool
	}{
		{"no keys", nil, true},
		{"single contained", []string{"CC-BY"}, true},
		{"all contained", []string{"CC-BY", "Attribution"}, true},
		{"one missing", []string{"CC-BY", "CC0"}, false},
		{"case sensitive", []string{"cc-by"}, false},
	}
	for _, c := range cases {
		if got := e.HasKeys(c.keys...); got != c.want {
			t.Errorf("%s: HasKeys(%v) = %v, want %v", c.name, c.keys, got, c.want)
		}
	}
}

func TestRegistryEntryCloneDoesNotAlias(t *testing.T) {
	e := RegistryEntry[License]{ID: "x", Keys: []string{"a"}}
	c := e.Clone()
	c.Keys[0] = "b"
	if e.Keys[0] != "a" {
		t.Fatalf("expected clone not to alias keys")
	}
}

func TestSortEntries(t *testing.T) {
	entries := []RegistryEntry[License]{{ID: "c"}, {ID: "a"}, {ID: "b"}}
	SortEntries(entries)
	if entries[0].ID != "a" || entries[2].ID != "c" {
		t.Fatalf("unexpected order %+v", entries)
	}
}
