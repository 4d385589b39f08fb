package workspacefinder

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/domain"
)

func TestFindRoot_FindsWorkspaceFromNestedDir(t *testing.T) {
	tmp := t.TempDir()
	root := filepath.Join(tmp, "ws")
	nested := filepath.Join(root, "a", "b", "c")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "dcs.yaml"), []byte("registry:\n  seed_dir: registry\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	f := NewFinder()
	got, err := f.FindRoot(nested)
	if err != nil {
		t.Fatalf("FindRoot returned error: %v", err)
	}
	if got != root {
		t.Fatalf("expected root=%s, got=%s", root, got)
	}
	if p, ok := f.ConfigFile(got); !ok || filepath.Base(p) != "dcs.yaml" {
		t.Fatalf("expected dcs.yaml marker, got %q %v", p, ok)
	}
}

func TestFindRoot_AcceptsYmlAndFilePaths(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "dcs.yml"), nil, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	file := filepath.Join(root, "bag.zip")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := NewFinder().FindRoot(file)
	if err != nil || got != root {
		t.Fatalf("expected %s, got %s (%v)", root, got, err)
	}
}

func TestFindRoot_IgnoresMarkerDirectories(t *testing.T) {
	tmp := t.TempDir()
	if err := os.MkdirAll(filepath.Join(tmp, "dcs.yaml"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if _, ok := NewFinder().ConfigFile(tmp); ok {
		t.Fatalf("a directory named dcs.yaml is not a marker")
	}
}

func TestFindRoot_NotFound(t *testing.T) {
	tmp := t.TempDir()
	_ = os.MkdirAll(filepath.Join(tmp, "a", "b"), 0o755)

	f := &Finder{Markers: []string{"definitely-not-present.yaml"}}
	_, err := f.FindRoot(filepath.Join(tmp, "a", "b"))
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestFindRoot_EmptyStart(t *testing.T) {
	if _, err := NewFinder().FindRoot(""); !domain.IsKind(err, domain.KindInvalidArgument) {
		t.Fatalf("expected invalid argument, got %v", err)
	}
}
