package fsworkspace

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/infra/profilestore"
	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/infra/seed"
)

func TestInitializer_Init_CreatesWorkspaceFiles(t *testing.T) {
	tmp := t.TempDir()

	if err := NewInitializer().Init(tmp, false); err != nil {
		t.Fatalf("Init error: %v", err)
	}

	assertFileExists(t, filepath.Join(tmp, "dcs.yaml"))
	assertFileExists(t, filepath.Join(tmp, "registry", "licenses.yaml"))
	assertFileExists(t, filepath.Join(tmp, "registry", "formats.toml"))
	assertFileExists(t, filepath.Join(tmp, "profiles", "default.yaml"))
	assertFileExists(t, filepath.Join(tmp, "reports"))
	assertFileExists(t, filepath.Join(tmp, ".dcs", "logs"))
}

func TestInitializer_Init_TemplatesLoad(t *testing.T) {
	tmp := t.TempDir()
	if err := NewInitializer().Init(tmp, false); err != nil {
		t.Fatalf("Init error: %v", err)
	}

	cat, err := seed.LoadDir(filepath.Join(tmp, "registry"))
	if err != nil {
		t.Fatalf("seed templates do not load: %v", err)
	}
	if len(cat.Licenses) != 2 || len(cat.Schemes) != 1 || len(cat.Formats) != 1 {
		t.Fatalf("unexpected catalog sizes: %d/%d/%d", len(cat.Licenses), len(cat.Schemes), len(cat.Formats))
	}

	p, err := profilestore.NewLoader().LoadProfile(filepath.Join(tmp, "profiles", "default.yaml"))
	if err != nil {
		t.Fatalf("profile template does not load: %v", err)
	}
	if p.Name != "default" || len(p.Rules) != 2 {
		t.Fatalf("unexpected profile %+v", p)
	}
}

func TestInitializer_Init_SkipsExistingFilesUnlessForce(t *testing.T) {
	tmp := t.TempDir()

	cfgPath := filepath.Join(tmp, "dcs.yaml")
	if err := os.WriteFile(cfgPath, []byte("custom\n"), 0o644); err != nil {
		t.Fatalf("write existing dcs.yaml: %v", err)
	}

	i := NewInitializer()
	if err := i.Init(tmp, false); err != nil {
		t.Fatalf("Init (force=false) error: %v", err)
	}
	b, err := os.ReadFile(cfgPath)
	if err != nil {
		t.Fatalf("read dcs.yaml: %v", err)
	}
	if string(b) != "custom\n" {
		t.Fatalf("expected dcs.yaml preserved, got %q", string(b))
	}

	if err := i.Init(tmp, true); err != nil {
		t.Fatalf("Init (force=true) error: %v", err)
	}
	b, err = os.ReadFile(cfgPath)
	if err != nil {
		t.Fatalf("read dcs.yaml after force: %v", err)
	}
	if !strings.Contains(string(b), "registry:") {
		t.Fatalf("expected dcs.yaml overwritten with template, got %q", string(b))
	}
}

func assertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected file %s, stat err=%v", path, err)
	}
}
