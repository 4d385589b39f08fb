package profilestore

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/domain"
	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/usecase/profile"
)

func testPackage() domain.Package {
	var desc domain.PackageDescription
	desc.Add("urn:du:1", "dcs:type", "deliverableunit")

	ser := domain.NewPackageSerialization()
	ser.AddFile("data/readme.txt")
	ser.AddFile("data/image.png")
	ser.AddChecksum("data/readme.txt", domain.Checksum{Algorithm: domain.AlgSHA256, Value: "ab"})
	ser.AddMetadata("Source-Organization", "Data Conservancy")

	return domain.Package{Name: "pkg", Description: desc, Serialization: ser}
}

func TestLoadProfileYAML(t *testing.T) {
	path := filepath.Join("testdata", "basic.yaml")
	p, err := NewLoader().LoadProfile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Name != "basic" || len(p.Rules) != 3 {
		t.Fatalf("unexpected profile %+v", p)
	}
	if p.Rules[0].Strategy != profile.ExactlyOne || p.Rules[2].Strategy != profile.None {
		t.Fatalf("strategies not mapped: %q %q", p.Rules[0].Strategy, p.Rules[2].Strategy)
	}
	if _, ok := p.Rules[1].Evaluator.(*profile.Chain); !ok {
		t.Fatalf("expected chain for multi-term rule, got %T", p.Rules[1].Evaluator)
	}

	results := p.Check(testPackage())
	for _, r := range results {
		if !r.Passed {
			t.Fatalf("rule %s failed: %s", r.Name, r.Message)
		}
	}
}

func TestLoadProfileTOML(t *testing.T) {
	p, err := LoadProfile(filepath.Join("testdata", "basic.toml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Name != "basic-toml" || p.Rules[0].Strategy != profile.AtLeastOne {
		t.Fatalf("unexpected profile %+v", p)
	}
	if !profile.Conforms(p.Check(testPackage())) {
		t.Fatalf("expected package to conform")
	}
}

func TestLoadProfileInvalid(t *testing.T) {
	path := filepath.Join("testdata", "invalid.yaml")
	_, err := LoadProfile(path)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "rules[1].match[1].logic") {
		t.Fatalf("expected field in error, got %v", err)
	}
	if !strings.Contains(err.Error(), path) {
		t.Fatalf("expected path in error, got %v", err)
	}
	if !domain.IsKind(err, domain.KindInvalidConfig) {
		t.Fatalf("expected invalid config kind, got %v", domain.KindOf(err))
	}
}

func TestLoadProfileRejectsUnknownFields(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"typo.yaml": "name: p\nrules:\n  - name: r\n    select: $.files[*]\n    stratgy: none\n    match:\n      - op: ends_with\n        values: [\".exe\"]\n",
		"typo.toml": "name = \"p\"\n[[rules]]\nname = \"r\"\nselect = \"$.files[*]\"\nstratgy = \"none\"\n[[rules.match]]\nop = \"ends_with\"\nvalues = [\".exe\"]\n",
	}
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		_, err := LoadProfile(path)
		if err == nil {
			t.Fatalf("%s: expected error for misspelled strategy", name)
		}
		if !strings.Contains(err.Error(), "stratgy") {
			t.Fatalf("%s: expected the unknown key in error, got %v", name, err)
		}
		if !domain.IsKind(err, domain.KindInvalidConfig) {
			t.Fatalf("%s: expected invalid config kind, got %v", name, domain.KindOf(err))
		}
	}
}

func TestLoadProfileMissing(t *testing.T) {
	_, err := LoadProfile(filepath.Join("testdata", "nope.yaml"))
	if !domain.IsKind(err, domain.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
