package domain

import (
	"path/filepath"
	"testing"
)

func TestSetExtractDirRequiresAbsolute(t *testing.T) {
	s := NewPackageSerialization()
	if err := s.SetExtractDir("relative/dir"); err == nil {
		t.Fatalf("expected error for relative extract dir")
	} else if !IsKind(err, KindInvalidArgument) {
		t.Fatalf("expected invalid_argument, got %v", err)
	}

	abs := filepath.Join(t.TempDir(), "extract")
	if err := s.SetExtractDir(abs); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.ExtractDir != abs {
		t.Fatalf("expected %q, got %q", abs, s.ExtractDir)
	}
}

func TestSetBaseDirRelativizesAbsolute(t *testing.T) {
	root := filepath.Join(t.TempDir(), "extract")
	s := NewPackageSerialization()
	if err := s.SetExtractDir(root); err != nil {
		t.Fatal(err)
	}

	if err := s.SetBaseDir(filepath.Join(root, "mybag")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.BaseDir != "mybag" {
		t.Fatalf("expected base dir mybag, got %q", s.BaseDir)
	}
	if s.BasePath() != filepath.Join(root, "mybag") {
		t.Fatalf("unexpected base path %q", s.BasePath())
	}

	if err := s.SetBaseDir(root); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.BaseDir != "." {
		t.Fatalf("expected '.', got %q", s.BaseDir)
	}
}

func TestSetBaseDirRejectsEscapes(t *testing.T) {
	root := filepath.Join(t.TempDir(), "extract")
	s := NewPackageSerialization()
	if err := s.SetExtractDir(root); err != nil {
		t.Fatal(err)
	}

	if err := s.SetBaseDir(filepath.Dir(root)); err == nil {
		t.Fatalf("expected error for absolute dir outside extract dir")
	}
	if err := s.SetBaseDir("../elsewhere"); err == nil {
		t.Fatalf("expected error for relative escape")
	}
	if err := s.SetBaseDir("a/../b"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.BaseDir != "b" {
		t.Fatalf("expected cleaned base dir, got %q", s.BaseDir)
	}
}

func TestSetBaseDirAbsoluteWithoutExtractDir(t *testing.T) {
	s := NewPackageSerialization()
	if err := s.SetBaseDir(t.TempDir()); err == nil {
		t.Fatalf("expected error when extract dir is unset")
	}
}

func TestSerializationChecksumsAndFiles(t *testing.T) {
	s := NewPackageSerialization()
	s.AddFile("data/a.txt")
	s.AddFile("data/./a.txt")
	if len(s.Files) != 1 {
		t.Fatalf("expected deduplicated files, got %v", s.Files)
	}

	s.AddChecksum("data/a.txt", Checksum{Algorithm: AlgMD5, Value: "ABC"})
	s.AddChecksum("data/a.txt", Checksum{Algorithm: AlgMD5, Value: "abc"})
	s.AddChecksum("data/a.txt", Checksum{Algorithm: AlgSHA256, Value: "def"})
	if n := len(s.Checksums["data/a.txt"]); n != 2 {
		t.Fatalf("expected 2 checksums, got %d", n)
	}
	cs, ok := s.ChecksumFor("data/a.txt", AlgSHA256)
	if !ok || cs.Value != "def" {
		t.Fatalf("unexpected checksum lookup: %+v %v", cs, ok)
	}

	s.AddMetadata("Contact-Name", "Alice")
	s.AddMetadata("Contact-Name", "Bob")
	if v, _ := s.MetadataValue("Contact-Name"); v != "Alice" {
		t.Fatalf("expected first metadata value, got %q", v)
	}
}

func TestPackageDescriptionQueries(t *testing.T) {
	var d PackageDescription
	d.Add("urn:du:1", "dcs:type", "DeliverableUnit")
	d.Add("urn:file:1", "dcs:type", "File")
	d.Add("urn:file:1", "dcs:isPartOf", "urn:du:1")

	if got := d.Objects("dcs:type"); len(got) != 2 || got[0] != "DeliverableUnit" {
		t.Fatalf("unexpected objects %v", got)
	}
	if got := d.Subjects("dcs:isPartOf", "urn:du:1"); len(got) != 1 || got[0] != "urn:file:1" {
		t.Fatalf("unexpected subjects %v", got)
	}
	if got := d.Predicates(); len(got) != 2 || got[0] != "dcs:isPartOf" {
		t.Fatalf("unexpected predicates %v", got)
	}
}

func TestParseAlgorithm(t *testing.T) {
	for in, want := range map[string]ChecksumAlgorithm{
		"SHA-256": AlgSHA256,
		"sha512":  AlgSHA512,
		"MD5":     AlgMD5,
		"sha_1":   AlgSHA1,
	} {
		got, err := ParseAlgorithm(in)
		if err != nil || got != want {
			t.Errorf("ParseAlgorithm(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseAlgorithm("crc32"); err == nil {
		t.Fatalf("expected error for unsupported algorithm")
	}
}
