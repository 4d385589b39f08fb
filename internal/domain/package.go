package domain

import (
	"path"
	"path/filepath"
	"slices"
	"sort"
	"strings"
)

// Triple is an RDF-like statement about a package resource.
type Triple struct {
	Subject   string `json:"subject" xml:"subject"`
	Predicate string `json:"predicate" xml:"predicate"`
	Object    string `json:"object" xml:"object"`
}

// PackageDescription describes the resources of a package as a list of triples.
type PackageDescription struct {
	Triples []Triple `json:"triples"`
}

// Add appends a triple.
func (d *PackageDescription) Add(subject, predicate, object string) {
	d.Triples = append(d.Triples, Triple{Subject: subject, Predicate: predicate, Object: object})
}

// Objects returns the objects of every triple using predicate, in document order.
func (d PackageDescription) Objects(predicate string) []string {
	var out []string
	for _, t := range d.Triples {
		if t.Predicate == predicate {
			out = append(out, t.Object)
		}
	}
	return out
}

// Subjects returns the subjects related to object through predicate.
func (d PackageDescription) Subjects(predicate, object string) []string {
	var out []string
	for _, t := range d.Triples {
		if t.Predicate == predicate && t.Object == object {
			out = append(out, t.Subject)
		}
	}
	return out
}

// Predicates returns the distinct predicates in sorted order.
func (d PackageDescription) Predicates() []string {
	seen := map[string]struct{}{}
	for _, t := range d.Triples {
		seen[t.Predicate] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// PackageSerialization is the on-disk form of a package: its files, their
// checksums and the bag metadata.
//
// ExtractDir is always absolute. BaseDir is always relative to ExtractDir.
type PackageSerialization struct {
	Checksums  map[string][]Checksum `json:"checksums"`
	Files      []string              `json:"files"`
	Metadata   map[string][]string   `json:"metadata"`
	ExtractDir string                `json:"extract_dir,omitempty"`
	BaseDir    string                `json:"base_dir,omitempty"`
}

// NewPackageSerialization returns a serialization with initialized maps.
func NewPackageSerialization() *PackageSerialization {
	return &PackageSerialization{
		Checksums: map[string][]Checksum{},
		Metadata:  map[string][]string{},
	}
}

// SetExtractDir sets the directory the package was extracted to.
func (s *PackageSerialization) SetExtractDir(dir string) error {
	if !filepath.IsAbs(dir) {
		return invalidArg("serialization.extract_dir", dir, "extract directory must be absolute")
	}
	s.ExtractDir = filepath.Clean(dir)
	return nil
}

// SetBaseDir sets the package base directory. Absolute paths are relativized
// against ExtractDir; the stored value never escapes ExtractDir.
func (s *PackageSerialization) SetBaseDir(dir string) error {
	const op = "serialization.base_dir"

	if dir == "" {
		s.BaseDir = ""
		return nil
	}

	if filepath.IsAbs(dir) {
		if s.ExtractDir == "" {
			return invalidArg(op, dir, "extract directory must be set before an absolute base directory")
		}
		rel, err := filepath.Rel(s.ExtractDir, filepath.Clean(dir))
		if err != nil {
			return invalidArg(op, dir, "cannot relativize against %s", s.ExtractDir)
		}
		dir = rel
	}

	clean := filepath.Clean(dir)
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return invalidArg(op, dir, "base directory escapes the extract directory")
	}
	s.BaseDir = clean
	return nil
}

// BasePath returns the absolute base directory (ExtractDir joined with BaseDir).
func (s *PackageSerialization) BasePath() string {
	if s.ExtractDir == "" {
		return s.BaseDir
	}
	return filepath.Join(s.ExtractDir, s.BaseDir)
}

// AddFile records a bag-relative file path once.
func (s *PackageSerialization) AddFile(p string) {
	p = path.Clean(filepath.ToSlash(p))
	if slices.Contains(s.Files, p) {
		return
	}
	s.Files = append(s.Files, p)
}

// AddChecksum records a checksum for a bag-relative path. Duplicate values for
// the same algorithm are ignored.
func (s *PackageSerialization) AddChecksum(p string, cs Checksum) {
	if s.Checksums == nil {
		s.Checksums = map[string][]Checksum{}
	}
	p = path.Clean(filepath.ToSlash(p))
	for _, existing := range s.Checksums[p] {
		if existing.Equal(cs) {
			return
		}
	}
	s.Checksums[p] = append(s.Checksums[p], cs)
}

// ChecksumFor returns the checksum recorded for p with the given algorithm.
func (s *PackageSerialization) ChecksumFor(p string, alg ChecksumAlgorithm) (Checksum, bool) {
	for _, cs := range s.Checksums[path.Clean(filepath.ToSlash(p))] {
		if cs.Algorithm == alg {
			return cs, true
		}
	}
	return Checksum{}, false
}

// AddMetadata appends a value to a (possibly repeated) metadata key.
func (s *PackageSerialization) AddMetadata(key, value string) {
	if s.Metadata == nil {
		s.Metadata = map[string][]string{}
	}
	s.Metadata[key] = append(s.Metadata[key], value)
}

// MetadataValue returns the first value stored for key.
func (s *PackageSerialization) MetadataValue(key string) (string, bool) {
	vals := s.Metadata[key]
	if len(vals) == 0 {
		return "", false
	}
	return vals[0], true
}

// Package couples a description with its serialization.
type Package struct {
	Name          string                `json:"name"`
	Description   PackageDescription    `json:"description"`
	Serialization *PackageSerialization `json:"serialization,omitempty"`
}
