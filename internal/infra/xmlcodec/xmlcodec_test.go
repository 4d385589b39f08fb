package xmlcodec

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/domain"
)

var ccBy = domain.License{
	Name: "Creative Commons Attribution 4.0",
	Tag:  "CC-BY-4.0",
	URI:  "https://creativecommons.org/licenses/by/4.0/",
}

var dcScheme = domain.MetadataScheme{
	Name:      "Dublin Core",
	Version:   "1.1",
	SchemaURL: "http://dublincore.org/schemas/xmls/qdc/dc.xsd",
}

func TestEntryRoundTrip(t *testing.T) {
	entry := domain.RegistryEntry[domain.License]{
		ID:          "license:cc-by",
		Type:        domain.TypeLicense,
		Keys:        []string{"CC-BY-4.0", "https://creativecommons.org/licenses/by/4.0/"},
		Description: "Attribution license",
		Entry:       ccBy,
	}

	var buf bytes.Buffer
	if err := EncodeEntry(&buf, entry); err != nil {
		t.Fatalf("encode: %v", err)
	}
	out := buf.String()
	for _, want := range []string{`<registryEntry id="license:cc-by" type="dataconservancy.types:License">`, "<key>CC-BY-4.0</key>", "<tag>CC-BY-4.0</tag>"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in:\n%s", want, out)
		}
	}

	got, err := DecodeEntry[domain.License](&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if diff := cmp.Diff(entry, got); diff != "" {
		t.Fatalf("entry mismatch (-want +got):\n%s", diff)
	}
}

func TestFormatEntryRoundTrip(t *testing.T) {
	entry := domain.RegistryEntry[domain.MetadataFormat]{
		ID:    "format:dc",
		Type:  domain.TypeMetadataFormat,
		Keys:  []string{"dc"},
		Entry: domain.MetadataFormat{ID: "dc", Name: "Dublin Core", Version: "1.1", Schemes: []domain.MetadataScheme{dcScheme}},
	}
	var buf bytes.Buffer
	if err := EncodeEntry(&buf, entry); err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeEntry[domain.MetadataFormat](&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if diff := cmp.Diff(entry, got); diff != "" {
		t.Fatalf("entry mismatch (-want +got):\n%s", diff)
	}
}

func roundTrip[T any](t *testing.T, v T, root string) T {
	t.Helper()
	var buf bytes.Buffer
	if err := Encode(&buf, v); err != nil {
		t.Fatalf("encode %T: %v", v, err)
	}
	if !strings.Contains(buf.String(), "<"+root) {
		t.Fatalf("expected <%s> root in:\n%s", root, buf.String())
	}
	got, err := Decode[T](&buf)
	if err != nil {
		t.Fatalf("decode %T: %v", v, err)
	}
	return got
}

func TestObjectRoundTrips(t *testing.T) {
	if got := roundTrip(t, ccBy, "license"); got != ccBy {
		t.Fatalf("license mismatch: %+v", got)
	}
	if got := roundTrip(t, dcScheme, "metadataScheme"); got != dcScheme {
		t.Fatalf("scheme mismatch: %+v", got)
	}

	format := domain.MetadataFormat{ID: "dc", Name: "Dublin Core", Schemes: []domain.MetadataScheme{dcScheme}}
	if diff := cmp.Diff(format, roundTrip(t, format, "metadataFormat")); diff != "" {
		t.Fatalf("format mismatch (-want +got):\n%s", diff)
	}

	refs := EntryRefs{Refs: []EntryRef{
		{ID: "a", Type: domain.TypeLicense, Href: "http://x/registry/entry/a"},
		{ID: "b", Href: "http://x/registry/entry/b"},
	}}
	if diff := cmp.Diff(refs, roundTrip(t, refs, "entryRefs")); diff != "" {
		t.Fatalf("refs mismatch (-want +got):\n%s", diff)
	}

	types := Types{Types: []string{domain.TypeLicense, domain.TypeMetadataFormat}}
	if diff := cmp.Diff(types, roundTrip(t, types, "types")); diff != "" {
		t.Fatalf("types mismatch (-want +got):\n%s", diff)
	}

	e := Error{Code: 404, Message: "no entry with id x"}
	if got := roundTrip(t, e, "error"); got.Code != 404 || got.Message != e.Message {
		t.Fatalf("error mismatch: %+v", got)
	}
}

func TestIngestReportRoundTrip(t *testing.T) {
	started := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	r := domain.NewIngestReport("rep-1", "bag-a", started)
	r.Source = "/tmp/bag-a.tar.gz"
	r.FileCount = 2
	r.TotalBytes = 42
	r.FilesByFormat["txt"] = 2
	r.ChecksumsByAlgorithm[domain.AlgSHA256] = 1
	r.ChecksumFailures["data/b.txt"] = domain.ChecksumMismatch{Algorithm: domain.AlgSHA256, Expected: "aa", Actual: "bb"}
	r.MissingFiles = []string{"data/c.txt"}
	r.Conformance["basic"] = false
	r.Errors = []string{"oops"}
	r.Finish(started.Add(time.Second))

	got := roundTrip(t, *r, "ingestReport")
	if diff := cmp.Diff(*r, got); diff != "" {
		t.Fatalf("report mismatch (-want +got):\n%s", diff)
	}
}

func TestEncodeUnsupported(t *testing.T) {
	if err := Encode(&bytes.Buffer{}, 42); err == nil {
		t.Fatalf("expected error")
	}
	if _, err := Decode[int](strings.NewReader("<x/>")); err == nil {
		t.Fatalf("expected error")
	}
}
