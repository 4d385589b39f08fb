package usecase

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/domain"
	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/infra/archive"
	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/infra/bagit"
	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/infra/memregistry"
	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/infra/ore"
	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/usecase/profile"
)

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newSerializer() *SerializePackage {
	w := bagit.NewWriter(
		bagit.WithAlgorithms(domain.AlgSHA256),
		bagit.WithNow(func() time.Time { return fixedNow }),
	)
	return NewSerializePackage(w, archive.NewHandler())
}

// makeBag serializes a small payload into <tmp>/<name> and optionally archives it.
func makeBag(t *testing.T, name, archiveName string) (bagDir, archivePath string) {
	t.Helper()
	src := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(src, "docs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "docs", "readme.txt"), []byte("hello"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "data.csv"), []byte("a,b\n"), 0o644))

	out := t.TempDir()
	bagDir = filepath.Join(out, name)
	if archiveName != "" {
		archivePath = filepath.Join(out, archiveName)
	}

	var desc domain.PackageDescription
	desc.Add("urn:pkg:1", "http://purl.org/dc/terms/title", "Survey results")
	desc.Add("urn:pkg:1", "http://purl.org/dc/terms/license", "https://creativecommons.org/licenses/by/4.0/")

	_, err := newSerializer().Execute(context.Background(), SerializeRequest{
		PayloadDir:  src,
		BagDir:      bagDir,
		Description: &desc,
		Info:        map[string][]string{"External-Identifier": {"survey-2024"}},
		Archive:     archivePath,
	})
	require.NoError(t, err)
	return bagDir, archivePath
}

func newValidator(opts ...ValidateOption) *ValidatePackage {
	base := []ValidateOption{
		WithArchives(archive.NewHandler()),
		WithClock(func() time.Time { return fixedNow }),
		WithIDGenerator(func() string { return "report-1" }),
	}
	return NewValidatePackage(bagit.NewReader(), bagit.NewVerifier(), ore.NewReader(), append(base, opts...)...)
}

func licenseProfile() *profile.Profile {
	return &profile.Profile{
		Name: "open-license",
		Rules: []profile.Rule{
			{
				Name:      "license",
				Predicate: "http://purl.org/dc/terms/license",
				Strategy:  profile.ExactlyOne,
				Evaluator: profile.HasPrefix("https://creativecommons.org/"),
			},
			{
				Name:      "checksums",
				Select:    "$.checksums[*]",
				Strategy:  profile.AtLeastOne,
				Evaluator: profile.HasPrefix("sha256:"),
			},
		},
	}
}

func TestValidatePackage_DirectoryAndArchive(t *testing.T) {
	bagDir, archivePath := makeBag(t, "survey", "survey.tar.zst")
	uc := newValidator(WithProfiles(licenseProfile()))

	for _, source := range []string{bagDir, archivePath} {
		v, err := uc.Execute(context.Background(), source)
		require.NoError(t, err, source)

		r := v.Report
		require.Equal(t, "report-1", r.ID)
		require.Equal(t, "survey-2024", r.PackageName)
		require.Equal(t, source, r.Source)
		require.Equal(t, domain.IngestSucceeded, r.Status, "errors: %v", r.Errors)
		require.Equal(t, 2, r.FileCount)
		require.Equal(t, int64(9), r.TotalBytes)
		require.True(t, r.Conformance["open-license"])
		require.Len(t, v.Profiles["open-license"], 2)
		require.Equal(t, []string{"Survey results"}, v.Package.Description.Objects("http://purl.org/dc/terms/title"))
	}
}

func TestValidatePackage_ExtractsIntoTempDir(t *testing.T) {
	_, archivePath := makeBag(t, "survey", "survey.tar.gz")
	tmp := filepath.Join(t.TempDir(), "work", "tmp")

	v, err := newValidator(WithTempDir(tmp)).Execute(context.Background(), archivePath)
	require.NoError(t, err)
	require.True(t, v.Report.Successful())

	entries, err := os.ReadDir(tmp)
	require.NoError(t, err)
	require.Empty(t, entries, "extracted bag not cleaned up")
}

func TestValidatePackage_ReportsTamperingAndFailedProfile(t *testing.T) {
	bagDir, _ := makeBag(t, "survey", "")
	require.NoError(t, os.WriteFile(filepath.Join(bagDir, "data", "data.csv"), []byte("tampered"), 0o644))

	strict := &profile.Profile{
		Name: "strict",
		Rules: []profile.Rule{{
			Name:        "organization",
			MetadataKey: "Source-Organization",
			Strategy:    profile.ExactlyOne,
			Evaluator:   profile.Equals("Data Conservancy"),
		}},
	}

	v, err := newValidator(WithProfiles(strict)).Execute(context.Background(), bagDir)
	require.NoError(t, err)
	require.Equal(t, domain.IngestFailed, v.Report.Status)
	require.Contains(t, v.Report.ChecksumFailures, "data/data.csv")
	require.False(t, v.Report.Conformance["strict"])
}

func TestValidatePackage_Errors(t *testing.T) {
	uc := newValidator()

	_, err := uc.Execute(context.Background(), filepath.Join(t.TempDir(), "missing"))
	require.True(t, domain.IsKind(err, domain.KindNotFound), "got %v", err)

	plain := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(plain, []byte("x"), 0o644))
	_, err = uc.Execute(context.Background(), plain)
	require.True(t, domain.IsKind(err, domain.KindInvalidArgument), "got %v", err)

	// a directory that is not a bag
	_, err = uc.Execute(context.Background(), t.TempDir())
	require.Error(t, err)
}

type memReports struct {
	saved []domain.IngestReport
	err   error
}

func (m *memReports) SaveReport(r domain.IngestReport) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.saved = append(m.saved, r)
	return r.ID, nil
}

func (m *memReports) ListReports() ([]domain.IngestReport, error) {
	return m.saved, nil
}

func TestIngestPackage_RegistersValidPackages(t *testing.T) {
	bagDir, _ := makeBag(t, "survey", "")
	packages := memregistry.New[domain.PackageRecord]()
	reports := &memReports{}

	res, err := NewIngestPackage(newValidator(), packages, reports).Execute(context.Background(), bagDir)
	require.NoError(t, err)
	require.Equal(t, "report-1", res.ReportID)
	require.Len(t, reports.saved, 1)
	require.NotNil(t, res.Entry)
	require.NotEmpty(t, res.Entry.ID)
	require.Equal(t, domain.TypePackage, res.Entry.Type)
	require.Equal(t, []string{"survey-2024"}, res.Entry.Keys)
	require.Equal(t, 2, res.Entry.Entry.FileCount)
	require.Equal(t, fixedNow, res.Entry.Entry.IngestedAt)

	found, err := packages.Lookup(context.Background(), "survey-2024")
	require.NoError(t, err)
	require.Len(t, found, 1)
}

func TestIngestPackage_ReingestReplacesEntry(t *testing.T) {
	bagDir, _ := makeBag(t, "survey", "")
	packages := memregistry.NewTyped[domain.PackageRecord](domain.TypePackage, memregistry.New[domain.PackageRecord]())
	uc := NewIngestPackage(newValidator(), packages, nil)

	first, err := uc.Execute(context.Background(), bagDir)
	require.NoError(t, err)
	second, err := uc.Execute(context.Background(), bagDir)
	require.NoError(t, err)
	require.Equal(t, first.Entry.ID, second.Entry.ID)
	require.Equal(t, PackageEntryID("survey-2024"), first.Entry.ID)

	found, err := packages.Lookup(context.Background(), "survey-2024")
	require.NoError(t, err)
	require.Len(t, found, 1)
}

func TestIngestPackage_FailedValidationOnlySavesReport(t *testing.T) {
	bagDir, _ := makeBag(t, "survey", "")
	require.NoError(t, os.Remove(filepath.Join(bagDir, "data", "data.csv")))

	packages := memregistry.New[domain.PackageRecord]()
	reports := &memReports{}
	res, err := NewIngestPackage(newValidator(), packages, reports).Execute(context.Background(), bagDir)
	require.NoError(t, err)
	require.Nil(t, res.Entry)
	require.Len(t, reports.saved, 1)
	require.Equal(t, []string{"data/data.csv"}, reports.saved[0].MissingFiles)
	require.Zero(t, packages.Len())

	failing := &memReports{err: errors.New("disk full")}
	_, err = NewIngestPackage(newValidator(), packages, failing).Execute(context.Background(), bagDir)
	require.ErrorContains(t, err, "disk full")
}

func TestDescribePackage(t *testing.T) {
	_, archivePath := makeBag(t, "survey", "survey.zip")

	pkg, err := NewDescribePackage(bagit.NewReader(), ore.NewReader(), archive.NewHandler()).
		Execute(context.Background(), archivePath)
	require.NoError(t, err)
	require.Equal(t, "survey-2024", pkg.Name)
	require.Len(t, pkg.Description.Triples, 2)
	require.ElementsMatch(t, []string{"data/data.csv", "data/docs/readme.txt"}, pkg.Serialization.Files)
}

func TestSerializePackage_Validation(t *testing.T) {
	uc := newSerializer()

	_, err := uc.Execute(context.Background(), SerializeRequest{BagDir: t.TempDir()})
	require.True(t, domain.IsKind(err, domain.KindInvalidArgument))

	_, err = uc.Execute(context.Background(), SerializeRequest{
		PayloadDir: t.TempDir(),
		BagDir:     filepath.Join(t.TempDir(), "bag"),
		Archive:    "out.rar",
	})
	require.True(t, domain.IsKind(err, domain.KindInvalidArgument))
}
