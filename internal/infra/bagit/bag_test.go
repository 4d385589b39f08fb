package bagit

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/domain"
	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/infra/ore"
)

func writePayload(t *testing.T) string {
	t.Helper()
	src := t.TempDir()
	files := map[string]string{
		"readme.txt":        "hello\n",
		"images/photo.JPG":  "not really a jpeg",
		"nested/deep/a.csv": "a,b\n1,2\n",
	}
	for name, content := range files {
		p := filepath.Join(src, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	return src
}

func buildBag(t *testing.T) string {
	t.Helper()
	src := writePayload(t)
	dest := filepath.Join(t.TempDir(), "bag")

	var desc domain.PackageDescription
	desc.Add("urn:du:1", "dcs:type", "DeliverableUnit")

	w := NewWriter(
		WithAlgorithms(domain.AlgSHA256, domain.AlgMD5),
		WithNow(func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }),
	)
	ser, err := w.Write(context.Background(), src, dest, &desc, map[string][]string{
		"Source-Organization": {"Data Conservancy"},
	})
	require.NoError(t, err)
	require.Len(t, ser.Files, 3)
	return dest
}

func verify(t *testing.T, dir string) *domain.IngestReport {
	t.Helper()
	ser, err := NewReader().Read(context.Background(), dir)
	require.NoError(t, err)

	report := domain.NewIngestReport("r1", "bag", time.Now())
	require.NoError(t, NewVerifier(WithWorkers(2)).Verify(context.Background(), ser, report))
	return report
}

func TestWriteReadVerify_RoundTrip(t *testing.T) {
	dest := buildBag(t)

	for _, name := range []string{"bagit.txt", "bag-info.txt", "manifest-sha256.txt", "manifest-md5.txt",
		"tagmanifest-sha256.txt", "tagmanifest-md5.txt", ore.DescriptionFile} {
		assert.FileExists(t, filepath.Join(dest, name))
	}

	ser, err := NewReader().Read(context.Background(), dest)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"data/readme.txt", "data/images/photo.JPG", "data/nested/deep/a.csv"}, ser.Files)

	oxum, ok := ser.MetadataValue("Payload-Oxum")
	require.True(t, ok)
	assert.Equal(t, "31.3", oxum)
	date, _ := ser.MetadataValue("Bagging-Date")
	assert.Equal(t, "2024-03-01", date)
	org, _ := ser.MetadataValue("Source-Organization")
	assert.Equal(t, "Data Conservancy", org)

	_, ok = ser.ChecksumFor("data/readme.txt", domain.AlgMD5)
	assert.True(t, ok)
	_, ok = ser.ChecksumFor("bag-info.txt", domain.AlgSHA256)
	assert.True(t, ok, "tag manifest entries are loaded")

	report := verify(t, dest)
	assert.True(t, report.Successful(), "report: %+v", report)
	assert.Equal(t, 3, report.FileCount)
	assert.Equal(t, int64(31), report.TotalBytes)
	assert.Equal(t, 1, report.FilesByFormat["jpg"])
	assert.Equal(t, 1, report.FilesByFormat["csv"])
	// three payload files plus five tag files, each hashed twice
	assert.Equal(t, 8, report.ChecksumsByAlgorithm[domain.AlgSHA256])
	assert.Equal(t, 8, report.ChecksumsByAlgorithm[domain.AlgMD5])
}

func TestVerify_DetectsTamperingAndExtraFiles(t *testing.T) {
	dest := buildBag(t)

	require.NoError(t, os.WriteFile(filepath.Join(dest, "data", "readme.txt"), []byte("HELLO\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dest, "data", "extra.bin"), []byte("x"), 0o644))
	require.NoError(t, os.Remove(filepath.Join(dest, "data", "nested", "deep", "a.csv")))

	report := verify(t, dest)
	assert.False(t, report.Successful())
	assert.Equal(t, []string{"data/nested/deep/a.csv"}, report.MissingFiles)
	assert.Equal(t, []string{"data/extra.bin"}, report.UnexpectedFiles)

	mismatch, ok := report.ChecksumFailures["data/readme.txt"]
	require.True(t, ok, "failures: %+v", report.ChecksumFailures)
	assert.NotEqual(t, mismatch.Expected, mismatch.Actual)

	require.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0], "Payload-Oxum")
}

func TestRead_LocatesSingleNestedBag(t *testing.T) {
	dest := buildBag(t)
	parent := filepath.Dir(dest)

	ser, err := NewReader().Read(context.Background(), parent)
	require.NoError(t, err)
	assert.Equal(t, "bag", ser.BaseDir)
	assert.Equal(t, dest, ser.BasePath())
}

func TestRead_Errors(t *testing.T) {
	t.Run("no bag", func(t *testing.T) {
		_, err := NewReader().Read(context.Background(), t.TempDir())
		require.Error(t, err)
		assert.True(t, domain.IsKind(err, domain.KindNotFound))
	})

	t.Run("incomplete declaration", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "bagit.txt"), []byte("BagIt-Version: 1.0\n"), 0o644))
		_, err := NewReader().Read(context.Background(), dir)
		require.Error(t, err)
		assert.True(t, domain.IsKind(err, domain.KindInvalidConfig))
	})

	t.Run("no payload manifest", func(t *testing.T) {
		dir := t.TempDir()
		decl := "BagIt-Version: 1.0\nTag-File-Character-Encoding: UTF-8\n"
		require.NoError(t, os.WriteFile(filepath.Join(dir, "bagit.txt"), []byte(decl), 0o644))
		_, err := NewReader().Read(context.Background(), dir)
		require.Error(t, err)
		assert.True(t, strings.Contains(err.Error(), "no payload manifest"))
	})
}

func TestWrite_RejectsNonEmptyDestination(t *testing.T) {
	src := writePayload(t)
	dest := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dest, "existing"), nil, 0o644))

	_, err := NewWriter().Write(context.Background(), src, dest, nil, nil)
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindInvalidArgument))
}

func TestWrite_SkipsBagInsidePayload(t *testing.T) {
	src := writePayload(t)
	dest := filepath.Join(src, "zbag")

	ser, err := NewWriter().Write(context.Background(), src, dest, nil, nil)
	require.NoError(t, err)
	require.Len(t, ser.Files, 3)
	for _, f := range ser.Files {
		assert.False(t, strings.Contains(f, "zbag"), f)
	}
	_, err = os.Stat(filepath.Join(dest, "data", "zbag"))
	assert.True(t, os.IsNotExist(err))
	assert.True(t, verify(t, dest).Successful())
}

func TestWrite_RejectsPayloadAsDestination(t *testing.T) {
	src := writePayload(t)
	_, err := NewWriter().Write(context.Background(), src, src, nil, nil)
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindInvalidArgument))
}

func TestWrite_RemovesPartialBagOnFailure(t *testing.T) {
	src := writePayload(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	dest := filepath.Join(t.TempDir(), "bag")
	_, err := NewWriter().Write(ctx, src, dest, nil, nil)
	require.Error(t, err)
	_, statErr := os.Stat(dest)
	assert.True(t, os.IsNotExist(statErr), "partial bag left at %s", dest)

	existing := t.TempDir()
	_, err = NewWriter().Write(ctx, src, existing, nil, nil)
	require.Error(t, err)
	entries, err := os.ReadDir(existing)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCompute_KnownDigests(t *testing.T) {
	sums, n, err := Compute(strings.NewReader("abc"), domain.AlgMD5, domain.AlgSHA1, domain.AlgSHA256)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.Equal(t, "900150983cd24fb0d6963f7d28e17f72", sums[domain.AlgMD5].Value)
	assert.Equal(t, "a9993e364706816aba3e25717850c26c9cd0d89d", sums[domain.AlgSHA1].Value)
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", sums[domain.AlgSHA256].Value)
}
