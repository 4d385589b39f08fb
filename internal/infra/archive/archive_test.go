package archive

import (
	"archive/tar"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/domain"
)

func TestDetectFormat(t *testing.T) {
	cases := map[string]Format{
		"bag.tar":     FormatTar,
		"bag.TAR.GZ":  FormatTarGz,
		"bag.tgz":     FormatTarGz,
		"bag.tar.zst": FormatTarZst,
		"bag.zip":     FormatZip,
	}
	for name, want := range cases {
		got, ok := DetectFormat(name)
		if !ok || got != want {
			t.Errorf("%s: got %q,%v want %q", name, got, ok, want)
		}
	}
	if _, ok := DetectFormat("bag.rar"); ok {
		t.Fatalf("expected rar to be unknown")
	}
}

func makeTree(t *testing.T) string {
	t.Helper()
	src := filepath.Join(t.TempDir(), "mybag")
	require.NoError(t, os.MkdirAll(filepath.Join(src, "data", "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "bagit.txt"), []byte("BagIt-Version: 1.0\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "data", "sub", "f.txt"), []byte("payload"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(src, "empty"), 0o755))
	return src
}

func TestCreateExtractRoundTrip(t *testing.T) {
	for _, ext := range []string{".tar", ".tar.gz", ".tar.zst", ".zip"} {
		t.Run(ext, func(t *testing.T) {
			src := makeTree(t)
			out := filepath.Join(t.TempDir(), "bag"+ext)
			h := NewHandler()

			require.NoError(t, h.Create(context.Background(), src, out))
			assert.True(t, h.IsArchive(out))

			dest := t.TempDir()
			require.NoError(t, h.Extract(context.Background(), out, dest))

			b, err := os.ReadFile(filepath.Join(dest, "mybag", "data", "sub", "f.txt"))
			require.NoError(t, err)
			assert.Equal(t, "payload", string(b))
			assert.FileExists(t, filepath.Join(dest, "mybag", "bagit.txt"))
			assert.DirExists(t, filepath.Join(dest, "mybag", "empty"))
		})
	}
}

func writeTar(t *testing.T, entries map[string]string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "evil.tar")
	f, err := os.Create(p)
	require.NoError(t, err)
	tw := tar.NewWriter(f)
	for name, body := range entries {
		require.NoError(t, tw.WriteHeader(&tar.Header{Name: name, Mode: 0o644, Size: int64(len(body)), Typeflag: tar.TypeReg}))
		_, err := tw.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	require.NoError(t, f.Close())
	return p
}

func TestExtractRejectsTraversal(t *testing.T) {
	for _, name := range []string{"../escape.txt", "/abs.txt", "a/../../b.txt"} {
		archive := writeTar(t, map[string]string{name: "x"})
		err := NewHandler().Extract(context.Background(), archive, t.TempDir())
		require.Error(t, err, name)
		assert.True(t, domain.IsKind(err, domain.KindInvalidArgument), "%s: %v", name, err)
	}
}

func TestExtractRejectsOversizedEntries(t *testing.T) {
	archive := writeTar(t, map[string]string{"big.txt": "0123456789"})
	err := NewHandler(WithMaxFileSize(4)).Extract(context.Background(), archive, t.TempDir())
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindInvalidArgument))
}

func TestIsArchive(t *testing.T) {
	h := NewHandler()
	dir := t.TempDir()
	assert.False(t, h.IsArchive(filepath.Join(dir, "missing.zip")))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "folder.tar"), 0o755))
	assert.False(t, h.IsArchive(filepath.Join(dir, "folder.tar")))
}

func TestCreateRejectsUnknownFormat(t *testing.T) {
	err := NewHandler().Create(context.Background(), makeTree(t), filepath.Join(t.TempDir(), "x.rar"))
	assert.True(t, domain.IsKind(err, domain.KindInvalidArgument))
}
