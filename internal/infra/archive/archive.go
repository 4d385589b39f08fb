// Package archive extracts and creates package archives in tar, tar.gz, tar.zst
// and zip form.
package archive

import (
	"archive/tar"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"

	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/domain"
	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/ports"
)

// Format identifies an archive container and compression.
type Format string

const (
	FormatTar    Format = "tar"
	FormatTarGz  Format = "tar.gz"
	FormatTarZst Format = "tar.zst"
	FormatZip    Format = "zip"
)

// DetectFormat guesses the format from the file name.
func DetectFormat(name string) (Format, bool) {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".tar.gz"), strings.HasSuffix(lower, ".tgz"):
		return FormatTarGz, true
	case strings.HasSuffix(lower, ".tar.zst"), strings.HasSuffix(lower, ".tzst"):
		return FormatTarZst, true
	case strings.HasSuffix(lower, ".tar"):
		return FormatTar, true
	case strings.HasSuffix(lower, ".zip"):
		return FormatZip, true
	}
	return "", false
}

// Handler implements ports.ArchiveHandler.
type Handler struct {
	// maxFileSize bounds a single extracted entry; zero disables the check.
	maxFileSize int64
}

type Option func(*Handler)

// WithMaxFileSize bounds the size of any single extracted file.
func WithMaxFileSize(n int64) Option {
	return func(h *Handler) { h.maxFileSize = n }
}

func NewHandler(opts ...Option) *Handler {
	h := &Handler{}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

var _ ports.ArchiveHandler = (*Handler)(nil)

// IsArchive reports whether path is a regular file with a known archive suffix.
func (h *Handler) IsArchive(path string) bool {
	if _, ok := DetectFormat(path); !ok {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// Extract unpacks archive into dest. Entries that would land outside dest and
// links are rejected.
func (h *Handler) Extract(ctx context.Context, archive, dest string) error {
	const op = "archive.extract"

	format, ok := DetectFormat(archive)
	if !ok {
		return &domain.OpError{Op: op, Kind: domain.KindInvalidArgument, Path: archive,
			Err: fmt.Errorf("unknown archive format: %w", domain.ErrInvalidArgument)}
	}
	absDest, err := filepath.Abs(dest)
	if err != nil {
		return &domain.OpError{Op: op, Kind: domain.KindInvalidArgument, Path: dest, Err: err}
	}
	if err := os.MkdirAll(absDest, 0o755); err != nil {
		return &domain.OpError{Op: op, Kind: domain.KindExecution, Path: dest, Err: err}
	}

	if format == FormatZip {
		err = h.extractZip(ctx, archive, absDest)
	} else {
		err = h.extractTar(ctx, archive, absDest, format)
	}
	if err != nil {
		var oe *domain.OpError
		if errors.As(err, &oe) {
			return err
		}
		return &domain.OpError{Op: op, Kind: domain.KindExecution, Path: archive, Err: err}
	}
	return nil
}

func (h *Handler) extractTar(ctx context.Context, archive, dest string, format Format) error {
	f, err := os.Open(archive)
	if err != nil {
		return err
	}
	defer f.Close()

	var r io.Reader = f
	switch format {
	case FormatTarGz:
		gz, err := gzip.NewReader(f)
		if err != nil {
			return err
		}
		defer gz.Close()
		r = gz
	case FormatTarZst:
		zr, err := zstd.NewReader(f)
		if err != nil {
			return err
		}
		defer zr.Close()
		r = zr
	}

	tr := tar.NewReader(r)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		target, err := safeJoin(dest, hdr.Name)
		if err != nil {
			return err
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := h.writeFile(target, tr, hdr.Size); err != nil {
				return err
			}
		case tar.TypeSymlink, tar.TypeLink:
			return &domain.OpError{Op: "archive.extract", Kind: domain.KindInvalidArgument, Path: hdr.Name,
				Err: fmt.Errorf("links are not supported: %w", domain.ErrInvalidArgument)}
		default:
			// pax headers, devices and fifos carry no payload
		}
	}
}

func (h *Handler) extractZip(ctx context.Context, archive, dest string) error {
	zr, err := zip.OpenReader(archive)
	if err != nil {
		return err
	}
	defer zr.Close()

	for _, zf := range zr.File {
		if err := ctx.Err(); err != nil {
			return err
		}
		target, err := safeJoin(dest, zf.Name)
		if err != nil {
			return err
		}
		if zf.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
			continue
		}
		if zf.Mode()&fs.ModeSymlink != 0 {
			return &domain.OpError{Op: "archive.extract", Kind: domain.KindInvalidArgument, Path: zf.Name,
				Err: fmt.Errorf("links are not supported: %w", domain.ErrInvalidArgument)}
		}

		rc, err := zf.Open()
		if err != nil {
			return err
		}
		err = h.writeFile(target, rc, int64(zf.UncompressedSize64))
		rc.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) writeFile(target string, r io.Reader, size int64) error {
	if h.maxFileSize > 0 && size > h.maxFileSize {
		return &domain.OpError{Op: "archive.extract", Kind: domain.KindInvalidArgument, Path: target,
			Err: fmt.Errorf("entry of %d bytes exceeds limit of %d: %w", size, h.maxFileSize, domain.ErrInvalidArgument)}
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if h.maxFileSize > 0 {
		r = io.LimitReader(r, h.maxFileSize)
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// safeJoin resolves name under dest and rejects absolute or escaping names.
func safeJoin(dest, name string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(name))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", &domain.OpError{Op: "archive.extract", Kind: domain.KindInvalidArgument, Path: name,
			Err: fmt.Errorf("entry escapes destination: %w", domain.ErrInvalidArgument)}
	}
	return filepath.Join(dest, clean), nil
}

// Create archives srcDir into archive. Entries are rooted at the base name of
// srcDir so extraction yields a single top-level directory.
func (h *Handler) Create(ctx context.Context, srcDir, archive string) error {
	const op = "archive.create"

	format, ok := DetectFormat(archive)
	if !ok {
		return &domain.OpError{Op: op, Kind: domain.KindInvalidArgument, Path: archive,
			Err: fmt.Errorf("unknown archive format: %w", domain.ErrInvalidArgument)}
	}
	info, err := os.Stat(srcDir)
	if err != nil || !info.IsDir() {
		return &domain.OpError{Op: op, Kind: domain.KindNotFound, Path: srcDir,
			Err: fmt.Errorf("source is not a directory: %w", domain.ErrNotFound)}
	}

	if err := os.MkdirAll(filepath.Dir(archive), 0o755); err != nil {
		return &domain.OpError{Op: op, Kind: domain.KindExecution, Path: archive, Err: err}
	}
	out, err := os.Create(archive)
	if err != nil {
		return &domain.OpError{Op: op, Kind: domain.KindExecution, Path: archive, Err: err}
	}

	if format == FormatZip {
		err = createZip(ctx, srcDir, out)
	} else {
		err = createTar(ctx, srcDir, out, format)
	}
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(archive)
		return &domain.OpError{Op: op, Kind: domain.KindExecution, Path: archive, Err: err}
	}
	return nil
}

// walkEntries calls fn for every directory and regular file under srcDir with
// its slash-separated archive name.
func walkEntries(ctx context.Context, srcDir string, fn func(path, name string, d fs.DirEntry) error) error {
	root := filepath.Clean(srcDir)
	prefix := filepath.Base(root)
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if !d.IsDir() && !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		name := prefix
		if rel != "." {
			name = prefix + "/" + filepath.ToSlash(rel)
		}
		return fn(p, name, d)
	})
}

func createTar(ctx context.Context, srcDir string, w io.Writer, format Format) error {
	var (
		sink   = w
		closer io.Closer
	)
	switch format {
	case FormatTarGz:
		gz := gzip.NewWriter(w)
		sink, closer = gz, gz
	case FormatTarZst:
		zw, err := zstd.NewWriter(w)
		if err != nil {
			return err
		}
		sink, closer = zw, zw
	}

	tw := tar.NewWriter(sink)
	err := walkEntries(ctx, srcDir, func(p, name string, d fs.DirEntry) error {
		info, err := d.Info()
		if err != nil {
			return err
		}
		hdr, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		hdr.Name = name
		if d.IsDir() {
			hdr.Name += "/"
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		return copyFile(tw, p)
	})
	if err != nil {
		return err
	}
	if err := tw.Close(); err != nil {
		return err
	}
	if closer != nil {
		return closer.Close()
	}
	return nil
}

func createZip(ctx context.Context, srcDir string, w io.Writer) error {
	zw := zip.NewWriter(w)
	err := walkEntries(ctx, srcDir, func(p, name string, d fs.DirEntry) error {
		if d.IsDir() {
			_, err := zw.Create(name + "/")
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		hdr, err := zip.FileInfoHeader(info)
		if err != nil {
			return err
		}
		hdr.Name = name
		hdr.Method = zip.Deflate
		fw, err := zw.CreateHeader(hdr)
		if err != nil {
			return err
		}
		return copyFile(fw, p)
	})
	if err != nil {
		return err
	}
	return zw.Close()
}

func copyFile(w io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(w, f)
	return err
}
