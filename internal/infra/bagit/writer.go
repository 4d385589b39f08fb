package bagit

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/domain"
	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/infra/ore"
	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/ports"
)

const bagItVersion = "1.0"

// Writer builds bags from payload directories.
type Writer struct {
	algorithms []domain.ChecksumAlgorithm
	now        func() time.Time
}

type WriterOption func(*Writer)

// WithAlgorithms sets the payload and tag manifest algorithms.
func WithAlgorithms(algs ...domain.ChecksumAlgorithm) WriterOption {
	return func(w *Writer) {
		if len(algs) > 0 {
			w.algorithms = algs
		}
	}
}

// WithNow overrides the clock used for Bagging-Date (useful for tests).
func WithNow(now func() time.Time) WriterOption {
	return func(w *Writer) { w.now = now }
}

func NewWriter(opts ...WriterOption) *Writer {
	w := &Writer{
		algorithms: []domain.ChecksumAlgorithm{domain.AlgSHA256},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

var _ ports.PackageWriter = (*Writer)(nil)

// Write copies src into dest/data and writes the tag files. dest must not
// exist or be empty; when dest lies inside src it is left out of the payload.
// desc, when non-nil, is stored as a tag file. On failure everything Write
// created under dest is removed.
func (w *Writer) Write(ctx context.Context, src, dest string, desc *domain.PackageDescription, info map[string][]string) (*domain.PackageSerialization, error) {
	const op = "bagit.write"

	absDest, err := filepath.Abs(dest)
	if err != nil {
		return nil, &domain.OpError{Op: op, Kind: domain.KindInvalidArgument, Path: dest, Err: err}
	}
	absSrc, err := filepath.Abs(src)
	if err != nil {
		return nil, &domain.OpError{Op: op, Kind: domain.KindInvalidArgument, Path: src, Err: err}
	}
	if absSrc == absDest {
		return nil, &domain.OpError{Op: op, Kind: domain.KindInvalidArgument, Path: dest,
			Err: fmt.Errorf("bag directory is the payload directory: %w", domain.ErrInvalidArgument)}
	}
	entries, err := os.ReadDir(absDest)
	if err == nil && len(entries) > 0 {
		return nil, &domain.OpError{Op: op, Kind: domain.KindInvalidArgument, Path: dest,
			Err: fmt.Errorf("destination is not empty: %w", domain.ErrInvalidArgument)}
	}
	existed := err == nil

	ser, err := w.write(ctx, absSrc, absDest, desc, info)
	if err != nil {
		removeWritten(absDest, existed)
		return nil, err
	}
	return ser, nil
}

// removeWritten undoes a failed Write: dest itself goes when Write created
// it, otherwise only its contents do.
func removeWritten(dest string, existed bool) {
	if !existed {
		_ = os.RemoveAll(dest)
		return
	}
	entries, err := os.ReadDir(dest)
	if err != nil {
		return
	}
	for _, e := range entries {
		_ = os.RemoveAll(filepath.Join(dest, e.Name()))
	}
}

func (w *Writer) write(ctx context.Context, src, absDest string, desc *domain.PackageDescription, info map[string][]string) (*domain.PackageSerialization, error) {
	const op = "bagit.write"

	ser := domain.NewPackageSerialization()
	if err := ser.SetExtractDir(absDest); err != nil {
		return nil, err
	}
	if err := ser.SetBaseDir("."); err != nil {
		return nil, err
	}

	payload := map[string][]ManifestEntry{}
	var totalBytes int64
	fileCount := 0

	dataRoot := filepath.Join(absDest, payloadDir)
	err := filepath.WalkDir(src, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		target := filepath.Join(dataRoot, rel)
		if d.IsDir() {
			if p == absDest {
				return fs.SkipDir
			}
			return os.MkdirAll(target, 0o755)
		}
		if !d.Type().IsRegular() {
			return nil
		}

		sums, n, err := copyAndHash(p, target, w.algorithms)
		if err != nil {
			return err
		}
		bagPath := filepath.ToSlash(filepath.Join(payloadDir, rel))
		ser.AddFile(bagPath)
		for _, alg := range w.algorithms {
			cs := sums[alg]
			ser.AddChecksum(bagPath, cs)
			payload[string(alg)] = append(payload[string(alg)], ManifestEntry{Path: bagPath, Checksum: cs})
		}
		totalBytes += n
		fileCount++
		return nil
	})
	if err != nil {
		return nil, &domain.OpError{Op: op, Kind: domain.KindExecution, Path: src, Err: err}
	}

	tagFiles := []string{declarationFile, bagInfoFile}

	if err := writeTagFile(absDest, declarationFile, func(out io.Writer) error {
		return WriteBagInfo(out, []Field{
			{Key: "BagIt-Version", Value: bagItVersion},
			{Key: "Tag-File-Character-Encoding", Value: "UTF-8"},
		})
	}); err != nil {
		return nil, err
	}

	for k, vals := range info {
		for _, v := range vals {
			ser.AddMetadata(k, v)
		}
	}
	if _, ok := ser.MetadataValue("Bagging-Date"); !ok {
		ser.AddMetadata("Bagging-Date", w.now().UTC().Format("2006-01-02"))
	}
	ser.Metadata["Payload-Oxum"] = []string{strconv.FormatInt(totalBytes, 10) + "." + strconv.Itoa(fileCount)}

	if err := writeTagFile(absDest, bagInfoFile, func(out io.Writer) error {
		return WriteBagInfo(out, FieldsFromMetadata(ser.Metadata))
	}); err != nil {
		return nil, err
	}

	for _, alg := range w.algorithms {
		name := ManifestName(alg, false)
		entries := payload[string(alg)]
		if err := writeTagFile(absDest, name, func(out io.Writer) error {
			return WriteManifest(out, entries)
		}); err != nil {
			return nil, err
		}
		tagFiles = append(tagFiles, name)
	}

	if desc != nil {
		if err := writeTagFile(absDest, ore.DescriptionFile, func(out io.Writer) error {
			return ore.Write(out, *desc)
		}); err != nil {
			return nil, err
		}
		tagFiles = append(tagFiles, ore.DescriptionFile)
	}

	sort.Strings(tagFiles)
	for _, alg := range w.algorithms {
		var entries []ManifestEntry
		for _, name := range tagFiles {
			sums, _, err := ComputeFile(filepath.Join(absDest, name), alg)
			if err != nil {
				return nil, &domain.OpError{Op: op, Kind: domain.KindExecution, Path: name, Err: err}
			}
			entries = append(entries, ManifestEntry{Path: name, Checksum: sums[alg]})
			ser.AddChecksum(name, sums[alg])
		}
		if err := writeTagFile(absDest, ManifestName(alg, true), func(out io.Writer) error {
			return WriteManifest(out, entries)
		}); err != nil {
			return nil, err
		}
	}

	return ser, nil
}

func copyAndHash(src, dst string, algs []domain.ChecksumAlgorithm) (map[domain.ChecksumAlgorithm]domain.Checksum, int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return nil, 0, err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return nil, 0, err
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, 0, err
	}

	sums, n, err := Compute(io.TeeReader(in, out), algs...)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	return sums, n, err
}

func writeTagFile(dir, name string, fill func(io.Writer) error) error {
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &domain.OpError{Op: "bagit.write_tag", Kind: domain.KindExecution, Path: dir, Err: err}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return &domain.OpError{Op: "bagit.write_tag", Kind: domain.KindExecution, Path: path, Err: err}
	}
	if err := fill(f); err != nil {
		f.Close()
		return &domain.OpError{Op: "bagit.write_tag", Kind: domain.KindExecution, Path: path, Err: err}
	}
	if err := f.Close(); err != nil {
		return &domain.OpError{Op: "bagit.write_tag", Kind: domain.KindExecution, Path: path, Err: err}
	}
	return nil
}
