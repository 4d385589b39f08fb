package bagit

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/domain"
	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/infra/logger"
	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/ports"
)

// Verifier checks bag completeness and fixity.
type Verifier struct {
	workers int
}

type VerifierOption func(*Verifier)

// WithWorkers bounds the number of files hashed concurrently.
func WithWorkers(n int) VerifierOption {
	return func(v *Verifier) {
		if n > 0 {
			v.workers = n
		}
	}
}

func NewVerifier(opts ...VerifierOption) *Verifier {
	v := &Verifier{
		workers: runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

var _ ports.PackageVerifier = (*Verifier)(nil)

// Verify fills report with payload statistics, missing and unexpected payload
// files and checksum mismatches. Problems with the bag itself are recorded in
// the report; only I/O failures unrelated to bag content are returned.
func (v *Verifier) Verify(ctx context.Context, ser *domain.PackageSerialization, report *domain.IngestReport) error {
	base := ser.BasePath()

	actual, err := listPayload(base)
	if err != nil {
		return &domain.OpError{Op: "bagit.verify", Kind: domain.KindExecution, Path: base, Err: err}
	}

	listed := make(map[string]struct{}, len(ser.Files))
	for _, f := range ser.Files {
		listed[f] = struct{}{}
	}

	for _, f := range ser.Files {
		if _, ok := actual[f]; !ok {
			report.MissingFiles = append(report.MissingFiles, f)
		}
	}
	for f, size := range actual {
		report.FileCount++
		report.TotalBytes += size
		report.FilesByFormat[formatOf(f)]++
		if _, ok := listed[f]; !ok {
			report.UnexpectedFiles = append(report.UnexpectedFiles, f)
		}
	}
	sort.Strings(report.MissingFiles)
	sort.Strings(report.UnexpectedFiles)

	v.checkOxum(ser, report)

	paths := make([]string, 0, len(ser.Checksums))
	for p := range ser.Checksums {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(v.workers)

	for _, p := range paths {
		expected := ser.Checksums[p]
		full := filepath.Join(base, filepath.FromSlash(p))
		if !fileExists(full) {
			// Reported through MissingFiles for payload; tag files are reported here.
			if !strings.HasPrefix(p, payloadDir+"/") {
				mu.Lock()
				report.MissingFiles = append(report.MissingFiles, p)
				mu.Unlock()
			}
			continue
		}

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			algs := make([]domain.ChecksumAlgorithm, 0, len(expected))
			for _, cs := range expected {
				algs = append(algs, cs.Algorithm)
			}
			got, _, err := ComputeFile(full, algs...)
			if err != nil {
				mu.Lock()
				report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", p, err))
				mu.Unlock()
				return nil
			}

			mu.Lock()
			defer mu.Unlock()
			for _, cs := range expected {
				computed := got[cs.Algorithm]
				if computed.Equal(cs) {
					report.ChecksumsByAlgorithm[cs.Algorithm]++
					continue
				}
				report.ChecksumFailures[p] = domain.ChecksumMismatch{
					Algorithm: cs.Algorithm,
					Expected:  strings.ToLower(cs.Value),
					Actual:    computed.Value,
				}
				logger.With("bagit").Warn("bag.verify.mismatch", "path", p, "algorithm", cs.Algorithm,
					"expected", cs.Value, "actual", computed.Value)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	sort.Strings(report.MissingFiles)
	return nil
}

// checkOxum compares a Payload-Oxum bag-info value ("<bytes>.<count>") with the
// payload on disk.
func (v *Verifier) checkOxum(ser *domain.PackageSerialization, report *domain.IngestReport) {
	oxum, ok := ser.MetadataValue("Payload-Oxum")
	if !ok {
		return
	}
	bytesPart, countPart, found := strings.Cut(oxum, ".")
	size, err1 := strconv.ParseInt(bytesPart, 10, 64)
	count, err2 := strconv.Atoi(countPart)
	if !found || err1 != nil || err2 != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("invalid Payload-Oxum %q", oxum))
		return
	}
	if size != report.TotalBytes || count != report.FileCount {
		report.Errors = append(report.Errors, fmt.Sprintf("Payload-Oxum %s does not match payload %d.%d",
			oxum, report.TotalBytes, report.FileCount))
	}
}

// listPayload returns bag-relative payload paths and their sizes.
func listPayload(bagDir string) (map[string]int64, error) {
	out := map[string]int64{}
	root := filepath.Join(bagDir, payloadDir)

	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && p == root {
				return fs.SkipDir
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(bagDir, p)
		if err != nil {
			return err
		}
		out[filepath.ToSlash(rel)] = info.Size()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func formatOf(p string) string {
	return strings.ToLower(strings.TrimPrefix(path.Ext(p), "."))
}
