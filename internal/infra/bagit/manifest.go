package bagit

import (
	"bufio"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/domain"
)

// ManifestEntry is one "<checksum> <path>" line.
type ManifestEntry struct {
	Path     string
	Checksum domain.Checksum
}

var (
	pathDecoder = strings.NewReplacer("%0D", "\r", "%0d", "\r", "%0A", "\n", "%0a", "\n", "%25", "%")
	pathEncoder = strings.NewReplacer("%", "%25", "\r", "%0D", "\n", "%0A")
)

// ReadManifest parses a manifest computed with alg. Paths may contain spaces and
// are percent-decoded for CR, LF and '%'.
func ReadManifest(r io.Reader, alg domain.ChecksumAlgorithm) ([]ManifestEntry, error) {
	var out []ManifestEntry

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		idx := strings.IndexAny(line, " \t")
		if idx <= 0 {
			return nil, fmt.Errorf("line %d: expected \"<checksum> <path>\", got %q", lineNo, line)
		}
		value := line[:idx]
		p := strings.TrimLeft(line[idx:], " \t")
		p = strings.TrimPrefix(p, "*")
		if p == "" {
			return nil, fmt.Errorf("line %d: missing path", lineNo)
		}

		clean := path.Clean(pathDecoder.Replace(p))
		if path.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, "../") {
			return nil, fmt.Errorf("line %d: path %q escapes the bag", lineNo, p)
		}

		out = append(out, ManifestEntry{
			Path:     clean,
			Checksum: domain.Checksum{Algorithm: alg, Value: strings.ToLower(value)},
		})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// WriteManifest writes entries sorted by path.
func WriteManifest(w io.Writer, entries []ManifestEntry) error {
	sorted := make([]ManifestEntry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	bw := bufio.NewWriter(w)
	for _, e := range sorted {
		if _, err := fmt.Fprintf(bw, "%s  %s\n", strings.ToLower(e.Checksum.Value), pathEncoder.Replace(e.Path)); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ManifestName returns "manifest-<alg>.txt" or "tagmanifest-<alg>.txt".
func ManifestName(alg domain.ChecksumAlgorithm, tag bool) string {
	if tag {
		return "tagmanifest-" + string(alg) + ".txt"
	}
	return "manifest-" + string(alg) + ".txt"
}

// parseManifestName extracts the algorithm from a manifest file name.
func parseManifestName(name string) (alg domain.ChecksumAlgorithm, tag bool, ok bool) {
	base := name
	switch {
	case strings.HasPrefix(base, "tagmanifest-"):
		tag = true
		base = strings.TrimPrefix(base, "tagmanifest-")
	case strings.HasPrefix(base, "manifest-"):
		base = strings.TrimPrefix(base, "manifest-")
	default:
		return "", false, false
	}
	if !strings.HasSuffix(base, ".txt") {
		return "", false, false
	}
	a, err := domain.ParseAlgorithm(strings.TrimSuffix(base, ".txt"))
	if err != nil {
		return "", false, false
	}
	return a, tag, true
}
