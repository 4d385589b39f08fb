package workspacefinder

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/domain"
	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/ports"
)

// DefaultMarkers are the file names that mark a dcs workspace root.
var DefaultMarkers = []string{"dcs.yaml", "dcs.yml"}

// Finder locates a dcs workspace root by searching upward for a marker file.
type Finder struct {
	Markers []string
}

func NewFinder() *Finder {
	return &Finder{Markers: DefaultMarkers}
}

var _ ports.WorkspaceLocator = (*Finder)(nil)

func (f *Finder) FindRoot(startDir string) (string, error) {
	if startDir == "" {
		return "", &domain.OpError{
			Op:   "workspacefinder.findroot",
			Kind: domain.KindInvalidArgument,
			Err:  errors.New("startDir is empty"),
		}
	}

	abs, err := filepath.Abs(startDir)
	if err != nil {
		return "", &domain.OpError{
			Op:   "workspacefinder.findroot",
			Kind: domain.KindExecution,
			Err:  err,
		}
	}

	// A file path starts the search from its directory.
	info, statErr := os.Stat(abs)
	if statErr == nil && !info.IsDir() {
		abs = filepath.Dir(abs)
	}

	cur := filepath.Clean(abs)
	for {
		if _, ok := f.markerIn(cur); ok {
			return cur, nil
		}

		parent := filepath.Dir(cur)
		if parent == cur {
			return "", &domain.OpError{
				Op:   "workspacefinder.findroot",
				Kind: domain.KindNotFound,
				Path: abs,
				Err:  fmt.Errorf("no %v found: %w", f.Markers, domain.ErrNotFound),
			}
		}
		cur = parent
	}
}

// ConfigFile returns the marker file present in root.
func (f *Finder) ConfigFile(root string) (string, bool) {
	return f.markerIn(root)
}

func (f *Finder) markerIn(dir string) (string, bool) {
	for _, m := range f.Markers {
		p := filepath.Join(dir, m)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, true
		}
	}
	return "", false
}
