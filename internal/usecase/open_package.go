package usecase

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/domain"
	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/ports"
)

// packageSource resolves a directory or archive to a readable package
// directory. cleanup removes anything extracted along the way.
type packageSource struct {
	archives ports.ArchiveHandler
	tempDir  string
}

func (s packageSource) open(ctx context.Context, source string) (dir string, cleanup func(), err error) {
	const op = "usecase.open_package"
	cleanup = func() {}

	info, err := os.Stat(source)
	if err != nil {
		kind := domain.KindExecution
		if errors.Is(err, os.ErrNotExist) {
			kind = domain.KindNotFound
		}
		return "", cleanup, &domain.OpError{Op: op, Kind: kind, Path: source, Err: err}
	}
	if info.IsDir() {
		return source, cleanup, nil
	}

	if s.archives == nil || !s.archives.IsArchive(source) {
		return "", cleanup, &domain.OpError{Op: op, Kind: domain.KindInvalidArgument, Path: source,
			Err: errors.New("not a directory or supported archive")}
	}

	if s.tempDir != "" {
		if err := os.MkdirAll(s.tempDir, 0o755); err != nil {
			return "", cleanup, &domain.OpError{Op: op, Kind: domain.KindExecution, Path: s.tempDir, Err: err}
		}
	}
	tmp, err := os.MkdirTemp(s.tempDir, "dcs-extract-*")
	if err != nil {
		return "", cleanup, &domain.OpError{Op: op, Kind: domain.KindExecution, Path: source, Err: err}
	}
	cleanup = func() { _ = os.RemoveAll(tmp) }

	if err := s.archives.Extract(ctx, source, tmp); err != nil {
		cleanup()
		return "", func() {}, err
	}
	return tmp, cleanup, nil
}

// packageName prefers the External-Identifier bag-info field over the bag
// directory name.
func packageName(ser *domain.PackageSerialization) string {
	if v, ok := ser.MetadataValue("External-Identifier"); ok && domain.SanitizeString(v) != "" {
		return domain.SanitizeString(v)
	}
	return filepath.Base(ser.BasePath())
}
