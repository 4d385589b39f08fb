package bagit

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/domain"
	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/ports"
)

const (
	declarationFile = "bagit.txt"
	bagInfoFile     = "bag-info.txt"
	payloadDir      = "data"
)

// Declaration is the content of bagit.txt.
type Declaration struct {
	Version  string
	Encoding string
}

// Reader loads bags from disk.
type Reader struct{}

func NewReader() *Reader {
	return &Reader{}
}

var _ ports.PackageReader = (*Reader)(nil)

// Read loads the bag found at dir. dir is used as the extract directory; the bag
// itself may be dir or its single top-level subdirectory (the usual layout of an
// extracted archive).
func (r *Reader) Read(ctx context.Context, dir string) (*domain.PackageSerialization, error) {
	const op = "bagit.read"

	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, &domain.OpError{Op: op, Kind: domain.KindInvalidArgument, Path: dir, Err: err}
	}

	ser := domain.NewPackageSerialization()
	if err := ser.SetExtractDir(abs); err != nil {
		return nil, err
	}

	base, err := LocateBag(abs)
	if err != nil {
		return nil, err
	}
	if err := ser.SetBaseDir(base); err != nil {
		return nil, err
	}

	if _, err := ReadDeclaration(base); err != nil {
		return nil, err
	}

	if err := readBagInfoFile(base, ser); err != nil {
		return nil, err
	}

	if err := readManifests(ctx, base, ser); err != nil {
		return nil, err
	}

	return ser, nil
}

// LocateBag returns dir when it holds bagit.txt, otherwise the single child
// directory that does.
func LocateBag(dir string) (string, error) {
	if fileExists(filepath.Join(dir, declarationFile)) {
		return dir, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", &domain.OpError{Op: "bagit.locate", Kind: domain.KindNotFound, Path: dir, Err: err}
	}

	var found []string
	for _, e := range entries {
		if e.IsDir() && fileExists(filepath.Join(dir, e.Name(), declarationFile)) {
			found = append(found, filepath.Join(dir, e.Name()))
		}
	}
	switch len(found) {
	case 1:
		return found[0], nil
	case 0:
		return "", &domain.OpError{Op: "bagit.locate", Kind: domain.KindNotFound, Path: dir,
			Err: fmt.Errorf("no %s found: %w", declarationFile, domain.ErrNotFound)}
	default:
		return "", &domain.OpError{Op: "bagit.locate", Kind: domain.KindInvalidArgument, Path: dir,
			Err: fmt.Errorf("%d bags found, expected one: %w", len(found), domain.ErrInvalidArgument)}
	}
}

// ReadDeclaration parses bagit.txt. Both fields are required.
func ReadDeclaration(bagDir string) (Declaration, error) {
	const op = "bagit.read_declaration"
	path := filepath.Join(bagDir, declarationFile)

	f, err := os.Open(path)
	if err != nil {
		return Declaration{}, &domain.OpError{Op: op, Kind: domain.KindNotFound, Path: path, Err: err}
	}
	defer f.Close()

	fields, err := ReadBagInfo(f)
	if err != nil {
		return Declaration{}, &domain.OpError{Op: op, Kind: domain.KindInvalidConfig, Path: path, Err: err}
	}

	var d Declaration
	for _, fl := range fields {
		switch fl.Key {
		case "BagIt-Version":
			d.Version = fl.Value
		case "Tag-File-Character-Encoding":
			d.Encoding = fl.Value
		}
	}
	if d.Version == "" || d.Encoding == "" {
		return d, &domain.OpError{Op: op, Kind: domain.KindInvalidConfig, Path: path,
			Err: fmt.Errorf("BagIt-Version and Tag-File-Character-Encoding are required: %w", domain.ErrInvalidConfig)}
	}
	return d, nil
}

func readBagInfoFile(bagDir string, ser *domain.PackageSerialization) error {
	path := filepath.Join(bagDir, bagInfoFile)
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return &domain.OpError{Op: "bagit.read_bag_info", Kind: domain.KindExecution, Path: path, Err: err}
	}
	defer f.Close()

	fields, err := ReadBagInfo(f)
	if err != nil {
		return &domain.OpError{Op: "bagit.read_bag_info", Kind: domain.KindInvalidConfig, Path: path, Err: err}
	}
	applyFields(ser, fields)
	return nil
}

func readManifests(ctx context.Context, bagDir string, ser *domain.PackageSerialization) error {
	const op = "bagit.read_manifest"

	entries, err := os.ReadDir(bagDir)
	if err != nil {
		return &domain.OpError{Op: op, Kind: domain.KindExecution, Path: bagDir, Err: err}
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	payloadManifests := 0
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return err
		}
		alg, tag, ok := parseManifestName(name)
		if !ok {
			continue
		}

		path := filepath.Join(bagDir, name)
		f, err := os.Open(path)
		if err != nil {
			return &domain.OpError{Op: op, Kind: domain.KindExecution, Path: path, Err: err}
		}
		list, err := ReadManifest(f, alg)
		f.Close()
		if err != nil {
			return &domain.OpError{Op: op, Kind: domain.KindInvalidConfig, Path: path, Err: err}
		}

		for _, e := range list {
			ser.AddChecksum(e.Path, e.Checksum)
			if !tag {
				ser.AddFile(e.Path)
			}
		}
		if !tag {
			payloadManifests++
		}
	}

	if payloadManifests == 0 {
		return &domain.OpError{Op: op, Kind: domain.KindInvalidConfig, Path: bagDir,
			Err: fmt.Errorf("no payload manifest found: %w", domain.ErrInvalidConfig)}
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
