package ports

import (
	"context"

	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/domain"
)

// PackageReader loads a package serialization from a directory.
type PackageReader interface {
	Read(ctx context.Context, dir string) (*domain.PackageSerialization, error)
}

// PackageVerifier checks completeness and fixity of a serialized package and
// records the outcome in report.
type PackageVerifier interface {
	Verify(ctx context.Context, ser *domain.PackageSerialization, report *domain.IngestReport) error
}

// PackageWriter serializes a payload directory into a package at dest.
type PackageWriter interface {
	Write(ctx context.Context, payloadDir, dest string, desc *domain.PackageDescription, info map[string][]string) (*domain.PackageSerialization, error)
}

// DescriptionReader loads the package description stored alongside a package.
type DescriptionReader interface {
	ReadDescription(dir string) (domain.PackageDescription, error)
}

// ArchiveHandler extracts and creates package archives.
type ArchiveHandler interface {
	IsArchive(path string) bool
	Extract(ctx context.Context, archive, dest string) error
	Create(ctx context.Context, srcDir, archive string) error
}
