package usecase

import (
	"context"

	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/domain"
	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/ports"
)

type DescribePackage struct {
	reader       ports.PackageReader
	descriptions ports.DescriptionReader
	source       packageSource
}

func NewDescribePackage(r ports.PackageReader, d ports.DescriptionReader, archives ports.ArchiveHandler) *DescribePackage {
	return &DescribePackage{reader: r, descriptions: d, source: packageSource{archives: archives}}
}

// Execute reads the package at source together with its description. The
// returned serialization's directories are gone once source was an archive.
func (uc *DescribePackage) Execute(ctx context.Context, source string) (domain.Package, error) {
	dir, cleanup, err := uc.source.open(ctx, source)
	if err != nil {
		return domain.Package{}, err
	}
	defer cleanup()

	ser, err := uc.reader.Read(ctx, dir)
	if err != nil {
		return domain.Package{}, err
	}
	desc, err := uc.descriptions.ReadDescription(ser.BasePath())
	if err != nil {
		return domain.Package{}, err
	}
	return domain.Package{Name: packageName(ser), Description: desc, Serialization: ser}, nil
}
