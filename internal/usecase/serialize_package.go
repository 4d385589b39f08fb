package usecase

import (
	"context"
	"errors"

	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/domain"
	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/infra/logger"
	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/ports"
)

// SerializeRequest describes a bag to build.
type SerializeRequest struct {
	PayloadDir  string
	BagDir      string
	Description *domain.PackageDescription
	Info        map[string][]string
	// Archive, when set, receives an archive of BagDir (format from the extension).
	Archive string
}

type SerializePackage struct {
	writer   ports.PackageWriter
	archives ports.ArchiveHandler
}

func NewSerializePackage(w ports.PackageWriter, archives ports.ArchiveHandler) *SerializePackage {
	return &SerializePackage{writer: w, archives: archives}
}

func (uc *SerializePackage) Execute(ctx context.Context, req SerializeRequest) (*domain.PackageSerialization, error) {
	const op = "usecase.serialize_package"

	if req.PayloadDir == "" || req.BagDir == "" {
		return nil, &domain.OpError{Op: op, Kind: domain.KindInvalidArgument,
			Err: errors.New("payload and bag directories are required")}
	}
	if req.Archive != "" && uc.archives == nil {
		return nil, &domain.OpError{Op: op, Kind: domain.KindInvalidArgument, Path: req.Archive,
			Err: errors.New("archiving is not configured")}
	}

	ser, err := uc.writer.Write(ctx, req.PayloadDir, req.BagDir, req.Description, req.Info)
	if err != nil {
		return nil, err
	}
	logger.L().Info("package.serialize", "bag", req.BagDir, "files", len(ser.Files))

	if req.Archive != "" {
		if err := uc.archives.Create(ctx, req.BagDir, req.Archive); err != nil {
			return ser, err
		}
		logger.L().Info("package.archive", "bag", req.BagDir, "archive", req.Archive)
	}
	return ser, nil
}
