package usecase

import (
	"context"
	"slices"

	"github.com/google/uuid"

	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/domain"
	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/infra/logger"
	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/ports"
)

// Ingestion is the outcome of IngestPackage.
type Ingestion struct {
	*Validation
	ReportID string
	// Entry is the registered package; nil when validation failed.
	Entry *domain.RegistryEntry[domain.PackageRecord]
}

type IngestPackage struct {
	validate *ValidatePackage
	packages ports.Registry[domain.PackageRecord]
	reports  ports.ReportStore
}

func NewIngestPackage(v *ValidatePackage, packages ports.Registry[domain.PackageRecord], reports ports.ReportStore) *IngestPackage {
	return &IngestPackage{validate: v, packages: packages, reports: reports}
}

// Execute validates source, persists the report and, when the package is
// valid, registers it in the package registry keyed by name and identifiers.
func (uc *IngestPackage) Execute(ctx context.Context, source string) (*Ingestion, error) {
	v, err := uc.validate.Execute(ctx, source)
	if err != nil {
		return nil, err
	}
	out := &Ingestion{Validation: v}

	if uc.reports != nil {
		id, err := uc.reports.SaveReport(*v.Report)
		if err != nil {
			return out, err
		}
		out.ReportID = id
	}

	if !v.Report.Successful() || uc.packages == nil {
		logger.L().Info("package.ingest.skipped_registration", "package", v.Package.Name, "status", v.Report.Status)
		return out, nil
	}

	ser := v.Package.Serialization
	entry := domain.RegistryEntry[domain.PackageRecord]{
		ID:          PackageEntryID(v.Package.Name),
		Type:        domain.TypePackage,
		Keys:        packageKeys(v.Package),
		Description: firstValue(ser.Metadata["External-Description"]),
		Entry: domain.PackageRecord{
			Name:       v.Package.Name,
			Source:     v.Report.Source,
			BagInfo:    ser.Metadata,
			FileCount:  v.Report.FileCount,
			TotalBytes: v.Report.TotalBytes,
			ReportID:   v.Report.ID,
			IngestedAt: v.Report.FinishedAt,
		},
	}
	stored, err := uc.packages.Put(ctx, entry)
	if err != nil {
		return out, err
	}
	out.Entry = &stored

	logger.L().Info("package.ingest.registered", "package", v.Package.Name, "entry_id", stored.ID, "keys", stored.Keys)
	return out, nil
}

// PackageEntryID is the registry id of the package named name. It is stable
// across ingests, so re-ingesting a package replaces its entry.
func PackageEntryID(name string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(domain.TypePackage+"\x00"+name)).String()
}

func packageKeys(pkg domain.Package) []string {
	keys := []string{pkg.Name}
	if ser := pkg.Serialization; ser != nil {
		for _, field := range []string{"External-Identifier", "Bag-Group-Identifier", "Internal-Sender-Identifier"} {
			for _, v := range ser.Metadata[field] {
				v = domain.SanitizeString(v)
				if v != "" && !slices.Contains(keys, v) {
					keys = append(keys, v)
				}
			}
		}
	}
	return keys
}

func firstValue(vals []string) string {
	if len(vals) == 0 {
		return ""
	}
	return domain.SanitizeString(vals[0])
}
