package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/domain"
	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/infra/logger"
	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/ports"
	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/usecase/profile"
)

// Validation is the outcome of ValidatePackage.
type Validation struct {
	Report  *domain.IngestReport
	Package domain.Package
	// Profiles maps profile name to its per-rule results.
	Profiles map[string][]profile.RuleResult
}

type ValidatePackage struct {
	reader       ports.PackageReader
	verifier     ports.PackageVerifier
	descriptions ports.DescriptionReader
	source       packageSource
	profiles     []*profile.Profile
	now          func() time.Time
	newID        func() string
}

type ValidateOption func(*ValidatePackage)

// WithArchives enables archive sources.
func WithArchives(a ports.ArchiveHandler) ValidateOption {
	return func(uc *ValidatePackage) { uc.source.archives = a }
}

// WithTempDir sets where archives are extracted ("" uses the OS default).
func WithTempDir(dir string) ValidateOption {
	return func(uc *ValidatePackage) { uc.source.tempDir = dir }
}

// WithProfiles adds conformance profiles evaluated after verification.
func WithProfiles(ps ...*profile.Profile) ValidateOption {
	return func(uc *ValidatePackage) {
		for _, p := range ps {
			if p != nil {
				uc.profiles = append(uc.profiles, p)
			}
		}
	}
}

func WithClock(now func() time.Time) ValidateOption {
	return func(uc *ValidatePackage) {
		if now != nil {
			uc.now = now
		}
	}
}

func WithIDGenerator(gen func() string) ValidateOption {
	return func(uc *ValidatePackage) {
		if gen != nil {
			uc.newID = gen
		}
	}
}

func NewValidatePackage(r ports.PackageReader, v ports.PackageVerifier, d ports.DescriptionReader, opts ...ValidateOption) *ValidatePackage {
	uc := &ValidatePackage{
		reader:       r,
		verifier:     v,
		descriptions: d,
		now:          time.Now,
		newID:        uuid.NewString,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// Execute loads the package at source (a bag directory or an archive holding
// one), verifies completeness and fixity and evaluates every profile.
// Content problems land in the report; the error return is reserved for
// packages that cannot be read at all and for cancellation.
func (uc *ValidatePackage) Execute(ctx context.Context, source string) (*Validation, error) {
	dir, cleanup, err := uc.source.open(ctx, source)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	ser, err := uc.reader.Read(ctx, dir)
	if err != nil {
		return nil, err
	}

	pkg := domain.Package{Name: packageName(ser), Serialization: ser}
	report := domain.NewIngestReport(uc.newID(), pkg.Name, uc.now())
	report.Source = source

	log := logger.With("usecase").With("report_id", report.ID, "package", pkg.Name)
	log.Info("package.validate.start", "source", source)

	if uc.descriptions != nil {
		desc, err := uc.descriptions.ReadDescription(ser.BasePath())
		if err != nil {
			report.Errors = append(report.Errors, err.Error())
		}
		pkg.Description = desc
	}

	if err := uc.verifier.Verify(ctx, ser, report); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		report.Errors = append(report.Errors, err.Error())
	}

	v := &Validation{Report: report, Package: pkg, Profiles: map[string][]profile.RuleResult{}}
	for _, p := range uc.profiles {
		results := p.Check(pkg)
		v.Profiles[p.Name] = results
		report.Conformance[p.Name] = profile.Conforms(results)
	}

	report.Finish(uc.now())
	log.Info("package.validate.done",
		"status", report.Status,
		"files", report.FileCount,
		"bytes", report.TotalBytes,
		"checksum_failures", len(report.ChecksumFailures),
		"missing", len(report.MissingFiles),
		"unexpected", len(report.UnexpectedFiles),
	)
	return v, nil
}
