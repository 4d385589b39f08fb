package ports

import "github.com/Data-to-Insight-Center/dcs-code-sub004/internal/domain"

// ReportStore persists ingest reports.
type ReportStore interface {
	SaveReport(report domain.IngestReport) (id string, err error)
	ListReports() ([]domain.IngestReport, error)
}
