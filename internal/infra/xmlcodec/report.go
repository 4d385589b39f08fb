package xmlcodec

import (
	"encoding/xml"
	"sort"
	"time"

	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/domain"
)

type countXML struct {
	Name  string `xml:"name,attr"`
	Count int    `xml:"count,attr"`
}

type failureXML struct {
	Path      string                   `xml:"path,attr"`
	Algorithm domain.ChecksumAlgorithm `xml:"algorithm,attr"`
	Expected  string                   `xml:"expected"`
	Actual    string                   `xml:"actual"`
}

type conformanceXML struct {
	Profile string `xml:"profile,attr"`
	Passed  bool   `xml:"passed,attr"`
}

type ingestReportXML struct {
	XMLName     xml.Name            `xml:"ingestReport"`
	ID          string              `xml:"id,attr"`
	Status      domain.IngestStatus `xml:"status,attr"`
	PackageName string              `xml:"packageName"`
	Source      string              `xml:"source,omitempty"`
	StartedAt   time.Time           `xml:"startedAt"`
	FinishedAt  time.Time           `xml:"finishedAt"`
	FileCount   int                 `xml:"fileCount"`
	TotalBytes  int64               `xml:"totalBytes"`

	Formats     []countXML       `xml:"formats>format"`
	Algorithms  []countXML       `xml:"checksums>algorithm"`
	Failures    []failureXML     `xml:"checksumFailures>failure"`
	Missing     []string         `xml:"missingFiles>file"`
	Unexpected  []string         `xml:"unexpectedFiles>file"`
	Conformance []conformanceXML `xml:"conformance>result"`
	Errors      []string         `xml:"errors>error"`
}

func reportToXML(r *domain.IngestReport) ingestReportXML {
	x := ingestReportXML{
		ID:          r.ID,
		Status:      r.Status,
		PackageName: r.PackageName,
		Source:      r.Source,
		StartedAt:   r.StartedAt.UTC(),
		FinishedAt:  r.FinishedAt.UTC(),
		FileCount:   r.FileCount,
		TotalBytes:  r.TotalBytes,
		Missing:     r.MissingFiles,
		Unexpected:  r.UnexpectedFiles,
		Errors:      r.Errors,
	}
	for name, n := range r.FilesByFormat {
		x.Formats = append(x.Formats, countXML{Name: name, Count: n})
	}
	for alg, n := range r.ChecksumsByAlgorithm {
		x.Algorithms = append(x.Algorithms, countXML{Name: string(alg), Count: n})
	}
	for p, m := range r.ChecksumFailures {
		x.Failures = append(x.Failures, failureXML{Path: p, Algorithm: m.Algorithm, Expected: m.Expected, Actual: m.Actual})
	}
	for name, ok := range r.Conformance {
		x.Conformance = append(x.Conformance, conformanceXML{Profile: name, Passed: ok})
	}

	sort.Slice(x.Formats, func(i, j int) bool { return x.Formats[i].Name < x.Formats[j].Name })
	sort.Slice(x.Algorithms, func(i, j int) bool { return x.Algorithms[i].Name < x.Algorithms[j].Name })
	sort.Slice(x.Failures, func(i, j int) bool { return x.Failures[i].Path < x.Failures[j].Path })
	sort.Slice(x.Conformance, func(i, j int) bool { return x.Conformance[i].Profile < x.Conformance[j].Profile })
	return x
}

func (x ingestReportXML) toDomain() *domain.IngestReport {
	r := domain.NewIngestReport(x.ID, x.PackageName, x.StartedAt)
	r.Status = x.Status
	r.Source = x.Source
	r.FinishedAt = x.FinishedAt
	r.FileCount = x.FileCount
	r.TotalBytes = x.TotalBytes
	r.MissingFiles = x.Missing
	r.UnexpectedFiles = x.Unexpected
	r.Errors = x.Errors

	for _, c := range x.Formats {
		r.FilesByFormat[c.Name] = c.Count
	}
	for _, c := range x.Algorithms {
		r.ChecksumsByAlgorithm[domain.ChecksumAlgorithm(c.Name)] = c.Count
	}
	for _, f := range x.Failures {
		r.ChecksumFailures[f.Path] = domain.ChecksumMismatch{Algorithm: f.Algorithm, Expected: f.Expected, Actual: f.Actual}
	}
	for _, c := range x.Conformance {
		r.Conformance[c.Profile] = c.Passed
	}
	return r
}
