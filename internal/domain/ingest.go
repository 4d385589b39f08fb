package domain

import "time"

// IngestStatus is the outcome of an ingest run.
type IngestStatus string

const (
	IngestPending   IngestStatus = "pending"
	IngestSucceeded IngestStatus = "succeeded"
	IngestFailed    IngestStatus = "failed"
)

// ChecksumMismatch records an expected and computed fixity value.
type ChecksumMismatch struct {
	Algorithm ChecksumAlgorithm `json:"algorithm" xml:"algorithm,attr"`
	Expected  string            `json:"expected" xml:"expected"`
	Actual    string            `json:"actual" xml:"actual"`
}

// IngestReport describes a single ingest or validation run.
type IngestReport struct {
	ID          string       `json:"id"`
	PackageName string       `json:"package_name"`
	Source      string       `json:"source,omitempty"`
	StartedAt   time.Time    `json:"started_at"`
	FinishedAt  time.Time    `json:"finished_at"`
	Status      IngestStatus `json:"status"`

	FileCount  int   `json:"file_count"`
	TotalBytes int64 `json:"total_bytes"`

	// FilesByFormat counts payload files per lower-case extension ("" for none).
	FilesByFormat map[string]int `json:"files_by_format"`
	// ChecksumsByAlgorithm counts verified checksums per algorithm.
	ChecksumsByAlgorithm map[ChecksumAlgorithm]int `json:"checksums_by_algorithm"`

	ChecksumFailures map[string]ChecksumMismatch `json:"checksum_failures,omitempty"`
	MissingFiles     []string                    `json:"missing_files,omitempty"`
	UnexpectedFiles  []string                    `json:"unexpected_files,omitempty"`

	// Conformance maps profile name to its verdict.
	Conformance map[string]bool `json:"conformance,omitempty"`

	Errors []string `json:"errors,omitempty"`
}

// NewIngestReport returns a pending report with initialized maps.
func NewIngestReport(id, packageName string, started time.Time) *IngestReport {
	return &IngestReport{
		ID:                   id,
		PackageName:          packageName,
		StartedAt:            started,
		Status:               IngestPending,
		FilesByFormat:        map[string]int{},
		ChecksumsByAlgorithm: map[ChecksumAlgorithm]int{},
		ChecksumFailures:     map[string]ChecksumMismatch{},
		Conformance:          map[string]bool{},
	}
}

// Successful reports whether the run produced no fixity, completeness,
// conformance or processing failures.
func (r *IngestReport) Successful() bool {
	if len(r.ChecksumFailures) > 0 || len(r.MissingFiles) > 0 || len(r.UnexpectedFiles) > 0 || len(r.Errors) > 0 {
		return false
	}
	for _, ok := range r.Conformance {
		if !ok {
			return false
		}
	}
	return true
}

// Finish stamps the end time and derives Status from the collected results.
func (r *IngestReport) Finish(at time.Time) {
	r.FinishedAt = at
	if r.Successful() {
		r.Status = IngestSucceeded
	} else {
		r.Status = IngestFailed
	}
}
