package reportstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/domain"
	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/ports"
)

const defaultReportsDir = "reports"
const maskValue = "********"
const indexFile = "index.jsonl"

type JSONStore struct {
	rootDir        string
	reportsDirName string
	maskingEnabled bool
	writeIndex     bool
	now            func() time.Time
}

type Option func(*JSONStore)

// WithIndex enables a simple JSONL index: reports/index.jsonl
func WithIndex(enabled bool) Option {
	return func(s *JSONStore) { s.writeIndex = enabled }
}

// WithMasking redacts credentials embedded in report sources.
func WithMasking(enabled bool) Option {
	return func(s *JSONStore) { s.maskingEnabled = enabled }
}

// WithNow is useful for tests.
func WithNow(now func() time.Time) Option {
	return func(s *JSONStore) { s.now = now }
}

func NewJSONStore(root string, cfg domain.Config, opts ...Option) *JSONStore {
	dir := cfg.Reports.Dir
	if strings.TrimSpace(dir) == "" {
		dir = defaultReportsDir
	}

	s := &JSONStore{
		rootDir:        root,
		reportsDirName: dir,
		maskingEnabled: true,
		writeIndex:     true,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ ports.ReportStore = (*JSONStore)(nil)

// Dir returns the directory reports are written to.
func (s *JSONStore) Dir() string {
	if filepath.IsAbs(s.reportsDirName) {
		return s.reportsDirName
	}
	return filepath.Join(s.rootDir, s.reportsDirName)
}

// SaveReport writes report as <timestamp>_<slug>.json and returns the file stem.
func (s *JSONStore) SaveReport(report domain.IngestReport) (string, error) {
	dir := s.Dir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", &domain.OpError{
			Op:   "reportstore.mkdir",
			Kind: domain.KindExecution,
			Path: dir,
			Err:  err,
		}
	}

	ts := report.StartedAt
	if ts.IsZero() {
		ts = s.now()
	}
	ts = ts.UTC()

	toSave := report
	if toSave.StartedAt.IsZero() {
		toSave.StartedAt = ts
	}
	slug := slugify(report.PackageName)
	if slug == "" {
		slug = "report"
	}

	filename, err := reserveName(dir, fmt.Sprintf("%s_%s", ts.Format("20060102T150405Z"), slug))
	if err != nil {
		return "", err
	}
	id := strings.TrimSuffix(filename, ".json")
	path := filepath.Join(dir, filename)

	if s.maskingEnabled {
		toSave.Source = maskSource(toSave.Source)
	}

	b, err := json.MarshalIndent(toSave, "", "  ")
	if err != nil {
		_ = os.Remove(path)
		return "", &domain.OpError{
			Op:   "reportstore.marshal",
			Kind: domain.KindExecution,
			Path: path,
			Err:  err,
		}
	}

	// tmp then rename
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		_ = os.Remove(path)
		return "", &domain.OpError{
			Op:   "reportstore.write",
			Kind: domain.KindExecution,
			Path: tmp,
			Err:  err,
		}
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		_ = os.Remove(path)
		return "", &domain.OpError{
			Op:   "reportstore.rename",
			Kind: domain.KindExecution,
			Path: path,
			Err:  err,
		}
	}

	if s.writeIndex {
		_ = s.appendIndex(dir, id, filename, toSave)
	}

	return id, nil
}

// reserveName claims <stem>.json in dir, falling back to <stem>-2.json,
// <stem>-3.json and so on, so reports started in the same second never
// replace each other.
func reserveName(dir, stem string) (string, error) {
	for n := 1; ; n++ {
		name := stem + ".json"
		if n > 1 {
			name = fmt.Sprintf("%s-%d.json", stem, n)
		}
		path := filepath.Join(dir, name)
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
		if err == nil {
			_ = f.Close()
			return name, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return "", &domain.OpError{Op: "reportstore.reserve", Kind: domain.KindExecution, Path: path, Err: err}
		}
	}
}

// IndexEntry is one line of reports/index.jsonl.
type IndexEntry struct {
	ID        string              `json:"id"`
	File      string              `json:"file"`
	ReportID  string              `json:"report_id"`
	Package   string              `json:"package"`
	Status    domain.IngestStatus `json:"status"`
	StartedAt time.Time           `json:"started_at"`
}

func (s *JSONStore) appendIndex(dir, id, filename string, r domain.IngestReport) error {
	line, err := json.Marshal(IndexEntry{
		ID:        id,
		File:      filename,
		ReportID:  r.ID,
		Package:   r.PackageName,
		Status:    r.Status,
		StartedAt: r.StartedAt,
	})
	if err != nil {
		return err
	}

	f, err := os.OpenFile(filepath.Join(dir, indexFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.Write(append(line, '\n'))
	return err
}

// ListReports returns every stored report, oldest first. A missing reports
// directory yields an empty list.
func (s *JSONStore) ListReports() ([]domain.IngestReport, error) {
	dir := s.Dir()
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []domain.IngestReport{}, nil
		}
		return nil, &domain.OpError{Op: "reportstore.list", Kind: domain.KindExecution, Path: dir, Err: err}
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".json") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	out := make([]domain.IngestReport, 0, len(names))
	for _, name := range names {
		r, err := s.load(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// LoadReport reads the report saved under id (the value SaveReport returned).
func (s *JSONStore) LoadReport(id string) (domain.IngestReport, error) {
	if id == "" || strings.ContainsAny(id, `/\`) {
		return domain.IngestReport{}, &domain.OpError{Op: "reportstore.load", Kind: domain.KindInvalidArgument, Path: id,
			Err: fmt.Errorf("invalid report id: %w", domain.ErrInvalidArgument)}
	}
	return s.load(filepath.Join(s.Dir(), id+".json"))
}

func (s *JSONStore) load(path string) (domain.IngestReport, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		kind := domain.KindExecution
		if errors.Is(err, os.ErrNotExist) {
			kind = domain.KindNotFound
		}
		return domain.IngestReport{}, &domain.OpError{Op: "reportstore.load", Kind: kind, Path: path, Err: err}
	}
	var r domain.IngestReport
	if err := json.Unmarshal(b, &r); err != nil {
		return domain.IngestReport{}, &domain.OpError{Op: "reportstore.load", Kind: domain.KindInvalidConfig, Path: path, Err: err}
	}
	return r, nil
}

// maskSource redacts URL passwords and sensitive query parameters.
func maskSource(src string) string {
	u, err := url.Parse(src)
	if err != nil || u.Scheme == "" {
		return src
	}
	if u.User != nil {
		if _, ok := u.User.Password(); ok {
			u.User = url.UserPassword(u.User.Username(), maskValue)
		}
	}
	q := u.Query()
	changed := false
	for k := range q {
		if isSensitiveKey(k) {
			q.Set(k, maskValue)
			changed = true
		}
	}
	if changed {
		u.RawQuery = q.Encode()
	}
	return u.String()
}

func isSensitiveKey(k string) bool {
	kk := strings.ToLower(k)
	return strings.Contains(kk, "token") ||
		strings.Contains(kk, "secret") ||
		strings.Contains(kk, "password") ||
		strings.Contains(kk, "api-key") ||
		strings.Contains(kk, "apikey")
}

// slugify produces a safe filename component.
func slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(s))

	lastDash := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}

	return strings.Trim(b.String(), "-")
}
