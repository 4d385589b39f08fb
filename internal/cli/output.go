package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/domain"
	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/usecase/profile"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	failStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	labelStyle = lipgloss.NewStyle().Width(12)
)

const (
	formatPretty = "pretty"
	formatJSON   = "json"
)

func checkFormat(format string) error {
	switch format {
	case formatPretty, formatJSON, "":
		return nil
	default:
		return fmt.Errorf("unsupported format %q (expected pretty|json)", format)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func mark(ok bool) string {
	if ok {
		return okStyle.Render("✓")
	}
	return failStyle.Render("✗")
}

func statusLabel(s domain.IngestStatus) string {
	switch s {
	case domain.IngestSucceeded:
		return okStyle.Render("OK")
	case domain.IngestFailed:
		return failStyle.Render("FAIL")
	default:
		return mutedStyle.Render(strings.ToUpper(string(s)))
	}
}

func field(w io.Writer, label string, value any) {
	fmt.Fprintf(w, "%s %v\n", labelStyle.Render(label+":"), value)
}

// reportView is the json output of bag verify, profile check and ingest.
type reportView struct {
	ReportID string                          `json:"report_id,omitempty"`
	EntryID  string                          `json:"entry_id,omitempty"`
	Report   *domain.IngestReport            `json:"report"`
	Profiles map[string][]profile.RuleResult `json:"profiles,omitempty"`
}

func printReport(w io.Writer, v reportView, format string) error {
	if format == formatJSON {
		return writeJSON(w, v)
	}

	r := v.Report
	fmt.Fprintln(w, titleStyle.Render(r.PackageName)+"  "+statusLabel(r.Status))
	field(w, "Source", r.Source)
	if v.ReportID != "" {
		field(w, "Report", v.ReportID)
	}
	if v.EntryID != "" {
		field(w, "Registered", v.EntryID)
	}
	field(w, "Files", r.FileCount)
	field(w, "Bytes", r.TotalBytes)
	if !r.StartedAt.IsZero() && !r.FinishedAt.IsZero() {
		field(w, "Duration", r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond))
	}

	if len(r.ChecksumsByAlgorithm) > 0 {
		algs := make([]string, 0, len(r.ChecksumsByAlgorithm))
		for alg, n := range r.ChecksumsByAlgorithm {
			algs = append(algs, fmt.Sprintf("%s=%d", alg, n))
		}
		sort.Strings(algs)
		field(w, "Verified", strings.Join(algs, " "))
	}
	if len(r.FilesByFormat) > 0 {
		formats := make([]string, 0, len(r.FilesByFormat))
		for f, n := range r.FilesByFormat {
			if f == "" {
				f = "(none)"
			}
			formats = append(formats, fmt.Sprintf("%s=%d", f, n))
		}
		sort.Strings(formats)
		field(w, "Formats", strings.Join(formats, " "))
	}

	printList(w, "missing", r.MissingFiles)
	printList(w, "unexpected", r.UnexpectedFiles)
	if len(r.ChecksumFailures) > 0 {
		paths := make([]string, 0, len(r.ChecksumFailures))
		for p := range r.ChecksumFailures {
			paths = append(paths, p)
		}
		sort.Strings(paths)
		fmt.Fprintf(w, "\n%s\n", failStyle.Render("checksum failures"))
		for _, p := range paths {
			m := r.ChecksumFailures[p]
			fmt.Fprintf(w, "  %s %s (%s)\n", mark(false), p, m.Algorithm)
			fmt.Fprintf(w, "    %s %s\n", mutedStyle.Render("expected"), m.Expected)
			fmt.Fprintf(w, "    %s %s\n", mutedStyle.Render("actual  "), m.Actual)
		}
	}
	printList(w, "errors", r.Errors)

	names := make([]string, 0, len(v.Profiles))
	for name := range v.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "\n%s %s\n", mark(r.Conformance[name]), titleStyle.Render("profile "+name))
		for _, rr := range v.Profiles[name] {
			fmt.Fprintf(w, "  %s %s: %s\n", mark(rr.Passed), rr.Name, rr.Message)
		}
	}
	return nil
}

func printList(w io.Writer, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s\n", failStyle.Render(title))
	for _, it := range items {
		fmt.Fprintf(w, "  %s %s\n", mark(false), it)
	}
}

// failure turns an unsuccessful report into the command error.
func failure(r *domain.IngestReport) error {
	if r.Successful() {
		return nil
	}
	return fmt.Errorf("package %q failed validation (%d checksum failure(s), %d missing, %d unexpected, %d error(s))",
		r.PackageName, len(r.ChecksumFailures), len(r.MissingFiles), len(r.UnexpectedFiles), len(r.Errors))
}
