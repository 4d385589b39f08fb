// Package ore stores package descriptions as N-Triples style lines:
//
//	<urn:du:1> <dcs:type> "DeliverableUnit" .
//	<urn:file:1> <dcs:isPartOf> <urn:du:1> .
//
// Subjects and predicates are always IRIs. Objects are written as IRIs when they
// carry a URI scheme and no whitespace, otherwise as literals.
package ore

import (
	"bufio"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/domain"
	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/ports"
)

// DescriptionFile is the tag file name used for package descriptions inside a bag.
const DescriptionFile = "dcs-description.nt"

var (
	literalEscaper   = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\r", `\r`, "\t", `\t`)
	literalUnescaper = strings.NewReplacer(`\\`, `\`, `\"`, `"`, `\n`, "\n", `\r`, "\r", `\t`, "\t")
)

// Write serializes d, one triple per line.
func Write(w io.Writer, d domain.PackageDescription) error {
	bw := bufio.NewWriter(w)
	for _, t := range d.Triples {
		if _, err := fmt.Fprintf(bw, "<%s> <%s> %s .\n", t.Subject, t.Predicate, formatObject(t.Object)); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func formatObject(o string) string {
	if isIRI(o) {
		return "<" + o + ">"
	}
	return `"` + literalEscaper.Replace(o) + `"`
}

func isIRI(s string) bool {
	if s == "" || strings.ContainsAny(s, " \t\r\n<>\"") {
		return false
	}
	u, err := url.Parse(s)
	return err == nil && u.Scheme != "" && len(u.Scheme) > 1
}

// Read parses lines written by Write. Blank lines and '#' comments are skipped.
func Read(r io.Reader) (domain.PackageDescription, error) {
	var d domain.PackageDescription

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		rest := line
		var terms [3]string
		for i := range terms {
			term, tail, err := nextTerm(rest, i == 2)
			if err != nil {
				return domain.PackageDescription{}, fmt.Errorf("line %d: %w", lineNo, err)
			}
			terms[i] = term
			rest = tail
		}
		if strings.TrimSpace(rest) != "." {
			return domain.PackageDescription{}, fmt.Errorf("line %d: expected terminating '.'", lineNo)
		}
		d.Add(terms[0], terms[1], terms[2])
	}
	if err := sc.Err(); err != nil {
		return domain.PackageDescription{}, err
	}
	return d, nil
}

// nextTerm consumes one term from s. Literals are only allowed in object position.
func nextTerm(s string, object bool) (string, string, error) {
	s = strings.TrimLeft(s, " \t")
	if s == "" {
		return "", "", fmt.Errorf("unexpected end of line")
	}

	switch s[0] {
	case '<':
		end := strings.IndexByte(s, '>')
		if end < 0 {
			return "", "", fmt.Errorf("unterminated IRI")
		}
		return s[1:end], s[end+1:], nil

	case '"':
		if !object {
			return "", "", fmt.Errorf("literal outside object position")
		}
		for i := 1; i < len(s); i++ {
			switch s[i] {
			case '\\':
				i++
			case '"':
				tail := s[i+1:]
				// Drop language tags and datatypes.
				if strings.HasPrefix(tail, "@") || strings.HasPrefix(tail, "^^") {
					if sp := strings.IndexAny(tail, " \t"); sp >= 0 {
						tail = tail[sp:]
					} else {
						tail = ""
					}
				}
				return literalUnescaper.Replace(s[1:i]), tail, nil
			}
		}
		return "", "", fmt.Errorf("unterminated literal")

	case '_':
		end := strings.IndexAny(s, " \t")
		if end < 0 {
			return "", "", fmt.Errorf("unterminated blank node")
		}
		return s[:end], s[end:], nil

	default:
		return "", "", fmt.Errorf("unexpected character %q", s[0])
	}
}

// Reader loads descriptions stored as DescriptionFile inside a bag.
type Reader struct{}

func NewReader() *Reader {
	return &Reader{}
}

var _ ports.DescriptionReader = (*Reader)(nil)

// ReadDescription reads dir/DescriptionFile. A bag without one has an empty description.
func (r *Reader) ReadDescription(dir string) (domain.PackageDescription, error) {
	path := filepath.Join(dir, DescriptionFile)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.PackageDescription{}, nil
		}
		return domain.PackageDescription{}, &domain.OpError{Op: "ore.read", Kind: domain.KindExecution, Path: path, Err: err}
	}
	defer f.Close()

	d, err := Read(f)
	if err != nil {
		return domain.PackageDescription{}, &domain.OpError{Op: "ore.read", Kind: domain.KindInvalidConfig, Path: path, Err: err}
	}
	return d, nil
}
