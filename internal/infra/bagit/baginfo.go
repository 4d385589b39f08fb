package bagit

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/domain"
)

// Field is a single "Key: value" entry from bag-info.txt or bagit.txt.
type Field struct {
	Key   string
	Value string
}

// ReadBagInfo parses "Key: value" lines. Lines starting with whitespace continue
// the previous value; blank lines are ignored.
func ReadBagInfo(r io.Reader) ([]Field, error) {
	var out []Field

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSuffix(sc.Text(), "\r")
		if lineNo == 1 {
			line = strings.TrimPrefix(line, "\ufeff")
		}
		if strings.TrimSpace(line) == "" {
			continue
		}

		if line[0] == ' ' || line[0] == '\t' {
			if len(out) == 0 {
				return nil, fmt.Errorf("line %d: continuation line without a preceding field", lineNo)
			}
			last := &out[len(out)-1]
			last.Value = strings.TrimSpace(last.Value + " " + strings.TrimSpace(line))
			continue
		}

		key, value, ok := strings.Cut(line, ":")
		if !ok {
			return nil, fmt.Errorf("line %d: expected \"Key: value\", got %q", lineNo, line)
		}
		key = strings.TrimSpace(key)
		if key == "" {
			return nil, fmt.Errorf("line %d: empty key", lineNo)
		}
		out = append(out, Field{Key: key, Value: strings.TrimSpace(value)})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// WriteBagInfo writes fields in order, one per line.
func WriteBagInfo(w io.Writer, fields []Field) error {
	bw := bufio.NewWriter(w)
	for _, f := range fields {
		if _, err := fmt.Fprintf(bw, "%s: %s\n", f.Key, f.Value); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// FieldsFromMetadata flattens a metadata map into fields with keys in sorted
// order and repeated keys kept in insertion order.
func FieldsFromMetadata(md map[string][]string) []Field {
	keys := make([]string, 0, len(md))
	for k := range md {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out []Field
	for _, k := range keys {
		for _, v := range md[k] {
			out = append(out, Field{Key: k, Value: v})
		}
	}
	return out
}

func applyFields(ser *domain.PackageSerialization, fields []Field) {
	for _, f := range fields {
		ser.AddMetadata(f.Key, f.Value)
	}
}
