package profile

import (
	"strings"

	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/domain"
)

// Evaluator decides whether a single candidate string matches.
type Evaluator interface {
	Evaluate(candidate string) bool
}

// Statement compares a candidate against Values using Op.
type Statement struct {
	Op               Operator
	Values           []string
	IgnoreCase       bool
	IgnoreWhitespace bool
}

// Equals builds an EQUAL_TO statement.
func Equals(values ...string) *Statement { return &Statement{Op: EqualTo, Values: values} }

// HasPrefix builds a STARTS_WITH statement.
func HasPrefix(values ...string) *Statement { return &Statement{Op: StartsWith, Values: values} }

// HasSuffix builds an ENDS_WITH statement.
func HasSuffix(values ...string) *Statement { return &Statement{Op: EndsWith, Values: values} }

// NotEquals builds a NOT_EQUAL_TO statement.
func NotEquals(values ...string) *Statement { return &Statement{Op: NotEqualTo, Values: values} }

// Fold turns on case-insensitive comparison and returns s.
func (s *Statement) Fold() *Statement {
	s.IgnoreCase = true
	return s
}

// Sanitized turns on whitespace normalization and returns s.
func (s *Statement) Sanitized() *Statement {
	s.IgnoreWhitespace = true
	return s
}

func (s *Statement) normalize(v string) string {
	if s.IgnoreWhitespace {
		v = domain.SanitizeString(v)
	}
	if s.IgnoreCase {
		v = strings.ToLower(v)
	}
	return v
}

// Evaluate reports whether candidate satisfies the statement. EQUAL_TO,
// STARTS_WITH and ENDS_WITH match when any value matches; NOT_EQUAL_TO matches
// when no value is equal.
func (s *Statement) Evaluate(candidate string) bool {
	if s == nil {
		return false
	}
	c := s.normalize(candidate)

	if s.Op == NotEqualTo {
		for _, v := range s.Values {
			if c == s.normalize(v) {
				return false
			}
		}
		return true
	}

	for _, v := range s.Values {
		nv := s.normalize(v)
		switch s.Op {
		case EqualTo:
			if c == nv {
				return true
			}
		case StartsWith:
			if strings.HasPrefix(c, nv) {
				return true
			}
		case EndsWith:
			if strings.HasSuffix(c, nv) {
				return true
			}
		}
	}
	return false
}

func (s *Statement) String() string {
	if s == nil {
		return "<nil>"
	}
	var b strings.Builder
	b.WriteString(string(s.Op))
	b.WriteString(" [")
	b.WriteString(strings.Join(s.Values, ", "))
	b.WriteString("]")
	if s.IgnoreCase {
		b.WriteString(" ignore-case")
	}
	if s.IgnoreWhitespace {
		b.WriteString(" ignore-whitespace")
	}
	return b.String()
}
