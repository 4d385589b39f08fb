package profile

import (
	"fmt"
	"strings"
)

// Operator is a comparison applied by a Statement.
type Operator string

const (
	EqualTo    Operator = "EQUAL_TO"
	StartsWith Operator = "STARTS_WITH"
	EndsWith   Operator = "ENDS_WITH"
	NotEqualTo Operator = "NOT_EQUAL_TO"
)

// LogicalOp joins an evaluator onto a Chain.
type LogicalOp string

const (
	And LogicalOp = "AND"
	Or  LogicalOp = "OR"
	Not LogicalOp = "NOT" // and-not
)

// Strategy decides how a collection of candidates satisfies an evaluator.
type Strategy string

const (
	AtLeastOne Strategy = "AT_LEAST_ONE"
	ExactlyOne Strategy = "EXACTLY_ONE"
	None       Strategy = "NONE"
)

func canonical(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	return strings.NewReplacer("-", "_", " ", "_").Replace(s)
}

// ParseOperator accepts the canonical names case-insensitively plus a few aliases.
func ParseOperator(s string) (Operator, error) {
	switch c := canonical(s); c {
	case string(EqualTo), "EQUALS", "EQ":
		return EqualTo, nil
	case string(StartsWith), "PREFIX":
		return StartsWith, nil
	case string(EndsWith), "SUFFIX":
		return EndsWith, nil
	case string(NotEqualTo), "NOT_EQUALS", "NE":
		return NotEqualTo, nil
	default:
		return "", fmt.Errorf("unsupported operator %q", s)
	}
}

// ParseLogicalOp parses AND, OR or NOT.
func ParseLogicalOp(s string) (LogicalOp, error) {
	switch c := LogicalOp(canonical(s)); c {
	case And, Or, Not:
		return c, nil
	case "AND_NOT":
		return Not, nil
	default:
		return "", fmt.Errorf("unsupported logical operator %q", s)
	}
}

// ParseStrategy parses a collection matching strategy. An empty string means AtLeastOne.
func ParseStrategy(s string) (Strategy, error) {
	if strings.TrimSpace(s) == "" {
		return AtLeastOne, nil
	}
	switch c := Strategy(canonical(s)); c {
	case AtLeastOne, ExactlyOne, None:
		return c, nil
	case "ANY":
		return AtLeastOne, nil
	case "ONE":
		return ExactlyOne, nil
	default:
		return "", fmt.Errorf("unsupported strategy %q", s)
	}
}
