package profilestore

import (
	"strings"
	"testing"
)

func TestMapProfileFieldErrors(t *testing.T) {
	term := TermDTO{Op: "equal_to", Values: []string{"x"}}

	cases := []struct {
		name  string
		dto   ProfileDTO
		field string
	}{
		{"missing name", ProfileDTO{Rules: []RuleDTO{{Predicate: "p", Match: []TermDTO{term}}}}, "field name"},
		{"no rules", ProfileDTO{Name: "p"}, "field rules"},
		{"no selector", ProfileDTO{Name: "p", Rules: []RuleDTO{{Match: []TermDTO{term}}}}, "rules[0]:"},
		{"two selectors", ProfileDTO{Name: "p", Rules: []RuleDTO{{Predicate: "p", Metadata: "m", Match: []TermDTO{term}}}}, "rules[0]:"},
		{"bad select", ProfileDTO{Name: "p", Rules: []RuleDTO{{Select: "$.files[", Match: []TermDTO{term}}}}, "rules[0].select"},
		{"bad strategy", ProfileDTO{Name: "p", Rules: []RuleDTO{{Predicate: "p", Strategy: "most", Match: []TermDTO{term}}}}, "rules[0].strategy"},
		{"no match", ProfileDTO{Name: "p", Rules: []RuleDTO{{Predicate: "p"}}}, "rules[0].match"},
		{"bad op", ProfileDTO{Name: "p", Rules: []RuleDTO{{Predicate: "p", Match: []TermDTO{{Op: "like"}}}}}, "rules[0].match[0].op"},
		{"missing op", ProfileDTO{Name: "p", Rules: []RuleDTO{{Predicate: "p", Match: []TermDTO{{Values: []string{"x"}}}}}}, "rules[0].match[0].op"},
		{"op and chain", ProfileDTO{Name: "p", Rules: []RuleDTO{{Predicate: "p", Match: []TermDTO{{Op: "eq", Chain: []TermDTO{term}}}}}}, "rules[0].match[0]:"},
		{"nested", ProfileDTO{Name: "p", Rules: []RuleDTO{{Predicate: "p", Match: []TermDTO{term, {Logic: "or", Chain: []TermDTO{term, {Op: "??"}}}}}}}, "rules[0].match[1].chain[1].op"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := MapProfile("p.yaml", tc.dto)
			if err == nil {
				t.Fatalf("expected error")
			}
			if !strings.Contains(err.Error(), tc.field) {
				t.Fatalf("expected %q in error, got %v", tc.field, err)
			}
		})
	}
}

func TestMapProfileDefaultsRuleName(t *testing.T) {
	p, err := MapProfile("p.yaml", ProfileDTO{
		Name:  "p",
		Rules: []RuleDTO{{Metadata: "Source-Organization", Match: []TermDTO{{Op: "starts_with", Values: []string{"Data"}}}}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Rules[0].Name != "rules[0]" || p.Rules[0].MetadataKey != "Source-Organization" {
		t.Fatalf("unexpected rule %+v", p.Rules[0])
	}
}
