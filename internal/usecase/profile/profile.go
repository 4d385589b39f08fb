package profile

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/PaesslerAG/jsonpath"

	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/domain"
)

// Rule selects candidate strings from a package and evaluates them.
// Exactly one of Select, Predicate or MetadataKey is set.
type Rule struct {
	Name string

	// Select is a JSONPath expression over the package document (see Document).
	Select string
	// Predicate selects the objects of description triples with this predicate.
	Predicate string
	// MetadataKey selects the values of a bag-info field.
	MetadataKey string

	Strategy  Strategy
	Evaluator Evaluator
}

// Profile is a named set of rules a package must satisfy to conform.
type Profile struct {
	Name        string
	Description string
	Rules       []Rule
}

// RuleResult is the output of a single rule.
type RuleResult struct {
	Name       string   `json:"name"`
	Passed     bool     `json:"passed"`
	Message    string   `json:"message"`
	Candidates int      `json:"candidates"`
	Matched    []string `json:"matched,omitempty"`
}

// Check evaluates every rule of p against pkg.
func (p *Profile) Check(pkg domain.Package) []RuleResult {
	var doc any
	out := make([]RuleResult, 0, len(p.Rules))

	for _, r := range p.Rules {
		var (
			candidates []string
			err        error
		)
		switch {
		case r.Predicate != "":
			candidates = pkg.Description.Objects(r.Predicate)
		case r.MetadataKey != "":
			if pkg.Serialization != nil {
				candidates = pkg.Serialization.Metadata[r.MetadataKey]
			}
		case r.Select != "":
			if doc == nil {
				doc = Document(pkg)
			}
			candidates, err = selectStrings(r.Select, doc)
		}

		if err != nil {
			out = append(out, RuleResult{
				Name:    r.Name,
				Passed:  false,
				Message: fmt.Sprintf("select %q: %v", r.Select, err),
			})
			continue
		}

		m := CollectionEvaluator{Evaluator: r.Evaluator, Strategy: r.Strategy}.Match(candidates)
		out = append(out, RuleResult{
			Name:       r.Name,
			Passed:     m.Passed,
			Message:    ruleMessage(r, m),
			Candidates: m.Candidates,
			Matched:    m.Matched,
		})
	}
	return out
}

// Conforms reports whether every result passed.
func Conforms(results []RuleResult) bool {
	for _, r := range results {
		if !r.Passed {
			return false
		}
	}
	return true
}

func ruleMessage(r Rule, m Match) string {
	strategy := r.Strategy
	if strategy == "" {
		strategy = AtLeastOne
	}
	verdict := "satisfied"
	if !m.Passed {
		verdict = "not satisfied"
	}
	return fmt.Sprintf("%s %s: %d of %d candidate(s) matched %v", strategy, verdict, len(m.Matched), m.Candidates, r.Evaluator)
}

// Loader loads profiles from a source such as the filesystem.
type Loader interface {
	LoadProfile(path string) (*Profile, error)
}

// Document returns the JSON-like view of pkg that Select expressions run against:
//
//	{
//	  "name": "...",
//	  "triples": [{"subject": .., "predicate": .., "object": ..}],
//	  "objects": {"<predicate>": ["<object>", ...]},
//	  "files": ["data/a.txt", ...],
//	  "metadata": {"<bag-info key>": ["<value>", ...]},
//	  "checksums": {"<path>": ["<alg>:<value>", ...]}
//	}
func Document(pkg domain.Package) map[string]any {
	triples := make([]any, 0, len(pkg.Description.Triples))
	objects := map[string]any{}
	for _, t := range pkg.Description.Triples {
		triples = append(triples, map[string]any{
			"subject":   t.Subject,
			"predicate": t.Predicate,
			"object":    t.Object,
		})
		list, _ := objects[t.Predicate].([]any)
		objects[t.Predicate] = append(list, t.Object)
	}

	files := []any{}
	metadata := map[string]any{}
	checksums := map[string]any{}
	if s := pkg.Serialization; s != nil {
		for _, f := range s.Files {
			files = append(files, f)
		}
		for k, vals := range s.Metadata {
			metadata[k] = toAnySlice(vals)
		}
		for p, list := range s.Checksums {
			vals := make([]any, 0, len(list))
			for _, cs := range list {
				vals = append(vals, cs.String())
			}
			checksums[p] = vals
		}
	}

	return map[string]any{
		"name":      pkg.Name,
		"triples":   triples,
		"objects":   objects,
		"files":     files,
		"metadata":  metadata,
		"checksums": checksums,
	}
}

// ValidateSelect reports whether expr is a well-formed JSONPath expression.
func ValidateSelect(expr string) error {
	_, err := jsonpath.New(expr)
	return err
}

// selectStrings runs expr against doc and flattens the result into strings.
// A path that resolves to nothing yields an empty collection.
func selectStrings(expr string, doc any) ([]string, error) {
	if err := ValidateSelect(expr); err != nil {
		return nil, err
	}
	val, err := jsonpath.Get(expr, doc)
	if err != nil {
		// unknown keys / out of range indexes
		return nil, nil
	}
	var out []string
	flatten(val, &out)
	return out, nil
}

func flatten(v any, out *[]string) {
	switch t := v.(type) {
	case nil:
	case string:
		*out = append(*out, t)
	case []string:
		*out = append(*out, t...)
	case []any:
		for _, it := range t {
			flatten(it, out)
		}
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			flatten(t[k], out)
		}
	case float64:
		*out = append(*out, strconv.FormatFloat(t, 'f', -1, 64))
	case bool:
		*out = append(*out, strconv.FormatBool(t))
	default:
		*out = append(*out, fmt.Sprint(t))
	}
}

func toAnySlice(in []string) []any {
	out := make([]any, 0, len(in))
	for _, s := range in {
		out = append(out, s)
	}
	return out
}
