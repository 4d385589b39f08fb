package profilestore

import (
	"fmt"
	"strings"

	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/domain"
	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/usecase/profile"
)

// MapProfile validates dto and builds the profile it describes. Errors name
// the offending field, e.g. "rules[1].match[0].op".
func MapProfile(path string, dto ProfileDTO) (*profile.Profile, error) {
	if strings.TrimSpace(dto.Name) == "" {
		return nil, invalidField(path, "name", "profile name is required")
	}
	if len(dto.Rules) == 0 {
		return nil, invalidField(path, "rules", "at least one rule is required")
	}

	p := &profile.Profile{
		Name:        strings.TrimSpace(dto.Name),
		Description: dto.Description,
		Rules:       make([]profile.Rule, 0, len(dto.Rules)),
	}

	for i, r := range dto.Rules {
		prefix := fmt.Sprintf("rules[%d]", i)

		selectors := 0
		for _, s := range []string{r.Select, r.Predicate, r.Metadata} {
			if strings.TrimSpace(s) != "" {
				selectors++
			}
		}
		if selectors != 1 {
			return nil, invalidField(path, prefix, "exactly one of select, predicate or metadata is required")
		}
		if r.Select != "" {
			if err := profile.ValidateSelect(r.Select); err != nil {
				return nil, invalidField(path, prefix+".select", err.Error())
			}
		}

		strategy, err := profile.ParseStrategy(r.Strategy)
		if err != nil {
			return nil, invalidField(path, prefix+".strategy", err.Error())
		}

		if len(r.Match) == 0 {
			return nil, invalidField(path, prefix+".match", "at least one term is required")
		}
		ev, err := mapChain(path, prefix+".match", r.Match)
		if err != nil {
			return nil, err
		}

		name := strings.TrimSpace(r.Name)
		if name == "" {
			name = prefix
		}
		p.Rules = append(p.Rules, profile.Rule{
			Name:        name,
			Select:      strings.TrimSpace(r.Select),
			Predicate:   strings.TrimSpace(r.Predicate),
			MetadataKey: strings.TrimSpace(r.Metadata),
			Strategy:    strategy,
			Evaluator:   ev,
		})
	}

	return p, nil
}

// mapChain returns a single statement for a one-term list, otherwise a chain.
func mapChain(path, field string, terms []TermDTO) (profile.Evaluator, error) {
	var chain *profile.Chain
	for i, t := range terms {
		tf := fmt.Sprintf("%s[%d]", field, i)

		ev, err := mapTerm(path, tf, t)
		if err != nil {
			return nil, err
		}

		if i == 0 {
			if len(terms) == 1 {
				return ev, nil
			}
			chain = profile.NewChain(ev)
			continue
		}

		logic := t.Logic
		if strings.TrimSpace(logic) == "" {
			logic = string(profile.And)
		}
		op, err := profile.ParseLogicalOp(logic)
		if err != nil {
			return nil, invalidField(path, tf+".logic", err.Error())
		}
		chain.Append(op, ev)
	}
	return chain, nil
}

func mapTerm(path, field string, t TermDTO) (profile.Evaluator, error) {
	hasOp := strings.TrimSpace(t.Op) != ""
	switch {
	case hasOp && len(t.Chain) > 0:
		return nil, invalidField(path, field, "op and chain are mutually exclusive")
	case len(t.Chain) > 0:
		return mapChain(path, field+".chain", t.Chain)
	case !hasOp:
		return nil, invalidField(path, field+".op", "op is required")
	}

	op, err := profile.ParseOperator(t.Op)
	if err != nil {
		return nil, invalidField(path, field+".op", err.Error())
	}
	return &profile.Statement{
		Op:               op,
		Values:           t.Values,
		IgnoreCase:       t.IgnoreCase,
		IgnoreWhitespace: t.IgnoreWhitespace,
	}, nil
}

func invalidField(path, field, msg string) error {
	return &domain.OpError{
		Op:   "profilestore.map",
		Kind: domain.KindInvalidConfig,
		Path: path,
		Err:  fmt.Errorf("field %s: %s: %w", field, msg, domain.ErrInvalidConfig),
	}
}
