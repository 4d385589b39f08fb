package seed

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/domain"
)

// LatestFormat returns the format named name (case-insensitive) with the
// highest semantic version. Versions that do not parse rank below every valid
// one; among those the first listed wins.
func LatestFormat(formats []domain.RegistryEntry[domain.MetadataFormat], name string) (domain.RegistryEntry[domain.MetadataFormat], bool) {
	return MatchFormat(formats, name, nil)
}

// MatchingFormat is LatestFormat restricted to versions satisfying constraint
// (for example ">= 1.0, < 2").
func MatchingFormat(formats []domain.RegistryEntry[domain.MetadataFormat], name, constraint string) (domain.RegistryEntry[domain.MetadataFormat], error) {
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return domain.RegistryEntry[domain.MetadataFormat]{}, &domain.OpError{Op: "seed.match_format", Kind: domain.KindInvalidArgument,
			Path: constraint, Err: err}
	}
	e, ok := MatchFormat(formats, name, c)
	if !ok {
		return e, &domain.OpError{Op: "seed.match_format", Kind: domain.KindNotFound, Path: name,
			Err: fmt.Errorf("no %s version satisfies %s: %w", name, constraint, domain.ErrNotFound)}
	}
	return e, nil
}

// MatchFormat picks the highest version of name, optionally filtered by c.
// With a constraint, unparseable versions never match.
func MatchFormat(formats []domain.RegistryEntry[domain.MetadataFormat], name string, c *semver.Constraints) (domain.RegistryEntry[domain.MetadataFormat], bool) {
	var (
		best        domain.RegistryEntry[domain.MetadataFormat]
		bestVer     *semver.Version
		found       bool
		fallback    domain.RegistryEntry[domain.MetadataFormat]
		hasFallback bool
	)

	for _, e := range formats {
		if !strings.EqualFold(e.Entry.Name, name) && !strings.EqualFold(e.Entry.ID, name) {
			continue
		}
		v, err := semver.NewVersion(e.Entry.Version)
		if err != nil {
			if c == nil && !hasFallback {
				fallback, hasFallback = e, true
			}
			continue
		}
		if c != nil && !c.Check(v) {
			continue
		}
		if !found || v.GreaterThan(bestVer) {
			best, bestVer, found = e, v, true
		}
	}

	if found {
		return best, true
	}
	return fallback, hasFallback
}
