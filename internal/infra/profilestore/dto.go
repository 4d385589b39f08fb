package profilestore

// ProfileDTO is the on-disk shape of a profile (YAML or TOML).
type ProfileDTO struct {
	Name        string    `yaml:"name" toml:"name"`
	Description string    `yaml:"description" toml:"description"`
	Rules       []RuleDTO `yaml:"rules" toml:"rules"`
}

type RuleDTO struct {
	Name      string    `yaml:"name" toml:"name"`
	Select    string    `yaml:"select" toml:"select"`
	Predicate string    `yaml:"predicate" toml:"predicate"`
	Metadata  string    `yaml:"metadata" toml:"metadata"`
	Strategy  string    `yaml:"strategy" toml:"strategy"`
	Match     []TermDTO `yaml:"match" toml:"match"`
}

// TermDTO is one element of a match chain: either a statement (op + values)
// or a nested chain. Logic joins it to the previous term and is ignored on the
// first term.
type TermDTO struct {
	Logic            string    `yaml:"logic" toml:"logic"`
	Op               string    `yaml:"op" toml:"op"`
	Values           []string  `yaml:"values" toml:"values"`
	IgnoreCase       bool      `yaml:"ignore_case" toml:"ignore_case"`
	IgnoreWhitespace bool      `yaml:"ignore_whitespace" toml:"ignore_whitespace"`
	Chain            []TermDTO `yaml:"chain" toml:"chain"`
}
