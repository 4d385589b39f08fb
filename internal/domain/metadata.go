package domain

// License describes a license that may be attached to deposited content.
type License struct {
	Name     string `json:"name" yaml:"name" toml:"name" xml:"name"`
	Tag      string `json:"tag" yaml:"tag" toml:"tag" xml:"tag"`
	URI      string `json:"uri" yaml:"uri" toml:"uri" xml:"uri"`
	FullText string `json:"full_text,omitempty" yaml:"full_text" toml:"full_text" xml:"fullText,omitempty"`
}

// MetadataScheme identifies a schema a metadata format conforms to.
type MetadataScheme struct {
	Name      string `json:"name" yaml:"name" toml:"name" xml:"name"`
	Version   string `json:"version,omitempty" yaml:"version" toml:"version" xml:"version,omitempty"`
	SchemaURL string `json:"schema_url" yaml:"schema_url" toml:"schema_url" xml:"schemaUrl"`
	Source    string `json:"source,omitempty" yaml:"source" toml:"source" xml:"source,omitempty"`
}

// MetadataFormat is a named, versioned metadata format and the schemes that
// validate it.
type MetadataFormat struct {
	ID      string           `json:"id" yaml:"id" toml:"id" xml:"id"`
	Name    string           `json:"name" yaml:"name" toml:"name" xml:"name"`
	Version string           `json:"version,omitempty" yaml:"version" toml:"version" xml:"version,omitempty"`
	Schemes []MetadataScheme `json:"schemes,omitempty" yaml:"schemes" toml:"schemes" xml:"schemes>metadataScheme"`
}
