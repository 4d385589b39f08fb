// Package seed loads registry content from YAML and TOML files.
//
// A seed file lists licenses, metadata schemes and metadata formats:
//
//	licenses:
//	  - id: cc-by-4
//	    keys: [CC-BY-4.0]
//	    name: Creative Commons Attribution 4.0
//	    tag: CC-BY-4.0
//	    uri: https://creativecommons.org/licenses/by/4.0/
//
// Entries without an id get a deterministic UUID derived from their type and
// natural key, so reloading the same files yields the same ids.
package seed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/domain"
	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/infra/logger"
	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/ports"
)

type licenseSeed struct {
	ID             string   `yaml:"id" toml:"id"`
	Keys           []string `yaml:"keys" toml:"keys"`
	Description    string   `yaml:"description" toml:"description"`
	domain.License `yaml:",inline"`
}

type schemeSeed struct {
	ID                    string   `yaml:"id" toml:"id"`
	Keys                  []string `yaml:"keys" toml:"keys"`
	Description           string   `yaml:"description" toml:"description"`
	domain.MetadataScheme `yaml:",inline"`
}

type formatSeed struct {
	ID                    string   `yaml:"entry_id" toml:"entry_id"`
	Keys                  []string `yaml:"keys" toml:"keys"`
	Description           string   `yaml:"description" toml:"description"`
	domain.MetadataFormat `yaml:",inline"`
}

type fileDTO struct {
	Licenses []licenseSeed `yaml:"licenses" toml:"licenses"`
	Schemes  []schemeSeed  `yaml:"schemes" toml:"schemes"`
	Formats  []formatSeed  `yaml:"formats" toml:"formats"`
}

// Catalog is the content of a seed directory.
type Catalog struct {
	Licenses []domain.RegistryEntry[domain.License]
	Schemes  []domain.RegistryEntry[domain.MetadataScheme]
	Formats  []domain.RegistryEntry[domain.MetadataFormat]
}

// Len returns the number of entries across all types.
func (c *Catalog) Len() int {
	return len(c.Licenses) + len(c.Schemes) + len(c.Formats)
}

// IsSeedFile reports whether name has a seed file extension.
func IsSeedFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml", ".toml":
		return true
	}
	return false
}

// LoadDir reads every seed file in dir (not recursive), in name order.
func LoadDir(dir string) (*Catalog, error) {
	const op = "seed.load_dir"

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &domain.OpError{Op: op, Kind: domain.KindNotFound, Path: dir, Err: err}
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && IsSeedFile(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	cat := &Catalog{}
	seen := map[string]string{}
	for _, name := range names {
		path := filepath.Join(dir, name)
		part, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		if err := cat.merge(part, path, seen); err != nil {
			return nil, err
		}
	}

	logger.L().Info("registry.seed.loaded", "dir", dir, "files", len(names),
		"licenses", len(cat.Licenses), "schemes", len(cat.Schemes), "formats", len(cat.Formats))
	return cat, nil
}

// LoadFile reads a single YAML or TOML seed file.
func LoadFile(path string) (*Catalog, error) {
	const op = "seed.load_file"

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, &domain.OpError{Op: op, Kind: domain.KindNotFound, Path: path, Err: err}
	}

	var dto fileDTO
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		md, err := toml.Decode(string(b), &dto)
		if err != nil {
			return nil, &domain.OpError{Op: op, Kind: domain.KindInvalidConfig, Path: path, Err: err}
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, &domain.OpError{Op: op, Kind: domain.KindInvalidConfig, Path: path,
				Err: fmt.Errorf("unknown field %q: %w", undecoded[0].String(), domain.ErrInvalidConfig)}
		}
	default:
		dec := yaml.NewDecoder(bytes.NewReader(b))
		dec.KnownFields(true)
		if err := dec.Decode(&dto); err != nil && !errors.Is(err, io.EOF) {
			return nil, &domain.OpError{Op: op, Kind: domain.KindInvalidConfig, Path: path, Err: err}
		}
	}

	cat, err := dto.toCatalog()
	if err != nil {
		return nil, &domain.OpError{Op: op, Kind: domain.KindInvalidConfig, Path: path, Err: err}
	}
	return cat, nil
}

func (d fileDTO) toCatalog() (*Catalog, error) {
	cat := &Catalog{}

	for i, s := range d.Licenses {
		if s.Tag == "" && s.URI == "" {
			return nil, fmt.Errorf("licenses[%d]: tag or uri is required", i)
		}
		keys := defaultKeys(s.Keys, s.Tag, s.URI)
		cat.Licenses = append(cat.Licenses, domain.RegistryEntry[domain.License]{
			ID:          entryID(s.ID, domain.TypeLicense, keys),
			Type:        domain.TypeLicense,
			Keys:        keys,
			Description: s.Description,
			Entry:       s.License,
		})
	}

	for i, s := range d.Schemes {
		if s.Name == "" {
			return nil, fmt.Errorf("schemes[%d].name is required", i)
		}
		keys := defaultKeys(s.Keys, s.Name, s.SchemaURL)
		cat.Schemes = append(cat.Schemes, domain.RegistryEntry[domain.MetadataScheme]{
			ID:          entryID(s.ID, domain.TypeMetadataScheme, append(slices.Clone(keys), s.Version)),
			Type:        domain.TypeMetadataScheme,
			Keys:        keys,
			Description: s.Description,
			Entry:       s.MetadataScheme,
		})
	}

	for i, s := range d.Formats {
		if s.MetadataFormat.ID == "" && s.Name == "" {
			return nil, fmt.Errorf("formats[%d]: id or name is required", i)
		}
		for j, sc := range s.Schemes {
			if sc.Name == "" {
				return nil, fmt.Errorf("formats[%d].schemes[%d].name is required", i, j)
			}
		}
		keys := defaultKeys(s.Keys, s.MetadataFormat.ID, s.Name)
		cat.Formats = append(cat.Formats, domain.RegistryEntry[domain.MetadataFormat]{
			ID:          entryID(s.ID, domain.TypeMetadataFormat, append(slices.Clone(keys), s.Version)),
			Type:        domain.TypeMetadataFormat,
			Keys:        keys,
			Description: s.Description,
			Entry:       s.MetadataFormat,
		})
	}

	return cat, nil
}

func (c *Catalog) merge(o *Catalog, path string, seen map[string]string) error {
	check := func(id string) error {
		if prev, dup := seen[id]; dup {
			return &domain.OpError{Op: "seed.merge", Kind: domain.KindInvalidConfig, Path: path,
				Err: fmt.Errorf("duplicate entry id %q (first defined in %s): %w", id, prev, domain.ErrInvalidConfig)}
		}
		seen[id] = path
		return nil
	}
	for _, e := range o.Licenses {
		if err := check(e.ID); err != nil {
			return err
		}
	}
	for _, e := range o.Schemes {
		if err := check(e.ID); err != nil {
			return err
		}
	}
	for _, e := range o.Formats {
		if err := check(e.ID); err != nil {
			return err
		}
	}
	c.Licenses = append(c.Licenses, o.Licenses...)
	c.Schemes = append(c.Schemes, o.Schemes...)
	c.Formats = append(c.Formats, o.Formats...)
	return nil
}

// defaultKeys returns explicit keys, or the non-empty natural keys.
func defaultKeys(explicit []string, natural ...string) []string {
	if len(explicit) > 0 {
		return explicit
	}
	var out []string
	for _, k := range natural {
		if k != "" {
			out = append(out, k)
		}
	}
	return out
}

func entryID(explicit, typ string, parts []string) string {
	if explicit != "" {
		return explicit
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(typ+"\x00"+strings.Join(parts, "\x00"))).String()
}

// Registries groups the registries a Catalog is applied to.
type Registries struct {
	Licenses ports.Registry[domain.License]
	Schemes  ports.Registry[domain.MetadataScheme]
	Formats  ports.Registry[domain.MetadataFormat]
}

// Apply makes the registries hold exactly the catalog's entries. Nil
// registries are skipped.
func (c *Catalog) Apply(ctx context.Context, regs Registries) error {
	if regs.Licenses != nil {
		if err := syncRegistry(ctx, regs.Licenses, c.Licenses); err != nil {
			return err
		}
	}
	if regs.Schemes != nil {
		if err := syncRegistry(ctx, regs.Schemes, c.Schemes); err != nil {
			return err
		}
	}
	if regs.Formats != nil {
		if err := syncRegistry(ctx, regs.Formats, c.Formats); err != nil {
			return err
		}
	}
	return nil
}

// syncRegistry replaces the registry content in one step when the registry
// supports it, otherwise puts every entry and deletes the ones no longer present.
func syncRegistry[T any](ctx context.Context, reg ports.Registry[T], entries []domain.RegistryEntry[T]) error {
	if r, ok := reg.(ports.RegistryReplacer[T]); ok {
		err := r.Replace(ctx, entries)
		if !errors.Is(err, errors.ErrUnsupported) {
			return err
		}
	}

	keep := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if _, err := reg.Put(ctx, e); err != nil {
			return err
		}
		keep[e.ID] = struct{}{}
	}

	existing, err := reg.Entries(ctx)
	if err != nil {
		return err
	}
	for _, e := range existing {
		if _, ok := keep[e.ID]; !ok {
			if err := reg.Delete(ctx, e.ID); err != nil {
				return err
			}
		}
	}
	return nil
}
