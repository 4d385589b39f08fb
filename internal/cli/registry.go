package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/domain"
	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/infra/cachedregistry"
	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/infra/config"
	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/infra/httpclient"
	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/infra/httpregistry"
	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/infra/logger"
	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/infra/memregistry"
	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/infra/seed"
	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/infra/sqlregistry"
	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/infra/xmlcodec"
	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/ports"
)

// registrySet holds one registry per entry type.
type registrySet struct {
	licenses ports.RegistryReader[domain.License]
	schemes  ports.RegistryReader[domain.MetadataScheme]
	formats  ports.RegistryReader[domain.MetadataFormat]
	packages ports.RegistryReader[domain.PackageRecord]

	// seeded is non-nil for local registries filled from the seed directory.
	seeded *seed.Registries
}

var typeAliases = map[string]string{
	"license": domain.TypeLicense,
	"scheme":  domain.TypeMetadataScheme,
	"format":  domain.TypeMetadataFormat,
	"package": domain.TypePackage,
}

func resolveType(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "all" {
		return "", nil
	}
	if t, ok := typeAliases[strings.ToLower(s)]; ok {
		return t, nil
	}
	for _, t := range typeAliases {
		if t == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown entry type %q (expected license|scheme|format|package)", s)
}

// openRegistries builds the registries named by configuration: remote
// clients behind a cache when registry.remote_url is set, otherwise local
// registries seeded from registry.seed_dir (in sqlite when registry.db_path is set).
func (a *app) openRegistries(cmd *cobra.Command) (*registrySet, error) {
	if url := a.cfg.Registry.RemoteURL; url != "" {
		return a.remoteRegistries(url)
	}

	set := &registrySet{}
	var regs seed.Registries
	if a.cfg.Registry.DBPath != "" {
		db, err := sqlregistry.Open(cmd.Context(), a.cfg.Registry.DBPath)
		if err != nil {
			return nil, err
		}
		a.onClose(db.Close)
		regs = seed.Registries{
			Licenses: memregistry.NewTyped[domain.License](domain.TypeLicense, sqlregistry.New[domain.License](db, "licenses")),
			Schemes:  memregistry.NewTyped[domain.MetadataScheme](domain.TypeMetadataScheme, sqlregistry.New[domain.MetadataScheme](db, "schemes")),
			Formats:  memregistry.NewTyped[domain.MetadataFormat](domain.TypeMetadataFormat, sqlregistry.New[domain.MetadataFormat](db, "formats")),
		}
	} else {
		regs = seed.Registries{
			Licenses: memregistry.NewTyped[domain.License](domain.TypeLicense, memregistry.New[domain.License]()),
			Schemes:  memregistry.NewTyped[domain.MetadataScheme](domain.TypeMetadataScheme, memregistry.New[domain.MetadataScheme]()),
			Formats:  memregistry.NewTyped[domain.MetadataFormat](domain.TypeMetadataFormat, memregistry.New[domain.MetadataFormat]()),
		}
	}
	set.licenses, set.schemes, set.formats = regs.Licenses, regs.Schemes, regs.Formats
	set.seeded = &regs

	if dir := a.cfg.Registry.SeedDir; dir != "" {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			cat, err := seed.LoadDir(dir)
			if err != nil {
				return nil, err
			}
			if err := cat.Apply(cmd.Context(), regs); err != nil {
				return nil, err
			}
		} else {
			logger.L().Debug("registry.seed.missing", "dir", dir)
		}
	}

	packages, err := a.openPackages(cmd)
	if err != nil {
		return nil, err
	}
	set.packages = packages
	return set, nil
}

func (a *app) remoteRegistries(url string) (*registrySet, error) {
	exec := httpclient.NewExecutor()
	ttl := a.cfg.Registry.CacheTTL

	licenses, err := httpregistry.NewClient[domain.License](url, domain.TypeLicense, exec)
	if err != nil {
		return nil, err
	}
	schemes, err := httpregistry.NewClient[domain.MetadataScheme](url, domain.TypeMetadataScheme, exec)
	if err != nil {
		return nil, err
	}
	formats, err := httpregistry.NewClient[domain.MetadataFormat](url, domain.TypeMetadataFormat, exec)
	if err != nil {
		return nil, err
	}
	packages, err := httpregistry.NewClient[domain.PackageRecord](url, domain.TypePackage, exec)
	if err != nil {
		return nil, err
	}

	return &registrySet{
		licenses: cachedregistry.New[domain.License](licenses, ttl),
		schemes:  cachedregistry.New[domain.MetadataScheme](schemes, ttl),
		formats:  cachedregistry.New[domain.MetadataFormat](formats, ttl),
		packages: cachedregistry.New[domain.PackageRecord](packages, ttl),
	}, nil
}

func registryCmd(a *app) *cobra.Command {
	c := &cobra.Command{
		Use:   "registry",
		Short: "Query license, metadata scheme, format and package registries",
	}
	c.PersistentFlags().String("remote", "", "Query a registry server instead of local seeds")
	c.PersistentFlags().String("seed", "", "Seed directory (default registry/)")
	a.bind(c, config.KeyRemoteURL, "remote")
	a.bind(c, config.KeySeedDir, "seed")

	c.AddCommand(registryListCmd(a), registryGetCmd(a), registryTypesCmd(a), registryFormatCmd(a))
	return c
}

type entryRow struct {
	ID          string   `json:"id"`
	Type        string   `json:"type"`
	Keys        []string `json:"keys"`
	Summary     string   `json:"summary"`
	Description string   `json:"description,omitempty"`
}

func collectRows[T any](ctx context.Context, reg ports.RegistryReader[T], keys []string, summary func(T) string) ([]entryRow, error) {
	if reg == nil {
		return nil, nil
	}
	entries, err := reg.Lookup(ctx, keys...)
	if err != nil {
		return nil, err
	}
	out := make([]entryRow, 0, len(entries))
	for _, e := range entries {
		out = append(out, entryRow{ID: e.ID, Type: e.Type, Keys: e.Keys, Summary: summary(e.Entry), Description: e.Description})
	}
	return out, nil
}

func licenseSummary(l domain.License) string { return strings.TrimSpace(l.Tag + " " + l.Name) }

func schemeSummary(s domain.MetadataScheme) string {
	return strings.TrimSpace(s.Name + " " + s.Version)
}

func formatSummary(f domain.MetadataFormat) string {
	return strings.TrimSpace(f.Name + " " + f.Version)
}

func packageSummary(p domain.PackageRecord) string {
	return fmt.Sprintf("%s (%d files, %d bytes)", p.Name, p.FileCount, p.TotalBytes)
}

func (s *registrySet) rows(ctx context.Context, typ string, keys []string) ([]entryRow, error) {
	var all []entryRow
	add := func(rows []entryRow, err error) error {
		if err != nil {
			return err
		}
		all = append(all, rows...)
		return nil
	}

	if typ == "" || typ == domain.TypeLicense {
		if err := add(collectRows(ctx, s.licenses, keys, licenseSummary)); err != nil {
			return nil, err
		}
	}
	if typ == "" || typ == domain.TypeMetadataScheme {
		if err := add(collectRows(ctx, s.schemes, keys, schemeSummary)); err != nil {
			return nil, err
		}
	}
	if typ == "" || typ == domain.TypeMetadataFormat {
		if err := add(collectRows(ctx, s.formats, keys, formatSummary)); err != nil {
			return nil, err
		}
	}
	if typ == "" || typ == domain.TypePackage {
		if err := add(collectRows(ctx, s.packages, keys, packageSummary)); err != nil {
			return nil, err
		}
	}
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Type != all[j].Type {
			return all[i].Type < all[j].Type
		}
		return all[i].ID < all[j].ID
	})
	return all, nil
}

func registryListCmd(a *app) *cobra.Command {
	var (
		typ    string
		keys   []string
		format string
	)

	c := &cobra.Command{
		Use:   "list",
		Short: "List registry entries, optionally filtered by type and keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			t, err := resolveType(typ)
			if err != nil {
				return err
			}
			set, err := a.openRegistries(cmd)
			if err != nil {
				return err
			}
			rows, err := set.rows(cmd.Context(), t, keys)
			if err != nil {
				return err
			}

			if format == formatJSON {
				return writeJSON(a.out, rows)
			}
			if len(rows) == 0 {
				fmt.Fprintln(a.out, mutedStyle.Render("(no entries)"))
				return nil
			}
			for _, r := range rows {
				fmt.Fprintf(a.out, "%s  %s  %s\n", r.ID, titleStyle.Render(r.Summary), mutedStyle.Render("["+strings.Join(r.Keys, ", ")+"]"))
			}
			return nil
		},
	}
	c.Flags().StringVarP(&typ, "type", "t", "", "Entry type: license|scheme|format|package (default all)")
	c.Flags().StringArrayVarP(&keys, "key", "k", nil, "Only entries carrying this key (repeatable)")
	c.Flags().StringVar(&format, "format", formatPretty, "Output format: pretty|json")
	return c
}

func printEntry[T any](a *app, e domain.RegistryEntry[T], format string) error {
	if format == "xml" {
		return xmlcodec.EncodeEntry(a.out, e)
	}
	return writeJSON(a.out, e)
}

func retrieveAndPrint[T any](a *app, ctx context.Context, reg ports.RegistryReader[T], id, format string) (bool, error) {
	if reg == nil {
		return false, nil
	}
	e, ok, err := reg.Retrieve(ctx, id)
	if err != nil || !ok {
		return false, err
	}
	return true, printEntry(a, e, format)
}

func registryGetCmd(a *app) *cobra.Command {
	var format string

	c := &cobra.Command{
		Use:   "get <id>",
		Short: "Print one registry entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "xml" && format != formatJSON {
				return fmt.Errorf("unsupported format %q (expected xml|json)", format)
			}
			set, err := a.openRegistries(cmd)
			if err != nil {
				return err
			}
			ctx, id := cmd.Context(), args[0]

			lookups := []func() (bool, error){
				func() (bool, error) { return retrieveAndPrint(a, ctx, set.licenses, id, format) },
				func() (bool, error) { return retrieveAndPrint(a, ctx, set.schemes, id, format) },
				func() (bool, error) { return retrieveAndPrint(a, ctx, set.formats, id, format) },
				func() (bool, error) { return retrieveAndPrint(a, ctx, set.packages, id, format) },
			}
			for _, lookup := range lookups {
				found, err := lookup()
				if err != nil {
					return err
				}
				if found {
					return nil
				}
			}
			return &domain.OpError{Op: "cli.registry_get", Kind: domain.KindNotFound, Path: id, Err: domain.ErrNotFound}
		},
	}
	c.Flags().StringVar(&format, "format", "xml", "Output format: xml|json")
	return c
}

func registryTypesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List the entry types held by the registries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			set, err := a.openRegistries(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			seen := map[string]bool{}
			for _, fn := range []func(context.Context) ([]string, error){
				set.licenses.Types, set.schemes.Types, set.formats.Types, set.packages.Types,
			} {
				ts, err := fn(ctx)
				if err != nil {
					return err
				}
				for _, t := range ts {
					seen[t] = true
				}
			}
			types := make([]string, 0, len(seen))
			for t := range seen {
				types = append(types, t)
			}
			sort.Strings(types)
			for _, t := range types {
				fmt.Fprintln(a.out, t)
			}
			return nil
		},
	}
}

func registryFormatCmd(a *app) *cobra.Command {
	var (
		constraint string
		format     string
	)

	c := &cobra.Command{
		Use:   "format <name>",
		Short: "Show the newest metadata format version, optionally within a semver constraint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "xml" && format != formatJSON {
				return fmt.Errorf("unsupported format %q (expected xml|json)", format)
			}
			set, err := a.openRegistries(cmd)
			if err != nil {
				return err
			}
			formats, err := set.formats.Entries(cmd.Context())
			if err != nil {
				return err
			}

			var e domain.RegistryEntry[domain.MetadataFormat]
			if constraint != "" {
				e, err = seed.MatchingFormat(formats, args[0], constraint)
				if err != nil {
					return err
				}
			} else {
				var ok bool
				if e, ok = seed.LatestFormat(formats, args[0]); !ok {
					return &domain.OpError{Op: "cli.registry_format", Kind: domain.KindNotFound, Path: args[0],
						Err: errors.New("no such metadata format")}
				}
			}
			return printEntry(a, e, format)
		},
	}
	c.Flags().StringVar(&constraint, "version", "", "Semantic version constraint, e.g. \">= 1.0, < 2\"")
	c.Flags().StringVar(&format, "format", "xml", "Output format: xml|json")
	return c
}
