package cli

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/domain"
	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/infra/bagit"
	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/infra/config"
	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/infra/ore"
	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/usecase"
)

func bagCmd(a *app) *cobra.Command {
	c := &cobra.Command{
		Use:   "bag",
		Short: "Verify, inspect and create BagIt packages",
	}
	c.AddCommand(bagVerifyCmd(a), bagInfoCmd(a), bagCreateCmd(a))
	return c
}

func bagVerifyCmd(a *app) *cobra.Command {
	var format string

	c := &cobra.Command{
		Use:   "verify <dir|archive>",
		Short: "Check completeness and fixity of a bag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			v, err := a.validator(nil).Execute(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := printReport(a.out, reportView{Report: v.Report}, format); err != nil {
				return err
			}
			return failure(v.Report)
		},
	}
	c.Flags().StringVar(&format, "format", formatPretty, "Output format: pretty|json")
	return c
}

// packageInfo is the json output of bag info.
type packageInfo struct {
	Name       string              `json:"name"`
	Files      []string            `json:"files"`
	Algorithms []string            `json:"algorithms"`
	Metadata   map[string][]string `json:"metadata"`
	Triples    []domain.Triple     `json:"triples,omitempty"`
}

func bagInfoCmd(a *app) *cobra.Command {
	var format string

	c := &cobra.Command{
		Use:   "info <dir|archive>",
		Short: "Show bag metadata, files and description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			uc := usecase.NewDescribePackage(bagit.NewReader(), ore.NewReader(), a.archives())
			pkg, err := uc.Execute(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			info := packageInfo{
				Name:     pkg.Name,
				Files:    append([]string(nil), pkg.Serialization.Files...),
				Metadata: pkg.Serialization.Metadata,
				Triples:  pkg.Description.Triples,
			}
			sort.Strings(info.Files)
			seen := map[string]bool{}
			for _, sums := range pkg.Serialization.Checksums {
				for _, cs := range sums {
					if !seen[string(cs.Algorithm)] {
						seen[string(cs.Algorithm)] = true
						info.Algorithms = append(info.Algorithms, string(cs.Algorithm))
					}
				}
			}
			sort.Strings(info.Algorithms)

			if format == formatJSON {
				return writeJSON(a.out, info)
			}
			printPackageInfo(a, info)
			return nil
		},
	}
	c.Flags().StringVar(&format, "format", formatPretty, "Output format: pretty|json")
	return c
}

func printPackageInfo(a *app, info packageInfo) {
	w := a.out
	fmt.Fprintln(w, titleStyle.Render(info.Name))
	field(w, "Files", len(info.Files))
	field(w, "Algorithms", strings.Join(info.Algorithms, ", "))

	keys := make([]string, 0, len(info.Metadata))
	for k := range info.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) > 0 {
		fmt.Fprintf(w, "\n%s\n", titleStyle.Render("bag-info"))
		for _, k := range keys {
			for _, v := range info.Metadata[k] {
				fmt.Fprintf(w, "  %s %s\n", mutedStyle.Render(k+":"), v)
			}
		}
	}

	if len(info.Triples) > 0 {
		fmt.Fprintf(w, "\n%s\n", titleStyle.Render("description"))
		for _, t := range info.Triples {
			fmt.Fprintf(w, "  %s %s %s\n", t.Subject, mutedStyle.Render(t.Predicate), t.Object)
		}
	}

	fmt.Fprintf(w, "\n%s\n", titleStyle.Render("files"))
	for _, f := range info.Files {
		fmt.Fprintf(w, "  %s\n", f)
	}
}

func bagCreateCmd(a *app) *cobra.Command {
	var (
		archivePath string
		infoPairs   []string
		descFile    string
	)

	c := &cobra.Command{
		Use:   "create <payload-dir> <bag-dir>",
		Short: "Create a bag from a payload directory",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := parseInfo(infoPairs)
			if err != nil {
				return err
			}

			var desc *domain.PackageDescription
			if descFile != "" {
				f, err := os.Open(descFile)
				if err != nil {
					return &domain.OpError{Op: "cli.bag_create", Kind: domain.KindNotFound, Path: descFile, Err: err}
				}
				d, err := ore.Read(f)
				f.Close()
				if err != nil {
					return &domain.OpError{Op: "cli.bag_create", Kind: domain.KindInvalidArgument, Path: descFile, Err: err}
				}
				desc = &d
			}

			writer := bagit.NewWriter(bagit.WithAlgorithms(a.cfg.Bag.Algorithms...))
			uc := usecase.NewSerializePackage(writer, a.archives())
			ser, err := uc.Execute(cmd.Context(), usecase.SerializeRequest{
				PayloadDir:  args[0],
				BagDir:      args[1],
				Description: desc,
				Info:        info,
				Archive:     archivePath,
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(a.out, "%s bag written to %s (%d file(s))\n", mark(true), args[1], len(ser.Files))
			if archivePath != "" {
				fmt.Fprintf(a.out, "%s archive written to %s\n", mark(true), archivePath)
			}
			return nil
		},
	}

	c.Flags().StringVar(&archivePath, "archive", "", "Also write an archive (.tar, .tar.gz, .tar.zst or .zip)")
	c.Flags().StringArrayVar(&infoPairs, "info", nil, "bag-info field as Key=Value (repeatable)")
	c.Flags().StringVar(&descFile, "description", "", "N-Triples package description to store in the bag")
	c.Flags().StringSlice("alg", nil, "Checksum algorithms (default from bag.algorithms)")
	a.bind(c, config.KeyAlgorithms, "alg")
	return c
}

func parseInfo(pairs []string) (map[string][]string, error) {
	out := map[string][]string{}
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid --info %q (expected Key=Value)", p)
		}
		out[k] = append(out[k], strings.TrimSpace(v))
	}
	return out, nil
}
