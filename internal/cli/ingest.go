package cli

import (
	"github.com/spf13/cobra"

	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/domain"
	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/infra/config"
	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/infra/memregistry"
	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/infra/sqlregistry"
	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/ports"
	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/usecase"
)

func ingestCmd(a *app) *cobra.Command {
	var (
		profiles []string
		format   string
		noSave   bool
	)

	c := &cobra.Command{
		Use:   "ingest <dir|archive>",
		Short: "Validate a package, save its report and register it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			loaded, err := a.loadProfiles(profiles)
			if err != nil {
				return err
			}

			packages, err := a.openPackages(cmd)
			if err != nil {
				return err
			}

			var reports ports.ReportStore = a.reportStore()
			if noSave {
				reports = nil
			}

			res, err := usecase.NewIngestPackage(a.validator(loaded), packages, reports).Execute(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			view := reportView{Report: res.Report, Profiles: res.Profiles, ReportID: res.ReportID}
			if res.Entry != nil {
				view.EntryID = res.Entry.ID
			}
			if err := printReport(a.out, view, format); err != nil {
				return err
			}
			return failure(res.Report)
		},
	}

	c.Flags().StringArrayVarP(&profiles, "profile", "p", nil, "Profile file (YAML or TOML, repeatable)")
	c.Flags().StringVar(&format, "format", formatPretty, "Output format: pretty|json")
	c.Flags().BoolVar(&noSave, "no-save", false, "Do not save the report under reports/")
	c.Flags().String("db", "", "Package registry database (default .dcs/registry.db)")
	a.bind(c, config.KeyDBPath, "db")
	return c
}

// openPackages opens the sqlite-backed package registry, closed with the app.
func (a *app) openPackages(cmd *cobra.Command) (ports.Registry[domain.PackageRecord], error) {
	db, err := sqlregistry.Open(cmd.Context(), a.packageDBPath())
	if err != nil {
		return nil, err
	}
	a.onClose(db.Close)
	return memregistry.NewTyped[domain.PackageRecord](domain.TypePackage, sqlregistry.New[domain.PackageRecord](db, "packages")), nil
}
