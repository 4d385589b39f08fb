package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

func profileCmd(a *app) *cobra.Command {
	c := &cobra.Command{
		Use:   "profile",
		Short: "Evaluate conformance profiles",
	}
	c.AddCommand(profileCheckCmd(a))
	return c
}

func profileCheckCmd(a *app) *cobra.Command {
	var (
		profiles []string
		format   string
	)

	c := &cobra.Command{
		Use:   "check <dir|archive>",
		Short: "Verify a package and evaluate profiles against it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			if len(profiles) == 0 {
				return errors.New("at least one --profile is required")
			}
			loaded, err := a.loadProfiles(profiles)
			if err != nil {
				return err
			}

			v, err := a.validator(loaded).Execute(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := printReport(a.out, reportView{Report: v.Report, Profiles: v.Profiles}, format); err != nil {
				return err
			}
			return failure(v.Report)
		},
	}
	c.Flags().StringArrayVarP(&profiles, "profile", "p", nil, "Profile file (YAML or TOML, repeatable)")
	c.Flags().StringVar(&format, "format", formatPretty, "Output format: pretty|json")
	return c
}
