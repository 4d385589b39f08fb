package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

func reportsCmd(a *app) *cobra.Command {
	c := &cobra.Command{
		Use:   "reports",
		Short: "Inspect saved ingest reports",
	}
	c.AddCommand(reportsListCmd(a))
	return c
}

func reportsListCmd(a *app) *cobra.Command {
	var format string

	c := &cobra.Command{
		Use:   "list",
		Short: "List saved ingest reports, newest first",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			reports, err := a.reportStore().ListReports()
			if err != nil {
				return err
			}
			sort.SliceStable(reports, func(i, j int) bool {
				return reports[i].StartedAt.After(reports[j].StartedAt)
			})

			if format == formatJSON {
				return writeJSON(a.out, reports)
			}
			if len(reports) == 0 {
				fmt.Fprintln(a.out, mutedStyle.Render("no reports"))
				return nil
			}
			for _, r := range reports {
				fmt.Fprintf(a.out, "%s  %-4s  %s  %s\n",
					mutedStyle.Render(r.StartedAt.Local().Format("2006-01-02 15:04:05")),
					statusLabel(r.Status), r.PackageName, mutedStyle.Render(r.ID))
			}
			return nil
		},
	}
	c.Flags().StringVar(&format, "format", formatPretty, "Output format: pretty|json")
	return c
}
