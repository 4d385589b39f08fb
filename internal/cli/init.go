package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/infra/fsworkspace"
	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/usecase"
)

func initCmd(a *app) *cobra.Command {
	var force bool

	c := &cobra.Command{
		Use:         "init [dir]",
		Short:       "Create a dcs workspace with a starter registry and profile",
		Args:        cobra.MaximumNArgs(1),
		Annotations: map[string]string{annotationNoWorkspace: "true"},
		RunE: func(_ *cobra.Command, args []string) error {
			root := a.workspace
			if len(args) == 1 {
				root = args[0]
			}
			if root == "" {
				wd, err := os.Getwd()
				if err != nil {
					return err
				}
				root = wd
			}

			uc := usecase.NewInitWorkspace(fsworkspace.NewInitializer(), a.finder)
			res, err := uc.Execute(root, force)
			if err != nil {
				return err
			}
			verb := "initialized"
			if res.Existing {
				verb = "updated"
			}
			fmt.Fprintf(a.out, "%s %s workspace at %s\n", mark(true), verb, res.Root)
			return nil
		},
	}
	c.Flags().BoolVar(&force, "force", false, "Overwrite existing template files")
	return c
}
