// Package cli wires the dcs commands.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/buildinfo"
	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/infra/config"
)

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := newRootCmd()
	if err := cmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := newApp()

	cmd := &cobra.Command{
		Use:          "dcs",
		Short:        "dcs: package ingest, verification and registry tooling",
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			a.out = cmd.OutOrStdout()
			if cmd.Annotations[annotationNoWorkspace] == "true" {
				return nil
			}
			return a.setup(cmd)
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			return a.close()
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&a.workspace, "workspace", "w", "", "Workspace root (optional; autodetected from dcs.yaml if omitted)")
	pf.StringVar(&a.configFile, "config", "", "Config file (default: <workspace>/dcs.yaml)")
	pf.Bool("debug", false, "Enable verbose logging to .dcs/logs/dcs.log")
	a.bind(cmd, config.KeyLogDebug, "debug")

	cmd.AddCommand(
		bagCmd(a),
		profileCmd(a),
		ingestCmd(a),
		registryCmd(a),
		serveCmd(a),
		dropboxCmd(a),
		reportsCmd(a),
		initCmd(a),
		versionCmd(a),
	)
	return cmd
}
