package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/domain"
	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/infra/config"
	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/infra/httpregistry"
	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/infra/logger"
	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/infra/seed"
)

const watchDebounce = 250 * time.Millisecond

func serveCmd(a *app) *cobra.Command {
	var watch bool

	c := &cobra.Command{
		Use:   "serve",
		Short: "Serve the registries over HTTP",
		Args:  cobra.NoArgs,
		Annotations: map[string]string{
			annotationLogStderr: "true",
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.cfg.Registry.RemoteURL != "" {
				return &domain.OpError{Op: "cli.serve", Kind: domain.KindInvalidConfig, Path: a.cfg.Registry.RemoteURL,
					Err: errors.New("serve needs local registries; unset registry.remote_url")}
			}
			set, err := a.openRegistries(cmd)
			if err != nil {
				return err
			}

			srv := httpregistry.NewServer()
			httpregistry.Mount(srv, domain.TypeLicense, set.licenses)
			httpregistry.Mount(srv, domain.TypeMetadataScheme, set.schemes)
			httpregistry.Mount(srv, domain.TypeMetadataFormat, set.formats)
			httpregistry.Mount(srv, domain.TypePackage, set.packages)

			g, ctx := errgroup.WithContext(cmd.Context())
			addr := a.cfg.Server.Addr
			g.Go(func() error { return srv.ListenAndServe(ctx, addr) })

			dir := a.cfg.Registry.SeedDir
			if watch && set.seeded != nil && fileExists(dir) {
				w, err := seed.NewWatcher(dir, watchDebounce)
				if err != nil {
					return err
				}
				g.Go(func() error { return w.Run(ctx, seed.Reloader(dir, *set.seeded)) })
				logger.L().Info("registry.seed.watch", "dir", dir)
			}

			fmt.Fprintf(a.out, "%s serving registries on http://%s\n", mark(true), addr)
			return g.Wait()
		},
	}

	c.Flags().String("addr", "", "Listen address (default from server.addr)")
	c.Flags().String("seed", "", "Seed directory (default registry/)")
	c.Flags().String("db", "", "Store registries in this sqlite database instead of memory")
	c.Flags().BoolVar(&watch, "watch", false, "Reload the seed directory when it changes")
	a.bind(c, config.KeyServerAddr, "addr")
	a.bind(c, config.KeySeedDir, "seed")
	a.bind(c, config.KeyDBPath, "db")
	return c
}
