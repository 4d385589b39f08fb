package cli

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/infra/config"
	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/infra/dropbox"
	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/ports"
)

func dropboxCmd(a *app) *cobra.Command {
	c := &cobra.Command{
		Use:   "dropbox",
		Short: "Move packages to and from Dropbox",
	}
	c.PersistentFlags().String("token", "", "Dropbox access token (or DCS_DROPBOX_TOKEN)")
	a.bind(c, config.KeyDropboxTok, "token")

	c.AddCommand(dropboxLsCmd(a), dropboxGetCmd(a), dropboxPutCmd(a))
	return c
}

func (a *app) remoteStorage() (ports.RemoteStorage, error) {
	return dropbox.New(a.cfg.Dropbox)
}

func dropboxLsCmd(a *app) *cobra.Command {
	var format string

	c := &cobra.Command{
		Use:   "ls [path]",
		Short: "List a Dropbox folder",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			store, err := a.remoteStorage()
			if err != nil {
				return err
			}
			dir := "/"
			if len(args) == 1 {
				dir = args[0]
			}
			entries, err := store.List(cmd.Context(), dir)
			if err != nil {
				return err
			}
			if format == formatJSON {
				return writeJSON(a.out, entries)
			}
			for _, e := range entries {
				if e.IsFolder {
					fmt.Fprintf(a.out, "%s %s/\n", mutedStyle.Render("dir "), e.Path)
					continue
				}
				fmt.Fprintf(a.out, "%s %s %s\n", mutedStyle.Render("file"), e.Path, mutedStyle.Render(fmt.Sprintf("(%d bytes)", e.Size)))
			}
			return nil
		},
	}
	c.Flags().StringVar(&format, "format", formatPretty, "Output format: pretty|json")
	return c
}

func dropboxGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <remote> [local]",
		Short: "Download a file from Dropbox",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.remoteStorage()
			if err != nil {
				return err
			}
			local := path.Base(args[0])
			if len(args) == 2 {
				local = args[1]
			}

			body, entry, err := store.Download(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer body.Close()

			if dir := filepath.Dir(local); dir != "." {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return err
				}
			}
			f, err := os.Create(local)
			if err != nil {
				return err
			}
			n, err := io.Copy(f, body)
			if cerr := f.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%s %s -> %s (%d bytes, rev %s)\n", mark(true), entry.Path, local, n, entry.Rev)
			return nil
		},
	}
}

func dropboxPutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "put <local> <remote>",
		Short: "Upload a file to Dropbox (overwrites)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.remoteStorage()
			if err != nil {
				return err
			}
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			entry, err := store.Upload(cmd.Context(), args[1], f)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%s %s -> %s (%d bytes, rev %s)\n", mark(true), args[0], entry.Path, entry.Size, entry.Rev)
			return nil
		},
	}
}
