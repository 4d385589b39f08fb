package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/domain"
	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/infra/archive"
	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/infra/bagit"
	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/infra/config"
	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/infra/logger"
	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/infra/ore"
	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/infra/profilestore"
	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/infra/reportstore"
	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/infra/workspacefinder"
	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/usecase"
	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/usecase/profile"
)

// Command annotations read by the root command.
const (
	// annotationNoWorkspace marks commands that run without loading configuration.
	annotationNoWorkspace = "dcs/no-workspace"
	// annotationLogStderr mirrors the log to stderr (long-running commands).
	annotationLogStderr = "dcs/log-stderr"
)

// app is the state shared by every command of one invocation.
type app struct {
	workspace  string
	configFile string

	loader *config.Loader
	finder *workspacefinder.Finder

	root string
	// inWorkspace is false when no dcs.yaml was found and root is the working directory.
	inWorkspace bool
	cfg         domain.Config

	bindings map[*cobra.Command][]binding

	out     io.Writer
	closers []func() error
}

func newApp() *app {
	return &app{
		loader: config.NewLoader(),
		finder: workspacefinder.NewFinder(),
		out:    os.Stdout,
	}
}

type binding struct {
	key  string
	flag *pflag.Flag
}

// bind routes flag of cmd into the configuration key it overrides. Bindings
// only take effect when cmd (or one of its subcommands) runs, so two commands
// may bind the same key.
func (a *app) bind(cmd *cobra.Command, key, flag string) {
	f := cmd.Flags().Lookup(flag)
	if f == nil {
		f = cmd.PersistentFlags().Lookup(flag)
	}
	if f == nil {
		panic(fmt.Sprintf("bind %s: flag --%s not defined on %s", key, flag, cmd.Name()))
	}
	if a.bindings == nil {
		a.bindings = map[*cobra.Command][]binding{}
	}
	a.bindings[cmd] = append(a.bindings[cmd], binding{key: key, flag: f})
}

func (a *app) setup(cmd *cobra.Command) error {
	for c := cmd; c != nil; c = c.Parent() {
		for _, b := range a.bindings[c] {
			if err := a.loader.BindFlag(b.key, b.flag); err != nil {
				return err
			}
		}
	}

	root, found, err := a.resolveRoot()
	if err != nil {
		return err
	}
	a.root, a.inWorkspace = root, found

	file := strings.TrimSpace(a.configFile)
	if file == "" {
		file, _ = a.finder.ConfigFile(root)
	}
	cfg, err := a.loader.Load(root, file)
	if err != nil {
		return err
	}
	a.cfg = cfg

	stderr := cmd.Annotations[annotationLogStderr] == "true"
	if found || cfg.Log.Debug || stderr {
		cleanup, err := logger.Setup(logger.Config{Root: root, Debug: cfg.Log.Debug, Stderr: stderr})
		if err != nil {
			return err
		}
		a.closers = append(a.closers, cleanup)
	}
	logger.L().Debug("cli.setup", "root", root, "workspace", found, "config", a.loader.ConfigFileUsed())
	return nil
}

func (a *app) resolveRoot() (string, bool, error) {
	if w := strings.TrimSpace(a.workspace); w != "" {
		abs, err := filepath.Abs(w)
		if err != nil {
			return "", false, fmt.Errorf("invalid workspace path: %w", err)
		}
		return abs, true, nil
	}

	wd, err := os.Getwd()
	if err != nil {
		return "", false, fmt.Errorf("get working directory: %w", err)
	}
	if root, err := a.finder.FindRoot(wd); err == nil {
		return root, true, nil
	}
	return wd, false, nil
}

func (a *app) onClose(fn func() error) {
	a.closers = append(a.closers, fn)
}

// close runs closers in reverse order; the logger goes last.
func (a *app) close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}

func (a *app) reportStore() *reportstore.JSONStore {
	return reportstore.NewJSONStore(a.root, a.cfg, reportstore.WithIndex(true))
}

func (a *app) archives() *archive.Handler {
	return archive.NewHandler(archive.WithMaxFileSize(a.cfg.Bag.MaxFileSize))
}

func (a *app) validator(profiles []*profile.Profile) *usecase.ValidatePackage {
	return usecase.NewValidatePackage(
		bagit.NewReader(),
		bagit.NewVerifier(bagit.WithWorkers(a.cfg.Bag.Workers)),
		ore.NewReader(),
		usecase.WithArchives(a.archives()),
		usecase.WithTempDir(a.cfg.Bag.TempDir),
		usecase.WithProfiles(profiles...),
	)
}

// loadProfiles loads each path, resolving relative paths against the
// working directory first and the workspace root second.
func (a *app) loadProfiles(paths []string) ([]*profile.Profile, error) {
	var loader profile.Loader = profilestore.NewLoader()
	out := make([]*profile.Profile, 0, len(paths))
	for _, p := range paths {
		resolved := p
		if !filepath.IsAbs(p) && !fileExists(p) && fileExists(filepath.Join(a.root, p)) {
			resolved = filepath.Join(a.root, p)
		}
		prof, err := loader.LoadProfile(resolved)
		if err != nil {
			return nil, err
		}
		out = append(out, prof)
	}
	return out, nil
}

func (a *app) packageDBPath() string {
	if a.cfg.Registry.DBPath != "" {
		return a.cfg.Registry.DBPath
	}
	return filepath.Join(a.root, ".dcs", "registry.db")
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
