// Package config resolves dcs settings from dcs.yaml, DCS_* environment
// variables and command-line flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/domain"
)

// EnvPrefix is prepended to every environment override (registry.seed_dir ->
// DCS_REGISTRY_SEED_DIR).
const EnvPrefix = "DCS"

// Keys understood in dcs.yaml.
const (
	KeySeedDir     = "registry.seed_dir"
	KeyDBPath      = "registry.db_path"
	KeyRemoteURL   = "registry.remote_url"
	KeyCacheTTL    = "registry.cache_ttl"
	KeyServerAddr  = "server.addr"
	KeyReportsDir  = "reports.dir"
	KeyAlgorithms  = "bag.algorithms"
	KeyWorkers     = "bag.workers"
	KeyMaxFileSize = "bag.max_file_size"
	KeyTempDir     = "bag.temp_dir"
	KeyDropboxTok  = "dropbox.token"
	KeyDropboxAPI  = "dropbox.api_url"
	KeyDropboxCont = "dropbox.content_url"
	KeyLogDebug    = "log.debug"
)

// Loader wraps a private viper instance.
type Loader struct {
	v *viper.Viper
}

// NewLoader returns a loader primed with defaults and environment overrides.
func NewLoader() *Loader {
	v := viper.New()
	d := domain.DefaultConfig()

	v.SetDefault(KeySeedDir, d.Registry.SeedDir)
	v.SetDefault(KeyDBPath, d.Registry.DBPath)
	v.SetDefault(KeyRemoteURL, d.Registry.RemoteURL)
	v.SetDefault(KeyCacheTTL, d.Registry.CacheTTL)
	v.SetDefault(KeyServerAddr, d.Server.Addr)
	v.SetDefault(KeyReportsDir, d.Reports.Dir)
	algs := make([]string, 0, len(d.Bag.Algorithms))
	for _, a := range d.Bag.Algorithms {
		algs = append(algs, string(a))
	}
	v.SetDefault(KeyAlgorithms, algs)
	v.SetDefault(KeyWorkers, d.Bag.Workers)
	v.SetDefault(KeyMaxFileSize, d.Bag.MaxFileSize)
	v.SetDefault(KeyTempDir, d.Bag.TempDir)
	v.SetDefault(KeyDropboxTok, d.Dropbox.Token)
	v.SetDefault(KeyDropboxAPI, d.Dropbox.APIURL)
	v.SetDefault(KeyDropboxCont, d.Dropbox.ContentURL)
	v.SetDefault(KeyLogDebug, d.Log.Debug)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &Loader{v: v}
}

// BindFlag makes flag (when set) override key.
func (l *Loader) BindFlag(key string, flag *pflag.Flag) error {
	if flag == nil {
		return fmt.Errorf("bind %s: flag not defined", key)
	}
	return l.v.BindPFlag(key, flag)
}

// Load reads file (when non-empty) and resolves the configuration. Relative
// directories in the result are resolved against root.
func (l *Loader) Load(root, file string) (domain.Config, error) {
	const op = "config.load"

	if file != "" {
		l.v.SetConfigFile(file)
		if err := l.v.ReadInConfig(); err != nil {
			kind := domain.KindInvalidConfig
			var notFound viper.ConfigFileNotFoundError
			if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
				kind = domain.KindNotFound
			}
			return domain.Config{}, &domain.OpError{Op: op, Kind: kind, Path: file, Err: err}
		}
	}

	cfg := domain.Config{
		Registry: domain.RegistryConfig{
			SeedDir:   l.v.GetString(KeySeedDir),
			DBPath:    l.v.GetString(KeyDBPath),
			RemoteURL: l.v.GetString(KeyRemoteURL),
			CacheTTL:  l.v.GetDuration(KeyCacheTTL),
		},
		Server:  domain.ServerConfig{Addr: l.v.GetString(KeyServerAddr)},
		Reports: domain.ReportsConfig{Dir: l.v.GetString(KeyReportsDir)},
		Dropbox: domain.DropboxConfig{
			Token:      l.v.GetString(KeyDropboxTok),
			APIURL:     strings.TrimRight(l.v.GetString(KeyDropboxAPI), "/"),
			ContentURL: strings.TrimRight(l.v.GetString(KeyDropboxCont), "/"),
		},
		Bag: domain.BagConfig{
			Workers:     l.v.GetInt(KeyWorkers),
			MaxFileSize: l.v.GetInt64(KeyMaxFileSize),
			TempDir:     l.v.GetString(KeyTempDir),
		},
		Log: domain.LogConfig{Debug: l.v.GetBool(KeyLogDebug)},
	}

	for _, s := range l.v.GetStringSlice(KeyAlgorithms) {
		// env values arrive as a single comma separated string
		for _, part := range strings.Split(s, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			alg, err := domain.ParseAlgorithm(part)
			if err != nil {
				return domain.Config{}, &domain.OpError{Op: op, Kind: domain.KindInvalidConfig, Path: file,
					Err: fmt.Errorf("field %s: %w", KeyAlgorithms, err)}
			}
			cfg.Bag.Algorithms = append(cfg.Bag.Algorithms, alg)
		}
	}
	if len(cfg.Bag.Algorithms) == 0 {
		return domain.Config{}, &domain.OpError{Op: op, Kind: domain.KindInvalidConfig, Path: file,
			Err: fmt.Errorf("field %s: at least one algorithm is required: %w", KeyAlgorithms, domain.ErrInvalidConfig)}
	}
	if cfg.Registry.CacheTTL < 0 {
		return domain.Config{}, &domain.OpError{Op: op, Kind: domain.KindInvalidConfig, Path: file,
			Err: fmt.Errorf("field %s: must not be negative: %w", KeyCacheTTL, domain.ErrInvalidConfig)}
	}

	for key, n := range map[string]int64{KeyWorkers: int64(cfg.Bag.Workers), KeyMaxFileSize: cfg.Bag.MaxFileSize} {
		if n < 0 {
			return domain.Config{}, &domain.OpError{Op: op, Kind: domain.KindInvalidConfig, Path: file,
				Err: fmt.Errorf("field %s: must not be negative: %w", key, domain.ErrInvalidConfig)}
		}
	}

	cfg.Registry.SeedDir = resolve(root, cfg.Registry.SeedDir)
	cfg.Bag.TempDir = resolve(root, cfg.Bag.TempDir)
	cfg.Registry.DBPath = resolve(root, cfg.Registry.DBPath)
	cfg.Reports.Dir = resolve(root, cfg.Reports.Dir)
	return cfg, nil
}

// ConfigFileUsed returns the file Load read, if any.
func (l *Loader) ConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

func resolve(root, p string) string {
	if p == "" || filepath.IsAbs(p) || root == "" {
		return p
	}
	return filepath.Join(root, p)
}
