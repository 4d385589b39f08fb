package domain

import "time"

// Config represents the dcs configuration loaded from dcs.yaml, DCS_* env vars and flags.
type Config struct {
	Registry RegistryConfig
	Server   ServerConfig
	Reports  ReportsConfig
	Bag      BagConfig
	Dropbox  DropboxConfig
	Log      LogConfig
}

type RegistryConfig struct {
	SeedDir   string
	DBPath    string
	RemoteURL string
	CacheTTL  time.Duration
}

type ServerConfig struct {
	Addr string
}

type ReportsConfig struct {
	Dir string
}

type BagConfig struct {
	Algorithms []ChecksumAlgorithm
	// Workers bounds concurrent hashing during verification; zero means one per CPU.
	Workers int
	// MaxFileSize bounds any single file extracted from an archive, in bytes.
	MaxFileSize int64
	// TempDir is where archives are extracted; empty uses the OS default.
	TempDir string
}

type DropboxConfig struct {
	Token      string
	APIURL     string
	ContentURL string
}

type LogConfig struct {
	Debug bool
}

// DefaultConfig provides sane defaults if dcs.yaml is partially missing.
func DefaultConfig() Config {
	return Config{
		Registry: RegistryConfig{
			SeedDir:  "registry",
			CacheTTL: 5 * time.Minute,
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8080",
		},
		Reports: ReportsConfig{
			Dir: "reports",
		},
		Bag: BagConfig{
			Algorithms:  []ChecksumAlgorithm{AlgSHA256},
			MaxFileSize: 8 << 30,
		},
		Dropbox: DropboxConfig{
			APIURL:     "https://api.dropboxapi.com/2",
			ContentURL: "https://content.dropboxapi.com/2",
		},
	}
}

// PackageRecord is the registry view of an ingested package.
type PackageRecord struct {
	Name       string              `json:"name" xml:"name"`
	Source     string              `json:"source,omitempty" xml:"source,omitempty"`
	BagInfo    map[string][]string `json:"bag_info,omitempty" xml:"-"`
	FileCount  int                 `json:"file_count" xml:"fileCount"`
	TotalBytes int64               `json:"total_bytes" xml:"totalBytes"`
	ReportID   string              `json:"report_id,omitempty" xml:"reportId,omitempty"`
	IngestedAt time.Time           `json:"ingested_at" xml:"ingestedAt"`
}
