// Package buildinfo carries version metadata stamped at link time:
//
//	go build -ldflags "-X .../internal/buildinfo.Version=v1.2.0"
package buildinfo

import (
	"fmt"
	"runtime"
)

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

func String() string {
	return fmt.Sprintf("dcs %s (commit=%s, date=%s, %s)", Version, Commit, Date, runtime.Version())
}
