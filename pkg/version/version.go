// Package version carries build metadata injected with -ldflags.
package version

import (
	"fmt"
	"runtime"
)

// Set at build time, e.g.
//
//	go build -ldflags "-X github.com/NERVsystems/osmscene/pkg/version.BuildVersion=v0.3.0"
var (
	BuildVersion = "dev"
	BuildCommit  = "unknown"
	BuildDate    = "unknown"
)

// Info returns build metadata as labels.
func Info() map[string]string {
	return map[string]string{
		"version":    BuildVersion,
		"commit":     BuildCommit,
		"build_date": BuildDate,
		"go_version": runtime.Version(),
	}
}

// String returns a one-line version banner.
func String() string {
	return fmt.Sprintf("osmscene %s (commit %s, built %s, %s)",
		BuildVersion, BuildCommit, BuildDate, runtime.Version())
}
