// Package version holds build information, set at build time:
//
//	go build -ldflags "-X sampass/internal/version.Version=1.2.0 -X sampass/internal/version.Commit=abc123"
package version

import (
	"fmt"
	"runtime/debug"
)

var (
	Version = "dev"
	Commit  = ""
	Date    = ""
)

// String renders "sampass <version> (commit: <c>, built: <d>, <go>)".
func String() string {
	commit, date := Commit, Date
	goVersion := "unknown"
	if bi, ok := debug.ReadBuildInfo(); ok {
		goVersion = bi.GoVersion
		for _, s := range bi.Settings {
			if s.Key == "vcs.revision" && commit == "" {
				commit = s.Value
			}
		}
	}
	if commit == "" {
		commit = "unknown"
	}
	if date == "" {
		date = "unknown"
	}
	return fmt.Sprintf("sampass %s (commit: %s, built: %s, %s)", Version, commit, date, goVersion)
}
