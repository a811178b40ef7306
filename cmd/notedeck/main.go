// Command notedeck is a terminal client for a notes API.
package main

import (
	"errors"
	"fmt"
	"os"
	"runtime/debug"
)

// Version is set at build time via ldflags.
var Version = ""

func main() {
	if err := newRootCmd().Execute(); err != nil {
		// Commands that already explained the failure return errReported.
		if !errors.Is(err, errReported) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

// effectiveVersion returns the version to display.
// Priority: ldflags Version > module version > VCS revision > "devel".
func effectiveVersion(v string) string {
	if v != "" {
		return v
	}

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}

	if info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}

	var revision string
	var dirty bool
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value
		case "vcs.modified":
			dirty = setting.Value == "true"
		}
	}

	if revision != "" {
		ver := "devel+" + getShortRevision(revision)
		if dirty {
			ver += "+dirty"
		}
		return ver
	}

	return "devel"
}

func getShortRevision(rev string) string {
	if len(rev) > 12 {
		return rev[:12]
	}
	return rev
}
