// Package version holds build-time version information for docsnip.
package version

import (
	"runtime/debug"
	"sync"
)

// Set at build time:
//
//	go build -ldflags "-X docsnip/internal/version.Version=1.0.0 -X docsnip/internal/version.Commit=abc123"
var (
	Version   = "0.4.0"
	Commit    = "unknown"
	BuildDate = "unknown"
)

var vcsOnce sync.Once

// fillFromBuildInfo takes the commit and date from the VCS stamp that
// `go build` embeds when they were not set with -ldflags.
func fillFromBuildInfo() {
	vcsOnce.Do(func() {
		info, ok := debug.ReadBuildInfo()
		if !ok {
			return
		}
		applyBuildSettings(info.Settings)
	})
}

func applyBuildSettings(settings []debug.BuildSetting) {
	for _, s := range settings {
		switch s.Key {
		case "vcs.revision":
			if Commit == "unknown" && s.Value != "" {
				Commit = s.Value
			}
		case "vcs.time":
			if BuildDate == "unknown" && s.Value != "" {
				BuildDate = s.Value
			}
		}
	}
}

// Info returns the version with the abbreviated commit when known,
// e.g. "0.4.0 (3f2a9c1)".
func Info() string {
	fillFromBuildInfo()
	if Commit != "unknown" && len(Commit) > 7 {
		return Version + " (" + Commit[:7] + ")"
	}
	return Version
}

// Full returns complete version information
func Full() string {
	fillFromBuildInfo()
	return "docsnip version " + Version + "\n" +
		"Commit: " + Commit + "\n" +
		"Built: " + BuildDate
}
