package version

import (
	"runtime/debug"
	"strings"
	"testing"
)

// pin replaces the build variables for one test and marks build info as read.
func pin(t *testing.T, version, commit, date string) {
	t.Helper()
	fillFromBuildInfo()
	origV, origC, origD := Version, Commit, BuildDate
	t.Cleanup(func() { Version, Commit, BuildDate = origV, origC, origD })
	Version, Commit, BuildDate = version, commit, date
}

func TestInfo(t *testing.T) {
	tests := []struct {
		commit string
		want   string
	}{
		{"unknown", "1.0.0"},
		{"abc", "1.0.0"},
		{"1234567", "1.0.0"},
		{"12345678", "1.0.0 (1234567)"},
		{"3f2a9c1e0d4b", "1.0.0 (3f2a9c1)"},
	}

	for _, tt := range tests {
		t.Run(tt.commit, func(t *testing.T) {
			pin(t, "1.0.0", tt.commit, "unknown")
			if got := Info(); got != tt.want {
				t.Errorf("Info() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFull(t *testing.T) {
	pin(t, "1.2.3", "abcdef123456", "2026-01-15")

	want := "docsnip version 1.2.3\nCommit: abcdef123456\nBuilt: 2026-01-15"
	if got := Full(); got != want {
		t.Errorf("Full() = %q, want %q", got, want)
	}
}

func TestApplyBuildSettings(t *testing.T) {
	settings := []debug.BuildSetting{
		{Key: "vcs.revision", Value: "feedface00"},
		{Key: "vcs.time", Value: "2026-03-01T10:00:00Z"},
	}

	pin(t, "1.0.0", "unknown", "unknown")
	applyBuildSettings(settings)
	if Commit != "feedface00" || BuildDate != "2026-03-01T10:00:00Z" {
		t.Errorf("Commit = %q, BuildDate = %q", Commit, BuildDate)
	}

	// -ldflags values win over the VCS stamp.
	pin(t, "1.0.0", "ldflagscommit", "ldflagsdate")
	applyBuildSettings(settings)
	if Commit != "ldflagscommit" || BuildDate != "ldflagsdate" {
		t.Errorf("ldflags values were overwritten: %q, %q", Commit, BuildDate)
	}
}

func TestDefaultVersionIsSemver(t *testing.T) {
	if parts := strings.Split(Version, "."); len(parts) != 3 {
		t.Errorf("Version %q doesn't appear to be semver", Version)
	}
}
