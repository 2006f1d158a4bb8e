package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Version != CurrentVersion {
		t.Errorf("Version = %d, want %d", cfg.Version, CurrentVersion)
	}

	if cfg.Docs.TopicMarker != "/v2/" {
		t.Errorf("TopicMarker = %q, want %q", cfg.Docs.TopicMarker, "/v2/")
	}
	if cfg.Docs.OptionalSegmentMarker != "~" {
		t.Errorf("OptionalSegmentMarker = %q, want %q", cfg.Docs.OptionalSegmentMarker, "~")
	}
	wantExclude := []string{
		"/v2/change_me/", "/v2/contribute/", "/v2/nodejs", "/v2/golang",
		"/v2/python", "/v2/auth-react", "/v2/website", "/v2/react-native",
	}
	if diff := cmp.Diff(wantExclude, cfg.Docs.Exclude); diff != "" {
		t.Errorf("default Exclude mismatch (-want +got):\n%s", diff)
	}

	wantLangs := []string{"go", "python", "typescript"}
	if diff := cmp.Diff(wantLangs, cfg.Languages()); diff != "" {
		t.Errorf("Languages() mismatch (-want +got):\n%s", diff)
	}

	for _, lang := range wantLangs {
		tc := cfg.Toolchain[lang]
		if tc.Command == "" {
			t.Errorf("toolchain %s has no command", lang)
		}
		if tc.SetupHint == "" {
			t.Errorf("toolchain %s has no setup hint", lang)
		}
	}

	if cfg.Extract.Workers != 1 {
		t.Errorf("Workers = %d, want 1", cfg.Extract.Workers)
	}
	if !cfg.Manifest.Enabled {
		t.Error("Manifest should be enabled by default")
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadConfig_Missing(t *testing.T) {
	root := t.TempDir()

	cfg, err := LoadConfig(root, "")
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if diff := cmp.Diff(DefaultConfig(), cfg); diff != "" {
		t.Errorf("missing config should equal defaults (-want +got):\n%s", diff)
	}
}

func TestLoadConfig_PartialFile(t *testing.T) {
	root := t.TempDir()
	stateDir := filepath.Join(root, ".docsnip")
	if err := os.MkdirAll(stateDir, 0755); err != nil {
		t.Fatal(err)
	}

	content := `{
  "version": 1,
  "docs": {"root": "site/docs", "exclude": ["/v2/legacy/"]},
  "variables": {"path": "site/markdownVariables.json"},
  "toolchains": {"go": {"args": ["vet", "./..."]}}
}`
	if err := os.WriteFile(filepath.Join(stateDir, "config.json"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(root, "")
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Docs.Root != "site/docs" {
		t.Errorf("Docs.Root = %q, want %q", cfg.Docs.Root, "site/docs")
	}
	if diff := cmp.Diff([]string{"/v2/legacy/"}, cfg.Docs.Exclude); diff != "" {
		t.Errorf("Exclude mismatch (-want +got):\n%s", diff)
	}
	if cfg.Docs.TopicMarker != "/v2/" {
		t.Errorf("TopicMarker should keep its default, got %q", cfg.Docs.TopicMarker)
	}
	if cfg.Variables.Path != "site/markdownVariables.json" {
		t.Errorf("Variables.Path = %q", cfg.Variables.Path)
	}

	goTC := cfg.Toolchain["go"]
	if diff := cmp.Diff([]string{"vet", "./..."}, goTC.Args); diff != "" {
		t.Errorf("go args mismatch (-want +got):\n%s", diff)
	}
	if goTC.Command != "go" {
		t.Errorf("go command should keep its default, got %q", goTC.Command)
	}
	if _, ok := cfg.Toolchain["python"]; !ok {
		t.Error("python toolchain should keep its default")
	}
}

func TestLoadConfig_ExplicitPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ci.json")
	if err := os.WriteFile(path, []byte(`{"check": {"parallel": true, "timeoutSeconds": 30}}`), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(t.TempDir(), path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if !cfg.Check.Parallel {
		t.Error("Check.Parallel should be true")
	}
	if cfg.Check.TimeoutSeconds != 30 {
		t.Errorf("TimeoutSeconds = %d, want 30", cfg.Check.TimeoutSeconds)
	}

	if _, err := LoadConfig(dir, filepath.Join(dir, "missing.json")); err == nil {
		t.Error("expected error for missing explicit config file")
	}
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Setenv("DOCSNIP_LOGGING_LEVEL", "debug")
	t.Setenv("DOCSNIP_EXTRACT_WORKERS", "4")

	cfg, err := LoadConfig(t.TempDir(), "")
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
	if cfg.Extract.Workers != 4 {
		t.Errorf("Extract.Workers = %d, want 4", cfg.Extract.Workers)
	}
}

func TestSaveAndLoad(t *testing.T) {
	root := t.TempDir()

	cfg := DefaultConfig()
	cfg.Docs.Root = "docs"
	cfg.Check.Parallel = true

	if err := cfg.Save(root); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := LoadConfig(root, "")
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if loaded.Docs.Root != "docs" {
		t.Errorf("Docs.Root = %q, want docs", loaded.Docs.Root)
	}
	if !loaded.Check.Parallel {
		t.Error("Check.Parallel should round-trip")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantField string
	}{
		{"valid", func(*Config) {}, ""},
		{"bad version", func(c *Config) { c.Version = 99 }, "version"},
		{"negative workers", func(c *Config) { c.Extract.Workers = -1 }, "extract.workers"},
		{"negative timeout", func(c *Config) { c.Check.TimeoutSeconds = -5 }, "check.timeoutSeconds"},
		{"no toolchains", func(c *Config) { c.Toolchain = nil }, "toolchains"},
		{"empty command", func(c *Config) {
			tc := c.Toolchain["go"]
			tc.Command = ""
			c.Toolchain["go"] = tc
		}, "toolchains.go.command"},
		{"empty snippets", func(c *Config) {
			tc := c.Toolchain["python"]
			tc.Snippets = ""
			c.Toolchain["python"] = tc
		}, "toolchains.python.snippets"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()

			if tt.wantField == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}

			cfgErr, ok := err.(*ConfigError)
			if !ok {
				t.Fatalf("expected *ConfigError, got %T (%v)", err, err)
			}
			if cfgErr.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", cfgErr.Field, tt.wantField)
			}
		})
	}
}

func TestResolve(t *testing.T) {
	if got := Resolve("/project", "docs"); got != filepath.Join("/project", "docs") {
		t.Errorf("Resolve relative = %q", got)
	}
	if got := Resolve("/project", "/abs/docs"); got != "/abs/docs" {
		t.Errorf("Resolve absolute = %q", got)
	}
	if got := Resolve("/project", ""); got != "" {
		t.Errorf("Resolve empty = %q", got)
	}
}
