package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/viper"

	"docsnip/internal/paths"
)

// CurrentVersion is the only config schema version accepted by Validate.
const CurrentVersion = 1

// EnvPrefix prefixes every environment override, e.g. DOCSNIP_LOGGING_LEVEL.
const EnvPrefix = "DOCSNIP"

// Config represents the complete docsnip configuration
type Config struct {
	Version int `json:"version" mapstructure:"version"`

	Docs      DocsConfig                 `json:"docs" mapstructure:"docs"`
	Variables VariablesConfig            `json:"variables" mapstructure:"variables"`
	Policy    PolicyConfig               `json:"policy" mapstructure:"policy"`
	Extract   ExtractConfig              `json:"extract" mapstructure:"extract"`
	Check     CheckConfig                `json:"check" mapstructure:"check"`
	Toolchain map[string]ToolchainConfig `json:"toolchains" mapstructure:"toolchains"`
	Manifest  ManifestConfig             `json:"manifest" mapstructure:"manifest"`
	Logging   LoggingConfig              `json:"logging" mapstructure:"logging"`
}

// DocsConfig describes where documentation lives and which parts are skipped
type DocsConfig struct {
	// Root is walked when no explicit paths are given
	Root string `json:"root" mapstructure:"root"`
	// TopicMarker precedes the topic segment in a document path
	TopicMarker string `json:"topicMarker" mapstructure:"topicMarker"`
	// Exclude lists path substrings; matching documents are skipped unread
	Exclude []string `json:"exclude" mapstructure:"exclude"`
	// Extensions are the documentation file extensions picked up by a walk
	Extensions []string `json:"extensions" mapstructure:"extensions"`
	// SkipDirs are directory names never descended into
	SkipDirs []string `json:"skipDirs" mapstructure:"skipDirs"`
	// OptionalSegmentMarker is removed from paths when naming snippet folders
	OptionalSegmentMarker string `json:"optionalSegmentMarker" mapstructure:"optionalSegmentMarker"`
}

// VariablesConfig points at the topic-scoped substitution table
type VariablesConfig struct {
	Path string `json:"path" mapstructure:"path"`
}

// PolicyConfig lists forbidden snippet idioms
type PolicyConfig struct {
	// ForbiddenTSCalls are substrings rejected in TypeScript snippets
	ForbiddenTSCalls []string `json:"forbiddenTsCalls" mapstructure:"forbiddenTsCalls"`
	// DeprecatedGoModules are path segments rejected in Go snippets
	DeprecatedGoModules []string `json:"deprecatedGoModules" mapstructure:"deprecatedGoModules"`
}

// ExtractConfig controls the materialization stage
type ExtractConfig struct {
	// Workers > 1 processes distinct documents concurrently
	Workers int `json:"workers" mapstructure:"workers"`
	// Clean removes every workspace before extracting
	Clean bool `json:"clean" mapstructure:"clean"`
}

// CheckConfig controls the toolchain stage
type CheckConfig struct {
	// Parallel runs the per-language toolchains concurrently
	Parallel bool `json:"parallel" mapstructure:"parallel"`
	// TimeoutSeconds bounds each toolchain command; 0 disables the bound
	TimeoutSeconds int `json:"timeoutSeconds" mapstructure:"timeoutSeconds"`
}

// ToolchainConfig describes one language's scratch workspace and checker command
type ToolchainConfig struct {
	// Snippets is the workspace root snippets are written under
	Snippets string `json:"snippets" mapstructure:"snippets"`
	// Dir is the directory the command runs in
	Dir       string   `json:"dir" mapstructure:"dir"`
	Command   string   `json:"command" mapstructure:"command"`
	Args      []string `json:"args" mapstructure:"args"`
	SetupHint string   `json:"setupHint" mapstructure:"setupHint"`
}

// ManifestConfig controls the sqlite run manifest
type ManifestConfig struct {
	Enabled bool `json:"enabled" mapstructure:"enabled"`
	// Path defaults to .docsnip/docsnip.db under the project root
	Path string `json:"path" mapstructure:"path"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level      string `json:"level" mapstructure:"level"`
	File       string `json:"file" mapstructure:"file"`
	MaxSize    string `json:"maxSize" mapstructure:"maxSize"`
	MaxBackups int    `json:"maxBackups" mapstructure:"maxBackups"`
}

const (
	tsSetupHint = `To set up the TypeScript environment, run:
    - cd snippets/ts-env/
    - npm i
    - npm run test (to make sure that it's set up correctly)`

	goSetupHint = `Make sure that Go is installed on your system and try this command again`

	pythonSetupHint = `To set up the Python environment, run:
    - cd snippets/python-env/
    - virtualenv ./venv
    - source venv/bin/activate
    - pip install -r requirements.txt
    - pylint ./snippets (to make sure that it's set up correctly)`
)

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version: CurrentVersion,
		Docs: DocsConfig{
			Root:        ".",
			TopicMarker: "/v2/",
			Exclude: []string{
				"/v2/change_me/",
				"/v2/contribute/",
				"/v2/nodejs",
				"/v2/golang",
				"/v2/python",
				"/v2/auth-react",
				"/v2/website",
				"/v2/react-native",
			},
			Extensions:            []string{".md", ".mdx"},
			SkipDirs:              []string{"node_modules", "vendor"},
			OptionalSegmentMarker: "~",
		},
		Variables: VariablesConfig{
			Path: "",
		},
		Policy: PolicyConfig{
			ForbiddenTSCalls:    []string{"require("},
			DeprecatedGoModules: []string{"supertokens-go"},
		},
		Extract: ExtractConfig{
			Workers: 1,
		},
		Check: CheckConfig{
			TimeoutSeconds: 600,
		},
		Toolchain: map[string]ToolchainConfig{
			"typescript": {
				Snippets:  "snippets/ts-env/snippets",
				Dir:       "snippets/ts-env",
				Command:   "npm",
				Args:      []string{"run", "test"},
				SetupHint: tsSetupHint,
			},
			"go": {
				Snippets:  "snippets/go-env/snippets",
				Dir:       "snippets/go-env",
				Command:   "go",
				Args:      []string{"build", "./..."},
				SetupHint: goSetupHint,
			},
			"python": {
				Snippets:  "snippets/python-env/snippets",
				Dir:       "snippets/python-env",
				Command:   "sh",
				Args:      []string{"-c", ". venv/bin/activate && pylint ./snippets"},
				SetupHint: pythonSetupHint,
			},
		},
		Manifest: ManifestConfig{
			Enabled: true,
		},
		Logging: LoggingConfig{
			Level:      "warn",
			MaxSize:    "10MB",
			MaxBackups: 3,
		},
	}
}

// LoadConfig loads configuration from .docsnip/config.json under projectRoot,
// or from explicitPath when it is non-empty. Values not present in the file
// keep their defaults; DOCSNIP_* environment variables override both.
func LoadConfig(projectRoot, explicitPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if explicitPath != "" {
		v.SetConfigFile(explicitPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("json")
		v.AddConfigPath(paths.GetStateDir(projectRoot))
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicitPath != "" || !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// viper lower-cases map keys; languages are lower-case already.
	if len(cfg.Toolchain) == 0 {
		cfg.Toolchain = DefaultConfig().Toolchain
	}

	return &cfg, nil
}

// setDefaults registers every leaf of def with viper so env overrides and
// partial config files both resolve against the defaults.
func setDefaults(v *viper.Viper, def *Config) {
	v.SetDefault("version", def.Version)

	v.SetDefault("docs.root", def.Docs.Root)
	v.SetDefault("docs.topicMarker", def.Docs.TopicMarker)
	v.SetDefault("docs.exclude", def.Docs.Exclude)
	v.SetDefault("docs.extensions", def.Docs.Extensions)
	v.SetDefault("docs.skipDirs", def.Docs.SkipDirs)
	v.SetDefault("docs.optionalSegmentMarker", def.Docs.OptionalSegmentMarker)

	v.SetDefault("variables.path", def.Variables.Path)

	v.SetDefault("policy.forbiddenTsCalls", def.Policy.ForbiddenTSCalls)
	v.SetDefault("policy.deprecatedGoModules", def.Policy.DeprecatedGoModules)

	v.SetDefault("extract.workers", def.Extract.Workers)
	v.SetDefault("extract.clean", def.Extract.Clean)

	v.SetDefault("check.parallel", def.Check.Parallel)
	v.SetDefault("check.timeoutSeconds", def.Check.TimeoutSeconds)

	for lang, tc := range def.Toolchain {
		prefix := "toolchains." + lang + "."
		v.SetDefault(prefix+"snippets", tc.Snippets)
		v.SetDefault(prefix+"dir", tc.Dir)
		v.SetDefault(prefix+"command", tc.Command)
		v.SetDefault(prefix+"args", tc.Args)
		v.SetDefault(prefix+"setupHint", tc.SetupHint)
	}

	v.SetDefault("manifest.enabled", def.Manifest.Enabled)
	v.SetDefault("manifest.path", def.Manifest.Path)

	v.SetDefault("logging.level", def.Logging.Level)
	v.SetDefault("logging.file", def.Logging.File)
	v.SetDefault("logging.maxSize", def.Logging.MaxSize)
	v.SetDefault("logging.maxBackups", def.Logging.MaxBackups)
}

// Save writes the configuration to .docsnip/config.json
func (c *Config) Save(projectRoot string) error {
	if _, err := paths.EnsureStateDir(projectRoot); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(paths.GetConfigPath(projectRoot), data, 0644)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Version != CurrentVersion {
		return &ConfigError{Field: "version", Message: "unsupported config version"}
	}
	if c.Extract.Workers < 0 {
		return &ConfigError{Field: "extract.workers", Message: "must not be negative"}
	}
	if c.Check.TimeoutSeconds < 0 {
		return &ConfigError{Field: "check.timeoutSeconds", Message: "must not be negative"}
	}
	if len(c.Toolchain) == 0 {
		return &ConfigError{Field: "toolchains", Message: "at least one toolchain is required"}
	}
	for _, lang := range c.Languages() {
		tc := c.Toolchain[lang]
		if tc.Snippets == "" {
			return &ConfigError{Field: "toolchains." + lang + ".snippets", Message: "must not be empty"}
		}
		if tc.Command == "" {
			return &ConfigError{Field: "toolchains." + lang + ".command", Message: "must not be empty"}
		}
	}
	return nil
}

// Languages returns the configured toolchain languages in sorted order.
func (c *Config) Languages() []string {
	langs := make([]string, 0, len(c.Toolchain))
	for lang := range c.Toolchain {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}

// Resolve makes p absolute against projectRoot unless it already is.
func Resolve(projectRoot, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(projectRoot, p)
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
