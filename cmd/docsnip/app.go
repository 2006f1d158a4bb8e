package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/afero"

	"docsnip/internal/checker"
	"docsnip/internal/config"
	"docsnip/internal/errors"
	"docsnip/internal/paths"
	"docsnip/internal/slogutil"
	"docsnip/internal/snippet"
	"docsnip/internal/storage"
	"docsnip/internal/variables"
)

// app holds what every command needs: the project root, its configuration
// and the run logger.
type app struct {
	root   string
	cfg    *config.Config
	logger *slog.Logger
	closer io.Closer
	db     *storage.DB
}

// newApp loads configuration for the working directory and sets up logging.
func newApp() (*app, error) {
	root, err := getProjectRoot()
	if err != nil {
		return nil, err
	}

	cfg, err := config.LoadConfig(root, configFlag)
	if err != nil {
		return nil, errors.New(errors.ConfigError, "failed to load config", err).WithPath(configFlag)
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.New(errors.ConfigError, "invalid configuration", err)
	}

	logger, closer, err := slogutil.Setup(loggerOptions(root, cfg))
	if err != nil {
		return nil, errors.New(errors.ConfigError, "failed to open log file", err).WithPath(cfg.Logging.File)
	}

	return &app{root: root, cfg: cfg, logger: logger, closer: closer}, nil
}

// loggerOptions derives the logger setup. -v/-q win over logging.level.
func loggerOptions(root string, cfg *config.Config) slogutil.Options {
	level := slogutil.LevelFromString(cfg.Logging.Level)
	if verbosity > 0 || quietFlag {
		level = slogutil.LevelFromVerbosity(verbosity, quietFlag)
	}

	opts := slogutil.Options{Console: os.Stderr, Level: level}
	if cfg.Logging.File != "" {
		opts.File = config.Resolve(root, cfg.Logging.File)
		opts.FileLevel = slog.LevelDebug
		opts.MaxSize = cfg.Logging.MaxSize
		opts.MaxBackups = cfg.Logging.MaxBackups
	}
	return opts
}

// Close releases the manifest and the log file.
func (a *app) Close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("failed to close manifest", "error", err.Error())
		}
	}
	if a.closer != nil {
		_ = a.closer.Close()
	}
}

// logPath returns the configured log file, or the default location.
func (a *app) logPath() string {
	if a.cfg.Logging.File != "" {
		return config.Resolve(a.root, a.cfg.Logging.File)
	}
	return paths.GetLogPath(a.root)
}

// manifestPath returns where the run manifest lives.
func (a *app) manifestPath() string {
	if a.cfg.Manifest.Path != "" {
		return config.Resolve(a.root, a.cfg.Manifest.Path)
	}
	return paths.GetManifestPath(a.root)
}

// openManifest opens the run manifest, or returns nil when it is disabled.
func (a *app) openManifest() (*storage.RunRepository, error) {
	if !a.cfg.Manifest.Enabled {
		return nil, nil
	}
	if a.db == nil {
		db, err := storage.Open(a.manifestPath(), a.logger)
		if err != nil {
			return nil, errors.New(errors.InternalError, "failed to open run manifest", err).WithPath(a.manifestPath())
		}
		a.db = db
	}
	return storage.NewRunRepository(a.db), nil
}

// startRecorder begins a manifest run for command. A nil recorder means the
// manifest is disabled.
func (a *app) startRecorder(command string) (*storage.Recorder, error) {
	repo, err := a.openManifest()
	if err != nil || repo == nil {
		return nil, err
	}
	rec, err := storage.NewRecorder(repo, command)
	if err != nil {
		return nil, errors.New(errors.InternalError, "failed to start run", err)
	}
	a.logger.Debug("recording run", "id", rec.Run().ID, "command", command)
	return rec, nil
}

// finishRecorder closes rec with the run's outcome. Manifest failures are
// logged, never returned, so they cannot mask the run's own error.
func (a *app) finishRecorder(rec *storage.Recorder, stats *snippet.RunStats, runErr error) {
	if rec == nil {
		return
	}
	if err := rec.Finish(stats, runErr); err != nil {
		a.logger.Warn("failed to finish run", "id", rec.Run().ID, "error", err.Error())
	}
}

// recordedRunID returns rec's run ID, or "" when nothing is recorded.
func recordedRunID(rec *storage.Recorder) string {
	if rec == nil {
		return ""
	}
	return rec.Run().ID
}

// workspaces resolves every configured toolchain's snippets root.
func (a *app) workspaces() ([]snippet.Workspace, error) {
	var out []snippet.Workspace
	for _, name := range a.cfg.Languages() {
		lang, ok := snippet.ParseLanguage(name)
		if !ok {
			return nil, errors.Newf(errors.ConfigError, "unsupported toolchain language %q", name)
		}
		out = append(out, snippet.Workspace{
			Language: lang,
			Root:     config.Resolve(a.root, a.cfg.Toolchain[name].Snippets),
		})
	}
	return out, nil
}

// loadVariables reads the configured substitution table.
func (a *app) loadVariables() (variables.Table, error) {
	return variables.Load(config.Resolve(a.root, a.cfg.Variables.Path))
}

// newPipeline builds the extraction pipeline. obs may be nil.
func (a *app) newPipeline(workers int, obs snippet.Observer) (*snippet.Pipeline, error) {
	table, err := a.loadVariables()
	if err != nil {
		return nil, err
	}
	workspaces, err := a.workspaces()
	if err != nil {
		return nil, err
	}
	if obs != nil && workers > 1 {
		obs = snippet.SerializeObserver(obs)
	}

	docs := a.cfg.Docs
	return snippet.NewPipeline(snippet.Config{
		FS: afero.NewOsFs(),
		Options: snippet.Options{
			BaseDir:     a.root,
			TopicMarker: docs.TopicMarker,
			Exclude:     docs.Exclude,
			Extensions:  docs.Extensions,
			SkipDirs:    docs.SkipDirs,
			Workers:     workers,
		},
		Workspaces:  workspaces,
		Substituter: snippet.NewSubstituter(table),
		Materializer: snippet.NewMaterializer(docs.OptionalSegmentMarker, snippet.Policy{
			ForbiddenTSCalls:    a.cfg.Policy.ForbiddenTSCalls,
			DeprecatedGoModules: a.cfg.Policy.DeprecatedGoModules,
		}),
		Observer: obs,
		Logger:   a.logger,
	}), nil
}

// toolchains converts the configured toolchains for the checker.
func (a *app) toolchains() ([]checker.Toolchain, error) {
	var out []checker.Toolchain
	for _, name := range a.cfg.Languages() {
		lang, ok := snippet.ParseLanguage(name)
		if !ok {
			return nil, errors.Newf(errors.ConfigError, "unsupported toolchain language %q", name)
		}
		tc := a.cfg.Toolchain[name]
		out = append(out, checker.Toolchain{
			Language:  lang,
			Dir:       config.Resolve(a.root, tc.Dir),
			Command:   tc.Command,
			Args:      tc.Args,
			SetupHint: tc.SetupHint,
		})
	}
	return out, nil
}

// newChecker builds a checker over the real toolchains.
func (a *app) newChecker() (*checker.Checker, error) {
	tcs, err := a.toolchains()
	if err != nil {
		return nil, err
	}
	timeout := time.Duration(a.cfg.Check.TimeoutSeconds) * time.Second
	return checker.New(newRunner(timeout), tcs, a.logger), nil
}

// newRunner builds the toolchain runner; tests swap in a MockRunner.
var newRunner = func(timeout time.Duration) checker.Runner {
	return checker.NewRealRunner(timeout)
}

// docRoots returns args, or the configured docs root when args is empty.
func (a *app) docRoots(args []string) []string {
	if len(args) > 0 {
		return args
	}
	return []string{config.Resolve(a.root, a.cfg.Docs.Root)}
}

// parseLanguages maps CLI language names. Empty input selects every
// configured language.
func (a *app) parseLanguages(args []string) ([]snippet.Language, error) {
	if len(args) == 0 {
		args = a.cfg.Languages()
	}
	langs := make([]snippet.Language, 0, len(args))
	for _, arg := range args {
		lang, ok := snippet.ParseLanguage(arg)
		if !ok {
			return nil, errors.Newf(errors.ContractError, "unknown language %q", arg).
				WithFixes(errors.FixAction{
					Type:        errors.RunCommand,
					Command:     "docsnip check go python typescript",
					Safe:        true,
					Description: "Use one of: go, python, typescript",
				})
		}
		langs = append(langs, lang)
	}
	return langs, nil
}

// getProjectRoot returns the project root directory.
func getProjectRoot() (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}
	return wd, nil
}

// newContext returns a context canceled on SIGINT/SIGTERM, so running
// toolchain commands are killed with the process.
func newContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
