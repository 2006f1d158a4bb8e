package snippet

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"docsnip/internal/errors"
	"docsnip/internal/paths"
	"docsnip/internal/slogutil"
)

// Observer is notified after each artifact is written.
type Observer interface {
	ArtifactWritten(ctx context.Context, art Artifact) error
}

// Cleaner is implemented by writers that can empty a workspace.
type Cleaner interface {
	Clean(ws Workspace) error
}

// Options controls which documents a Pipeline reads and how they are named.
type Options struct {
	// BaseDir, when set, makes document paths relative to it before naming.
	BaseDir string
	// TopicMarker precedes the topic segment in a document path.
	TopicMarker string
	// Exclude lists path substrings; matching documents are skipped unread.
	Exclude []string
	// Extensions selects documentation files during a directory walk.
	Extensions []string
	// SkipDirs are directory names never descended into.
	SkipDirs []string
	// Workers > 1 processes distinct documents concurrently.
	Workers int
}

// Config wires a Pipeline's collaborators.
type Config struct {
	FS           afero.Fs
	Options      Options
	Workspaces   []Workspace
	Substituter  *Substituter
	Materializer *Materializer
	// Writer defaults to an FSWriter over FS.
	Writer   Writer
	Observer Observer
	Logger   *slog.Logger
}

// Pipeline extracts snippets from documentation into language workspaces.
type Pipeline struct {
	fs           afero.Fs
	opts         Options
	workspaces   map[Language]Workspace
	substituter  *Substituter
	materializer *Materializer
	writer       Writer
	observer     Observer
	logger       *slog.Logger

	// claims maps a workspace file to the document that last wrote it.
	claimsMu sync.Mutex
	claims   map[string]string
}

// NewPipeline creates a Pipeline from cfg.
func NewPipeline(cfg Config) *Pipeline {
	fs := cfg.FS
	if fs == nil {
		fs = afero.NewOsFs()
	}
	writer := cfg.Writer
	if writer == nil {
		writer = NewFSWriter(fs)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slogutil.NewDiscardLogger()
	}
	sub := cfg.Substituter
	if sub == nil {
		sub = NewSubstituter(nil)
	}
	mat := cfg.Materializer
	if mat == nil {
		mat = NewMaterializer("", Policy{})
	}

	workspaces := make(map[Language]Workspace, len(cfg.Workspaces))
	for _, ws := range cfg.Workspaces {
		workspaces[ws.Language] = ws
	}

	return &Pipeline{
		fs:           fs,
		opts:         cfg.Options,
		workspaces:   workspaces,
		substituter:  sub,
		materializer: mat,
		writer:       writer,
		observer:     cfg.Observer,
		logger:       logger,
		claims:       make(map[string]string),
	}
}

// Workspace returns the workspace configured for lang.
func (p *Pipeline) Workspace(lang Language) (Workspace, bool) {
	ws, ok := p.workspaces[lang]
	return ws, ok
}

// Excluded reports whether docPath matches one of the exclusion substrings.
func (p *Pipeline) Excluded(docPath string) bool {
	anchored := "/" + strings.TrimPrefix(docPath, "/")
	for _, ex := range p.opts.Exclude {
		if ex != "" && strings.Contains(anchored, ex) {
			return true
		}
	}
	return false
}

// documentPath returns the slash path that names path's snippets.
func (p *Pipeline) documentPath(path string) string {
	if p.opts.BaseDir != "" {
		if rel, err := filepath.Rel(p.opts.BaseDir, path); err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return paths.NormalizePath(rel)
		}
	}
	return paths.NormalizePath(path)
}

// ProcessFile extracts every checkable block of one documentation file into
// the workspaces. Excluded files are skipped before they are read. The first
// error stops processing and carries the document path.
func (p *Pipeline) ProcessFile(ctx context.Context, path string) (*FileResult, error) {
	docPath := p.documentPath(path)
	result := &FileResult{Path: docPath}

	if p.Excluded(docPath) {
		result.Skipped = true
		p.logger.Debug("skipping excluded document", "path", docPath)
		return result, nil
	}

	content, err := afero.ReadFile(p.fs, path)
	if err != nil {
		return nil, errors.New(errors.FormatError, "failed to read document", err).WithPath(docPath)
	}

	doc := NewDocument(docPath, string(content), p.opts.TopicMarker)
	result.Topic = doc.Topic

	ordinal := 0
	for fence, err := range Fences(doc.Content) {
		if err != nil {
			return nil, errors.AttachPath(err, doc.Path)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		lang := fence.Language
		if lang == LangIgnore {
			result.Ignored++
			continue
		}

		fence.Body = p.substituter.Apply(fence.Body, doc.Topic)
		block := Block{Fence: fence, Language: lang, Ordinal: ordinal}

		art, err := p.materializer.Materialize(doc, block)
		if err != nil {
			return nil, errors.AttachPath(err, doc.Path)
		}

		ws, ok := p.workspaces[lang]
		if !ok {
			return nil, errors.Newf(errors.ContractError, "no workspace configured for %s", lang).WithPath(doc.Path)
		}
		p.claim(lang, art)
		if err := p.writer.Write(ctx, ws, art); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, errors.AttachPath(err, doc.Path)
		}
		if p.observer != nil {
			if err := p.observer.ArtifactWritten(ctx, art); err != nil {
				return nil, errors.AttachPath(err, doc.Path)
			}
		}

		p.logger.Debug("materialized snippet",
			"doc", doc.Path,
			"ordinal", ordinal,
			"language", string(lang),
			"file", art.Path,
		)
		result.Artifacts = append(result.Artifacts, art)
		ordinal++
	}

	return result, nil
}

// ProcessPaths processes files and every documentation file below the given
// directories. Files are processed in lexical order; with Workers > 1
// distinct files run concurrently and the first error cancels the rest.
func (p *Pipeline) ProcessPaths(ctx context.Context, roots []string) (*RunStats, error) {
	files, err := p.CollectFiles(roots)
	if err != nil {
		return nil, err
	}

	results := make([]*FileResult, len(files))

	if p.opts.Workers <= 1 {
		for i, f := range files {
			r, err := p.ProcessFile(ctx, f)
			if err != nil {
				return nil, err
			}
			results[i] = r
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(p.opts.Workers)
		for i, f := range files {
			g.Go(func() error {
				r, err := p.ProcessFile(gctx, f)
				if err != nil {
					return err
				}
				results[i] = r
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	stats := &RunStats{ByLanguage: make(map[Language]int)}
	for _, r := range results {
		stats.add(r)
	}

	p.logger.Info("extraction finished",
		"files", stats.Files,
		"skipped", stats.Skipped,
		"snippets", stats.Snippets,
		"ignored", stats.Ignored,
	)
	return stats, nil
}

// CollectFiles expands roots into documentation files, de-duplicated and
// sorted. Explicit file arguments are kept whatever their extension.
func (p *Pipeline) CollectFiles(roots []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	add := func(f string) {
		if !seen[f] {
			seen[f] = true
			files = append(files, f)
		}
	}

	for _, root := range roots {
		info, err := p.fs.Stat(root)
		if err != nil {
			return nil, errors.New(errors.FormatError, "cannot access documentation path", err).WithPath(root)
		}
		if !info.IsDir() {
			add(root)
			continue
		}

		err = afero.Walk(p.fs, root, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() {
				if path != root && p.skipDir(info.Name()) {
					return filepath.SkipDir
				}
				return nil
			}
			if p.isDocumentation(path) {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, errors.New(errors.FormatError, "failed to walk documentation", err).WithPath(root)
		}
	}

	sort.Strings(files)
	return files, nil
}

func (p *Pipeline) skipDir(name string) bool {
	if strings.HasPrefix(name, ".") {
		return true
	}
	for _, d := range p.opts.SkipDirs {
		if name == d {
			return true
		}
	}
	return false
}

func (p *Pipeline) isDocumentation(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range p.opts.Extensions {
		if strings.ToLower(e) == ext {
			return true
		}
	}
	return false
}

// Clean removes every workspace root. Used for full rebuilds.
func (p *Pipeline) Clean(ctx context.Context) error {
	cleaner, ok := p.writer.(Cleaner)
	if !ok {
		return errors.Newf(errors.ContractError, "writer %T cannot clean workspaces", p.writer)
	}

	langs := make([]Language, 0, len(p.workspaces))
	for lang := range p.workspaces {
		langs = append(langs, lang)
	}
	sort.Slice(langs, func(i, j int) bool { return langs[i] < langs[j] })

	p.claimsMu.Lock()
	clear(p.claims)
	p.claimsMu.Unlock()

	for _, lang := range langs {
		if err := ctx.Err(); err != nil {
			return err
		}
		ws := p.workspaces[lang]
		if err := cleaner.Clean(ws); err != nil {
			return err
		}
		p.logger.Info("cleaned workspace", "language", string(lang), "root", ws.Root)
	}
	return nil
}

// claim records that art's document owns its workspace file. Go folders drop
// "-" and "." from the document name, so "a-b.md" and "ab.md" can land on the
// same file; the later write wins and a warning names both documents.
func (p *Pipeline) claim(lang Language, art Artifact) {
	key := string(lang) + ":" + art.Path

	p.claimsMu.Lock()
	prev, seen := p.claims[key]
	p.claims[key] = art.DocPath
	p.claimsMu.Unlock()

	if seen && prev != art.DocPath {
		p.logger.Warn("snippet file shared by two documents, later write wins",
			"language", string(lang),
			"file", art.Path,
			"previous", prev,
			"doc", art.DocPath,
		)
	}
}

// lockedObserver serializes an Observer for concurrent pipelines.
type lockedObserver struct {
	mu   sync.Mutex
	next Observer
}

// SerializeObserver wraps o so concurrent ArtifactWritten calls run one at
// a time.
func SerializeObserver(o Observer) Observer {
	if o == nil {
		return nil
	}
	return &lockedObserver{next: o}
}

func (l *lockedObserver) ArtifactWritten(ctx context.Context, art Artifact) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.next.ArtifactWritten(ctx, art)
}
