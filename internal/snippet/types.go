// Package snippet turns fenced code blocks in documentation into small,
// self-contained source files that a language toolchain can check.
//
// The pipeline for one document is: scan fences, classify each fence's tag,
// substitute placeholders, materialize a file in the language's scratch
// workspace.
package snippet

import (
	"sort"
	"strings"
)

// Language is the target language of a fenced block.
type Language string

const (
	LangTypeScript Language = "typescript"
	LangGo         Language = "go"
	LangPython     Language = "python"
	// LangIgnore marks non-code fences (shell, data, prose) that are skipped.
	LangIgnore Language = "ignore"
)

// Languages returns the checkable languages in a stable order.
func Languages() []Language {
	return []Language{LangGo, LangPython, LangTypeScript}
}

// ParseLanguage maps a language name (as used in config and on the CLI) to
// a checkable Language.
func ParseLanguage(s string) (Language, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "typescript", "ts":
		return LangTypeScript, true
	case "go", "golang":
		return LangGo, true
	case "python", "py":
		return LangPython, true
	default:
		return "", false
	}
}

// Document is one documentation file read for a run.
type Document struct {
	// Path is the slash-separated path that names the document's snippets.
	Path string
	// Topic keys the variables table; empty when the path has no topic.
	Topic   string
	Content string
}

// NewDocument builds a Document, deriving its topic from path.
func NewDocument(path, content, topicMarker string) Document {
	return Document{
		Path:    path,
		Topic:   TopicOf(path, topicMarker),
		Content: content,
	}
}

// TopicOf returns the first path segment after marker, e.g. "session" for
// "docs/v2/session/intro.md" with marker "/v2/". The path is anchored with
// a leading slash so relative paths match markers that start with "/".
func TopicOf(path, marker string) string {
	if marker == "" {
		return ""
	}
	anchored := "/" + strings.TrimPrefix(path, "/")
	idx := strings.Index(anchored, marker)
	if idx < 0 {
		return ""
	}
	rest := anchored[idx+len(marker):]
	if slash := strings.IndexByte(rest, '/'); slash >= 0 {
		return rest[:slash]
	}
	return rest
}

// Block is a classified fence with its position among the document's
// non-ignored blocks.
type Block struct {
	Fence
	Language Language
	Ordinal  int
}

// Artifact is a materialized snippet: a file path relative to the
// language's workspace root plus its full contents.
type Artifact struct {
	Language Language `json:"language"`
	DocPath  string   `json:"docPath"`
	Ordinal  int      `json:"ordinal"`
	// Dir is the snippet's folder relative to the workspace root.
	Dir string `json:"dir"`
	// Path is the source file relative to the workspace root.
	Path    string `json:"path"`
	Content string `json:"-"`
}

// Workspace is the scratch directory tree for one language.
type Workspace struct {
	Language Language
	Root     string
}

// FileResult summarizes one ProcessFile call.
type FileResult struct {
	Path      string     `json:"path"`
	Topic     string     `json:"topic,omitempty"`
	Skipped   bool       `json:"skipped,omitempty"`
	Ignored   int        `json:"ignored"`
	Artifacts []Artifact `json:"artifacts,omitempty"`
}

// RunStats aggregates the results of processing many documents.
type RunStats struct {
	Files      int              `json:"files"`
	Skipped    int              `json:"skipped"`
	Snippets   int              `json:"snippets"`
	Ignored    int              `json:"ignored"`
	ByLanguage map[Language]int `json:"byLanguage"`
	Results    []*FileResult    `json:"-"`
}

func (s *RunStats) add(r *FileResult) {
	s.Files++
	if r.Skipped {
		s.Skipped++
	}
	s.Ignored += r.Ignored
	s.Snippets += len(r.Artifacts)
	for _, a := range r.Artifacts {
		s.ByLanguage[a.Language]++
	}
	s.Results = append(s.Results, r)
}

// Languages returns the languages that received at least one snippet.
func (s *RunStats) Languages() []Language {
	langs := make([]Language, 0, len(s.ByLanguage))
	for lang, n := range s.ByLanguage {
		if n > 0 {
			langs = append(langs, lang)
		}
	}
	sort.Slice(langs, func(i, j int) bool { return langs[i] < langs[j] })
	return langs
}
