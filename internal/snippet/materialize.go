package snippet

import (
	"path"
	"strconv"
	"strings"

	"docsnip/internal/errors"
	"docsnip/internal/paths"
)

// Policy lists idioms that are rejected before a snippet reaches a toolchain.
type Policy struct {
	// ForbiddenTSCalls are substrings rejected in TypeScript snippets,
	// e.g. "require(" since examples must use static imports.
	ForbiddenTSCalls []string
	// DeprecatedGoModules are module path segments rejected in Go snippets.
	DeprecatedGoModules []string
}

const tsPrelude = "export { }\n"

var goPackageSanitizer = strings.NewReplacer("-", "", ".", "")

// Materializer computes where a block lives in its workspace and what the
// written file contains. It never touches the filesystem.
type Materializer struct {
	optionalMarker string
	policy         Policy
}

// NewMaterializer creates a Materializer. optionalMarker is the character
// documentation paths use to mark optional segments; it is dropped from
// snippet folder names.
func NewMaterializer(optionalMarker string, policy Policy) *Materializer {
	return &Materializer{optionalMarker: optionalMarker, policy: policy}
}

// FolderName returns the snippet folder for the ordinal-th block of docPath,
// e.g. "docs/v2/session/intro.md0". Distinct documents and ordinals never
// share a folder.
func (m *Materializer) FolderName(docPath string, ordinal int) string {
	p := docPath
	if m.optionalMarker != "" {
		p = strings.ReplaceAll(p, m.optionalMarker, "")
	}
	return paths.Confine(p) + strconv.Itoa(ordinal)
}

// GoPackageName strips hyphens and dots from a folder segment:
// "my-example.v1" becomes "myexamplev1".
func GoPackageName(segment string) string {
	return goPackageSanitizer.Replace(segment)
}

// Materialize builds the artifact for block, whose body has already been
// substituted.
func (m *Materializer) Materialize(doc Document, block Block) (Artifact, error) {
	folder := m.FolderName(doc.Path, block.Ordinal)
	art := Artifact{
		Language: block.Language,
		DocPath:  doc.Path,
		Ordinal:  block.Ordinal,
	}

	switch block.Language {
	case LangTypeScript:
		for _, call := range m.policy.ForbiddenTSCalls {
			if strings.Contains(block.Body, call) {
				return Artifact{}, errors.Newf(errors.PolicyViolation,
					"TypeScript snippet (line %d) uses %q; use static imports", block.StartLine, call).WithPath(doc.Path)
			}
		}
		art.Dir = folder
		art.Path = path.Join(folder, "index.tsx")
		art.Content = tsPrelude + block.Body

	case LangGo:
		for _, mod := range m.policy.DeprecatedGoModules {
			if referencesModule(block.Body, mod) {
				return Artifact{}, errors.Newf(errors.PolicyViolation,
					"Go snippet (line %d) imports deprecated module %q", block.StartLine, mod).WithPath(doc.Path)
			}
		}
		parent, last := path.Split(folder)
		pkg := GoPackageName(last)
		art.Dir = parent + pkg
		art.Path = path.Join(art.Dir, "main.go")
		art.Content = "package " + pkg + "\n" + block.Body

	case LangPython:
		art.Dir = folder
		art.Path = path.Join(folder, "main.py")
		art.Content = block.Body

	default:
		return Artifact{}, errors.Newf(errors.ContractError,
			"cannot materialize a block of language %q", block.Language).WithPath(doc.Path)
	}

	return art, nil
}

// referencesModule reports whether body mentions module as a path segment:
// "/mod/", "/mod" at end of line, or "/mod" closing an import string.
func referencesModule(body, mod string) bool {
	seg := "/" + mod
	return strings.Contains(body, seg+"/") ||
		strings.Contains(body, seg+"\n") ||
		strings.Contains(body, seg+`"`)
}
