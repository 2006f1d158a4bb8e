package snippet

import (
	"strings"

	"docsnip/internal/errors"
)

// ignoredTagFragments mark fences that hold shell, data or prose.
var ignoredTagFragments = []string{"bash", "yaml", "cql", "sql", "batch", "text", "json"}

// Classify maps a fence's opening line (e.g. "```tsx title=App") to its
// Language. Rules are applied in order and are case-sensitive:
//
//	js, jsx          -> CLASSIFICATION_ERROR (snippets must be typed)
//	ts, tsx          -> typescript
//	go               -> go
//	python           -> python
//	contains bash, yaml, cql, sql, batch, text or json -> ignore
//	anything else    -> CLASSIFICATION_ERROR
func Classify(tag string) (Language, error) {
	switch {
	case hasTag(tag, "js"), hasTag(tag, "jsx"):
		return "", errors.Newf(errors.ClassificationError,
			"js/jsx code fences are forbidden, use ts or tsx instead (found %q)", tag)
	case hasTag(tag, "ts"), hasTag(tag, "tsx"):
		return LangTypeScript, nil
	case hasTag(tag, "go"):
		return LangGo, nil
	case hasTag(tag, "python"):
		return LangPython, nil
	}

	for _, frag := range ignoredTagFragments {
		if strings.Contains(tag, frag) {
			return LangIgnore, nil
		}
	}

	return "", errors.Newf(errors.ClassificationError, "unrecognized language tag %q", tag)
}

// hasTag reports whether line is ```name, optionally followed by a space
// and annotation text.
func hasTag(line, name string) bool {
	opening := fenceToken + name
	return line == opening || strings.HasPrefix(line, opening+" ")
}
