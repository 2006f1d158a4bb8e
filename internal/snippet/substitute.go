package snippet

import (
	"sort"
	"strings"

	"docsnip/internal/variables"
)

// Placeholder returns the in-document form of a variable key: ^{key}.
func Placeholder(key string) string {
	return "^{" + key + "}"
}

// builtinReplacer stands in inert values for connection and API-key
// placeholders so snippets that reference them still compile.
var builtinReplacer = strings.NewReplacer(
	Placeholder("coreInjector_connection_uri_comment"), "",
	Placeholder("coreInjector_uri"), `"",`,
	Placeholder("coreInjector_api_key_commented"), "",
	Placeholder("coreInjector_api_key"), `""`,
)

// Substituter replaces placeholders in snippet bodies.
type Substituter struct {
	table variables.Table
}

// NewSubstituter creates a Substituter over a read-only variables table.
// A nil table applies only the built-in replacements.
func NewSubstituter(table variables.Table) *Substituter {
	return &Substituter{table: table}
}

// Apply runs the built-in replacements, then every ^{key} of topic's table
// entry. Topics without an entry and keys without a placeholder in body are
// not errors; unknown placeholders are left as written.
func (s *Substituter) Apply(body, topic string) string {
	body = builtinReplacer.Replace(body)

	vars, ok := s.table.Lookup(topic)
	if !ok {
		return body
	}

	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		body = strings.ReplaceAll(body, Placeholder(k), vars[k])
	}
	return body
}
