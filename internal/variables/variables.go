// Package variables loads the topic-scoped placeholder table applied to
// documentation snippets before they are checked.
package variables

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"docsnip/internal/errors"
)

// Table maps a topic identifier to its placeholder key → replacement pairs.
// A Table is built once per run and never modified afterwards.
type Table map[string]map[string]string

// Lookup returns the replacements for topic and whether the topic has any.
func (t Table) Lookup(topic string) (map[string]string, bool) {
	if t == nil || topic == "" {
		return nil, false
	}
	m, ok := t[topic]
	return m, ok
}

// Topics returns the topics in sorted order.
func (t Table) Topics() []string {
	topics := make([]string, 0, len(t))
	for topic := range t {
		topics = append(topics, topic)
	}
	sort.Strings(topics)
	return topics
}

// Load reads a table from path. The format follows the extension:
// .json, .yaml/.yml or .toml. An empty path yields an empty table.
func Load(path string) (Table, error) {
	if path == "" {
		return Table{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New(errors.ConfigError, "failed to read variables table", err).WithPath(path)
	}

	table, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return nil, errors.New(errors.ConfigError, "failed to parse variables table", err).WithPath(path)
	}
	return table, nil
}

// Parse decodes data according to ext (".json", ".yaml", ".yml", ".toml").
func Parse(data []byte, ext string) (Table, error) {
	table := Table{}

	switch strings.ToLower(ext) {
	case ".json":
		if err := json.Unmarshal(data, &table); err != nil {
			return nil, err
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &table); err != nil {
			return nil, err
		}
	case ".toml":
		if err := toml.Unmarshal(data, &table); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported variables table format %q", ext)
	}

	// An empty document decodes to nil with yaml.v3.
	if table == nil {
		table = Table{}
	}
	return table, nil
}
