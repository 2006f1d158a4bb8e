package variables

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"docsnip/internal/errors"
)

func expectedTable() Table {
	return Table{
		"emailpassword": {
			"appInfo_apiDomain":        `"https://api.example.com"`,
			"recipeNameCapitalLetters": "EmailPassword",
		},
		"session": {
			"recipeNameCapitalLetters": "Session",
		},
	}
}

func TestLoad_Formats(t *testing.T) {
	for _, name := range []string{"markdownVariables.json", "markdownVariables.yaml", "markdownVariables.toml"} {
		t.Run(name, func(t *testing.T) {
			table, err := Load(filepath.Join("testdata", name))
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			if diff := cmp.Diff(expectedTable(), table); diff != "" {
				t.Errorf("table mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLoad_EmptyPath(t *testing.T) {
	table, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") failed: %v", err)
	}
	if len(table) != 0 {
		t.Errorf("expected empty table, got %v", table)
	}
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "vars.json")
	if err := os.WriteFile(bad, []byte(`{"topic": "not-a-map"}`), 0644); err != nil {
		t.Fatal(err)
	}
	unsupported := filepath.Join(dir, "vars.ini")
	if err := os.WriteFile(unsupported, []byte("a=b"), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		path string
	}{
		{"missing", filepath.Join(dir, "missing.json")},
		{"wrong shape", bad},
		{"unsupported extension", unsupported},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.path)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, errors.ConfigError) {
				t.Errorf("expected CONFIG_ERROR, got %v", err)
			}
		})
	}
}

func TestParse_EmptyYAML(t *testing.T) {
	table, err := Parse([]byte(""), ".yaml")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if table == nil || len(table) != 0 {
		t.Errorf("expected empty non-nil table, got %#v", table)
	}
}

func TestTable_Lookup(t *testing.T) {
	table := expectedTable()

	if m, ok := table.Lookup("session"); !ok || m["recipeNameCapitalLetters"] != "Session" {
		t.Errorf("Lookup(session) = %v, %v", m, ok)
	}
	if _, ok := table.Lookup("thirdparty"); ok {
		t.Error("Lookup of absent topic should report false")
	}
	if _, ok := table.Lookup(""); ok {
		t.Error("Lookup of empty topic should report false")
	}

	var nilTable Table
	if _, ok := nilTable.Lookup("session"); ok {
		t.Error("Lookup on nil table should report false")
	}

	if diff := cmp.Diff([]string{"emailpassword", "session"}, table.Topics()); diff != "" {
		t.Errorf("Topics mismatch (-want +got):\n%s", diff)
	}
}
