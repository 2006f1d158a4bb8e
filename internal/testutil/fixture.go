// Package testutil provides testing utilities for golden tests.
package testutil

import (
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"testing"

	"github.com/spf13/afero"
)

// FixtureContext holds information about a loaded fixture.
type FixtureContext struct {
	// Name is the fixture directory name under testdata/fixtures
	Name string

	// Root is the absolute path to the fixture directory
	Root string

	// ExpectedDir is the path to the expected/ directory
	ExpectedDir string
}

// LoadFixture loads a fixture, failing the test on error.
func LoadFixture(t *testing.T, name string) *FixtureContext {
	t.Helper()

	fixtureDir := filepath.Join(getFixturesRoot(t), name)
	if _, err := os.Stat(fixtureDir); os.IsNotExist(err) {
		t.Fatalf("Fixture directory not found: %s", fixtureDir)
	}

	return &FixtureContext{
		Name:        name,
		Root:        fixtureDir,
		ExpectedDir: filepath.Join(fixtureDir, "expected"),
	}
}

// ExpectedPath returns the path to a golden file within the fixture.
// The name should not include the .json extension.
func (f *FixtureContext) ExpectedPath(name string) string {
	return filepath.Join(f.ExpectedDir, name+".json")
}

// Path returns the absolute path of a file inside the fixture.
func (f *FixtureContext) Path(rel string) string {
	return filepath.Join(f.Root, filepath.FromSlash(rel))
}

// MemFS copies the fixture (minus expected/) into a fresh in-memory
// filesystem rooted at "/", so tests can write freely.
func (f *FixtureContext) MemFS(t *testing.T) afero.Fs {
	t.Helper()

	src := afero.NewReadOnlyFs(afero.NewBasePathFs(afero.NewOsFs(), f.Root))
	dst := afero.NewMemMapFs()

	err := afero.Walk(src, "/", func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if info.Name() == "expected" {
				return filepath.SkipDir
			}
			return dst.MkdirAll(p, 0o755)
		}
		data, err := afero.ReadFile(src, p)
		if err != nil {
			return err
		}
		return afero.WriteFile(dst, p, data, 0o644)
	})
	if err != nil {
		t.Fatalf("Failed to copy fixture %s: %v", f.Name, err)
	}
	return dst
}

// DumpTree returns every regular file below root keyed by its slash path
// relative to root.
func DumpTree(t *testing.T, fsys afero.Fs, root string) map[string]string {
	t.Helper()

	files := make(map[string]string)
	err := afero.Walk(fsys, root, func(p string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		data, err := afero.ReadFile(fsys, p)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		files[filepath.ToSlash(rel)] = string(data)
		return nil
	})
	if err != nil {
		t.Fatalf("Failed to dump %s: %v", root, err)
	}
	return files
}

// SortedKeys returns the keys of a DumpTree result in order.
func SortedKeys(files map[string]string) []string {
	keys := make([]string, 0, len(files))
	for k := range files {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// WriteFiles creates each slash path below root in fsys with its content.
func WriteFiles(t *testing.T, fsys afero.Fs, root string, files map[string]string) {
	t.Helper()

	for rel, content := range files {
		p := path.Join(root, rel)
		if strings.Contains(rel, "\\") {
			t.Fatalf("WriteFiles expects slash paths, got %q", rel)
		}
		if err := fsys.MkdirAll(path.Dir(p), 0o755); err != nil {
			t.Fatalf("MkdirAll %s: %v", p, err)
		}
		if err := afero.WriteFile(fsys, p, []byte(content), 0o644); err != nil {
			t.Fatalf("WriteFile %s: %v", p, err)
		}
	}
}

// getFixturesRoot returns the absolute path to testdata/fixtures/.
func getFixturesRoot(t *testing.T) string {
	t.Helper()

	// Get the directory of this source file
	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("Failed to get caller information")
	}

	// Navigate from internal/testutil to project root
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(thisFile)))
	fixturesRoot := filepath.Join(projectRoot, "testdata", "fixtures")

	if _, err := os.Stat(fixturesRoot); os.IsNotExist(err) {
		t.Fatalf("Fixtures root not found: %s", fixturesRoot)
	}

	return fixturesRoot
}
