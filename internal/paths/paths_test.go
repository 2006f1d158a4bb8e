package paths

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCanonicalizePath(t *testing.T) {
	root := t.TempDir()
	docs := filepath.Join(root, "docs", "v2", "session")
	if err := os.MkdirAll(docs, 0755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	file := filepath.Join(docs, "intro.md")
	if err := os.WriteFile(file, []byte("# intro\n"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	got, err := CanonicalizePath(file, root)
	if err != nil {
		t.Fatalf("CanonicalizePath failed: %v", err)
	}
	if got != "docs/v2/session/intro.md" {
		t.Errorf("CanonicalizePath = %q, want %q", got, "docs/v2/session/intro.md")
	}

	// Non-existent files are still canonicalized
	missing := filepath.Join(root, "docs", "missing.md")
	got, err = CanonicalizePath(missing, root)
	if err != nil {
		t.Fatalf("CanonicalizePath(missing) failed: %v", err)
	}
	if got != "docs/missing.md" {
		t.Errorf("CanonicalizePath(missing) = %q", got)
	}
}

func TestIsWithin(t *testing.T) {
	root := t.TempDir()

	if !IsWithin(filepath.Join(root, "a", "b.md"), root) {
		t.Error("expected nested path to be within root")
	}
	if IsWithin(filepath.Join(filepath.Dir(root), "elsewhere.md"), root) {
		t.Error("expected sibling path to be outside root")
	}
}

func TestConfine(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"docs/v2/intro.md", "docs/v2/intro.md"},
		{"/abs/docs/intro.md", "abs/docs/intro.md"},
		{"../outside/intro.md", "outside/intro.md"},
		{"a/../../b.md", "b.md"},
		{"./a//b.md", "a/b.md"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := Confine(tt.in); got != tt.want {
				t.Errorf("Confine(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestJoinRootPath(t *testing.T) {
	got := JoinRootPath("/ws", "a/b/c.go")
	want := filepath.Join("/ws", "a", "b", "c.go")
	if got != want {
		t.Errorf("JoinRootPath = %q, want %q", got, want)
	}
}

func TestStatePaths(t *testing.T) {
	root := t.TempDir()

	dir, err := EnsureStateDir(root)
	if err != nil {
		t.Fatalf("EnsureStateDir failed: %v", err)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Fatalf("state dir not created: %v", err)
	}

	// Idempotent
	if _, err := EnsureStateDir(root); err != nil {
		t.Fatalf("second EnsureStateDir failed: %v", err)
	}

	for _, p := range []string{GetConfigPath(root), GetManifestPath(root), GetLogPath(root)} {
		if !strings.HasPrefix(p, dir) {
			t.Errorf("%s is not under %s", p, dir)
		}
	}
}
