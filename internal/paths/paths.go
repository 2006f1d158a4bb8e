// Package paths resolves the on-disk locations docsnip reads from and writes to.
package paths

import (
	"os"
	"path"
	"path/filepath"
	"strings"
)

// StateDirName is the per-project directory holding config, logs and the run manifest.
const StateDirName = ".docsnip"

// CanonicalizePath converts an absolute path to a root-relative canonical path
// - Resolves symlinks to real paths
// - Makes path relative to root
// - Returns the relative path with forward slashes
func CanonicalizePath(absolutePath string, root string) (string, error) {
	resolved, err := filepath.EvalSymlinks(absolutePath)
	if err != nil {
		// If the file doesn't exist yet, use the path as-is
		if os.IsNotExist(err) {
			resolved = absolutePath
		} else {
			return "", err
		}
	}

	rootResolved, err := filepath.EvalSymlinks(root)
	if err != nil {
		if os.IsNotExist(err) {
			rootResolved = root
		} else {
			return "", err
		}
	}

	relativePath, err := filepath.Rel(rootResolved, resolved)
	if err != nil {
		return "", err
	}

	return filepath.ToSlash(relativePath), nil
}

// IsWithin checks if a path is within root
func IsWithin(p string, root string) bool {
	canonical, err := CanonicalizePath(p, root)
	if err != nil {
		return false
	}
	return canonical != ".." && !strings.HasPrefix(canonical, "../")
}

// NormalizePath converts backslashes to forward slashes
func NormalizePath(p string) string {
	return filepath.ToSlash(p)
}

// Confine cleans a slash path and anchors it below an imaginary root, so the
// result never starts with "/" or "..". "a/../../b" becomes "b".
func Confine(p string) string {
	cleaned := path.Clean("/" + NormalizePath(p))
	return strings.TrimPrefix(cleaned, "/")
}

// JoinRootPath joins a root with a canonical (slash) path
func JoinRootPath(root string, canonicalPath string) string {
	normalizedPath := strings.ReplaceAll(canonicalPath, "\\", "/")
	parts := strings.Split(normalizedPath, "/")
	return filepath.Join(append([]string{root}, parts...)...)
}

// GetStateDir returns <projectRoot>/.docsnip
func GetStateDir(projectRoot string) string {
	return filepath.Join(projectRoot, StateDirName)
}

// EnsureStateDir creates <projectRoot>/.docsnip if needed and returns it.
func EnsureStateDir(projectRoot string) (string, error) {
	dir := GetStateDir(projectRoot)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}

// GetConfigPath returns <projectRoot>/.docsnip/config.json
func GetConfigPath(projectRoot string) string {
	return filepath.Join(GetStateDir(projectRoot), "config.json")
}

// GetManifestPath returns <projectRoot>/.docsnip/docsnip.db
func GetManifestPath(projectRoot string) string {
	return filepath.Join(GetStateDir(projectRoot), "docsnip.db")
}

// GetLogPath returns <projectRoot>/.docsnip/logs/docsnip.log
func GetLogPath(projectRoot string) string {
	return filepath.Join(GetStateDir(projectRoot), "logs", "docsnip.log")
}
