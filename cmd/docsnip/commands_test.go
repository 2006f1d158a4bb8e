package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"docsnip/internal/checker"
	"docsnip/internal/errors"
)

func TestMain(m *testing.M) {
	colorEnabled = func() bool { return false }
	os.Exit(m.Run())
}

const testConfig = `{
  "version": 1,
  "docs": {"root": "docs"},
  "variables": {"path": "vars.yaml"},
  "toolchains": {
    "go": {"snippets": "ws/go/snippets", "dir": "ws/go", "command": "sh", "args": ["-c", "exit 0"]},
    "python": {"snippets": "ws/py/snippets", "dir": "ws/py", "command": "sh",
      "args": ["-c", "echo 'E0602 undefined variable' >&2; exit 2"], "setupHint": "create the venv"}
  }
}`

const testDoc = "# Session\n\n```go\nfunc main() { println(\"^{appName}\") }\n```\n\n```bash\ngo run .\n```\n\n```python\nprint(\"^{appName}\")\n```\n"

// setupProject creates a docs project in a temp dir and makes it the
// working directory.
func setupProject(t *testing.T) string {
	t.Helper()

	root := t.TempDir()
	files := map[string]string{
		".docsnip/config.json":        testConfig,
		"vars.yaml":                   "session:\n  appName: Demo\n",
		"docs/v2/session/intro.md":    testDoc,
		"docs/v2/change_me/broken.md": "```js\nrequire('x')\n```\n",
	}
	for rel, content := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	t.Chdir(root)
	return root
}

// executeCommand runs the root command with args and returns stdout.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	verbosity, quietFlag, configFlag, formatFlag = 0, true, "", string(FormatHuman)
	historyLimit, historyPrune = 20, -1

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestExtractCommand(t *testing.T) {
	root := setupProject(t)

	out, err := executeCommand(t, "extract", "-q", "--format", "json")
	if err != nil {
		t.Fatalf("extract failed: %v\n%s", err, out)
	}

	var resp ExtractResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if resp.Stats.Files != 2 || resp.Stats.Skipped != 1 || resp.Stats.Snippets != 2 || resp.Stats.Ignored != 1 {
		t.Errorf("stats = %+v", resp.Stats)
	}
	if resp.RunID == "" {
		t.Error("extract should record a run")
	}

	goFile := filepath.Join(root, "ws", "go", "snippets", "docs", "v2", "session", "intromd0", "main.go")
	data, err := os.ReadFile(goFile)
	if err != nil {
		t.Fatalf("go snippet not written: %v", err)
	}
	if want := "package intromd0\n\nfunc main() { println(\"Demo\") }"; string(data) != want {
		t.Errorf("go snippet = %q, want %q", data, want)
	}

	if _, err := os.Stat(filepath.Join(root, "ws", "py", "snippets", "docs", "v2", "session", "intro.md1", "main.py")); err != nil {
		t.Errorf("python snippet not written: %v", err)
	}
}

func TestRunCommand_ToolchainFailure(t *testing.T) {
	setupProject(t)

	out, err := executeCommand(t, "run", "-q", "--format", "json")
	if !errors.Is(err, errors.ToolchainError) {
		t.Fatalf("run error = %v, want TOOLCHAIN_ERROR", err)
	}

	var resp RunResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if resp.Passed || resp.Check == nil {
		t.Fatalf("response = %+v", resp)
	}
	if len(resp.Check.Results) != 2 {
		t.Fatalf("got %d check results, want 2", len(resp.Check.Results))
	}
	goRes, pyRes := resp.Check.Results[0], resp.Check.Results[1]
	if !goRes.Passed {
		t.Errorf("go result = %+v", goRes)
	}
	if pyRes.Passed || pyRes.ExitCode != 2 || !strings.Contains(pyRes.Stderr, "E0602") || pyRes.Hint != "create the venv" {
		t.Errorf("python result = %+v", pyRes)
	}

	// The failed run is in the manifest with both toolchain results.
	out, err = executeCommand(t, "history", "-q", "--format", "json")
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	var hist HistoryResponse
	if err := json.Unmarshal([]byte(out), &hist); err != nil {
		t.Fatalf("history output is not JSON: %v\n%s", err, out)
	}
	if len(hist.Runs) != 1 || hist.Runs[0].Status != "failed" || hist.Runs[0].ErrorCode != "TOOLCHAIN_ERROR" {
		t.Fatalf("history = %+v", hist.Runs)
	}

	out, err = executeCommand(t, "history", "-q", "--format", "json", hist.Runs[0].ID[:8])
	if err != nil {
		t.Fatalf("history <id> failed: %v", err)
	}
	var detail RunDetailResponse
	if err := json.Unmarshal([]byte(out), &detail); err != nil {
		t.Fatalf("detail output is not JSON: %v\n%s", err, out)
	}
	if len(detail.Artifacts) != 2 || len(detail.Checks) != 2 {
		t.Errorf("detail has %d artifacts and %d checks, want 2 and 2", len(detail.Artifacts), len(detail.Checks))
	}
}

func TestCheckCommand_UnknownLanguage(t *testing.T) {
	setupProject(t)

	_, err := executeCommand(t, "check", "-q", "rust")
	if !errors.Is(err, errors.ContractError) {
		t.Errorf("check rust error = %v, want CONTRACT_ERROR", err)
	}
}

func TestExtractCommand_ClassificationError(t *testing.T) {
	root := setupProject(t)
	bad := filepath.Join(root, "docs", "v2", "session", "bad.md")
	if err := os.WriteFile(bad, []byte("```rust\nfn main() {}\n```\n"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := executeCommand(t, "extract", "-q")
	if !errors.Is(err, errors.ClassificationError) {
		t.Fatalf("extract error = %v, want CLASSIFICATION_ERROR", err)
	}
	if !strings.Contains(err.Error(), "docs/v2/session/bad.md") {
		t.Errorf("error should name the document: %v", err)
	}
}

func TestVarsCommand(t *testing.T) {
	setupProject(t)

	out, err := executeCommand(t, "vars", "-q", "--format", "yaml", "session")
	if err != nil {
		t.Fatalf("vars failed: %v", err)
	}
	if !strings.Contains(out, "topic: session") || !strings.Contains(out, "appName: Demo") {
		t.Errorf("vars output:\n%s", out)
	}
}

func TestHistoryCommand_UnknownRun(t *testing.T) {
	setupProject(t)

	_, err := executeCommand(t, "history", "-q", "ffffffff")
	if !errors.Is(err, errors.ContractError) {
		t.Errorf("history error = %v, want CONTRACT_ERROR", err)
	}
}

func TestInitCommand(t *testing.T) {
	root := t.TempDir()
	t.Chdir(root)

	out, err := executeCommand(t, "init")
	if err != nil {
		t.Fatalf("init failed: %v", err)
	}
	if !strings.Contains(out, "config.json") {
		t.Errorf("init output = %q", out)
	}
	if _, err := os.Stat(filepath.Join(root, ".docsnip", "config.json")); err != nil {
		t.Fatalf("config not written: %v", err)
	}

	out, err = executeCommand(t, "init")
	if err != nil || !strings.Contains(out, "already initialized") {
		t.Errorf("second init = %q, %v", out, err)
	}
}

func TestDoctorCommand(t *testing.T) {
	root := setupProject(t)
	if err := os.MkdirAll(filepath.Join(root, "ws", "go"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "ws", "go", "go.mod"), []byte("module snippets\n"), 0644); err != nil {
		t.Fatal(err)
	}

	mock := checker.NewMockRunner()
	mock.SetLookPath("sh", "/mock/bin/sh")
	orig := newRunner
	newRunner = func(time.Duration) checker.Runner { return mock }
	t.Cleanup(func() { newRunner = orig })

	out, err := executeCommand(t, "doctor", "-q", "--format", "json")
	if !errors.Is(err, errors.ToolchainError) || !strings.Contains(err.Error(), "python") {
		t.Fatalf("doctor error = %v, want TOOLCHAIN_ERROR naming python", err)
	}

	var resp DoctorResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if resp.Healthy {
		t.Error("doctor should report unhealthy when the venv is missing")
	}

	byLang := make(map[string]DoctorToolchainCLI)
	for _, tc := range resp.Toolchains {
		byLang[tc.Language] = tc
	}
	goTC, pyTC := byLang["go"], byLang["python"]
	if !goTC.Ready || !goTC.Found || goTC.Binary != "/mock/bin/sh" {
		t.Errorf("go = %+v, want ready with the mocked binary", goTC)
	}
	if pyTC.Ready || !pyTC.Found || pyTC.Hint != "create the venv" {
		t.Errorf("python = %+v, want found but not ready with its hint", pyTC)
	}
	var venvMissing bool
	for _, p := range pyTC.Prerequisites {
		if p.Name == "venv" && p.Required && !p.Found {
			venvMissing = true
		}
	}
	if !venvMissing {
		t.Errorf("python prerequisites = %+v, want a missing venv", pyTC.Prerequisites)
	}

	out, _ = executeCommand(t, "doctor", "-q")
	for _, want := range []string{
		"✓ go: sh -c exit 0",
		"✗ python:",
		"    binary: /mock/bin/sh",
		"venv               missing",
		"    create the venv",
		"Some toolchains are not ready.",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("human output missing %q:\n%s", want, out)
		}
	}
	if strings.Count(out, "create the venv") != 1 {
		t.Errorf("the hint should only follow the toolchain that is not ready:\n%s", out)
	}
}
