package checker

import (
	"context"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// Runner abstracts command execution for testability.
type Runner interface {
	// LookPath checks if a binary exists in PATH.
	LookPath(name string) (string, error)

	// Run executes a command in dir and returns its trimmed output.
	Run(ctx context.Context, dir, name string, args ...string) (stdout, stderr string, err error)
}

// DefaultMaxOutput caps each captured stream; compiler output past it is
// dropped from the front.
const DefaultMaxOutput = 1 << 20

// RealRunner runs toolchain commands with os/exec.
type RealRunner struct {
	// Timeout bounds each command; zero means no bound.
	Timeout time.Duration
	// Env is appended to the inherited environment.
	Env []string
	// MaxOutput caps each stream in bytes, keeping the tail.
	MaxOutput int
}

// NewRealRunner creates a runner with the given timeout. Toolchains run with
// colors disabled so captured output stays readable.
func NewRealRunner(timeout time.Duration) *RealRunner {
	return &RealRunner{
		Timeout:   timeout,
		Env:       []string{"NO_COLOR=1", "FORCE_COLOR=0"},
		MaxOutput: DefaultMaxOutput,
	}
}

// LookPath checks if a binary exists in PATH.
func (r *RealRunner) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

// Run executes name in dir. When ctx ends first the returned error is
// ctx.Err(), not the kill signal.
func (r *RealRunner) Run(ctx context.Context, dir, name string, args ...string) (string, string, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	if len(r.Env) > 0 {
		cmd.Env = append(os.Environ(), r.Env...)
	}
	// npm and sh leave children holding the pipes after a kill.
	cmd.WaitDelay = 2 * time.Second

	stdout := &tailBuffer{max: r.MaxOutput}
	stderr := &tailBuffer{max: r.MaxOutput}
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	err := cmd.Run()
	if err != nil && ctx.Err() != nil {
		err = ctx.Err()
	}
	return stdout.String(), stderr.String(), err
}

// tailBuffer keeps the last max bytes written to it; max <= 0 keeps all.
type tailBuffer struct {
	buf       []byte
	max       int
	truncated bool
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	b.buf = append(b.buf, p...)
	if b.max > 0 && len(b.buf) > b.max {
		b.buf = append(b.buf[:0], b.buf[len(b.buf)-b.max:]...)
		b.truncated = true
	}
	return len(p), nil
}

func (b *tailBuffer) String() string {
	s := strings.TrimSpace(string(b.buf))
	if b.truncated {
		// Drop the partial first line.
		if i := strings.IndexByte(s, '\n'); i >= 0 {
			s = s[i+1:]
		}
		s = "[output truncated]\n" + s
	}
	return s
}

// MockRunner implements Runner for testing.
type MockRunner struct {
	mu        sync.Mutex
	binaries  map[string]string
	responses map[string]MockResponse
	calls     []Call
}

// MockResponse is what MockRunner.Run returns for a command.
type MockResponse struct {
	Stdout string
	Stderr string
	Err    error
}

// Call records one MockRunner.Run invocation.
type Call struct {
	Dir  string
	Name string
	Args []string
}

// NewMockRunner creates a mock runner that knows no commands.
func NewMockRunner() *MockRunner {
	return &MockRunner{
		binaries:  make(map[string]string),
		responses: make(map[string]MockResponse),
	}
}

// SetLookPath makes LookPath(name) succeed with path.
func (m *MockRunner) SetLookPath(name, path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.binaries[name] = path
}

// SetCommand configures the result for a command line. cmdline is either the
// bare binary or the binary followed by its space-joined args; the full
// command line wins when both are set.
func (m *MockRunner) SetCommand(cmdline string, stdout, stderr string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[cmdline] = MockResponse{Stdout: stdout, Stderr: stderr, Err: err}
}

// Calls returns the Run invocations seen so far.
func (m *MockRunner) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Call(nil), m.calls...)
}

// LookPath implements Runner.
func (m *MockRunner) LookPath(name string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if path, ok := m.binaries[name]; ok {
		return path, nil
	}
	return "", exec.ErrNotFound
}

// Run implements Runner. Unknown commands fail with exec.ErrNotFound.
func (m *MockRunner) Run(ctx context.Context, dir, name string, args ...string) (string, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, Call{Dir: dir, Name: name, Args: args})
	if err := ctx.Err(); err != nil {
		return "", "", err
	}

	for _, key := range []string{strings.TrimSpace(name + " " + strings.Join(args, " ")), name} {
		if resp, ok := m.responses[key]; ok {
			return resp.Stdout, resp.Stderr, resp.Err
		}
	}
	return "", "", exec.ErrNotFound
}
