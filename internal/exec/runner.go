// Package exec provides a testable command execution abstraction.
// Inject Runner instead of calling exec.Command directly.
package exec

import (
	"context"
	"errors"
	osexec "os/exec"
	"strings"
)

// Runner executes external commands. The shell tool and the CLI inject
// this so tests can script command behavior without spawning processes.
type Runner interface {
	// Run executes a command and returns combined stdout/stderr.
	Run(ctx context.Context, name string, args ...string) ([]byte, error)

	// RunInDir executes a command in a specific directory.
	RunInDir(ctx context.Context, dir, name string, args ...string) ([]byte, error)
}

// ExitCode extracts the payload exit code from a Run error. A nil error is
// exit 0; a non-exit failure (spawn error, context kill before start)
// reports -1.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *osexec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

// OSRunner implements Runner using os/exec.
type OSRunner struct {
	// Env overrides environment variables (nil = inherit from parent).
	Env []string
}

// NewOSRunner creates a new OS-based command runner.
func NewOSRunner() *OSRunner {
	return &OSRunner{}
}

func (r *OSRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return r.RunInDir(ctx, "", name, args...)
}

func (r *OSRunner) RunInDir(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	cmd := osexec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	if r.Env != nil {
		cmd.Env = r.Env
	}
	return cmd.CombinedOutput()
}

// MockRunner implements Runner for testing.
type MockRunner struct {
	// Calls records all command invocations.
	Calls []MockCall

	// Responses maps the command name to its scripted response.
	Responses map[string]MockResponse
}

// MockCall records a single command invocation.
type MockCall struct {
	Name string
	Args []string
	Dir  string
}

// MockResponse defines the response for a mocked command.
type MockResponse struct {
	Output []byte
	Err    error
}

// NewMockRunner creates a new mock runner.
func NewMockRunner() *MockRunner {
	return &MockRunner{Responses: make(map[string]MockResponse)}
}

// AddResponse sets the response for a command name.
func (m *MockRunner) AddResponse(name string, resp MockResponse) {
	m.Responses[name] = resp
}

// LastCall returns the most recent invocation, or nil.
func (m *MockRunner) LastCall() *MockCall {
	if len(m.Calls) == 0 {
		return nil
	}
	return &m.Calls[len(m.Calls)-1]
}

func (m *MockRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return m.RunInDir(ctx, "", name, args...)
}

func (m *MockRunner) RunInDir(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	m.Calls = append(m.Calls, MockCall{Name: name, Args: args, Dir: dir})
	resp := m.Responses[name]
	return resp.Output, resp.Err
}

// CalledWith reports whether any recorded call's argv contains the token.
func (m *MockRunner) CalledWith(token string) bool {
	for _, call := range m.Calls {
		if call.Name == token {
			return true
		}
		for _, arg := range call.Args {
			if strings.Contains(arg, token) {
				return true
			}
		}
	}
	return false
}

// Default is the default runner used by helper functions.
var Default Runner = NewOSRunner()

// Run executes using the default runner.
func Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return Default.Run(ctx, name, args...)
}
