package tool

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joss/aegis/internal/autonomy"
	"github.com/joss/aegis/internal/domain"
	"github.com/joss/aegis/internal/exec"
	"github.com/joss/aegis/internal/policy"
)

// Shell runs one command under the session's trust tier. The autonomy gate
// and the execution-policy classifier are independent walls: both must
// clear before anything executes, and every verdict lands in the journal.
type Shell struct {
	workDir    string
	policy     *autonomy.Policy
	journal    Auditor
	classifier Classifier
	runner     exec.Runner
	confirm    func(command, reason string) bool
}

func NewShell(deps Deps) *Shell {
	runner := deps.Runner
	if runner == nil {
		runner = exec.Default
	}
	return &Shell{
		workDir:    deps.WorkDir,
		policy:     deps.Policy,
		journal:    deps.Journal,
		classifier: deps.Classifier,
		runner:     runner,
		confirm:    deps.Confirm,
	}
}

func (s *Shell) Info() domain.Tool {
	return domain.Tool{
		Name:        "shell",
		Description: "Run a shell command in the working directory. Input: the command.",
		Write:       true,
	}
}

func (s *Shell) Execute(ctx context.Context, input string) (*Result, error) {
	command := strings.TrimSpace(input)
	if command == "" {
		return nil, fmt.Errorf("%w: empty command", ErrInvalidInput)
	}
	level := s.policy.Level()

	verdict := s.policy.CheckShell(command)
	switch verdict.Decision {
	case autonomy.ShellDeny:
		s.journal.ShellBlocked(level.String(), verdict.Reason, command)
		return nil, fmt.Errorf("shell command denied: %s", verdict.Reason)
	case autonomy.ShellPrompt:
		if !s.approved(command, verdict.Reason) {
			s.journal.ShellBlocked(level.String(), "interactive approval unavailable", command)
			return nil, fmt.Errorf("shell command denied: interactive approval unavailable")
		}
	}

	cv := s.classifier.Evaluate(command)
	switch cv.Decision {
	case policy.Forbidden:
		s.journal.ShellBlocked(level.String(), cv.Reason, command)
		return nil, fmt.Errorf("shell command forbidden: %s", cv.Reason)
	case policy.Prompt:
		if level < autonomy.Full || s.policy.Config().ConfirmDestructive {
			if !s.approved(command, cv.Reason) {
				s.journal.ShellBlocked(level.String(), "interactive approval unavailable", command)
				return nil, fmt.Errorf("shell command denied: interactive approval unavailable")
			}
		}
	}

	s.journal.ShellAllowed(level.String(), command)
	return s.run(ctx, level, command)
}

func (s *Shell) approved(command, reason string) bool {
	return s.confirm != nil && s.confirm(command, reason)
}

func (s *Shell) run(ctx context.Context, level autonomy.Level, command string) (*Result, error) {
	timeout := s.policy.Config().ShellTimeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var out []byte
	var err error
	if level >= autonomy.Full {
		// Full trust execs directly; the classifier wall above still held.
		out, err = s.runner.RunInDir(ctx, s.workDir, "sh", "-c", command)
	} else {
		self, exeErr := os.Executable()
		if exeErr != nil {
			return nil, fmt.Errorf("locate own binary: %w", exeErr)
		}
		args := []string{"sandbox-exec"}
		for _, w := range WritablePaths(level, s.workDir) {
			args = append(args, "--writable", w)
		}
		args = append(args, "--timeout", strconv.Itoa(int(timeout.Seconds())))
		args = append(args, "--", "sh", "-c", command)
		out, err = s.runner.RunInDir(ctx, s.workDir, self, args...)
	}

	code := exec.ExitCode(err)
	if err != nil && code == -1 && ctx.Err() == nil {
		return nil, fmt.Errorf("run command: %w", err)
	}

	output := truncateOutput(string(out), 30000)
	switch {
	case ctx.Err() == context.DeadlineExceeded:
		output += "\n(command timed out)"
	case code == 124:
		output += "\n(command timed out)"
	case code != 0:
		output += fmt.Sprintf("\n(exit status %d)", code)
	}

	return &Result{
		Title:  truncateTitle(command),
		Output: output,
		Metadata: map[string]any{
			"command":  command,
			"exitCode": code,
		},
	}, nil
}

// WritablePaths maps the trust tier onto sandbox write grants. Observe
// gets a read-only filesystem; Workspace can touch the working directory;
// Home extends to the user's home. Temp space is writable wherever any
// write is allowed at all.
func WritablePaths(level autonomy.Level, workDir string) []string {
	switch {
	case level <= autonomy.Observe:
		return nil
	case level == autonomy.Workspace:
		return []string{workDir, os.TempDir()}
	default:
		paths := []string{workDir, os.TempDir()}
		if home, err := os.UserHomeDir(); err == nil {
			paths = append(paths, home)
		}
		return paths
	}
}

var _ Executor = (*Shell)(nil)
