package tool

import (
	"context"
	"sort"

	"github.com/joss/aegis/internal/autonomy"
	"github.com/joss/aegis/internal/domain"
	"github.com/joss/aegis/internal/exec"
	"github.com/joss/aegis/internal/subagent"
)

// Executor is the interface all tools must implement. Input is the raw
// text between the tool-call markers; each tool documents its own line
// layout in its description.
type Executor interface {
	Info() domain.Tool
	Execute(ctx context.Context, input string) (*Result, error)
}

// Result holds the output of a tool execution.
type Result struct {
	Title    string
	Output   string
	Metadata map[string]any
}

type ToolError string

func (e ToolError) Error() string { return string(e) }

const (
	ErrToolNotFound ToolError = "tool not found"
	ErrInvalidInput ToolError = "invalid tool input"
)

// Registry holds the tools available to one session.
type Registry struct {
	tools map[string]Executor
}

func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]Executor),
	}
}

func (r *Registry) Register(t Executor) {
	info := t.Info()
	r.tools[info.Name] = t
}

func (r *Registry) Get(name string) (Executor, bool) {
	t, ok := r.tools[name]
	return t, ok
}

func (r *Registry) All() []domain.Tool {
	result := make([]domain.Tool, 0, len(r.tools))
	for _, t := range r.tools {
		result = append(result, t.Info())
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

// Deps carries what the builtin tools need from the session.
type Deps struct {
	WorkDir    string
	Policy     *autonomy.Policy
	Journal    Auditor
	Classifier Classifier
	Runner     exec.Runner
	Supervisor *subagent.Supervisor
	MemoryPath string

	// Confirm surfaces a prompt-class shell command for interactive
	// approval. Nil means no human is reachable and prompts auto-deny.
	Confirm func(command, reason string) bool
}

// SessionRegistry populates a registry according to the active autonomy
// level. Tools the level cannot reach are absent entirely; the autonomy
// gate in the dispatcher holds independently for whatever is present.
func SessionRegistry(level autonomy.Level, deps Deps) *Registry {
	r := NewRegistry()
	if level < autonomy.Observe {
		return r
	}

	r.Register(NewReadFile())
	r.Register(NewListDir(deps.WorkDir))
	r.Register(NewGlob(deps.WorkDir))
	r.Register(NewGrep(deps.WorkDir, deps.Runner))

	if level < autonomy.Workspace {
		return r
	}

	r.Register(NewWriteFile(deps.Policy))
	r.Register(NewEditFile(deps.Policy))
	r.Register(NewMemoryAppend(deps.MemoryPath, deps.Policy))
	r.Register(NewMemoryWrite(deps.MemoryPath, deps.Policy))
	r.Register(NewShell(deps))
	r.Register(NewSpawnTask(deps.Supervisor))
	r.Register(NewTaskStatus(deps.Supervisor))
	r.Register(NewKillTask(deps.Supervisor))

	if level < autonomy.Home {
		return r
	}

	r.Register(NewWebFetch())
	return r
}
