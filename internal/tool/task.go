package tool

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/joss/aegis/internal/domain"
	"github.com/joss/aegis/internal/subagent"
)

// SpawnTask starts a supervised background command.
type SpawnTask struct {
	sup *subagent.Supervisor
}

func NewSpawnTask(sup *subagent.Supervisor) *SpawnTask {
	return &SpawnTask{sup: sup}
}

func (t *SpawnTask) Info() domain.Tool {
	return domain.Tool{
		Name:        "spawn_task",
		Description: "Start a background shell task. Input: a short task name on the first line, the command on the following lines.",
		Write:       true,
	}
}

func (t *SpawnTask) Execute(ctx context.Context, input string) (*Result, error) {
	name, rest := firstLine(input)
	command := strings.TrimSpace(rest)
	if name == "" {
		return nil, fmt.Errorf("%w: missing task name", ErrInvalidInput)
	}
	if command == "" {
		return nil, fmt.Errorf("%w: missing task command", ErrInvalidInput)
	}

	id, err := t.sup.Spawn(name, command)
	if err != nil {
		return nil, err
	}

	return &Result{
		Title:  fmt.Sprintf("Task %d: %s", id, name),
		Output: fmt.Sprintf("Started task %d (%s)", id, name),
		Metadata: map[string]any{
			"id":      id,
			"command": command,
		},
	}, nil
}

var _ Executor = (*SpawnTask)(nil)

// TaskStatus reports one task, or the whole table when no id is given.
type TaskStatus struct {
	sup *subagent.Supervisor
}

func NewTaskStatus(sup *subagent.Supervisor) *TaskStatus {
	return &TaskStatus{sup: sup}
}

func (t *TaskStatus) Info() domain.Tool {
	return domain.Tool{
		Name:        "task_status",
		Description: "Report background task status. Input: a task id, or empty for all tasks.",
		Write:       false,
	}
}

func (t *TaskStatus) Execute(ctx context.Context, input string) (*Result, error) {
	arg, _ := firstLine(input)

	if arg == "" {
		tasks := t.sup.List()
		if len(tasks) == 0 {
			return &Result{Title: "Tasks", Output: "No background tasks"}, nil
		}
		var sb strings.Builder
		for _, task := range tasks {
			sb.WriteString(formatTask(task))
			sb.WriteByte('\n')
		}
		return &Result{
			Title:    "Tasks",
			Output:   strings.TrimRight(sb.String(), "\n"),
			Metadata: map[string]any{"count": len(tasks)},
		}, nil
	}

	id, err := strconv.Atoi(arg)
	if err != nil {
		return nil, fmt.Errorf("%w: task id must be an integer", ErrInvalidInput)
	}
	task, err := t.sup.Poll(id)
	if err != nil {
		return nil, err
	}

	output := formatTask(task)
	if task.Status.Terminal() {
		if tail, err := t.sup.ReadOutput(id, 4096); err == nil && tail != "" {
			output += "\n--- output ---\n" + tail
		}
	}

	return &Result{
		Title:  fmt.Sprintf("Task %d", id),
		Output: output,
		Metadata: map[string]any{
			"id":     id,
			"status": task.Status.String(),
		},
	}, nil
}

func formatTask(t subagent.Task) string {
	switch t.Status {
	case subagent.StatusDone, subagent.StatusFailed, subagent.StatusKilled:
		return fmt.Sprintf("[%d] %s: %s (exit %d)", t.ID, t.Name, t.Status, t.ExitCode)
	default:
		return fmt.Sprintf("[%d] %s: %s (pid %d)", t.ID, t.Name, t.Status, t.PID)
	}
}

var _ Executor = (*TaskStatus)(nil)

// KillTask terminates a running task.
type KillTask struct {
	sup *subagent.Supervisor
}

func NewKillTask(sup *subagent.Supervisor) *KillTask {
	return &KillTask{sup: sup}
}

func (t *KillTask) Info() domain.Tool {
	return domain.Tool{
		Name:        "kill_task",
		Description: "Terminate a running background task. Input: the task id.",
		Write:       true,
	}
}

func (t *KillTask) Execute(ctx context.Context, input string) (*Result, error) {
	arg, _ := firstLine(input)
	id, err := strconv.Atoi(arg)
	if err != nil {
		return nil, fmt.Errorf("%w: task id must be an integer", ErrInvalidInput)
	}

	if err := t.sup.Kill(id); err != nil {
		return nil, err
	}

	return &Result{
		Title:  fmt.Sprintf("Kill task %d", id),
		Output: fmt.Sprintf("Task %d killed", id),
		Metadata: map[string]any{
			"id": id,
		},
	}, nil
}

var _ Executor = (*KillTask)(nil)
