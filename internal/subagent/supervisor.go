package subagent

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"github.com/joss/aegis/internal/config"
	"github.com/joss/aegis/internal/logging"
)

// Config bounds the supervised population.
type Config struct {
	// MaxConcurrent is the ceiling on live subagents.
	MaxConcurrent int

	// Ceiling is the wall-clock lifetime armed inside each child.
	Ceiling time.Duration

	// Grace is how long a child gets between SIGTERM and SIGKILL.
	Grace time.Duration

	// Dir is the working directory for children.
	Dir string

	// Writable paths handed to the confinement helper. Defaults to Dir.
	Writable []string

	// OutputDir holds the per-task output files. Defaults to os.TempDir().
	OutputDir string
}

// Supervisor owns the subagent table. All state transitions happen under
// its lock; the processes themselves are only touched through handles.
type Supervisor struct {
	mu     sync.Mutex
	cfg    Config
	tasks  map[int]*Task
	nextID int
	spawn  spawnFunc
	log    *logging.Logger
}

// NewSupervisor creates a supervisor with defaults filled in.
func NewSupervisor(cfg Config) *Supervisor {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 3
	}
	if cfg.Ceiling <= 0 {
		cfg.Ceiling = 10 * time.Minute
	}
	if cfg.Grace <= 0 {
		cfg.Grace = 2 * time.Second
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = os.TempDir()
	}
	if cfg.Writable == nil && cfg.Dir != "" {
		cfg.Writable = []string{cfg.Dir}
	}
	return &Supervisor{
		cfg:   cfg,
		tasks: make(map[int]*Task),
		spawn: newOSSpawn(cfg),
		log:   logging.New("subagent"),
	}
}

// SetWritable replaces the write grants handed to future spawns. Tasks
// already running keep the grants they started with.
func (s *Supervisor) SetWritable(paths []string) {
	s.mu.Lock()
	s.cfg.Writable = paths
	s.spawn = newOSSpawn(s.cfg)
	s.mu.Unlock()
}

// Spawn starts a new subagent and returns its id. It refuses when the
// concurrency ceiling is reached or when this process is itself a
// subagent.
func (s *Supervisor) Spawn(name, command string) (int, error) {
	if config.InSubagent() {
		return 0, fmt.Errorf("subagents may not spawn subagents")
	}
	if strings.TrimSpace(command) == "" {
		return 0, fmt.Errorf("empty command")
	}

	s.mu.Lock()
	if n := s.liveLocked(); n >= s.cfg.MaxConcurrent {
		s.mu.Unlock()
		return 0, fmt.Errorf("subagent limit reached (%d of %d running)", n, s.cfg.MaxConcurrent)
	}
	s.nextID++
	id := s.nextID
	task := &Task{
		ID:       id,
		Name:     name,
		Command:  command,
		Status:   StatusPending,
		ExitCode: -1,
	}
	s.tasks[id] = task
	s.mu.Unlock()

	out, err := os.CreateTemp(s.cfg.OutputDir, fmt.Sprintf("aegis-task-%d-*.log", id))
	if err != nil {
		err = fmt.Errorf("create output file: %w", err)
		s.recordSpawnFailure(id, err)
		return 0, err
	}

	s.mu.Lock()
	task.OutputPath = out.Name()
	spawn := s.spawn
	s.mu.Unlock()

	h, err := spawn(task, out)
	out.Close()
	if err != nil {
		s.recordSpawnFailure(id, err)
		return 0, fmt.Errorf("spawn subagent: %w", err)
	}

	s.mu.Lock()
	task.Status = StatusRunning
	task.PID = h.PID()
	task.StartedAt = time.Now()
	task.handle = h
	s.mu.Unlock()

	s.log.Info("subagent_spawned", map[string]interface{}{
		"id": id, "name": name, "pid": task.PID,
	})
	return id, nil
}

// recordSpawnFailure keeps the table consistent when the child never
// started: the task stays visible as Failed with the OS error text.
func (s *Supervisor) recordSpawnFailure(id int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tasks[id]; ok {
		t.Status = StatusFailed
		t.Error = err.Error()
		t.FinishedAt = time.Now()
	}
}

// Poll checks one subagent without blocking, transitioning it to Done or
// Failed if its process has exited, and returns a snapshot.
func (s *Supervisor) Poll(id int) (Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		return Task{}, fmt.Errorf("no such subagent %d", id)
	}
	s.pollLocked(t)
	return snapshot(t), nil
}

// pollLocked applies the exit transition exactly once.
func (s *Supervisor) pollLocked(t *Task) {
	if t.Status != StatusRunning || t.handle == nil {
		return
	}
	code, exited := t.handle.Poll()
	if !exited {
		return
	}
	t.ExitCode = code
	t.FinishedAt = time.Now()
	if code == 0 {
		t.Status = StatusDone
	} else {
		t.Status = StatusFailed
		if err := t.handle.Err(); err != nil {
			t.Error = err.Error()
		} else {
			t.Error = fmt.Sprintf("exit status %d", code)
		}
	}
}

// Kill terminates a running subagent: SIGTERM, a grace period, then
// SIGKILL if it is still alive. The task ends up Killed with the exit
// code recorded.
func (s *Supervisor) Kill(id int) error {
	s.mu.Lock()
	t, ok := s.tasks[id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("no such subagent %d", id)
	}
	s.pollLocked(t)
	if t.Status != StatusRunning {
		s.mu.Unlock()
		return fmt.Errorf("subagent %d is not running (status %s)", id, t.Status)
	}
	h := t.handle
	s.mu.Unlock()

	code := s.terminate(h)

	s.mu.Lock()
	defer s.mu.Unlock()
	if t.Status == StatusRunning {
		t.Status = StatusKilled
		t.ExitCode = code
		t.FinishedAt = time.Now()
	}
	s.log.Info("subagent_killed", map[string]interface{}{"id": id, "exit_code": code})
	return nil
}

// terminate runs the two-phase escalation and reaps the process.
func (s *Supervisor) terminate(h handle) int {
	if code, exited := h.Poll(); exited {
		return code
	}
	_ = h.Signal(unix.SIGTERM)

	deadline := time.Now().Add(s.cfg.Grace)
	for time.Now().Before(deadline) {
		if code, exited := h.Poll(); exited {
			return code
		}
		time.Sleep(20 * time.Millisecond)
	}

	if code, exited := h.Poll(); exited {
		return code
	}
	_ = h.Signal(unix.SIGKILL)
	return h.Wait()
}

// List polls every subagent and returns snapshots ordered by id.
func (s *Supervisor) List() []Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		s.pollLocked(t)
		out = append(out, snapshot(t))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Running reports how many subagents are live.
func (s *Supervisor) Running() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tasks {
		s.pollLocked(t)
	}
	return s.liveLocked()
}

func (s *Supervisor) liveLocked() int {
	n := 0
	for _, t := range s.tasks {
		if !t.Status.Terminal() {
			n++
		}
	}
	return n
}

// ReadOutput returns up to maxBytes from the tail of a task's output file.
func (s *Supervisor) ReadOutput(id int, maxBytes int) (string, error) {
	s.mu.Lock()
	t, ok := s.tasks[id]
	if !ok {
		s.mu.Unlock()
		return "", fmt.Errorf("no such subagent %d", id)
	}
	path := t.OutputPath
	s.mu.Unlock()

	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read output: %w", err)
	}
	if maxBytes > 0 && len(data) > maxBytes {
		data = data[len(data)-maxBytes:]
	}
	return string(data), nil
}

// Cleanup kills every still-running subagent, removes every output file,
// and empties the table.
func (s *Supervisor) Cleanup() {
	s.mu.Lock()
	tasks := make([]*Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		tasks = append(tasks, t)
	}
	s.tasks = make(map[int]*Task)
	s.mu.Unlock()

	for _, t := range tasks {
		if t.Status == StatusRunning && t.handle != nil {
			code := s.terminate(t.handle)
			t.Status = StatusKilled
			t.ExitCode = code
		}
		if t.OutputPath != "" {
			if err := os.Remove(t.OutputPath); err != nil && !os.IsNotExist(err) {
				s.log.Warn("remove_output_file", map[string]interface{}{
					"id": t.ID, "path": t.OutputPath,
				}, err)
			}
		}
	}
}

func snapshot(t *Task) Task {
	cp := *t
	cp.handle = nil
	return cp
}
