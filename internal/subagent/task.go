// Package subagent supervises bounded-lifetime background shell tasks:
// spawning them confined, polling their exits, and terminating them with a
// two-phase kill so no child outlives its session.
package subagent

import "time"

// Status is a task's lifecycle state. Transitions: Pending -> Running on a
// successful spawn, Running -> Done/Failed observed by poll, Running ->
// Killed by explicit termination. Terminal states never change again.
type Status int

const (
	StatusPending Status = iota
	StatusRunning
	StatusDone
	StatusFailed
	StatusKilled
)

var statusNames = [...]string{"pending", "running", "done", "failed", "killed"}

func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return "unknown"
	}
	return statusNames[s]
}

// Terminal reports whether the status can no longer change.
func (s Status) Terminal() bool {
	return s == StatusDone || s == StatusFailed || s == StatusKilled
}

// Task is the supervisor's record of one subagent. Supervisor methods
// return copies; the live record stays behind the supervisor's lock.
type Task struct {
	ID         int
	Name       string
	Command    string
	PID        int
	Status     Status
	ExitCode   int
	Error      string
	StartedAt  time.Time
	FinishedAt time.Time
	OutputPath string

	handle handle
}
