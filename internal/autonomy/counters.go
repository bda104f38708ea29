package autonomy

import (
	"fmt"
	"sync/atomic"
	"time"
)

// Counters accumulate for the lifetime of one agent session and are never
// persisted. Every limit check increments first and checks second in a
// single call, so a denied attempt still costs budget and no caller can
// check-then-act across a race.
type Counters struct {
	promptCalls  atomic.Int64
	sessionCalls atomic.Int64
	bytesWritten atomic.Int64
	filesCreated atomic.Int64
	lastWrite    atomic.Int64 // unix nanos, 0 = never
}

// Snapshot is a point-in-time copy of the counters for status output.
type Snapshot struct {
	PromptCalls  int64
	SessionCalls int64
	BytesWritten int64
	FilesCreated int64
	LastWrite    time.Time
}

// RecordCall counts one tool call against the per-prompt and per-session
// ceilings. Both counters advance even when the call is denied.
func (c *Counters) RecordCall(maxPrompt, maxSession int64) error {
	p := c.promptCalls.Add(1)
	s := c.sessionCalls.Add(1)

	if maxPrompt > 0 && p > maxPrompt {
		return fmt.Errorf("tool call limit reached for this prompt (%d)", maxPrompt)
	}
	if maxSession > 0 && s > maxSession {
		return fmt.Errorf("tool call limit reached for this session (%d)", maxSession)
	}
	return nil
}

// RecordWrite counts written bytes against the session byte ceiling.
func (c *Counters) RecordWrite(n int64, maxBytes int64) error {
	total := c.bytesWritten.Add(n)
	if maxBytes > 0 && total > maxBytes {
		return fmt.Errorf("session write budget exhausted (%d of %d bytes)", total, maxBytes)
	}
	return nil
}

// RecordFileCreated counts one created file against the session ceiling.
func (c *Counters) RecordFileCreated(maxFiles int64) error {
	total := c.filesCreated.Add(1)
	if maxFiles > 0 && total > maxFiles {
		return fmt.Errorf("session file creation budget exhausted (%d)", maxFiles)
	}
	return nil
}

// TouchWrite enforces the write cooldown: a write is refused while the
// previous one is newer than the interval, and an accepted write becomes
// the new reference point.
func (c *Counters) TouchWrite(cooldown time.Duration) error {
	if cooldown <= 0 {
		c.lastWrite.Store(time.Now().UnixNano())
		return nil
	}
	for {
		now := time.Now().UnixNano()
		last := c.lastWrite.Load()
		if last != 0 && now-last < int64(cooldown) {
			remaining := time.Duration(int64(cooldown) - (now - last)).Round(time.Millisecond)
			return fmt.Errorf("write cooldown active (%s remaining)", remaining)
		}
		if c.lastWrite.CompareAndSwap(last, now) {
			return nil
		}
	}
}

// ResetPrompt zeroes the per-prompt counter at the start of a user turn.
// Session counters keep accumulating.
func (c *Counters) ResetPrompt() {
	c.promptCalls.Store(0)
}

// Snapshot returns the current counter values.
func (c *Counters) Snapshot() Snapshot {
	s := Snapshot{
		PromptCalls:  c.promptCalls.Load(),
		SessionCalls: c.sessionCalls.Load(),
		BytesWritten: c.bytesWritten.Load(),
		FilesCreated: c.filesCreated.Load(),
	}
	if ns := c.lastWrite.Load(); ns != 0 {
		s.LastWrite = time.Unix(0, ns)
	}
	return s
}
