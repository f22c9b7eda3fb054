package common

import (
	"strings"
	"sync"
)

// CycleLog captures the operational log lines emitted during one discovery
// cycle so the reporting agent can derive metrics from them. Lines recorded
// here are the contractual substrings the reporter matches against; changing
// them breaks report compatibility.
type CycleLog struct {
	mu    sync.Mutex
	lines []string
}

// NewCycleLog creates an empty cycle log
func NewCycleLog() *CycleLog {
	return &CycleLog{}
}

// Append records a single log line
func (c *CycleLog) Append(line string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = append(c.lines, line)
}

// Count returns the number of recorded lines containing substr
func (c *CycleLog) Count(substr string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, line := range c.lines {
		if strings.Contains(line, substr) {
			n++
		}
	}
	return n
}

// Lines returns a copy of all recorded lines
func (c *CycleLog) Lines() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.lines))
	copy(out, c.lines)
	return out
}

// Len returns the number of recorded lines
func (c *CycleLog) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.lines)
}

// Reset clears all recorded lines
func (c *CycleLog) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = nil
}
