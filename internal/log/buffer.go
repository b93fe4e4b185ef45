package log

import (
	"sync"
	"time"
)

// LogEntry represents one captured log record
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"`
	Message   string    `json:"message"`
}

// LogBuffer keeps a bounded window of recent log entries in memory.
// The presentation layer reads it to show parse warnings from the most
// recent upload without tailing process output.
type LogBuffer struct {
	mu      sync.Mutex
	entries []LogEntry
	max     int
}

var buffer *LogBuffer
var bufferOnce sync.Once

// GetBuffer returns the shared log buffer, creating it if necessary
func GetBuffer() *LogBuffer {
	bufferOnce.Do(func() {
		buffer = NewLogBuffer(500)
	})
	return buffer
}

// NewLogBuffer creates a buffer holding at most max entries
func NewLogBuffer(max int) *LogBuffer {
	if max < 1 {
		max = 1
	}
	return &LogBuffer{max: max}
}

// Add appends an entry, evicting the oldest when the buffer is full
func (b *LogBuffer) Add(entry LogEntry) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.entries = append(b.entries, entry)
	if len(b.entries) > b.max {
		b.entries = b.entries[len(b.entries)-b.max:]
	}
}

// Entries returns a copy of the buffered entries, oldest first
func (b *LogBuffer) Entries() []LogEntry {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]LogEntry, len(b.entries))
	copy(out, b.entries)
	return out
}

// Reset discards all buffered entries
func (b *LogBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries = nil
}
