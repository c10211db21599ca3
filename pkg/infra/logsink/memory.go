package logsink

import (
	"context"
	"sync"

	"github.com/m-mizutani/gitzip/pkg/domain/model"
)

// Memory keeps every entry in order
type Memory struct {
	mu      sync.Mutex
	entries []model.LogEntry
}

// NewMemory creates an empty Memory sink
func NewMemory() *Memory {
	return &Memory{}
}

// Record implements interfaces.LogSink
func (m *Memory) Record(_ context.Context, entry model.LogEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
}

// Entries returns a copy of the recorded entries
func (m *Memory) Entries() []model.LogEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.LogEntry(nil), m.entries...)
}

// Messages returns the recorded messages
func (m *Memory) Messages() []string {
	entries := m.Entries()
	msgs := make([]string, len(entries))
	for i, e := range entries {
		msgs[i] = e.Message
	}
	return msgs
}

// Count returns how many entries have the given severity
func (m *Memory) Count(severity model.Severity) int {
	n := 0
	for _, e := range m.Entries() {
		if e.Severity == severity {
			n++
		}
	}
	return n
}
