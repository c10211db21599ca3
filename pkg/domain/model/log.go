package model

import "time"

// Severity is the level of a progress log entry
type Severity string

const (
	SeverityInfo  Severity = "info"
	SeverityWarn  Severity = "warn"
	SeverityError Severity = "error"
)

// LogEntry is one line of the human-readable progress log
type LogEntry struct {
	Time     time.Time
	Severity Severity
	Message  string
	Path     string
}
