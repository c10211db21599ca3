package logsink

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/gitzip/pkg/domain/model"
)

// Slog forwards progress entries to the logger in the context. Info entries
// are logged at debug level so that progress chatter stays out of normal logs.
type Slog struct{}

// NewSlog creates a Slog sink
func NewSlog() *Slog {
	return &Slog{}
}

// Record implements interfaces.LogSink
func (s *Slog) Record(ctx context.Context, entry model.LogEntry) {
	level := slog.LevelDebug
	switch entry.Severity {
	case model.SeverityWarn:
		level = slog.LevelWarn
	case model.SeverityError:
		level = slog.LevelError
	}

	ctxlog.From(ctx).Log(ctx, level, entry.Message, "path", entry.Path)
}
