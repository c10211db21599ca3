package logsink

import (
	"context"

	"github.com/m-mizutani/gitzip/pkg/domain/interfaces"
	"github.com/m-mizutani/gitzip/pkg/domain/model"
)

// Multi fans an entry out to several sinks
type Multi []interfaces.LogSink

// Record implements interfaces.LogSink
func (m Multi) Record(ctx context.Context, entry model.LogEntry) {
	for _, s := range m {
		s.Record(ctx, entry)
	}
}
