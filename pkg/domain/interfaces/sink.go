package interfaces

import (
	"context"

	"github.com/m-mizutani/gitzip/pkg/domain/model"
)

// LogSink receives the running progress log of a download action
type LogSink interface {
	Record(ctx context.Context, entry model.LogEntry)
}

// ArtifactStore saves an artifact and returns where it was written
type ArtifactStore interface {
	Save(ctx context.Context, artifact *model.Artifact) (string, error)
}
