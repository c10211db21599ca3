package interfaces

import (
	"context"

	"github.com/m-mizutani/gitzip/pkg/domain/model"
)

// CollectUseCase resolves a selection into content entries
type CollectUseCase interface {
	// Collect fetches every selected file and every file under selected
	// directories. On a fatal failure the partial result is returned with the error.
	Collect(ctx context.Context, sel *model.Selection, creds *model.Credentials, sink LogSink) (*model.CollectionResult, error)
}

// AssembleUseCase turns collected entries into one artifact
type AssembleUseCase interface {
	Assemble(ctx context.Context, result *model.CollectionResult, origin model.RepoLocator) (*model.Artifact, error)
}

// DownloadUseCase runs collection and assembly for one download action
type DownloadUseCase interface {
	Download(ctx context.Context, sel *model.Selection, creds *model.Credentials, sink LogSink) (*model.Artifact, error)
}
