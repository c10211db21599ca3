package interfaces

import (
	"context"

	"github.com/m-mizutani/gitzip/pkg/domain/model"
)

// ContentFetcher performs single remote reads against a repository
type ContentFetcher interface {
	// FetchMetadata reads the directory listing or file metadata of loc
	FetchMetadata(ctx context.Context, loc model.RepoLocator) (*model.Metadata, error)

	// FetchBytes reads raw file content from a download URL
	FetchBytes(ctx context.Context, url string) ([]byte, error)
}

// FetcherFactory builds a ContentFetcher bound to one set of credentials
type FetcherFactory interface {
	NewFetcher(ctx context.Context, creds *model.Credentials) (ContentFetcher, error)
}
