package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gitzip/pkg/domain/interfaces"
	"github.com/m-mizutani/gitzip/pkg/domain/model"
	"github.com/m-mizutani/gitzip/pkg/domain/types"
)

type collector struct {
	factory  interfaces.FetcherFactory
	maxDepth int
	now      func() time.Time
}

// CollectorOption configures NewCollector
type CollectorOption func(*collector)

// WithMaxDepth limits directory recursion
func WithMaxDepth(depth int) CollectorOption {
	return func(c *collector) {
		c.maxDepth = depth
	}
}

// NewCollector creates a CollectUseCase that fetches through clients built by factory
func NewCollector(factory interfaces.FetcherFactory, opts ...CollectorOption) interfaces.CollectUseCase {
	c := &collector{
		factory:  factory,
		maxDepth: DefaultMaxDepth,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Collect resolves every selected directory, then every selected file, one
// request at a time. Failures inside a directory are recorded and skipped.
// The first failure on a directly selected file stops the run; the entries
// collected so far are returned together with the error.
func (uc *collector) Collect(ctx context.Context, sel *model.Selection, creds *model.Credentials, sink interfaces.LogSink) (*model.CollectionResult, error) {
	if sel.IsEmpty() {
		return nil, goerr.Wrap(types.ErrNoSelection, "nothing to collect")
	}
	if creds.IsEmpty() {
		return nil, goerr.Wrap(types.ErrAuthRequired, "credential is required to collect contents")
	}
	if err := sel.Validate(); err != nil {
		return nil, err
	}

	fetcher, err := uc.factory.NewFetcher(ctx, creds)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create content fetcher")
	}

	logger := ctxlog.From(ctx).With("run_id", uuid.NewString())
	ctx = ctxlog.With(ctx, logger)
	if sink == nil {
		sink = discardSink{}
	}
	run := &collectRun{
		fetcher: fetcher,
		sink:    sink,
		now:     uc.now,
		result:  &model.CollectionResult{},
	}

	logger.Info("Start collecting contents",
		"origin", sel.Origin.String(),
		"directories", len(sel.Directories),
		"files", len(sel.Files),
	)

	expander := NewTreeExpander(fetcher, uc.maxDepth)
	for _, dir := range sel.Directories {
		run.record(ctx, model.SeverityInfo, "Processing folder: "+dir.DisplayName, dir.DisplayName)

		for leaf, err := range expander.Expand(ctx, dir.Locator, dir.DisplayName) {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return run.result, goerr.Wrap(ctxErr, "collection interrupted")
			}

			if err != nil {
				var failure *model.FetchFailure
				if !errors.As(err, &failure) {
					failure = model.NewFetchFailure(dir.Locator, dir.DisplayName, err)
				}
				run.fail(ctx, failure, "Error fetching folder: "+failure.Path)
				continue
			}

			run.record(ctx, model.SeverityInfo, "Processing file: "+leaf.Path, leaf.Path)
			entry, err := run.resolveFile(ctx, leaf.Locator, leaf.Path)
			if err != nil {
				run.fail(ctx, model.NewFetchFailure(leaf.Locator, leaf.Path, err), "Error fetching file: "+leaf.Path)
				continue
			}
			run.result.Entries = append(run.result.Entries, *entry)
		}
	}

	for _, file := range sel.Files {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return run.result, goerr.Wrap(ctxErr, "collection interrupted")
		}

		run.record(ctx, model.SeverityInfo, "Processing file: "+file.DisplayName, file.DisplayName)
		entry, err := run.resolveFile(ctx, file.Locator, file.DisplayName)
		if err != nil {
			failure := model.NewFetchFailure(file.Locator, file.DisplayName, err)
			run.fail(ctx, failure, "Error fetching file: "+file.DisplayName)
			return run.result, goerr.Wrap(failure, "failed to fetch selected file",
				goerr.V("path", file.DisplayName),
				goerr.V("locator", file.Locator.String()))
		}
		run.result.Entries = append(run.result.Entries, *entry)
	}

	logger.Info("Collected contents",
		"entries", len(run.result.Entries),
		"failures", len(run.result.Failures),
	)

	return run.result, nil
}

// collectRun holds the state owned by one Collect call
type collectRun struct {
	fetcher interfaces.ContentFetcher
	sink    interfaces.LogSink
	now     func() time.Time
	result  *model.CollectionResult
}

// resolveFile reads one file, preferring inline base64 content and falling
// back to the raw download URL
func (r *collectRun) resolveFile(ctx context.Context, loc model.RepoLocator, relPath string) (*model.ContentEntry, error) {
	meta, err := r.fetcher.FetchMetadata(ctx, loc)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to fetch file metadata",
			goerr.V("locator", loc.String()))
	}
	if meta.Kind != model.KindFile {
		return nil, goerr.New("expected a file",
			goerr.V("locator", loc.String()),
			goerr.V("kind", meta.Kind))
	}

	if meta.File.HasInlineContent() {
		return &model.ContentEntry{
			RelativePath: relPath,
			Payload:      model.TextPayload{Base64: meta.File.Content},
		}, nil
	}

	if meta.File.DownloadURL == "" {
		return nil, goerr.New("no inline content and no download URL",
			goerr.V("locator", loc.String()),
			goerr.V("encoding", meta.File.Encoding))
	}

	data, err := r.fetcher.FetchBytes(ctx, meta.File.DownloadURL)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to download file",
			goerr.V("locator", loc.String()),
			goerr.V("url", meta.File.DownloadURL))
	}

	return &model.ContentEntry{
		RelativePath: relPath,
		Payload:      model.BinaryPayload{Data: data},
	}, nil
}

func (r *collectRun) record(ctx context.Context, severity model.Severity, msg, path string) {
	r.sink.Record(ctx, model.LogEntry{
		Time:     r.now(),
		Severity: severity,
		Message:  msg,
		Path:     path,
	})
}

func (r *collectRun) fail(ctx context.Context, failure *model.FetchFailure, msg string) {
	r.result.Failures = append(r.result.Failures, failure)
	ctxlog.From(ctx).Warn("Failed to fetch content",
		"path", failure.Path,
		"locator", failure.Locator.String(),
		"reason", failure.Reason,
	)
	r.record(ctx, model.SeverityError, msg, failure.Path)
}

type discardSink struct{}

func (discardSink) Record(context.Context, model.LogEntry) {}
