package usecase

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gitzip/pkg/domain/interfaces"
	"github.com/m-mizutani/gitzip/pkg/domain/model"
)

type downloadUseCase struct {
	collector interfaces.CollectUseCase
	assembler interfaces.AssembleUseCase
}

// NewDownload creates a DownloadUseCase
func NewDownload(collector interfaces.CollectUseCase, assembler interfaces.AssembleUseCase) interfaces.DownloadUseCase {
	return &downloadUseCase{
		collector: collector,
		assembler: assembler,
	}
}

// Download collects the selection and assembles the artifact. A fatal
// collection error skips assembly entirely.
func (uc *downloadUseCase) Download(ctx context.Context, sel *model.Selection, creds *model.Credentials, sink interfaces.LogSink) (*model.Artifact, error) {
	if sink == nil {
		sink = discardSink{}
	}

	result, err := uc.collector.Collect(ctx, sel, creds, sink)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to collect contents")
	}

	artifact, err := uc.assembler.Assemble(ctx, result, sel.Origin)
	if err != nil {
		sink.Record(ctx, model.LogEntry{
			Time:     time.Now(),
			Severity: model.SeverityError,
			Message:  "Error zipping files.",
		})
		return nil, goerr.Wrap(err, "failed to assemble artifact")
	}

	sink.Record(ctx, model.LogEntry{
		Time:     time.Now(),
		Severity: model.SeverityInfo,
		Message:  "Download complete.",
		Path:     artifact.Name,
	})

	return artifact, nil
}
