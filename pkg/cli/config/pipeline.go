package config

import (
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gitzip/pkg/domain/interfaces"
	"github.com/m-mizutani/gitzip/pkg/domain/model"
	"github.com/m-mizutani/gitzip/pkg/usecase"
	"github.com/urfave/cli/v3"
)

// Pipeline holds collection and assembly settings
type Pipeline struct {
	Format   string
	MaxDepth int
}

// Flags returns CLI flags for the pipeline
func (c *Pipeline) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "format",
			Usage:       "Archive format (zip, tar.zst)",
			Value:       string(model.FormatZip),
			Destination: &c.Format,
			Sources:     cli.EnvVars("GITZIP_FORMAT"),
		},
		&cli.IntFlag{
			Name:        "max-depth",
			Usage:       "Maximum directory depth to expand",
			Value:       usecase.DefaultMaxDepth,
			Destination: &c.MaxDepth,
			Sources:     cli.EnvVars("GITZIP_MAX_DEPTH"),
		},
	}
}

// ArchiveFormat returns the validated archive format
func (c *Pipeline) ArchiveFormat() (model.ArchiveFormat, error) {
	format := model.ArchiveFormat(strings.ToLower(c.Format))
	if !format.IsValid() {
		return "", goerr.New("unsupported archive format", goerr.V("format", c.Format))
	}
	return format, nil
}

// Configure wires the download use case on top of factory
func (c *Pipeline) Configure(factory interfaces.FetcherFactory) (interfaces.DownloadUseCase, error) {
	format, err := c.ArchiveFormat()
	if err != nil {
		return nil, err
	}

	collector := usecase.NewCollector(factory, usecase.WithMaxDepth(c.MaxDepth))
	assembler := usecase.NewAssembler(usecase.WithFormat(format))
	return usecase.NewDownload(collector, assembler), nil
}
