package cli

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gitzip/pkg/cli/config"
	"github.com/m-mizutani/gitzip/pkg/domain/interfaces"
	"github.com/m-mizutani/gitzip/pkg/domain/model"
	"github.com/m-mizutani/gitzip/pkg/domain/types"
	"github.com/m-mizutani/gitzip/pkg/infra/logsink"
	"github.com/urfave/cli/v3"
)

func cmdDownload() *cli.Command {
	var (
		selectionCfg config.Selection
		githubCfg    config.GitHub
		pipelineCfg  config.Pipeline
		outputCfg    config.Output
		quiet        bool
	)

	flags := append(selectionCfg.Flags(), githubCfg.Flags()...)
	flags = append(flags, pipelineCfg.Flags()...)
	flags = append(flags, outputCfg.Flags()...)
	flags = append(flags, &cli.BoolFlag{
		Name:        "quiet",
		Aliases:     []string{"q"},
		Usage:       "Do not print the progress log",
		Destination: &quiet,
		Sources:     cli.EnvVars("GITZIP_QUIET"),
	})

	return &cli.Command{
		Name:    "download",
		Aliases: []string{"d"},
		Usage:   "Download selected files and directories",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			sel, err := selectionCfg.Configure()
			if err != nil {
				return err
			}
			creds, err := githubCfg.Configure()
			if err != nil {
				return err
			}
			downloadUC, err := pipelineCfg.Configure(githubCfg.Factory())
			if err != nil {
				return err
			}
			store, release, err := outputCfg.Configure(ctx, artifactWriter(c))
			if err != nil {
				return err
			}
			defer release()

			var sink interfaces.LogSink = logsink.NewSlog()
			if !quiet {
				var opts []logsink.ConsoleOption
				if color.NoColor {
					opts = append(opts, logsink.WithNoColor())
				}
				sink = logsink.Multi{sink, logsink.NewConsole(progressWriter(c), opts...)}
			}

			return runDownload(ctx, downloadUC, store, sel, creds, sink)
		},
	}
}

func runDownload(ctx context.Context, uc interfaces.DownloadUseCase, store interfaces.ArtifactStore, sel *model.Selection, creds *model.Credentials, sink interfaces.LogSink) error {
	logger := ctxlog.From(ctx)

	artifact, err := uc.Download(ctx, sel, creds, sink)
	if err != nil {
		if errors.Is(err, types.ErrNoSelection) {
			logger.Info("Nothing selected, no artifact written")
			return nil
		}
		return err
	}

	location, err := store.Save(ctx, artifact)
	if err != nil {
		return goerr.Wrap(err, "failed to save artifact", goerr.V("name", artifact.Name))
	}

	logger.Info("Download finished",
		slog.String("location", location),
		slog.Int("entries", artifact.Entries),
		slog.Int("failures", artifact.Failures),
		slog.Bool("archived", artifact.Archived),
	)
	return nil
}

func artifactWriter(c *cli.Command) io.Writer {
	if w := c.Root().Writer; w != nil {
		return w
	}
	return os.Stdout
}

// progressWriter keeps stdout clean for "--output -"
func progressWriter(c *cli.Command) io.Writer {
	if w := c.Root().ErrWriter; w != nil {
		return w
	}
	return os.Stderr
}
