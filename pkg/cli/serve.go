package cli

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gitzip/pkg/cli/config"
	controller "github.com/m-mizutani/gitzip/pkg/controller/http"
	"github.com/m-mizutani/gitzip/pkg/utils/async"
	"github.com/urfave/cli/v3"
)

func cmdServe() *cli.Command {
	var (
		serverCfg   config.Server
		githubCfg   config.GitHub
		pipelineCfg config.Pipeline
		mirrorCfg   config.Mirror
		sentryCfg   config.Sentry
	)

	flags := append(serverCfg.Flags(), githubCfg.Flags()...)
	flags = append(flags, pipelineCfg.Flags()...)
	flags = append(flags, mirrorCfg.Flags()...)
	flags = append(flags, sentryCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := ctxlog.From(ctx)

			logger.Info("Starting gitzip server",
				slog.String("addr", serverCfg.Addr),
				slog.String("format", pipelineCfg.Format),
				slog.String("mirror", mirrorCfg.Dest),
				slog.Bool("sentry", sentryCfg.Enabled()),
			)

			if err := sentryCfg.Configure(); err != nil {
				return err
			}
			defer sentry.Flush(2 * time.Second)

			creds, err := githubCfg.Configure()
			if err != nil {
				return err
			}
			if creds.IsEmpty() {
				logger.Warn("No default GitHub credential, requests must carry an Authorization header")
			}

			downloadUC, err := pipelineCfg.Configure(githubCfg.Factory())
			if err != nil {
				return err
			}

			mirror, release, err := mirrorCfg.Configure(ctx)
			if err != nil {
				return err
			}
			defer release()

			dispatcher := async.NewDispatcher()
			opts := []controller.Option{
				controller.WithAddr(serverCfg.Addr),
				controller.WithCredentials(creds),
				controller.WithDispatcher(dispatcher),
			}
			if mirror != nil {
				opts = append(opts, controller.WithMirror(mirror))
			}

			// Create HTTP server with options
			server, err := controller.NewServer(ctx, downloadUC, opts...)
			if err != nil {
				return goerr.Wrap(err, "failed to create HTTP server")
			}

			// Start server in goroutine
			go func() {
				logger.Info("HTTP server starting", slog.String("addr", serverCfg.Addr))
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Error("HTTP server error", slog.Any("error", err))
				}
			}()

			// Wait for interrupt signal
			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

			select {
			case <-ctx.Done():
				logger.Info("Context cancelled, shutting down...")
			case sig := <-sigChan:
				logger.Info("Signal received, shutting down...", slog.Any("signal", sig))
			}

			// Graceful shutdown
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), serverCfg.ShutdownTimeout)
			defer cancel()

			if err := server.Shutdown(shutdownCtx); err != nil {
				return goerr.Wrap(err, "failed to shutdown server gracefully")
			}
			if err := dispatcher.Wait(shutdownCtx); err != nil {
				logger.Warn("Pending mirror uploads were abandoned", slog.Any("error", err))
			}

			logger.Info("Server shutdown complete")
			return nil
		},
	}
}
