package config

import (
	"context"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gitzip/pkg/domain/interfaces"
	infra "github.com/m-mizutani/gitzip/pkg/infra/storage"
	"github.com/urfave/cli/v3"
	"google.golang.org/api/option"
)

// Output holds where artifacts are saved
type Output struct {
	Dest        string
	GCSEndpoint string
}

// Flags returns CLI flags for the download output
func (c *Output) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "output",
			Aliases:     []string{"o"},
			Usage:       "Directory, '-' for stdout, or gs://bucket/prefix",
			Value:       ".",
			Destination: &c.Dest,
			Sources:     cli.EnvVars("GITZIP_OUTPUT"),
		},
		gcsEndpointFlag(&c.GCSEndpoint),
	}
}

// Configure returns the store for Dest and a function releasing it
func (c *Output) Configure(ctx context.Context, stdout io.Writer) (interfaces.ArtifactStore, func(), error) {
	return newStore(ctx, c.Dest, c.GCSEndpoint, stdout)
}

// Mirror holds the optional copy destination of served artifacts
type Mirror struct {
	Dest        string
	GCSEndpoint string
}

// Flags returns CLI flags for mirroring
func (c *Mirror) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "mirror",
			Usage:       "Also save served artifacts to a directory or gs://bucket/prefix",
			Destination: &c.Dest,
			Sources:     cli.EnvVars("GITZIP_MIRROR"),
		},
		gcsEndpointFlag(&c.GCSEndpoint),
	}
}

// Configure returns nil when mirroring is disabled
func (c *Mirror) Configure(ctx context.Context) (interfaces.ArtifactStore, func(), error) {
	if c.Dest == "" {
		return nil, func() {}, nil
	}
	if c.Dest == "-" {
		return nil, nil, goerr.New("stdout cannot be a mirror destination")
	}
	return newStore(ctx, c.Dest, c.GCSEndpoint, nil)
}

func gcsEndpointFlag(dst *string) cli.Flag {
	return &cli.StringFlag{
		Name:        "gcs-endpoint",
		Usage:       "Cloud Storage endpoint override, e.g. an emulator. Disables authentication",
		Destination: dst,
		Sources:     cli.EnvVars("GITZIP_GCS_ENDPOINT"),
	}
}

func newStore(ctx context.Context, dest, endpoint string, stdout io.Writer) (interfaces.ArtifactStore, func(), error) {
	switch {
	case dest == "-":
		return infra.NewWriter(stdout), func() {}, nil

	case strings.HasPrefix(dest, "gs://"):
		bucket, prefix, err := infra.ParseGCSURL(dest)
		if err != nil {
			return nil, nil, err
		}

		var opts []option.ClientOption
		if endpoint != "" {
			opts = append(opts, option.WithEndpoint(endpoint), option.WithoutAuthentication())
		}
		client, err := storage.NewClient(ctx, opts...)
		if err != nil {
			return nil, nil, goerr.Wrap(err, "failed to create Cloud Storage client", goerr.V("bucket", bucket))
		}
		return infra.NewGCS(client, bucket, prefix), func() { _ = client.Close() }, nil

	default:
		if dest == "" {
			dest = "."
		}
		return infra.NewLocal(dest), func() {}, nil
	}
}
