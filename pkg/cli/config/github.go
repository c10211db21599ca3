package config

import (
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gitzip/pkg/domain/model"
	"github.com/m-mizutani/gitzip/pkg/infra/github"
	"github.com/urfave/cli/v3"
)

// GitHub holds GitHub API configuration
type GitHub struct {
	Token          string
	AppID          int64
	InstallationID int64
	PrivateKey     string `masq:"secret"`
	PrivateKeyFile string
	APIURL         string
}

// Flags returns CLI flags for GitHub configuration
func (c *GitHub) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "github-token",
			Usage:       "GitHub personal access token",
			Destination: &c.Token,
			Sources:     cli.EnvVars("GITZIP_GITHUB_TOKEN", "GITHUB_TOKEN"),
		},
		&cli.Int64Flag{
			Name:        "github-app-id",
			Usage:       "GitHub App ID",
			Destination: &c.AppID,
			Sources:     cli.EnvVars("GITZIP_GITHUB_APP_ID"),
		},
		&cli.Int64Flag{
			Name:        "github-app-installation-id",
			Usage:       "GitHub App installation ID",
			Destination: &c.InstallationID,
			Sources:     cli.EnvVars("GITZIP_GITHUB_APP_INSTALLATION_ID"),
		},
		&cli.StringFlag{
			Name:        "github-app-private-key",
			Usage:       "GitHub App private key (PEM)",
			Destination: &c.PrivateKey,
			Sources:     cli.EnvVars("GITZIP_GITHUB_APP_PRIVATE_KEY"),
		},
		&cli.StringFlag{
			Name:        "github-app-private-key-file",
			Usage:       "Path to the GitHub App private key file",
			Destination: &c.PrivateKeyFile,
			Sources:     cli.EnvVars("GITZIP_GITHUB_APP_PRIVATE_KEY_FILE"),
		},
		&cli.StringFlag{
			Name:        "github-api-url",
			Usage:       "GitHub API base URL (for GitHub Enterprise Server)",
			Destination: &c.APIURL,
			Sources:     cli.EnvVars("GITZIP_GITHUB_API_URL"),
		},
	}
}

// Configure returns the credentials given by flags. A token wins over App
// settings. No flags at all yields empty credentials, which callers may
// replace per request.
func (c *GitHub) Configure() (*model.Credentials, error) {
	if c.Token != "" {
		return &model.Credentials{Token: c.Token}, nil
	}
	if c.AppID == 0 && c.InstallationID == 0 && c.PrivateKey == "" && c.PrivateKeyFile == "" {
		return &model.Credentials{}, nil
	}

	if c.AppID == 0 || c.InstallationID == 0 {
		return nil, goerr.New("both --github-app-id and --github-app-installation-id are required",
			goerr.V("app_id", c.AppID), goerr.V("installation_id", c.InstallationID))
	}

	key := []byte(c.PrivateKey)
	if len(key) == 0 {
		if c.PrivateKeyFile == "" {
			return nil, goerr.New("GitHub App private key is required")
		}
		data, err := os.ReadFile(c.PrivateKeyFile)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to read GitHub App private key", goerr.V("path", c.PrivateKeyFile))
		}
		key = data
	}

	return &model.Credentials{
		App: &model.AppCredentials{
			AppID:          c.AppID,
			InstallationID: c.InstallationID,
			PrivateKey:     key,
		},
	}, nil
}

// Factory returns the fetcher factory for the configured API endpoint
func (c *GitHub) Factory() *github.Factory {
	var opts []github.Option
	if c.APIURL != "" {
		opts = append(opts, github.WithBaseURL(c.APIURL))
	}
	return github.NewFactory(opts...)
}
