package github

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/bradleyfalzon/ghinstallation/v2"
	"github.com/google/go-github/v75/github"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gitzip/pkg/domain/interfaces"
	"github.com/m-mizutani/gitzip/pkg/domain/model"
	"github.com/m-mizutani/gitzip/pkg/domain/types"
)

type config struct {
	baseURL   string
	transport http.RoundTripper
}

// Option configures clients built by NewClient and Factory
type Option func(*config)

// WithBaseURL points the client at another API root, e.g. GitHub Enterprise or a test server
func WithBaseURL(baseURL string) Option {
	return func(c *config) {
		c.baseURL = baseURL
	}
}

// WithTransport sets the underlying HTTP transport
func WithTransport(tr http.RoundTripper) Option {
	return func(c *config) {
		c.transport = tr
	}
}

type client struct {
	githubClient *github.Client
}

// NewClient creates a ContentFetcher authenticated with a personal token or a GitHub App installation
func NewClient(creds *model.Credentials, opts ...Option) (interfaces.ContentFetcher, error) {
	if creds.IsEmpty() {
		return nil, goerr.Wrap(types.ErrAuthRequired, "no token or GitHub App credential")
	}

	cfg := &config{
		transport: http.DefaultTransport,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	var githubClient *github.Client
	if creds.Token != "" {
		githubClient = github.NewClient(&http.Client{Transport: cfg.transport}).WithAuthToken(creds.Token)
	} else {
		itr, err := ghinstallation.New(cfg.transport, creds.App.AppID, creds.App.InstallationID, creds.App.PrivateKey)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create GitHub App transport",
				goerr.V("app_id", creds.App.AppID),
				goerr.V("installation_id", creds.App.InstallationID))
		}
		if cfg.baseURL != "" {
			itr.BaseURL = strings.TrimSuffix(cfg.baseURL, "/")
		}
		githubClient = github.NewClient(&http.Client{Transport: itr})
	}

	if cfg.baseURL != "" {
		base, err := url.Parse(strings.TrimSuffix(cfg.baseURL, "/") + "/")
		if err != nil {
			return nil, goerr.Wrap(err, "invalid GitHub API base URL", goerr.V("base_url", cfg.baseURL))
		}
		githubClient.BaseURL = base
	}

	return &client{
		githubClient: githubClient,
	}, nil
}

// FetchMetadata reads the contents API for one path
func (c *client) FetchMetadata(ctx context.Context, loc model.RepoLocator) (*model.Metadata, error) {
	ctxlog.From(ctx).Debug("Fetching contents", "url", loc.ContentsURL(c.githubClient.BaseURL.String()))

	opts := &github.RepositoryContentGetOptions{
		Ref: loc.Branch,
	}
	fileContent, dirContent, _, err := c.githubClient.Repositories.GetContents(ctx, loc.Owner, loc.Project, loc.Path, opts)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get contents",
			goerr.V("owner", loc.Owner),
			goerr.V("project", loc.Project),
			goerr.V("path", loc.Path),
			goerr.V("ref", loc.Branch))
	}

	if fileContent == nil {
		meta := &model.Metadata{
			Kind:     model.KindDirectory,
			Children: make([]model.Child, 0, len(dirContent)),
		}
		for _, item := range dirContent {
			meta.Children = append(meta.Children, model.Child{
				Name: item.GetName(),
				Kind: model.NodeKind(item.GetType()),
			})
		}
		return meta, nil
	}

	if t := fileContent.GetType(); t != "" && t != string(model.KindFile) {
		return nil, goerr.New("contents API returned a non-file object",
			goerr.V("path", loc.Path), goerr.V("type", t))
	}

	meta := &model.Metadata{
		Kind: model.KindFile,
		File: model.FileMetadata{
			Encoding:    fileContent.GetEncoding(),
			DownloadURL: fileContent.GetDownloadURL(),
			Size:        fileContent.GetSize(),
		},
	}
	if fileContent.Content != nil {
		meta.File.Content = *fileContent.Content
	}

	return meta, nil
}

// FetchBytes downloads raw content through the authenticated client
func (c *client) FetchBytes(ctx context.Context, downloadURL string) ([]byte, error) {
	req, err := c.githubClient.NewRequest(http.MethodGet, downloadURL, nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create download request", goerr.V("url", downloadURL))
	}
	req.Header.Set("Accept", "application/octet-stream")

	resp, err := c.githubClient.BareDo(ctx, req)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to download content", goerr.V("url", downloadURL))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read response body", goerr.V("url", downloadURL))
	}

	return data, nil
}

// Factory builds clients per credential
type Factory struct {
	opts []Option
}

// NewFactory creates a Factory whose clients share opts
func NewFactory(opts ...Option) *Factory {
	return &Factory{opts: opts}
}

// NewFetcher implements interfaces.FetcherFactory
func (f *Factory) NewFetcher(ctx context.Context, creds *model.Credentials) (interfaces.ContentFetcher, error) {
	return NewClient(creds, f.opts...)
}
