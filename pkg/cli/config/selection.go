package config

import (
	"os"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gitzip/pkg/domain/model"
	"github.com/pelletier/go-toml/v2"
	"github.com/urfave/cli/v3"
)

// Selection holds the items chosen for a download
type Selection struct {
	Origin   string
	Items    []string
	Manifest string
}

// manifest is the TOML layout of a saved selection:
//
//	origin = "https://github.com/octo/demo/tree/main"
//
//	[[items]]
//	href = "https://github.com/octo/demo/tree/main/docs"
//	title = "manual"
type manifest struct {
	Origin string                `toml:"origin"`
	Items  []model.SelectionItem `toml:"items"`
}

// Flags returns CLI flags for the selection
func (c *Selection) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "origin",
			Usage:       "GitHub URL of the page the items are selected from. Names the archive",
			Destination: &c.Origin,
			Sources:     cli.EnvVars("GITZIP_ORIGIN"),
		},
		&cli.StringSliceFlag{
			Name:        "item",
			Aliases:     []string{"i"},
			Usage:       "Selected file or directory URL, optionally followed by =title. Repeatable",
			Destination: &c.Items,
		},
		&cli.StringFlag{
			Name:        "manifest",
			Aliases:     []string{"m"},
			Usage:       "TOML file with origin and [[items]]",
			Destination: &c.Manifest,
			Sources:     cli.EnvVars("GITZIP_MANIFEST"),
		},
	}
}

// Configure builds the selection from the manifest and --item flags.
// Manifest items come first. --origin overrides the manifest origin and
// defaults to the first item.
func (c *Selection) Configure() (*model.Selection, error) {
	var m manifest
	if c.Manifest != "" {
		data, err := os.ReadFile(c.Manifest)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to read manifest", goerr.V("path", c.Manifest))
		}
		if err := toml.Unmarshal(data, &m); err != nil {
			return nil, goerr.Wrap(err, "failed to parse manifest", goerr.V("path", c.Manifest))
		}
	}

	items := m.Items
	for _, raw := range c.Items {
		items = append(items, parseItem(raw))
	}

	origin := m.Origin
	if c.Origin != "" {
		origin = c.Origin
	}
	if origin == "" && len(items) > 0 {
		origin = items[0].Href
	}

	sel, err := model.NewSelection(origin, items)
	if err != nil {
		return nil, goerr.Wrap(err, "invalid selection")
	}
	return sel, nil
}

// parseItem splits "URL=title". Item URLs never carry a query, so the first
// "=" separates the title.
func parseItem(raw string) model.SelectionItem {
	href, title, _ := strings.Cut(strings.TrimSpace(raw), "=")
	return model.SelectionItem{Href: href, Title: title}
}
