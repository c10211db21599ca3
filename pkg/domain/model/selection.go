package model

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gitzip/pkg/domain/types"
)

// SelectionItem is one checked row as provided by the caller
type SelectionItem struct {
	Href  string `json:"href" toml:"href"`
	Title string `json:"title,omitempty" toml:"title,omitempty"`
}

// SelectionRef is a selected file or directory. It is not modified after creation.
type SelectionRef struct {
	Kind        NodeKind
	Locator     RepoLocator
	DisplayName string
}

// Selection is the set of items chosen for one download action
type Selection struct {
	Origin      RepoLocator // page the selection was made on; names the archive
	Files       []SelectionRef
	Directories []SelectionRef
}

// NewSelection classifies items into files and directories, keeping their
// order. An empty item list yields an empty selection without resolving the
// origin.
func NewSelection(originURL string, items []SelectionItem) (*Selection, error) {
	sel := &Selection{}
	if len(items) == 0 {
		return sel, nil
	}

	origin, err := ParseRepoURL(originURL)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to resolve origin", goerr.V("origin", originURL))
	}
	sel.Origin = origin

	for _, item := range items {
		loc, err := ParseRepoURL(item.Href)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to resolve selected item", goerr.V("href", item.Href))
		}

		ref := SelectionRef{
			Kind:        loc.Kind,
			Locator:     loc,
			DisplayName: item.Title,
		}
		if ref.DisplayName == "" {
			ref.DisplayName = loc.Name()
		}

		switch loc.Kind {
		case KindFile:
			sel.Files = append(sel.Files, ref)
		case KindDirectory:
			sel.Directories = append(sel.Directories, ref)
		default:
			return nil, goerr.Wrap(types.ErrInvalidRepository, "selected item is neither a file nor a directory",
				goerr.V("href", item.Href))
		}
	}

	return sel, nil
}

// IsEmpty reports whether nothing is selected
func (s *Selection) IsEmpty() bool {
	return s == nil || (len(s.Files) == 0 && len(s.Directories) == 0)
}

// Validate checks the origin and every selected locator
func (s *Selection) Validate() error {
	if err := s.Origin.Validate(); err != nil {
		return goerr.Wrap(err, "invalid origin")
	}
	for _, ref := range s.Directories {
		if ref.Locator.Kind != KindDirectory {
			return goerr.Wrap(types.ErrInvalidRepository, "selected directory is not a directory locator",
				goerr.V("locator", ref.Locator.String()))
		}
		if err := ref.Locator.Validate(); err != nil {
			return goerr.Wrap(err, "invalid selected directory")
		}
	}
	for _, ref := range s.Files {
		if ref.Locator.Kind != KindFile {
			return goerr.Wrap(types.ErrInvalidRepository, "selected file is not a file locator",
				goerr.V("locator", ref.Locator.String()))
		}
		if err := ref.Locator.Validate(); err != nil {
			return goerr.Wrap(err, "invalid selected file")
		}
	}
	return nil
}
