package model

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gitzip/pkg/domain/types"
)

// NodeKind is the kind of a node in the repository tree
type NodeKind string

const (
	KindFile      NodeKind = "file"
	KindDirectory NodeKind = "dir"
	KindRoot      NodeKind = "root"
	KindSymlink   NodeKind = "symlink"
	KindSubmodule NodeKind = "submodule"
)

const (
	githubWebBase = "https://github.com"
	githubAPIBase = "https://api.github.com"
)

var repoURLPattern = regexp.MustCompile(`^https://github\.com/([^/]+)/([^/]+)(/(tree|blob)/([^/]+)(/(.*))?)?`)

// RepoLocator identifies one addressable node in a remote repository tree
type RepoLocator struct {
	Owner   string   `json:"owner"`
	Project string   `json:"project"`
	Branch  string   `json:"branch,omitempty"` // empty means default branch
	Path    string   `json:"path"`
	Kind    NodeKind `json:"kind"`
}

// ParseRepoURL resolves a GitHub web URL such as
// https://github.com/owner/project/tree/main/docs into a RepoLocator.
func ParseRepoURL(raw string) (RepoLocator, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return RepoLocator{}, goerr.Wrap(types.ErrInvalidRepository, "failed to parse repository URL",
			goerr.V("url", raw), goerr.V("cause", err.Error()))
	}
	u.RawQuery = ""
	u.Fragment = ""
	cleaned := strings.TrimSuffix(u.String(), "/")

	m := repoURLPattern.FindStringSubmatch(cleaned)
	if m == nil {
		return RepoLocator{}, goerr.Wrap(types.ErrInvalidRepository, "not a GitHub repository URL", goerr.V("url", raw))
	}

	loc := RepoLocator{
		Owner:   m[1],
		Project: m[2],
		Branch:  m[5],
	}

	switch m[4] {
	case "blob":
		loc.Kind = KindFile
	case "tree":
		loc.Kind = KindDirectory
	default:
		loc.Kind = KindRoot
		root := fmt.Sprintf("%s/%s/%s", githubWebBase, loc.Owner, loc.Project)
		if len(cleaned) > len(root) {
			return RepoLocator{}, goerr.Wrap(types.ErrInvalidRepository, "unsupported repository page", goerr.V("url", raw))
		}
	}

	if m[7] != "" {
		p, err := url.PathUnescape(m[7])
		if err != nil {
			return RepoLocator{}, goerr.Wrap(types.ErrInvalidRepository, "failed to unescape path",
				goerr.V("url", raw), goerr.V("cause", err.Error()))
		}
		loc.Path = p
	}

	if loc.Kind == KindFile && loc.Path == "" {
		return RepoLocator{}, goerr.Wrap(types.ErrInvalidRepository, "file URL without path", goerr.V("url", raw))
	}

	return loc, nil
}

// Validate checks that the locator addresses a repository
func (l RepoLocator) Validate() error {
	if l.Owner == "" || l.Project == "" {
		return goerr.Wrap(types.ErrInvalidRepository, "owner and project are required", goerr.V("locator", l.String()))
	}
	switch l.Kind {
	case KindFile:
		if l.Path == "" {
			return goerr.Wrap(types.ErrInvalidRepository, "file locator without path", goerr.V("locator", l.String()))
		}
	case KindDirectory, KindRoot:
	default:
		return goerr.Wrap(types.ErrInvalidRepository, "unsupported locator kind",
			goerr.V("locator", l.String()), goerr.V("kind", l.Kind))
	}
	return nil
}

// Child returns the locator of a named child of a directory locator
func (l RepoLocator) Child(name string, kind NodeKind) RepoLocator {
	child := l
	child.Kind = kind
	if l.Path == "" {
		child.Path = name
	} else {
		child.Path = l.Path + "/" + name
	}
	return child
}

// Segments returns the non-empty path segments
func (l RepoLocator) Segments() []string {
	var segments []string
	for _, s := range strings.Split(l.Path, "/") {
		if s != "" {
			segments = append(segments, s)
		}
	}
	return segments
}

// Name returns the last path segment, or the project name for the root
func (l RepoLocator) Name() string {
	segments := l.Segments()
	if len(segments) == 0 {
		return l.Project
	}
	return segments[len(segments)-1]
}

// ContentsURL returns the contents API endpoint for the locator below
// apiBase. An empty apiBase means api.github.com.
func (l RepoLocator) ContentsURL(apiBase string) string {
	apiBase = strings.TrimSuffix(apiBase, "/")
	if apiBase == "" {
		apiBase = githubAPIBase
	}
	u := fmt.Sprintf("%s/repos/%s/%s/contents/%s", apiBase, l.Owner, l.Project, (&url.URL{Path: l.Path}).EscapedPath())
	if l.Branch != "" {
		u += "?ref=" + url.QueryEscape(l.Branch)
	}
	return u
}

func (l RepoLocator) String() string {
	s := l.Owner + "/" + l.Project
	if l.Branch != "" {
		s += "@" + l.Branch
	}
	return s + ":" + l.Path
}
