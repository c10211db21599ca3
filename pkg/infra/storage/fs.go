package storage

import (
	"context"
	"path"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gitzip/pkg/domain/model"
)

// FS saves artifacts into a billy filesystem
type FS struct {
	fs billy.Filesystem
}

// NewFS creates a store on top of fs
func NewFS(fs billy.Filesystem) *FS {
	return &FS{fs: fs}
}

// NewLocal creates a store rooted at a local directory
func NewLocal(dir string) *FS {
	return NewFS(osfs.New(dir))
}

// Save writes the artifact under its suggested name, creating parent directories
func (s *FS) Save(ctx context.Context, artifact *model.Artifact) (string, error) {
	name, err := cleanName(artifact.Name)
	if err != nil {
		return "", err
	}

	if dir := path.Dir(name); dir != "." {
		if err := s.fs.MkdirAll(dir, 0755); err != nil {
			return "", goerr.Wrap(err, "failed to create parent directory", goerr.V("dir", dir))
		}
	}

	if err := util.WriteFile(s.fs, name, artifact.Data, 0644); err != nil {
		return "", goerr.Wrap(err, "failed to write artifact", goerr.V("name", name))
	}

	location := s.fs.Join(s.fs.Root(), name)
	ctxlog.From(ctx).Info("Saved artifact", "location", location, "size_bytes", len(artifact.Data))
	return location, nil
}

// cleanName keeps the artifact inside the store root
func cleanName(name string) (string, error) {
	cleaned := strings.TrimLeft(path.Clean("/"+name), "/")
	if cleaned == "" {
		return "", goerr.New("artifact has no name")
	}
	return cleaned, nil
}
