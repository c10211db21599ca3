package storage

import (
	"context"
	"io"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gitzip/pkg/domain/model"
)

// Writer streams artifacts to an io.Writer such as stdout
type Writer struct {
	w io.Writer
}

// NewWriter creates a Writer store
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Save writes the artifact bytes and returns "-" as location
func (s *Writer) Save(ctx context.Context, artifact *model.Artifact) (string, error) {
	if _, err := s.w.Write(artifact.Data); err != nil {
		return "", goerr.Wrap(err, "failed to write artifact", goerr.V("name", artifact.Name))
	}
	return "-", nil
}
