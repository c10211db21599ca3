package storage

import (
	"context"
	"fmt"
	"path"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gitzip/pkg/domain/model"
)

// GCS saves artifacts as Cloud Storage objects
type GCS struct {
	client *storage.Client
	bucket string
	prefix string
}

// NewGCS creates a store writing to gs://bucket/prefix
func NewGCS(client *storage.Client, bucket, prefix string) *GCS {
	return &GCS{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
	}
}

// ParseGCSURL splits "gs://bucket/prefix" into bucket and prefix
func ParseGCSURL(raw string) (bucket, prefix string, err error) {
	rest, ok := strings.CutPrefix(raw, "gs://")
	if !ok {
		return "", "", goerr.New("not a gs:// URL", goerr.V("url", raw))
	}
	bucket, prefix, _ = strings.Cut(rest, "/")
	if bucket == "" {
		return "", "", goerr.New("bucket name is empty", goerr.V("url", raw))
	}
	return bucket, strings.Trim(prefix, "/"), nil
}

// ObjectName returns the object name used for an artifact name
func (s *GCS) ObjectName(name string) (string, error) {
	cleaned, err := cleanName(name)
	if err != nil {
		return "", err
	}
	if s.prefix == "" {
		return cleaned, nil
	}
	return path.Join(s.prefix, cleaned), nil
}

// Save uploads the artifact
func (s *GCS) Save(ctx context.Context, artifact *model.Artifact) (string, error) {
	objName, err := s.ObjectName(artifact.Name)
	if err != nil {
		return "", err
	}

	w := s.client.Bucket(s.bucket).Object(objName).NewWriter(ctx)
	w.ContentType = artifact.ContentType
	w.ContentDisposition = fmt.Sprintf(`attachment; filename="%s"`, path.Base(objName))

	if _, err := w.Write(artifact.Data); err != nil {
		_ = w.Close()
		return "", goerr.Wrap(err, "failed to upload artifact",
			goerr.V("bucket", s.bucket), goerr.V("object", objName))
	}
	if err := w.Close(); err != nil {
		return "", goerr.Wrap(err, "failed to finalize upload",
			goerr.V("bucket", s.bucket), goerr.V("object", objName))
	}

	location := fmt.Sprintf("gs://%s/%s", s.bucket, objName)
	ctxlog.From(ctx).Info("Uploaded artifact", "location", location, "size_bytes", len(artifact.Data))
	return location, nil
}
