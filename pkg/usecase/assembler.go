package usecase

import (
	"archive/tar"
	"bytes"
	"context"
	"io"
	"io/fs"
	"mime"
	"path"
	"strings"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gitzip/pkg/domain/interfaces"
	"github.com/m-mizutani/gitzip/pkg/domain/model"
	"github.com/m-mizutani/gitzip/pkg/domain/types"
)

const (
	archiveNameDelimiter = "-"
	fileMode             = fs.FileMode(0644)
	dirMode              = fs.FileMode(0755)
)

type assembler struct {
	format model.ArchiveFormat
	clock  func() time.Time
}

// AssemblerOption configures NewAssembler
type AssemblerOption func(*assembler)

// WithFormat sets the archive container. The default is zip.
func WithFormat(format model.ArchiveFormat) AssemblerOption {
	return func(a *assembler) {
		a.format = format
	}
}

// WithClock replaces the capture time source
func WithClock(clock func() time.Time) AssemblerOption {
	return func(a *assembler) {
		a.clock = clock
	}
}

// NewAssembler creates an AssembleUseCase
func NewAssembler(opts ...AssemblerOption) interfaces.AssembleUseCase {
	a := &assembler{
		format: model.FormatZip,
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Assemble returns the raw bytes of the only entry when the result holds
// exactly one entry and no failures. Otherwise it builds an archive with one
// member per entry, all stamped with the same capture time.
func (a *assembler) Assemble(ctx context.Context, result *model.CollectionResult, origin model.RepoLocator) (*model.Artifact, error) {
	logger := ctxlog.From(ctx)
	if result == nil {
		result = &model.CollectionResult{}
	}

	if result.IsSingleFile() {
		entry := result.Entries[0]
		data, err := entry.Payload.Bytes()
		if err != nil {
			return nil, goerr.Wrap(types.ErrArchive, "failed to decode single file",
				goerr.V("path", entry.RelativePath),
				goerr.V("cause", err.Error()))
		}

		logger.Info("Assembled single file", "name", entry.RelativePath, "size_bytes", len(data))
		return &model.Artifact{
			Name:        entry.RelativePath,
			ContentType: contentTypeOf(entry.RelativePath),
			Data:        data,
			Entries:     1,
		}, nil
	}

	captured := a.clock().Truncate(time.Second)

	var (
		data []byte
		err  error
	)
	switch a.format {
	case model.FormatTarZstd:
		data, err = writeTarZstd(result.Entries, captured)
	case model.FormatZip, "":
		data, err = writeZip(result.Entries, captured)
	default:
		return nil, goerr.Wrap(types.ErrArchive, "unsupported archive format", goerr.V("format", a.format))
	}
	if err != nil {
		return nil, err
	}

	format := a.format
	if format == "" {
		format = model.FormatZip
	}
	artifact := &model.Artifact{
		Name:        ArchiveName(origin, format),
		ContentType: format.ContentType(),
		Data:        data,
		Archived:    true,
		Entries:     len(result.Entries),
		Failures:    len(result.Failures),
	}

	logger.Info("Assembled archive",
		"name", artifact.Name,
		"entries", artifact.Entries,
		"failures", artifact.Failures,
		"size_bytes", len(data),
	)

	return artifact, nil
}

// ArchiveName joins the project and the origin path segments with "-" and
// appends the format extension, e.g. "demo-docs-guide.zip"
func ArchiveName(origin model.RepoLocator, format model.ArchiveFormat) string {
	parts := append([]string{origin.Project}, origin.Segments()...)
	return strings.Join(parts, archiveNameDelimiter) + format.Extension()
}

func contentTypeOf(name string) string {
	if ct := mime.TypeByExtension(path.Ext(name)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// parentDirs returns the directory members needed before name, outermost first,
// that are not yet in seen
func parentDirs(name string, seen map[string]bool) []string {
	var dirs []string
	for i := 0; i < len(name); i++ {
		if name[i] != '/' {
			continue
		}
		dir := name[:i+1]
		if dir == "/" || seen[dir] {
			continue
		}
		seen[dir] = true
		dirs = append(dirs, dir)
	}
	return dirs
}

func memberName(relPath string) string {
	return strings.TrimLeft(path.Clean("/"+relPath), "/")
}

func writeZip(entries []model.ContentEntry, modified time.Time) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	seen := map[string]bool{}

	for _, entry := range entries {
		name := memberName(entry.RelativePath)

		for _, dir := range parentDirs(name, seen) {
			hdr := &zip.FileHeader{
				Name:     dir,
				Method:   zip.Store,
				Modified: modified,
			}
			hdr.SetMode(fs.ModeDir | dirMode)
			if _, err := zw.CreateHeader(hdr); err != nil {
				return nil, goerr.Wrap(types.ErrArchive, "failed to create directory member",
					goerr.V("name", dir), goerr.V("cause", err.Error()))
			}
		}

		data, err := entry.Payload.Bytes()
		if err != nil {
			return nil, goerr.Wrap(types.ErrArchive, "failed to decode entry",
				goerr.V("name", name), goerr.V("cause", err.Error()))
		}

		hdr := &zip.FileHeader{
			Name:     name,
			Method:   zip.Deflate,
			Modified: modified,
		}
		hdr.SetMode(fileMode)
		w, err := zw.CreateHeader(hdr)
		if err != nil {
			return nil, goerr.Wrap(types.ErrArchive, "failed to create file member",
				goerr.V("name", name), goerr.V("cause", err.Error()))
		}
		if _, err := w.Write(data); err != nil {
			return nil, goerr.Wrap(types.ErrArchive, "failed to write file member",
				goerr.V("name", name), goerr.V("cause", err.Error()))
		}
	}

	if err := zw.Close(); err != nil {
		return nil, goerr.Wrap(types.ErrArchive, "failed to finalize zip", goerr.V("cause", err.Error()))
	}
	return buf.Bytes(), nil
}

func writeTarZstd(entries []model.ContentEntry, modified time.Time) ([]byte, error) {
	var buf bytes.Buffer
	enc, err := zstd.NewWriter(&buf)
	if err != nil {
		return nil, goerr.Wrap(types.ErrArchive, "failed to create zstd encoder", goerr.V("cause", err.Error()))
	}

	if err := writeTar(enc, entries, modified); err != nil {
		_ = enc.Close()
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, goerr.Wrap(types.ErrArchive, "failed to finalize zstd stream", goerr.V("cause", err.Error()))
	}
	return buf.Bytes(), nil
}

func writeTar(w io.Writer, entries []model.ContentEntry, modified time.Time) error {
	tw := tar.NewWriter(w)
	seen := map[string]bool{}

	for _, entry := range entries {
		name := memberName(entry.RelativePath)

		for _, dir := range parentDirs(name, seen) {
			hdr := &tar.Header{
				Typeflag: tar.TypeDir,
				Name:     dir,
				Mode:     int64(dirMode),
				ModTime:  modified,
			}
			if err := tw.WriteHeader(hdr); err != nil {
				return goerr.Wrap(types.ErrArchive, "failed to create directory member",
					goerr.V("name", dir), goerr.V("cause", err.Error()))
			}
		}

		data, err := entry.Payload.Bytes()
		if err != nil {
			return goerr.Wrap(types.ErrArchive, "failed to decode entry",
				goerr.V("name", name), goerr.V("cause", err.Error()))
		}

		hdr := &tar.Header{
			Typeflag: tar.TypeReg,
			Name:     name,
			Mode:     int64(fileMode),
			Size:     int64(len(data)),
			ModTime:  modified,
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return goerr.Wrap(types.ErrArchive, "failed to create file member",
				goerr.V("name", name), goerr.V("cause", err.Error()))
		}
		if _, err := tw.Write(data); err != nil {
			return goerr.Wrap(types.ErrArchive, "failed to write file member",
				goerr.V("name", name), goerr.V("cause", err.Error()))
		}
	}

	if err := tw.Close(); err != nil {
		return goerr.Wrap(types.ErrArchive, "failed to finalize tar", goerr.V("cause", err.Error()))
	}
	return nil
}
