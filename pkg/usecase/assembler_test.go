package usecase_test

import (
	"archive/tar"
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
	"github.com/m-mizutani/gt"

	"github.com/m-mizutani/gitzip/pkg/domain/model"
	"github.com/m-mizutani/gitzip/pkg/domain/types"
	"github.com/m-mizutani/gitzip/pkg/usecase"
)

var captureTime = time.Date(2026, 10, 18, 9, 30, 15, 0, time.UTC)

func fixedClock() time.Time {
	return captureTime.Add(400 * time.Millisecond)
}

func textEntry(path, content string) model.ContentEntry {
	// Mimic the contents API, which wraps base64 with newlines
	encoded := base64.StdEncoding.EncodeToString([]byte(content))
	var wrapped string
	for len(encoded) > 8 {
		wrapped += encoded[:8] + "\n"
		encoded = encoded[8:]
	}
	wrapped += encoded + "\n"
	return model.ContentEntry{RelativePath: path, Payload: model.TextPayload{Base64: wrapped}}
}

func binaryEntry(path string, data []byte) model.ContentEntry {
	return model.ContentEntry{RelativePath: path, Payload: model.BinaryPayload{Data: data}}
}

type zipMember struct {
	name     string
	data     string
	isDir    bool
	modified time.Time
}

func readZip(t *testing.T, data []byte) []zipMember {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	gt.NoError(t, err).Required()

	var members []zipMember
	for _, f := range zr.File {
		rc, err := f.Open()
		gt.NoError(t, err).Required()
		content, err := io.ReadAll(rc)
		gt.NoError(t, err)
		gt.NoError(t, rc.Close())

		members = append(members, zipMember{
			name:     f.Name,
			data:     string(content),
			isDir:    f.FileInfo().IsDir(),
			modified: f.Modified,
		})
	}
	return members
}

func TestAssembler_SingleTextFile(t *testing.T) {
	result := &model.CollectionResult{
		Entries: []model.ContentEntry{textEntry("README.md", "# Hello\n\nworld")},
	}

	artifact, err := usecase.NewAssembler().Assemble(context.Background(), result, locator("", model.KindRoot))
	gt.NoError(t, err)

	gt.False(t, artifact.Archived)
	gt.Value(t, artifact.Name).Equal("README.md")
	gt.Value(t, string(artifact.Data)).Equal("# Hello\n\nworld")
	gt.Value(t, artifact.Entries).Equal(1)
}

func TestAssembler_SingleBinaryFile(t *testing.T) {
	png := []byte{0x89, 'P', 'N', 'G', 0x00, 0xff, 0xfe}
	result := &model.CollectionResult{
		Entries: []model.ContentEntry{binaryEntry("logo.png", png)},
	}

	artifact, err := usecase.NewAssembler().Assemble(context.Background(), result, locator("assets", model.KindDirectory))
	gt.NoError(t, err)

	gt.False(t, artifact.Archived)
	gt.Value(t, artifact.Name).Equal("logo.png")
	gt.Value(t, artifact.ContentType).Equal("image/png")
	gt.Value(t, artifact.Data).Equal(png)
}

func TestAssembler_ZipArchive(t *testing.T) {
	png := []byte{0x89, 'P', 'N', 'G', 0x00}
	result := &model.CollectionResult{
		Entries: []model.ContentEntry{
			textEntry("docs/a.md", "alpha"),
			textEntry("docs/sub/b.md", "bravo"),
			binaryEntry("docs/sub/logo.png", png),
			textEntry("README.md", "readme"),
		},
	}

	asm := usecase.NewAssembler(usecase.WithClock(fixedClock))
	artifact, err := asm.Assemble(context.Background(), result, locator("docs", model.KindDirectory))
	gt.NoError(t, err).Required()

	gt.True(t, artifact.Archived)
	gt.Value(t, artifact.Name).Equal("demo-docs.zip")
	gt.Value(t, artifact.ContentType).Equal("application/zip")
	gt.Value(t, artifact.Entries).Equal(4)

	members := readZip(t, artifact.Data)
	var names []string
	for _, m := range members {
		names = append(names, m.name)
		gt.True(t, m.modified.Equal(captureTime))
	}
	gt.Value(t, names).Equal([]string{
		"docs/",
		"docs/a.md",
		"docs/sub/",
		"docs/sub/b.md",
		"docs/sub/logo.png",
		"README.md",
	})

	gt.True(t, members[0].isDir)
	gt.Value(t, members[1].data).Equal("alpha")
	gt.Value(t, members[3].data).Equal("bravo")
	gt.Value(t, []byte(members[4].data)).Equal(png)
	gt.Value(t, members[5].data).Equal("readme")
}

func TestAssembler_FailuresAreNotMembers(t *testing.T) {
	result := &model.CollectionResult{
		Entries: []model.ContentEntry{textEntry("docs/a.md", "alpha")},
		Failures: []*model.FetchFailure{
			model.NewFetchFailure(locator("docs/b.md", model.KindFile), "docs/b.md", errors.New("404")),
		},
	}

	artifact, err := usecase.NewAssembler(usecase.WithClock(fixedClock)).
		Assemble(context.Background(), result, locator("docs", model.KindDirectory))
	gt.NoError(t, err)

	// One entry with a failure is still an archive
	gt.True(t, artifact.Archived)
	gt.Value(t, artifact.Failures).Equal(1)

	members := readZip(t, artifact.Data)
	gt.A(t, members).Length(2)
	gt.Value(t, members[0].name).Equal("docs/")
	gt.Value(t, members[1].name).Equal("docs/a.md")
}

func TestAssembler_Reproducible(t *testing.T) {
	result := &model.CollectionResult{
		Entries: []model.ContentEntry{
			textEntry("a/1.txt", "one"),
			textEntry("a/2.txt", "two"),
			binaryEntry("b/3.bin", []byte{1, 2, 3}),
		},
	}
	origin := locator("", model.KindRoot)

	first, err := usecase.NewAssembler(usecase.WithClock(fixedClock)).Assemble(context.Background(), result, origin)
	gt.NoError(t, err)
	second, err := usecase.NewAssembler(usecase.WithClock(fixedClock)).Assemble(context.Background(), result, origin)
	gt.NoError(t, err)
	gt.Value(t, first.Data).Equal(second.Data)

	later := func() time.Time { return captureTime.Add(time.Hour) }
	third, err := usecase.NewAssembler(usecase.WithClock(later)).Assemble(context.Background(), result, origin)
	gt.NoError(t, err)

	a, c := readZip(t, first.Data), readZip(t, third.Data)
	gt.A(t, c).Length(len(a))
	for i := range a {
		gt.Value(t, c[i].name).Equal(a[i].name)
		gt.Value(t, c[i].data).Equal(a[i].data)
		gt.False(t, c[i].modified.Equal(a[i].modified))
	}
}

func TestAssembler_TarZstd(t *testing.T) {
	result := &model.CollectionResult{
		Entries: []model.ContentEntry{
			textEntry("docs/a.md", "alpha"),
			binaryEntry("docs/sub/b.bin", []byte{0, 1, 2}),
		},
	}

	asm := usecase.NewAssembler(usecase.WithFormat(model.FormatTarZstd), usecase.WithClock(fixedClock))
	artifact, err := asm.Assemble(context.Background(), result, locator("docs", model.KindDirectory))
	gt.NoError(t, err).Required()
	gt.Value(t, artifact.Name).Equal("demo-docs.tar.zst")
	gt.Value(t, artifact.ContentType).Equal("application/zstd")

	dec, err := zstd.NewReader(bytes.NewReader(artifact.Data))
	gt.NoError(t, err).Required()
	defer dec.Close()

	tr := tar.NewReader(dec)
	var names []string
	contents := map[string][]byte{}
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		gt.NoError(t, err).Required()
		gt.True(t, hdr.ModTime.Equal(captureTime))
		names = append(names, hdr.Name)
		if hdr.Typeflag == tar.TypeReg {
			data, err := io.ReadAll(tr)
			gt.NoError(t, err)
			contents[hdr.Name] = data
		}
	}

	gt.Value(t, names).Equal([]string{"docs/", "docs/a.md", "docs/sub/", "docs/sub/b.bin"})
	gt.Value(t, string(contents["docs/a.md"])).Equal("alpha")
	gt.Value(t, contents["docs/sub/b.bin"]).Equal([]byte{0, 1, 2})
}

func TestAssembler_InvalidBase64(t *testing.T) {
	result := &model.CollectionResult{
		Entries: []model.ContentEntry{
			{RelativePath: "a.txt", Payload: model.TextPayload{Base64: "!!not base64!!"}},
			textEntry("b.txt", "bravo"),
		},
	}

	artifact, err := usecase.NewAssembler().Assemble(context.Background(), result, locator("", model.KindRoot))
	gt.Error(t, err)
	gt.True(t, errors.Is(err, types.ErrArchive))
	gt.Value(t, artifact).Nil()

	_, err = usecase.NewAssembler().Assemble(context.Background(), &model.CollectionResult{
		Entries: []model.ContentEntry{{RelativePath: "a.txt", Payload: model.TextPayload{Base64: "%%%"}}},
	}, locator("", model.KindRoot))
	gt.True(t, errors.Is(err, types.ErrArchive))
}

func TestAssembler_UnsupportedFormat(t *testing.T) {
	result := &model.CollectionResult{
		Entries: []model.ContentEntry{textEntry("a.txt", "a"), textEntry("b.txt", "b")},
	}
	_, err := usecase.NewAssembler(usecase.WithFormat("rar")).Assemble(context.Background(), result, locator("", model.KindRoot))
	gt.True(t, errors.Is(err, types.ErrArchive))
}

func TestArchiveName(t *testing.T) {
	tests := []struct {
		name   string
		origin model.RepoLocator
		format model.ArchiveFormat
		want   string
	}{
		{name: "repository root", origin: locator("", model.KindRoot), format: model.FormatZip, want: "demo.zip"},
		{name: "nested directory", origin: locator("docs/guide", model.KindDirectory), format: model.FormatZip, want: "demo-docs-guide.zip"},
		{name: "tar zstd", origin: locator("src", model.KindDirectory), format: model.FormatTarZstd, want: "demo-src.tar.zst"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gt.Value(t, usecase.ArchiveName(tt.origin, tt.format)).Equal(tt.want)
		})
	}
}
