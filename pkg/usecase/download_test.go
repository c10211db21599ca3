package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/m-mizutani/gitzip/pkg/domain/interfaces"
	"github.com/m-mizutani/gitzip/pkg/domain/model"
	"github.com/m-mizutani/gitzip/pkg/domain/types"
	"github.com/m-mizutani/gitzip/pkg/infra/logsink"
	"github.com/m-mizutani/gitzip/pkg/usecase"
)

type failingAssembler struct{}

func (failingAssembler) Assemble(ctx context.Context, result *model.CollectionResult, origin model.RepoLocator) (*model.Artifact, error) {
	return nil, types.ErrArchive
}

var _ interfaces.AssembleUseCase = failingAssembler{}

func newDownload(fetcher *fakeFetcher, asm interfaces.AssembleUseCase) (interfaces.DownloadUseCase, *fakeFactory) {
	factory := &fakeFactory{fetcher: fetcher}
	if asm == nil {
		asm = usecase.NewAssembler(usecase.WithClock(fixedClock))
	}
	return usecase.NewDownload(usecase.NewCollector(factory), asm), factory
}

func TestDownload_Directory(t *testing.T) {
	fetcher := nestedTree()
	uc, _ := newDownload(fetcher, nil)
	sink := logsink.NewMemory()

	sel, err := model.NewSelection("https://github.com/octo/demo/tree/main", []model.SelectionItem{
		{Href: "https://github.com/octo/demo/tree/main/docs"},
	})
	gt.NoError(t, err)

	artifact, err := uc.Download(context.Background(), sel, testCreds, sink)
	gt.NoError(t, err).Required()

	gt.True(t, artifact.Archived)
	gt.Value(t, artifact.Name).Equal("demo.zip")
	gt.Value(t, artifact.Entries).Equal(4)

	var names []string
	for _, m := range readZip(t, artifact.Data) {
		names = append(names, m.name)
	}
	gt.Value(t, names).Equal([]string{
		"docs/",
		"docs/a.md",
		"docs/sub/",
		"docs/sub/b.md",
		"docs/sub/deep/",
		"docs/sub/deep/c.md",
		"docs/z.md",
	})

	messages := sink.Messages()
	gt.Value(t, messages[0]).Equal("Processing folder: docs")
	gt.Value(t, messages[len(messages)-1]).Equal("Download complete.")
}

func TestDownload_SingleFile(t *testing.T) {
	fetcher := newFakeFetcher().addText("docs/guide.md", "# Guide")
	uc, _ := newDownload(fetcher, nil)

	sel, err := model.NewSelection("https://github.com/octo/demo/tree/main/docs", []model.SelectionItem{
		{Href: "https://github.com/octo/demo/blob/main/docs/guide.md"},
	})
	gt.NoError(t, err)

	artifact, err := uc.Download(context.Background(), sel, testCreds, nil)
	gt.NoError(t, err)
	gt.False(t, artifact.Archived)
	gt.Value(t, artifact.Name).Equal("guide.md")
	gt.Value(t, string(artifact.Data)).Equal("# Guide")
}

func TestDownload_CustomTitleRenamesEntry(t *testing.T) {
	fetcher := newFakeFetcher().
		addDir("src/internal", file("x.go"), file("y.go")).
		addText("src/internal/x.go", "package internal").
		addText("src/internal/y.go", "package internal // y")
	uc, _ := newDownload(fetcher, nil)

	sel, err := model.NewSelection("https://github.com/octo/demo/tree/main/src", []model.SelectionItem{
		{Href: "https://github.com/octo/demo/tree/main/src/internal", Title: "core"},
	})
	gt.NoError(t, err)

	artifact, err := uc.Download(context.Background(), sel, testCreds, nil)
	gt.NoError(t, err).Required()
	gt.True(t, artifact.Archived)
	gt.Value(t, artifact.Name).Equal("demo-src.zip")

	var names []string
	for _, m := range readZip(t, artifact.Data) {
		names = append(names, m.name)
	}
	gt.Value(t, names).Equal([]string{"core/", "core/x.go", "core/y.go"})
}

func TestDownload_CustomTitleSingleFile(t *testing.T) {
	fetcher := newFakeFetcher().
		addDir("src/internal", file("x.go")).
		addText("src/internal/x.go", "package internal")
	uc, _ := newDownload(fetcher, nil)

	sel, err := model.NewSelection("https://github.com/octo/demo/tree/main/src", []model.SelectionItem{
		{Href: "https://github.com/octo/demo/tree/main/src/internal", Title: "core"},
	})
	gt.NoError(t, err)

	// One entry and no failures is served as the raw file
	artifact, err := uc.Download(context.Background(), sel, testCreds, nil)
	gt.NoError(t, err).Required()
	gt.False(t, artifact.Archived)
	gt.Value(t, artifact.Name).Equal("core/x.go")
	gt.Value(t, string(artifact.Data)).Equal("package internal")
}

func TestDownload_EmptySelection(t *testing.T) {
	fetcher := newFakeFetcher()
	uc, factory := newDownload(fetcher, nil)
	sink := logsink.NewMemory()

	sel, err := model.NewSelection("not even a url", nil)
	gt.NoError(t, err)

	artifact, err := uc.Download(context.Background(), sel, nil, sink)
	gt.Error(t, err)
	gt.True(t, errors.Is(err, types.ErrNoSelection))
	gt.Value(t, artifact).Nil()
	gt.Value(t, factory.calls).Equal(0)
	gt.A(t, sink.Entries()).Length(0)
}

func TestDownload_FatalCollectionSkipsAssembly(t *testing.T) {
	fetcher := newFakeFetcher()
	uc, _ := newDownload(fetcher, failingAssembler{})
	sink := logsink.NewMemory()

	sel := &model.Selection{
		Origin: locator("", model.KindRoot),
		Files:  []model.SelectionRef{fileRef("missing.txt")},
	}

	artifact, err := uc.Download(context.Background(), sel, testCreds, sink)
	gt.Error(t, err)
	gt.True(t, errors.Is(err, types.ErrFetchFailure))
	gt.False(t, errors.Is(err, types.ErrArchive))
	gt.Value(t, artifact).Nil()

	for _, msg := range sink.Messages() {
		gt.Value(t, msg).NotEqual("Download complete.")
		gt.Value(t, msg).NotEqual("Error zipping files.")
	}
}

func TestDownload_AssemblyFailure(t *testing.T) {
	fetcher := newFakeFetcher().addText("a.txt", "a")
	uc, _ := newDownload(fetcher, failingAssembler{})
	sink := logsink.NewMemory()

	sel := &model.Selection{
		Origin: locator("", model.KindRoot),
		Files:  []model.SelectionRef{fileRef("a.txt")},
	}

	artifact, err := uc.Download(context.Background(), sel, testCreds, sink)
	gt.Error(t, err)
	gt.True(t, errors.Is(err, types.ErrArchive))
	gt.Value(t, artifact).Nil()

	messages := sink.Messages()
	gt.Value(t, messages[len(messages)-1]).Equal("Error zipping files.")
	gt.Value(t, sink.Count(model.SeverityError)).Equal(1)
}
