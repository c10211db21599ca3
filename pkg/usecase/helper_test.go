package usecase_test

import (
	"context"
	"encoding/base64"
	"errors"

	"github.com/m-mizutani/gitzip/pkg/domain/interfaces"
	"github.com/m-mizutani/gitzip/pkg/domain/model"
)

// fakeFetcher serves an in-memory repository tree keyed by path
type fakeFetcher struct {
	dirs  map[string][]model.Child
	files map[string]model.FileMetadata
	raw   map[string][]byte
	fail  map[string]error

	metadataCalls []string
	bytesCalls    []string
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		dirs:  map[string][]model.Child{},
		files: map[string]model.FileMetadata{},
		raw:   map[string][]byte{},
		fail:  map[string]error{},
	}
}

func (f *fakeFetcher) addDir(path string, children ...model.Child) *fakeFetcher {
	f.dirs[path] = children
	return f
}

func (f *fakeFetcher) addText(path, content string) *fakeFetcher {
	f.files[path] = model.FileMetadata{
		Encoding: "base64",
		Content:  base64.StdEncoding.EncodeToString([]byte(content)),
		Size:     len(content),
	}
	return f
}

func (f *fakeFetcher) addBinary(path string, data []byte) *fakeFetcher {
	url := "https://raw.example.com/" + path
	f.files[path] = model.FileMetadata{
		Encoding:    "none",
		DownloadURL: url,
		Size:        len(data),
	}
	f.raw[url] = data
	return f
}

func (f *fakeFetcher) FetchMetadata(ctx context.Context, loc model.RepoLocator) (*model.Metadata, error) {
	f.metadataCalls = append(f.metadataCalls, loc.Path)
	if err, ok := f.fail[loc.Path]; ok {
		return nil, err
	}
	if children, ok := f.dirs[loc.Path]; ok {
		return &model.Metadata{Kind: model.KindDirectory, Children: children}, nil
	}
	if file, ok := f.files[loc.Path]; ok {
		return &model.Metadata{Kind: model.KindFile, File: file}, nil
	}
	return nil, errors.New("404 Not Found")
}

func (f *fakeFetcher) FetchBytes(ctx context.Context, url string) ([]byte, error) {
	f.bytesCalls = append(f.bytesCalls, url)
	if err, ok := f.fail[url]; ok {
		return nil, err
	}
	data, ok := f.raw[url]
	if !ok {
		return nil, errors.New("404 Not Found")
	}
	return data, nil
}

func (f *fakeFetcher) totalCalls() int {
	return len(f.metadataCalls) + len(f.bytesCalls)
}

// fakeFactory hands out one fakeFetcher
type fakeFactory struct {
	fetcher *fakeFetcher
	calls   int
}

func (f *fakeFactory) NewFetcher(ctx context.Context, creds *model.Credentials) (interfaces.ContentFetcher, error) {
	f.calls++
	return f.fetcher, nil
}

func file(name string) model.Child {
	return model.Child{Name: name, Kind: model.KindFile}
}

func dir(name string) model.Child {
	return model.Child{Name: name, Kind: model.KindDirectory}
}

func locator(path string, kind model.NodeKind) model.RepoLocator {
	return model.RepoLocator{
		Owner:   "octo",
		Project: "demo",
		Branch:  "main",
		Path:    path,
		Kind:    kind,
	}
}

func dirRef(path string) model.SelectionRef {
	loc := locator(path, model.KindDirectory)
	return model.SelectionRef{Kind: model.KindDirectory, Locator: loc, DisplayName: loc.Name()}
}

func fileRef(path string) model.SelectionRef {
	loc := locator(path, model.KindFile)
	return model.SelectionRef{Kind: model.KindFile, Locator: loc, DisplayName: loc.Name()}
}

var testCreds = &model.Credentials{Token: "test-token"}

func entryPaths(result *model.CollectionResult) []string {
	paths := make([]string, len(result.Entries))
	for i, e := range result.Entries {
		paths[i] = e.RelativePath
	}
	return paths
}
