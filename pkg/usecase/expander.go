package usecase

import (
	"context"
	"iter"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gitzip/pkg/domain/interfaces"
	"github.com/m-mizutani/gitzip/pkg/domain/model"
	"github.com/m-mizutani/gitzip/pkg/domain/types"
)

// DefaultMaxDepth bounds directory recursion
const DefaultMaxDepth = 64

// TreeExpander walks a remote directory and yields every file below it
type TreeExpander struct {
	fetcher  interfaces.ContentFetcher
	maxDepth int
}

// NewTreeExpander creates a TreeExpander. maxDepth <= 0 means DefaultMaxDepth.
func NewTreeExpander(fetcher interfaces.ContentFetcher, maxDepth int) *TreeExpander {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &TreeExpander{
		fetcher:  fetcher,
		maxDepth: maxDepth,
	}
}

// Expand lists dir and its subdirectories in pre-order, in the order the
// remote returns children. Each file is yielded as a Leaf whose Path is
// prefix + "/" + name. A directory whose listing fails, or that lies deeper
// than the depth limit, is yielded as a *model.FetchFailure error and its
// siblings are still expanded.
func (x *TreeExpander) Expand(ctx context.Context, dir model.RepoLocator, prefix string) iter.Seq2[model.Leaf, error] {
	return func(yield func(model.Leaf, error) bool) {
		x.expand(ctx, dir, prefix, 0, yield)
	}
}

// expand returns false when the consumer stopped the iteration
func (x *TreeExpander) expand(ctx context.Context, dir model.RepoLocator, prefix string, depth int, yield func(model.Leaf, error) bool) bool {
	if depth > x.maxDepth {
		err := goerr.Wrap(types.ErrTraversalTooDeep, "directory nested too deeply",
			goerr.V("locator", dir.String()),
			goerr.V("max_depth", x.maxDepth))
		return yield(model.Leaf{}, model.NewFetchFailure(dir, prefix, err))
	}

	meta, err := x.fetcher.FetchMetadata(ctx, dir)
	if err != nil {
		err = goerr.Wrap(err, "failed to list directory",
			goerr.V("locator", dir.String()))
		return yield(model.Leaf{}, model.NewFetchFailure(dir, prefix, err))
	}
	if meta.Kind != model.KindDirectory {
		err := goerr.New("expected a directory listing",
			goerr.V("locator", dir.String()),
			goerr.V("kind", meta.Kind))
		return yield(model.Leaf{}, model.NewFetchFailure(dir, prefix, err))
	}

	for _, child := range meta.Children {
		childPath := prefix + "/" + child.Name

		switch child.Kind {
		case model.KindFile:
			if !yield(model.Leaf{Path: childPath, Locator: dir.Child(child.Name, model.KindFile)}, nil) {
				return false
			}

		case model.KindDirectory:
			if !x.expand(ctx, dir.Child(child.Name, model.KindDirectory), childPath, depth+1, yield) {
				return false
			}

		default:
			ctxlog.From(ctx).Debug("Skipping unsupported entry",
				"path", childPath,
				"kind", child.Kind,
			)
		}
	}

	return true
}
