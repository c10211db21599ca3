package types

import "errors"

var (
	// ErrNoSelection is returned when nothing was selected. Callers treat it as a no-op.
	ErrNoSelection = errors.New("no files or directories selected")

	// ErrAuthRequired is returned when no GitHub credential is available
	ErrAuthRequired = errors.New("github credential is required")

	// ErrInvalidRepository is returned when a repository URL or locator cannot be resolved
	ErrInvalidRepository = errors.New("invalid repository locator")

	// ErrFetchFailure marks a failed metadata or content read for one item
	ErrFetchFailure = errors.New("failed to fetch content")

	// ErrArchive is returned when the artifact cannot be assembled
	ErrArchive = errors.New("failed to assemble archive")

	// ErrTraversalTooDeep is returned when directory expansion exceeds the depth limit
	ErrTraversalTooDeep = errors.New("directory traversal too deep")
)
