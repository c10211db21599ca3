package model

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/m-mizutani/gitzip/pkg/domain/types"
)

// Payload is the fetched content of one file
type Payload interface {
	// Bytes returns the decoded content
	Bytes() ([]byte, error)
}

// TextPayload wraps inline base64 content returned by the contents API.
// Decoding is deferred until assembly.
type TextPayload struct {
	Base64 string
}

func (p TextPayload) Bytes() ([]byte, error) {
	// The contents API wraps base64 at 60 columns
	cleaned := strings.NewReplacer("\n", "", "\r", "").Replace(p.Base64)
	data, err := base64.StdEncoding.DecodeString(cleaned)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64 content: %w", err)
	}
	return data, nil
}

// BinaryPayload wraps raw bytes read from a download URL
type BinaryPayload struct {
	Data []byte
}

func (p BinaryPayload) Bytes() ([]byte, error) {
	return p.Data, nil
}

// ContentEntry is one resolved file ready to be placed in an archive
type ContentEntry struct {
	RelativePath string // "/" separated, relative to the selection that produced it
	Payload      Payload
}

// Leaf is one file discovered by directory expansion
type Leaf struct {
	Path    string
	Locator RepoLocator
}

// FetchFailure records one item whose metadata or bytes could not be retrieved
type FetchFailure struct {
	Locator RepoLocator
	Path    string
	Reason  string
	cause   error
}

// NewFetchFailure creates a FetchFailure with cause as its reason
func NewFetchFailure(loc RepoLocator, path string, cause error) *FetchFailure {
	reason := "unknown error"
	if cause != nil {
		reason = cause.Error()
	}
	return &FetchFailure{
		Locator: loc,
		Path:    path,
		Reason:  reason,
		cause:   cause,
	}
}

func (x *FetchFailure) Error() string {
	return fmt.Sprintf("failed to fetch %s: %s", x.Locator.String(), x.Reason)
}

// Unwrap exposes both types.ErrFetchFailure and the underlying cause
func (x *FetchFailure) Unwrap() []error {
	if x.cause == nil {
		return []error{types.ErrFetchFailure}
	}
	return []error{types.ErrFetchFailure, x.cause}
}

// CollectionResult is the ordered output of one collection run
type CollectionResult struct {
	Entries  []ContentEntry
	Failures []*FetchFailure
}

// IsSingleFile reports whether the result is exactly one entry without failures
func (r *CollectionResult) IsSingleFile() bool {
	return len(r.Entries) == 1 && len(r.Failures) == 0
}
