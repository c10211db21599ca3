package model

// Child is one item of a directory listing
type Child struct {
	Name string
	Kind NodeKind
}

// FileMetadata describes how the content of one file can be obtained
type FileMetadata struct {
	Encoding    string // "base64" when Content is inline, "none" for large files
	Content     string
	DownloadURL string
	Size        int
}

// HasInlineContent reports whether Content can be used without a raw download
func (m FileMetadata) HasInlineContent() bool {
	return m.Encoding == "base64" && m.Content != ""
}

// Metadata is the result of one contents API read
type Metadata struct {
	Kind     NodeKind // KindDirectory or KindFile
	Children []Child  // remote order, set for directories
	File     FileMetadata
}
