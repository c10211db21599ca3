package model

// ArchiveFormat is the container used when more than one entry is assembled
type ArchiveFormat string

const (
	FormatZip     ArchiveFormat = "zip"
	FormatTarZstd ArchiveFormat = "tar.zst"
)

// Extension returns the file extension including the leading dot
func (f ArchiveFormat) Extension() string {
	switch f {
	case FormatTarZstd:
		return ".tar.zst"
	default:
		return ".zip"
	}
}

// ContentType returns the MIME type of the archive
func (f ArchiveFormat) ContentType() string {
	switch f {
	case FormatTarZstd:
		return "application/zstd"
	default:
		return "application/zip"
	}
}

// IsValid checks whether the format is supported
func (f ArchiveFormat) IsValid() bool {
	switch f {
	case FormatZip, FormatTarZstd:
		return true
	}
	return false
}

// Artifact is the single downloadable output of a download action
type Artifact struct {
	Name        string // suggested file name
	ContentType string
	Data        []byte
	Archived    bool
	Entries     int
	Failures    int
}
