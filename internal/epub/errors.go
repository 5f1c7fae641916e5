package epub

import "errors"

var (
	// ErrNotZip is returned when the archive cannot be opened as a zip file.
	ErrNotZip = errors.New("not a zip container")

	// ErrInvalidMimetype is returned when a mimetype entry names another type.
	ErrInvalidMimetype = errors.New("invalid mimetype: must be 'application/epub+zip'")

	// ErrUnsafePath is returned for entries that would escape the scratch directory.
	ErrUnsafePath = errors.New("unsafe entry path")

	// ErrEntryTooLarge is returned when an entry exceeds the decompression limit.
	ErrEntryTooLarge = errors.New("entry too large")

	// ErrWorkspaceNotEmpty is returned when an explicit scratch directory has content.
	ErrWorkspaceNotEmpty = errors.New("scratch directory is not empty")
)

// ExtractionError reports an archive that cannot be materialized.
type ExtractionError struct {
	Path string
	Err  error
}

func (e *ExtractionError) Error() string {
	return "epub: extract " + e.Path + ": " + e.Err.Error()
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}
