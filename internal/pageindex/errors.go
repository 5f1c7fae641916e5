package pageindex

import "errors"

var (
	// ErrUnrecognizedArchive is returned when none of the sentinel files of
	// a supported layout convention exist in the tree.
	ErrUnrecognizedArchive = errors.New("unrecognized archive structure")

	// ErrNoImageReference is returned when a page file does not reference
	// an image with the expected file name shape.
	ErrNoImageReference = errors.New("cannot find image reference")

	// ErrNoPages is returned when the manifest lists no page files.
	ErrNoPages = errors.New("cannot find any pages")

	// ErrDuplicateIndex is returned when two body files parse to the same
	// page index.
	ErrDuplicateIndex = errors.New("duplicate page index")

	// ErrInvalidIndex is returned for body files whose index is zero or
	// does not fit in an int.
	ErrInvalidIndex = errors.New("invalid page index")
)

// ResolutionError describes a failure to recover the reading order of a
// materialized archive. Path names the offending file or directory.
type ResolutionError struct {
	Op   string
	Path string
	Err  error
}

func (e *ResolutionError) Error() string {
	return "pageindex: " + e.Op + " " + e.Path + ": " + e.Err.Error()
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}
