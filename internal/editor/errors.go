package editor

import "errors"

var (
	// ErrInvalidName rejects file names that are empty, lack an extension,
	// or collide with an existing entry.
	ErrInvalidName = errors.New("invalid file name")

	// ErrFileNotFound is returned when an operation references a file name
	// that is not part of the current file set.
	ErrFileNotFound = errors.New("file not found")

	// ErrProjectNotFound is returned by the persistence gateway when the
	// backing project does not exist (or is not owned by the caller).
	ErrProjectNotFound = errors.New("project not found")
)
