package pipeline

import "errors"

var (
	// ErrUnsupportedFormat is returned when a source file's extension
	// does not match any of the closed set of known document formats.
	ErrUnsupportedFormat = errors.New("pipeline: unsupported document format")
	// ErrInvalidOptions is returned when Options fails validation.
	ErrInvalidOptions = errors.New("pipeline: invalid options")
)
