package video

import (
	"errors"
	"fmt"
)

// ErrEmptyInput is returned when there are no clips to concatenate
var ErrEmptyInput = errors.New("no clips to concatenate")

// ClipBuildError reports a clip that could not be encoded
type ClipBuildError struct {
	Path string
	Err  error
}

func (e *ClipBuildError) Error() string {
	return fmt.Sprintf("building clip %s: %v", e.Path, e.Err)
}

func (e *ClipBuildError) Unwrap() error {
	return e.Err
}

// MissingClipError reports a clip path that does not exist
type MissingClipError struct {
	Path string
}

func (e *MissingClipError) Error() string {
	return fmt.Sprintf("clip not found: %s", e.Path)
}

// ConcatenationError wraps an encoder failure while joining clips
type ConcatenationError struct {
	Output string
	Err    error
}

func (e *ConcatenationError) Error() string {
	return fmt.Sprintf("concatenating into %s: %v", e.Output, e.Err)
}

func (e *ConcatenationError) Unwrap() error {
	return e.Err
}
