package importer

import (
	"errors"
	"fmt"
)

// File-level failures abort the whole file; they never affect sibling files
// in a merge batch. Batch-level ErrTooManyFiles aborts the merge call before
// any file is read.
var (
	ErrInvalidFile             = errors.New("invalid file")
	ErrHeaderNotFound          = errors.New("header line not found")
	ErrEssentialColumnsMissing = errors.New("essential columns missing")
	ErrTooManyFiles            = errors.New("too many files")
)

// FileError ties a file-level failure to the file it came from.
type FileError struct {
	File string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.File, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}
