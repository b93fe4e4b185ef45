package ingest

import (
	"fmt"
	"strings"

	"github.com/balefleet/balewatch/internal/types"
)

// EmptyInputError reports that the input produced zero parsable data
// rows. The upload attempt is aborted and no dataset is installed.
type EmptyInputError struct{}

func (e *EmptyInputError) Error() string {
	return "no data rows found in input"
}

// MissingColumnsError reports required columns absent from the header
// row. It names each missing column so the user can fix the export.
type MissingColumnsError struct {
	Shape   types.Shape
	Missing []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("%s-shape input is missing required columns: %s",
		e.Shape, strings.Join(e.Missing, ", "))
}

// FileReadError wraps an underlying file access failure.
type FileReadError struct {
	Path string
	Err  error
}

func (e *FileReadError) Error() string {
	return fmt.Sprintf("failed to read %s: %v", e.Path, e.Err)
}

func (e *FileReadError) Unwrap() error {
	return e.Err
}
