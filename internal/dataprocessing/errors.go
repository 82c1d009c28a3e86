package dataprocessing

import (
	"errors"
	"fmt"
)

// ErrMissingInput is matched by every error reporting an absent input file or sheet.
var ErrMissingInput = errors.New("missing input")

// ErrMalformedData is matched by every error reporting unusable cell contents or headers.
var ErrMalformedData = errors.New("malformed data")

// MissingFileError reports a required data file that could not be resolved.
type MissingFileError struct {
	Name string
	Err  error
}

func (e *MissingFileError) Error() string {
	return fmt.Sprintf("required data file not found: %s", e.Name)
}

func (e *MissingFileError) Unwrap() []error {
	return []error{ErrMissingInput, e.Err}
}

// MissingSheetError reports a site without a sheet in the growth workbook.
type MissingSheetError struct {
	Workbook string
	Sheet    string
}

func (e *MissingSheetError) Error() string {
	return fmt.Sprintf("workbook %s has no sheet for site %s", e.Workbook, e.Sheet)
}

func (e *MissingSheetError) Unwrap() error {
	return ErrMissingInput
}

// MalformedDataError points at the cell or header that failed to parse.
// Row is the 1-based row number in the source file; zero means the header.
type MalformedDataError struct {
	File   string
	Row    int
	Column string
	Value  string
	Err    error
}

func (e *MalformedDataError) Error() string {
	if e.Row == 0 {
		return fmt.Sprintf("%s: column %q: %v", e.File, e.Column, e.Err)
	}
	return fmt.Sprintf("%s: row %d, column %q, value %q: %v", e.File, e.Row, e.Column, e.Value, e.Err)
}

func (e *MalformedDataError) Unwrap() []error {
	return []error{ErrMalformedData, e.Err}
}

var (
	errMissingColumn    = errors.New("required column missing")
	errUnrecognizedTime = errors.New("unrecognized timestamp format")
)
