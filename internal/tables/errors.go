package tables

import (
	"errors"
	"fmt"
)

// Causes wrapped by LoadError.
var (
	ErrEmptyFile     = errors.New("file has no header")
	ErrMissingColumn = errors.New("missing required column")
	ErrBadDate       = errors.New("unparseable date")
	ErrBadNumber     = errors.New("unparseable number")
	ErrDuplicateDate = errors.New("duplicate date")
	ErrDuplicateCode = errors.New("duplicate category code")
)

// LoadError reports a base file that is missing or malformed. Line is 1-based
// and zero when the problem is not tied to a line.
type LoadError struct {
	Path   string
	Line   int
	Column string
	Err    error
}

func (e *LoadError) Error() string {
	msg := "load " + e.Path
	if e.Line > 0 {
		msg += fmt.Sprintf(" line %d", e.Line)
	}
	if e.Column != "" {
		msg += fmt.Sprintf(" column %q", e.Column)
	}
	return msg + ": " + e.Err.Error()
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
