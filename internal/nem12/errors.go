package nem12

import (
	"errors"
	"fmt"
)

// Error kinds. Every failure returned by this package matches exactly one
// of these with errors.Is.
var (
	ErrFileNotFound         = errors.New("file not found")
	ErrEnvelope             = errors.New("invalid envelope")
	ErrFieldValidation      = errors.New("field validation failure")
	ErrDateParse            = errors.New("date parse failure")
	ErrMissingCurrentRecord = errors.New("volume record has no preceding meter read")
)

// ParseError locates a failure within the input.
type ParseError struct {
	// Line is the 1-based line number of the failing record.
	Line int

	// RecordType is the leading identifier of the failing record.
	RecordType string

	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d (record %s): %v", e.Line, e.RecordType, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Kind names the error kind err matches, for reports. Errors from outside
// this package are "IOFailure".
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrFileNotFound):
		return "FileNotFound"
	case errors.Is(err, ErrEnvelope):
		return "EmptyEnvelope"
	case errors.Is(err, ErrFieldValidation):
		return "FieldValidationFailure"
	case errors.Is(err, ErrDateParse):
		return "DateParseFailure"
	case errors.Is(err, ErrMissingCurrentRecord):
		return "MissingCurrentRecord"
	default:
		return "IOFailure"
	}
}
