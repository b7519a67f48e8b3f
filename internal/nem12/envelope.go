package nem12

import (
	"fmt"

	"github.com/ginjaninja78/nem12-parser/internal/csvparser"
)

// Record type identifiers.
const (
	RecordHeader  = "100"
	RecordRead    = "200"
	RecordVolume  = "300"
	RecordTrailer = "900"
)

// ValidateEnvelope checks that the first line is a header record and the
// last line is a trailer record. An empty sequence passes.
func ValidateEnvelope(lines []string) error {
	if len(lines) == 0 {
		return nil
	}
	if id := csvparser.RecordType(lines[0]); id != RecordHeader {
		return &ParseError{
			Line:       1,
			RecordType: id,
			Err:        fmt.Errorf("%w: expected header record %s at file start", ErrEnvelope, RecordHeader),
		}
	}
	last := len(lines) - 1
	if id := csvparser.RecordType(lines[last]); id != RecordTrailer {
		return &ParseError{
			Line:       last + 1,
			RecordType: id,
			Err:        fmt.Errorf("%w: expected trailer record %s at file end", ErrEnvelope, RecordTrailer),
		}
	}
	return nil
}
