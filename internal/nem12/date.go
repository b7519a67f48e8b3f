package nem12

import (
	"fmt"
	"regexp"
	"time"

	"github.com/ginjaninja78/nem12-parser/internal/validation"
)

// DateLayout is the yyyyMMdd layout used by interval dates.
const DateLayout = "20060102"

var dateField = validation.Matches(regexp.MustCompile(`^\d{8}$`))

// ParseDate converts a yyyyMMdd string to midnight UTC on that date.
// Empty, malformed or impossible dates (20161332) fail with ErrDateParse.
func ParseDate(s string) (time.Time, error) {
	if !validation.Field(s, dateField) {
		return time.Time{}, fmt.Errorf("%w: %q is not in yyyyMMdd form", ErrDateParse, s)
	}
	d, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q: %v", ErrDateParse, s, err)
	}
	return d, nil
}
