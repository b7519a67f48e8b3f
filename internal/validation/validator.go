// =============================================================================
// NEM12 Parser - Field Validation
// =============================================================================
//
// This module provides the predicate-based field guard used before any domain
// object is constructed from a raw record field. A field is checked by
// handing its string value to a Predicate; predicates compose with Any so
// that record handlers can express their rules declaratively:
//
//   validation.Field(fields[1], validation.Length(10))
//   validation.Field(fields[3], validation.OneOf("A", "E"))
//
// ERROR HANDLING:
//   Field itself never fails. Handlers that reject a value describe the
//   failure with a ValidationError, which records the field, the offending
//   value and the rule that was violated.
//
// =============================================================================

package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// =============================================================================
// PREDICATES
// =============================================================================

// Predicate reports whether a single field value is acceptable.
type Predicate func(value string) bool

// Field returns whether the predicate holds for value.
func Field(value string, p Predicate) bool {
	return p(value)
}

// Any holds when at least one predicate holds. An empty Any never holds.
func Any(ps ...Predicate) Predicate {
	return func(value string) bool {
		for _, p := range ps {
			if p(value) {
				return true
			}
		}
		return false
	}
}

// Length holds when the value is exactly n characters long.
func Length(n int) Predicate {
	return func(value string) bool {
		return utf8.RuneCountInString(value) == n
	}
}

// Equals holds when the value matches want exactly (case sensitive).
func Equals(want string) Predicate {
	return func(value string) bool {
		return value == want
	}
}

// OneOf holds when the value equals any of the allowed values.
func OneOf(allowed ...string) Predicate {
	ps := make([]Predicate, len(allowed))
	for i, a := range allowed {
		ps[i] = Equals(a)
	}
	return Any(ps...)
}

// Matches holds when the whole value is matched by re.
// Anchor the expression; Matches does not add anchors.
func Matches(re *regexp.Regexp) Predicate {
	return re.MatchString
}

// NotEmpty holds for any value that is not blank.
func NotEmpty() Predicate {
	return func(value string) bool {
		return strings.TrimSpace(value) != ""
	}
}

// =============================================================================
// VALIDATION ERROR
// =============================================================================

// ValidationError describes a single rejected field.
type ValidationError struct {
	// Field is the logical name of the field, e.g. "nmi" or "quality".
	Field string

	// Value is the raw value that failed validation.
	Value string

	// Rule names the violated rule, e.g. "length", "enum", "required".
	Rule string

	// Message is a human-readable explanation.
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("field '%s' [%s]: %s (value: '%s')", e.Field, e.Rule, e.Message, e.Value)
}

// FormatErrors renders a list of errors as a numbered report.
func FormatErrors(errs []error) string {
	if len(errs) == 0 {
		return "No validation errors."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Validation completed with %d error(s):\n\n", len(errs))
	for i, err := range errs {
		fmt.Fprintf(&b, "%d. %s\n", i+1, err.Error())
	}
	return b.String()
}
