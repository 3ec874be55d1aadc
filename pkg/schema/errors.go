package schema

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError represents a single constraint violation.
type ValidationError struct {
	Path   string // Element path, with "/@name" for attributes
	Reason string // Human-readable reason for failure
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Reason)
}

// AggregateError collects every violation found in one document, in the
// order Validate met them. Validate never returns it empty.
type AggregateError struct {
	Errors []error
}

// Error lists one violation per line. A lone violation reads like the
// violation itself, e.g. "/talk/@foo: attribute not allowed".
func (e *AggregateError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d elements or attributes violate the schema:", len(e.Errors))
	for _, err := range e.Errors {
		b.WriteString("\n  ")
		b.WriteString(err.Error())
	}
	return b.String()
}

// ValidationErrors unpacks the violations behind err, or returns nil
// when err did not come from Validate.
func ValidationErrors(err error) []error {
	var aggr *AggregateError
	if errors.As(err, &aggr) {
		return aggr.Errors
	}
	return nil
}
