package extract

import (
	"errors"
	"fmt"
)

// ErrorKind classifies extraction failures.
type ErrorKind string

const (
	KindNoContentFound ErrorKind = "no_content_found"
	KindParseFailure   ErrorKind = "parse_failure"
	KindFetchFailure   ErrorKind = "fetch_failure"
)

// ExtractionError reports that no article text could be derived from a page.
type ExtractionError struct {
	URL  string
	Kind ErrorKind
	Err  error
}

func (e *ExtractionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("extraction %s for %s", e.Kind, e.URL)
	}
	return fmt.Sprintf("extraction %s for %s: %v", e.Kind, e.URL, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// IsKind reports whether err is an ExtractionError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var ee *ExtractionError
	if errors.As(err, &ee) {
		return ee.Kind == kind
	}
	return false
}
