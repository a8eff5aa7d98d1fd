package fetcher

import (
	"errors"
	"fmt"
)

// ErrorKind classifies fetch failures.
type ErrorKind string

const (
	KindTimeout    ErrorKind = "timeout"
	KindHTTPStatus ErrorKind = "http_status"
	KindNetwork    ErrorKind = "network"
	KindNoEntries  ErrorKind = "no_entries"
)

// FetchError wraps errors that occur while retrieving a page or feed.
type FetchError struct {
	URL        string
	Kind       ErrorKind
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("fetch %s for %s (status %d): %v", e.Kind, e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s for %s: %v", e.Kind, e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// IsKind reports whether err is a FetchError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind == kind
	}
	return false
}
