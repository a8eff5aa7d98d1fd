package selection

import (
	"errors"
	"fmt"
)

// Kind classifies a SelectionError.
type Kind string

// KindNoArticlesAvailable means every gathering tier came up empty.
const KindNoArticlesAvailable Kind = "no_articles_available"

var (
	// ErrNoArticlesAvailable is wrapped by every no_articles_available
	// SelectionError.
	ErrNoArticlesAvailable = errors.New("no articles available")

	// ErrNoArticlesForTopic is returned by ByTopic when no gathered article
	// has the requested topic.
	ErrNoArticlesForTopic = errors.New("no articles for topic")
)

// SelectionError is the only failure the selector reports to its callers.
type SelectionError struct {
	Kind Kind
	Err  error
}

func (e *SelectionError) Error() string {
	return fmt.Sprintf("selection failed: %s: %v", e.Kind, e.Err)
}

func (e *SelectionError) Unwrap() error { return e.Err }

func noArticles(cause error) *SelectionError {
	err := ErrNoArticlesAvailable
	if cause != nil {
		err = errors.Join(ErrNoArticlesAvailable, cause)
	}
	return &SelectionError{Kind: KindNoArticlesAvailable, Err: err}
}
