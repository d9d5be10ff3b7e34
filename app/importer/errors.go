package importer

import (
	"errors"
	"fmt"

	"github.com/mealstash/recipe-comb/app/strategy"
)

// The three total-failure kinds the pipeline can surface. Anything else
// (a bad ld+json block, an unparseable ingredient line, a failed
// enrichment) is recovered locally and never aborts an import.
var (
	// ErrNoStrategyMatched: every strategy scored 0 confidence.
	ErrNoStrategyMatched = strategy.ErrNoStrategyMatched

	// ErrExtractionFailed: the winning strategy found nothing usable.
	ErrExtractionFailed = strategy.ErrExtractionFailed
)

// FetchError wraps the underlying network failure after every
// request-identity retry was exhausted.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// IsFetchError reports whether err is (or wraps) a FetchError.
func IsFetchError(err error) bool {
	var fetchErr *FetchError
	return errors.As(err, &fetchErr)
}
