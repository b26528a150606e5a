package aggregator

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonesrussell/newsfeed/internal/sources"
)

type panicError struct {
	value any
}

func (p panicError) Error() string {
	return fmt.Sprintf("adapter panic: %v", p.value)
}

func fetchURL(err error) string {
	var fetchErr *sources.AdapterFetchError
	if errors.As(err, &fetchErr) {
		return fetchErr.URL
	}
	return ""
}

// asFetchError classifies errors from adapters that do not return
// *sources.AdapterFetchError themselves.
func asFetchError(source string, err error) error {
	var fetchErr *sources.AdapterFetchError
	if errors.As(err, &fetchErr) {
		return err
	}
	errType := sources.ErrTypeNetwork
	if errors.Is(err, context.DeadlineExceeded) {
		errType = sources.ErrTypeTimeout
	}
	return &sources.AdapterFetchError{Source: source, Type: errType, Cause: err}
}
