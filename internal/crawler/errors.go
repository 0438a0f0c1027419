package crawler

import (
	"errors"
	"fmt"
)

// Page-level crawl errors.
// Callers use errors.Is to decide whether a failed page can be skipped.
var (
	// ErrAlreadyVisited is returned when a URL was already fetched within the
	// current session. No request is made and no pause is taken.
	ErrAlreadyVisited = errors.New("page already visited")

	// ErrResourceUnavailable is returned when a page could not be retrieved
	// after every retry attempt was spent.
	ErrResourceUnavailable = errors.New("resource unavailable")

	// ErrMalformedDocument is returned when a fetched document has no primary
	// content region to extract links from.
	ErrMalformedDocument = errors.New("malformed document")
)

// ErrInvalidProxyAddress is returned when a proxy address is not host:port.
var ErrInvalidProxyAddress = errors.New("invalid proxy address format: expected host:port")

// StatusError reports a non-2xx HTTP response.
type StatusError struct {
	// URL is the requested page URL.
	URL string

	// StatusCode is the HTTP status code that was returned.
	StatusCode int
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d for %s", e.StatusCode, e.URL)
}

// IsPageError reports whether err only affects a single page, so a search
// can skip the page and continue.
func IsPageError(err error) bool {
	return errors.Is(err, ErrAlreadyVisited) ||
		errors.Is(err, ErrResourceUnavailable) ||
		errors.Is(err, ErrMalformedDocument)
}
