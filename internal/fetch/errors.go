package fetch

import (
	"errors"
	"fmt"
)

// Sentinel kinds of the fetch error taxonomy. Callers match with errors.Is;
// the concrete *FetchError carries the URL and HTTP status for attribution.
var (
	ErrInvalidURL    = errors.New("invalid url")
	ErrTimeout       = errors.New("timeout")
	ErrNetwork       = errors.New("network error")
	ErrHTTPStatus    = errors.New("http error status")
	ErrRobotsBlocked = errors.New("blocked by robots.txt")
	ErrTooLarge      = errors.New("response too large")
	ErrCancelled     = errors.New("cancelled")
)

// FetchError attributes a failure to the URL that caused it. Kind is one of
// the sentinel errors above.
type FetchError struct {
	Kind   error
	URL    string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	switch {
	case e.Kind == ErrHTTPStatus:
		return fmt.Sprintf("fetch %s: status %d", e.URL, e.Status)
	case e.Err != nil:
		return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Kind, e.Err)
	default:
		return fmt.Sprintf("fetch %s: %s", e.URL, e.Kind)
	}
}

// Is makes errors.Is(err, ErrTimeout) and friends work on wrapped fetch
// errors.
func (e *FetchError) Is(target error) bool { return e.Kind == target }

func (e *FetchError) Unwrap() error { return e.Err }

func newError(kind error, url string, err error) *FetchError {
	return &FetchError{Kind: kind, URL: url, Err: err}
}

func newStatusError(url string, status int) *FetchError {
	return &FetchError{Kind: ErrHTTPStatus, URL: url, Status: status}
}
