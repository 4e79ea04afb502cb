package docstore

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrMaxRetriesExceeded is returned when every attempt of a write was throttled.
// It does not wrap the last throttling error.
var ErrMaxRetriesExceeded = errors.New("docstore: maximum retries exceeded")

// ErrNilClient is returned by constructors given a nil backend client.
var ErrNilClient = errors.New("docstore: client cannot be nil")

// StatusError is a backend failure carrying an HTTP-style status code.
// RetryAfter is the server's backoff hint and is only set for throttling.
type StatusError struct {
	StatusCode int
	RetryAfter time.Duration
	Err        error
}

func (e *StatusError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("document store status %d (retry after %s): %v", e.StatusCode, e.RetryAfter, e.Err)
	}
	return fmt.Sprintf("document store status %d: %v", e.StatusCode, e.Err)
}

func (e *StatusError) Unwrap() error { return e.Err }

// StatusCode returns the status code of the first StatusError in err's tree, or 0.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}

// IsNotFound reports whether err carries a 404 status.
func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

// ThrottleDelay reports whether err, or any error wrapped or joined inside it,
// is a throttling rejection. The returned delay is the longest hint found and
// may be zero when the backend gave none.
func ThrottleDelay(err error) (time.Duration, bool) {
	var (
		delay     time.Duration
		throttled bool
	)
	walkErrors(err, func(e error) {
		se, ok := e.(*StatusError)
		if !ok || se.StatusCode != http.StatusTooManyRequests {
			return
		}
		throttled = true
		if se.RetryAfter > delay {
			delay = se.RetryAfter
		}
	})
	return delay, throttled
}

func walkErrors(err error, fn func(error)) {
	if err == nil {
		return
	}
	fn(err)
	switch u := err.(type) {
	case interface{ Unwrap() error }:
		walkErrors(u.Unwrap(), fn)
	case interface{ Unwrap() []error }:
		for _, e := range u.Unwrap() {
			walkErrors(e, fn)
		}
	}
}
