package fetcher

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by every fetcher. Callers test them with errors.Is.
var (
	// ErrDataUnavailable means no usable snapshot exists for the request; retrying the same date will not help.
	ErrDataUnavailable = errors.New("data unavailable")
	// ErrTransientFetch means the retrieval itself failed and may succeed later.
	ErrTransientFetch = errors.New("transient fetch error")
)

// Decoding errors. They are always reported together with ErrDataUnavailable.
var (
	ErrUnexpectedStatusCode = errors.New("unexpected status code")
	ErrEmptySnapshot        = errors.New("snapshot has no rows")
	ErrMissingColumn        = errors.New("missing column")
	ErrInvalidValue         = errors.New("invalid numeric value")
	ErrResponseTooLarge     = errors.New("response exceeds buffer size")
)

// FetchError describes a failed retrieval of one resource.
type FetchError struct {
	Kind       error
	Err        error
	URL        string
	StatusCode int
	Attempts   int
}

func (e *FetchError) Error() string {
	msg := fmt.Sprintf("fetch %s: %v", e.URL, e.Kind)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}

	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}

	if e.Attempts > 1 {
		msg += fmt.Sprintf(" after %d attempts", e.Attempts)
	}

	return msg
}

// Unwrap exposes both the kind and the underlying cause.
func (e *FetchError) Unwrap() []error {
	errs := []error{e.Kind}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}

	return errs
}

// Retryable reports whether the failure is worth retrying.
func (e *FetchError) Retryable() bool {
	return errors.Is(e.Kind, ErrTransientFetch)
}

// IsRetryable reports whether err carries a transient fetch failure.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransientFetch)
}

func unavailable(url string, err error) *FetchError {
	return &FetchError{Kind: ErrDataUnavailable, Err: err, URL: url}
}
