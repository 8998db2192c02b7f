package bank

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrRetriesExhausted wraps the last transient failure once the retry
	// policy gives up.
	ErrRetriesExhausted = errors.New("bank: retries exhausted")
	// ErrMalformedResponse marks a 2xx answer whose body cannot be decoded.
	ErrMalformedResponse = errors.New("bank: malformed response body")
)

// TransientError is a failure worth retrying: a network fault or a non-2xx
// status outside the rejection set.
type TransientError struct {
	StatusCode int
	Err        error
}

func (e *TransientError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("bank: transient failure: %v", e.Err)
	}
	return fmt.Sprintf("bank: transient failure: status %d", e.StatusCode)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// IsRejection reports whether the bank refused the request itself:
// malformed (400), unauthenticated (401), forbidden (403) or semantically
// invalid (422). Retrying these never succeeds.
func IsRejection(statusCode int) bool {
	switch statusCode {
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusUnprocessableEntity:
		return true
	}
	return false
}
