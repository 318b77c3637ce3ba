package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrSearchUnavailable means the search provider could not be
	// reached even after its internal retries. It is the only error
	// that aborts a whole harvest run.
	ErrSearchUnavailable = errors.New("search provider unavailable")

	// ErrDuplicateRecord means the recipe violates a uniqueness
	// invariant (same normalized source URL, or same normalized name
	// within a source domain). Callers treat it as a skip.
	ErrDuplicateRecord = errors.New("duplicate recipe")

	// ErrRecipeNotFound is returned by lookups for unknown IDs.
	ErrRecipeNotFound = errors.New("recipe not found")

	// ErrRateLimited marks a transient upstream rate-limit signal.
	ErrRateLimited = errors.New("rate limited")

	// ErrModelColdStart marks the embedding model still loading.
	ErrModelColdStart = errors.New("model loading")

	// ErrBadRequest marks a malformed request the upstream rejected;
	// retrying cannot help.
	ErrBadRequest = errors.New("bad request")
)

// ExtractionError is an item-fatal failure of the extraction stage:
// the page could not be fetched or the model output could not be
// parsed into a draft.
type ExtractionError struct {
	Reason string
	Err    error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("extraction failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("extraction failed: %s", e.Reason)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether an embedding-service error is worth
// retrying: timeouts, rate limits and cold starts are; a rejected
// request is not.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrBadRequest) {
		return false
	}
	return true
}
