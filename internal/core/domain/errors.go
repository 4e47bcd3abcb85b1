package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates an external search or a registry lookup returned no result.
// Always non-fatal: the caller skips the record.
var ErrNotFound = errors.New("not found")

// ErrRateLimited indicates an external API throttled the request. Call sites
// wrap these in a single-retry policy; a recurrence propagates.
var ErrRateLimited = errors.New("rate limited")

// ErrMissingLocalFile indicates a lyrics row references a text file that is
// absent from disk. Recoverable: log and skip the single record.
var ErrMissingLocalFile = errors.New("missing local file")

// ValidationError reports a record that is missing a required field for its
// entity kind. It must always be surfaced, never swallowed.
type ValidationError struct {
	Kind  string
	Field string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid %s record: missing %s", e.Kind, e.Field)
}

// Is allows errors.Is matching against a zero ValidationError.
func (e ValidationError) Is(target error) bool {
	_, ok := target.(ValidationError)
	return ok
}
