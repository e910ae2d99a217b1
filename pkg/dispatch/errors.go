package dispatch

import "fmt"

// ValidationError reports a request that was rejected before any network
// activity. It is the only error Dispatch returns; transport failures are
// reported through the Response instead.
type ValidationError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}
