package portal

import (
	"fmt"
	"time"
)

// AuthError means credentials were rejected or the login UI never became
// interactable. Fatal to the whole scrape batch.
type AuthError struct {
	Reason string
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("portal auth failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("portal auth failed: %s", e.Reason)
}

func (e *AuthError) Unwrap() error { return e.Err }

// StoreNotFoundError means one store's selector entry never appeared. The
// batch stops, but the session itself is still usable.
type StoreNotFoundError struct {
	Store string
}

func (e *StoreNotFoundError) Error() string {
	return fmt.Sprintf("store %q not found in portal selector", e.Store)
}

// ExportTimeoutError means the export was triggered but no download landed
// before the deadline.
type ExportTimeoutError struct {
	Dir     string
	Timeout time.Duration
}

func (e *ExportTimeoutError) Error() string {
	return fmt.Sprintf("no export file appeared in %s within %s", e.Dir, e.Timeout)
}

// StateError reports an operation invoked out of sequence, e.g. exporting
// before a store was selected.
type StateError struct {
	Op    string
	State string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("%s not valid in session state %s", e.Op, e.State)
}
