// Package portal defines the capability surface of one authenticated
// back-office browser session. The orchestrator depends only on this
// interface, so the automation mechanism behind it can be swapped without
// touching batch logic.
package portal

import "context"

// Session is one authenticated browser session against the back-office
// portal. Operations are sequenced: Authenticate first, then SelectStore
// before ExportCurrentStore. Implementations enforce the sequence and
// return StateError on out-of-order calls.
type Session interface {
	// Authenticate logs in with the given credentials and waits for the
	// post-login page state. Fails with AuthError.
	Authenticate(ctx context.Context, username, password string) error

	// StoreKeys enumerates the entries of the store selector without
	// changing the selected store. Valid once authenticated.
	StoreKeys(ctx context.Context) ([]string, error)

	// SelectStore activates the selector entry whose label exactly equals
	// displayName. Fails with StoreNotFoundError when no entry matches
	// within the bounded wait.
	SelectStore(ctx context.Context, displayName string) error

	// ExportCurrentStore triggers the CSV export for the selected store and
	// waits for the file to land in downloadDir, returning its name. Fails
	// with ExportTimeoutError when no file appears in time.
	ExportCurrentStore(ctx context.Context, downloadDir string) (string, error)

	// Close releases the browser. Safe to call more than once; the session
	// is released exactly once.
	Close() error
}
