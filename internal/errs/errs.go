// Package errs defines the error taxonomy shared by the store, head
// register and navigator. Callers distinguish failures with errors.Is.
package errs

import (
	"errors"
	"strings"
)

var (
	// ErrNotFound is returned when a referenced response id does not exist.
	ErrNotFound = errors.New("response not found")

	// ErrDanglingParent is returned when a create references a parent id
	// that does not exist at insert time.
	ErrDanglingParent = errors.New("parent response does not exist")

	// ErrDanglingHead is returned when a head write references a response
	// id that does not exist at write time.
	ErrDanglingHead = errors.New("head target does not exist")

	// ErrNoParent is returned by back when the head is unset or already
	// at a root.
	ErrNoParent = errors.New("no parent response")

	// ErrStoreUnavailable is returned when the database is locked by a
	// concurrent writer beyond the busy timeout. Retryable by the caller;
	// never retried internally.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// Classify maps driver-level lock contention onto ErrStoreUnavailable so
// callers can test with errors.Is instead of string matching. Other errors
// pass through unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	if strings.Contains(msg, "database is locked") || strings.Contains(msg, "SQLITE_BUSY") {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return err
}
