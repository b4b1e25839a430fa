// ABOUTME: Error taxonomy for the sync engine
// ABOUTME: Classifies failures as transport, auth, store, or ignorable conflict

package account

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a sync failure for propagation decisions.
type ErrorKind int

const (
	// KindTransport covers network and HTTP failures. Recoverable;
	// no local state was mutated.
	KindTransport ErrorKind = iota
	// KindAuth covers invalid or expired credentials. The refresh is
	// aborted and the caller may trigger re-authentication.
	KindAuth
	// KindStore covers persistence failures. Checkpoints and the
	// pending set must not be advanced past one of these.
	KindStore
	// KindConflict covers ignorable conflicts such as duplicate folder
	// names or removing something already gone.
	KindConflict
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindAuth:
		return "auth"
	case KindStore:
		return "store"
	case KindConflict:
		return "conflict"
	}
	return "unknown"
}

// SyncError wraps an underlying error with its classification.
type SyncError struct {
	Kind ErrorKind
	Err  error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *SyncError) Unwrap() error {
	return e.Err
}

// TransportErr wraps err as a transport failure.
func TransportErr(err error) error {
	return &SyncError{Kind: KindTransport, Err: err}
}

// AuthErr wraps err as an authentication failure.
func AuthErr(err error) error {
	return &SyncError{Kind: KindAuth, Err: err}
}

// StoreErr wraps err as a persistence failure.
func StoreErr(err error) error {
	return &SyncError{Kind: KindStore, Err: err}
}

// IsKind reports whether err carries the given classification.
func IsKind(err error, kind ErrorKind) bool {
	var se *SyncError
	return errors.As(err, &se) && se.Kind == kind
}

// Precondition errors. These are rejected outright, never queued.
var (
	// ErrImportInProgress rejects a second OPML import while one runs.
	ErrImportInProgress = errors.New("OPML import already in progress")
	// ErrRefreshInProgress rejects a refresh while one is in flight.
	ErrRefreshInProgress = errors.New("refresh already in progress")
)
