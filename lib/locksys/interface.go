package locksys

import (
	"errors"
	"fmt"
	"time"
)

// --------------------------------------------------------------------------
// Lock Type
// --------------------------------------------------------------------------

// Lock describes one granted lock. The Token is globally unique and never
// reused while the lock is live. Path is immutable after creation, Timeout
// and TimeoutAt are the only fields mutated in place (by Refresh).
type Lock struct {
	// Token is the opaque string callers present to prove ownership.
	Token string `json:"token"`
	// Path is the full path at which the lock was created.
	Path string `json:"path"`
	// Owner is an opaque caller-supplied descriptor, passed through untouched.
	Owner []byte `json:"owner,omitempty"`
	// Timeout is the requested duration, zero means unbounded.
	Timeout time.Duration `json:"timeout,omitempty"`
	// TimeoutAt is the absolute expiry computed at creation or refresh time.
	// The zero time means unbounded. Expiry is bookkeeping only: it is never
	// enforced by the lock system itself.
	TimeoutAt time.Time `json:"timeout_at"`
	// Shared marks a shared lock, multiple shared locks may coexist.
	Shared bool `json:"shared"`
	// Deep marks a lock whose scope extends to all descendants of Path.
	Deep bool `json:"deep"`
}

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// ILockSystem is the interface of the hierarchical lock system. Paths are
// normalized absolute path strings, interpreted as '/'-separated segments
// with empty segments discarded and an implicit leading root segment.
type ILockSystem interface {
	// Lock acquires a new lock on the given path.
	// On conflict the returned error is a *ConflictError carrying the
	// blocking lock.
	Lock(path string, owner []byte, timeout time.Duration, shared, deep bool) (lock Lock, err error)

	// Unlock releases the lock identified by token. The token is located by
	// walking the path from the root and taking the shallowest match.
	// Returns ErrTokenNotFound if no lock along the path carries the token.
	Unlock(path, token string) (err error)

	// Refresh updates the timeout of the lock identified by token and
	// returns the updated lock. All other lock fields are untouched.
	// Returns ErrTokenNotFound under the same condition as Unlock.
	Refresh(path, token string, timeout time.Duration) (lock Lock, err error)

	// Check verifies that an operation on path may proceed given the set of
	// tokens the caller already holds. It never mutates the lock system.
	// On conflict the returned error is a *ConflictError.
	Check(path string, tokens []string) (err error)

	// Discover returns all locks on the path or on any ancestor of it.
	// Locks on descendants are not included. An absent path yields an
	// empty result, never an error.
	Discover(path string) (locks []Lock, err error)

	// Delete removes the path and its entire subtree from the lock system,
	// discarding all locks at the path and below. Absence of the path is
	// treated as already satisfied.
	Delete(path string) (err error)
}

// --------------------------------------------------------------------------
// Error Types
// --------------------------------------------------------------------------

// ErrTokenNotFound is returned by Unlock and Refresh when the given token
// cannot be located anywhere along the supplied path.
var ErrTokenNotFound = errors.New("locksys: no lock with matching token along path")

// ConflictError is returned by Lock and Check when the request is
// incompatible with an existing lock. It carries the specific blocking lock
// so the caller can report exactly which lock prevented the request.
type ConflictError struct {
	Lock Lock
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	scope := "exclusive"
	if e.Lock.Shared {
		scope = "shared"
	}
	return fmt.Sprintf("locksys: conflicting %s lock %s on %s", scope, e.Lock.Token, e.Lock.Path)
}

// AsConflict extracts a *ConflictError from an error chain.
// The boolean indicates whether the error was a conflict.
func AsConflict(err error) (*ConflictError, bool) {
	var conflict *ConflictError
	ok := errors.As(err, &conflict)
	return conflict, ok
}
