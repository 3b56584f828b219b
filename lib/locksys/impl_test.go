package locksys

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

// helper to acquire a lock that must succeed
func mustLock(t *testing.T, ls ILockSystem, path string, shared, deep bool) Lock {
	t.Helper()
	lock, err := ls.Lock(path, nil, 0, shared, deep)
	if err != nil {
		t.Fatalf("Failed to acquire lock on %s: %v", path, err)
	}
	return lock
}

// helper that asserts err is a conflict caused by the given token
func assertConflict(t *testing.T, err error, token string) {
	t.Helper()
	conflict, ok := AsConflict(err)
	if !ok {
		t.Fatalf("Expected a conflict error, got %v", err)
	}
	if conflict.Lock.Token != token {
		t.Errorf("Conflict cites token %s, expected %s", conflict.Lock.Token, token)
	}
}

func TestExclusiveLockBlocks(t *testing.T) {
	ls := NewMemLockSystem()

	lock := mustLock(t, ls, "/a/b", false, false)

	// A second exclusive acquire on the same path conflicts with the first lock
	_, err := ls.Lock("/a/b", nil, 0, false, false)
	assertConflict(t, err, lock.Token)

	// A shared acquire on the same path conflicts too
	_, err = ls.Lock("/a/b", nil, 0, true, false)
	assertConflict(t, err, lock.Token)
}

func TestSharedLocksCoexist(t *testing.T) {
	ls := NewMemLockSystem()

	first := mustLock(t, ls, "/a/b", true, false)
	second := mustLock(t, ls, "/a/b", true, false)

	if first.Token == second.Token {
		t.Errorf("Two locks share the same token")
	}

	// An exclusive acquire without either token conflicts
	_, err := ls.Lock("/a/b", nil, 0, false, false)
	if _, ok := AsConflict(err); !ok {
		t.Errorf("Expected conflict for exclusive acquire over shared locks, got %v", err)
	}
}

func TestDeepLockCoversSubtree(t *testing.T) {
	ls := NewMemLockSystem()

	lock := mustLock(t, ls, "/a", false, true)

	// Any descendant acquire is blocked
	_, err := ls.Lock("/a/b/c", nil, 0, false, false)
	assertConflict(t, err, lock.Token)
}

func TestShallowLockDoesNotCoverDescendants(t *testing.T) {
	ls := NewMemLockSystem()

	lock := mustLock(t, ls, "/a", false, false)

	// A depth-0 lock only applies at the path itself
	if _, err := ls.Lock("/a/b", nil, 0, false, false); err != nil {
		t.Errorf("Depth-0 lock must not block a strict descendant: %v", err)
	}

	// But still blocks at the path itself
	_, err := ls.Lock("/a", nil, 0, false, false)
	assertConflict(t, err, lock.Token)
}

func TestDeepAcquireChecksSubtree(t *testing.T) {
	ls := NewMemLockSystem()

	below := mustLock(t, ls, "/a/b/c", false, false)

	// A deep acquire on an ancestor conflicts with the existing lock below
	_, err := ls.Lock("/a", nil, 0, false, true)
	assertConflict(t, err, below.Token)
}

func TestDeepSharedAcquireToleratesSharedBelow(t *testing.T) {
	ls := NewMemLockSystem()

	mustLock(t, ls, "/a/b/c", true, false)

	// A shared deep lock above tolerates the shared lock below
	if _, err := ls.Lock("/a", nil, 0, true, true); err != nil {
		t.Errorf("Shared deep acquire over shared lock below failed: %v", err)
	}

	// An exclusive deep lock does not
	_, err := ls.Lock("/a/b", nil, 0, false, true)
	if _, ok := AsConflict(err); !ok {
		t.Errorf("Expected conflict for exclusive deep acquire over locks below, got %v", err)
	}
}

func TestUnlock(t *testing.T) {
	ls := NewMemLockSystem()

	lock := mustLock(t, ls, "/a/b", false, false)

	if err := ls.Unlock("/a/b", lock.Token); err != nil {
		t.Fatalf("Failed to release lock: %v", err)
	}

	// After release the same acquire succeeds again
	if _, err := ls.Lock("/a/b", nil, 0, false, false); err != nil {
		t.Errorf("Acquire after release failed: %v", err)
	}
}

func TestUnlockUnknownToken(t *testing.T) {
	ls := NewMemLockSystem()

	mustLock(t, ls, "/a/b", false, false)

	err := ls.Unlock("/a/b", "urn:uuid:no-such-token")
	if !errors.Is(err, ErrTokenNotFound) {
		t.Errorf("Expected ErrTokenNotFound, got %v", err)
	}

	// Releasing at an unrelated path does not find the token either
	lock := mustLock(t, ls, "/x", false, false)
	err = ls.Unlock("/a/b", lock.Token)
	if !errors.Is(err, ErrTokenNotFound) {
		t.Errorf("Expected ErrTokenNotFound for token at different path, got %v", err)
	}
}

func TestUnlockPrunesNode(t *testing.T) {
	ls := NewMemLockSystem()

	lock := mustLock(t, ls, "/a/b", false, false)

	if err := ls.Unlock("/a/b", lock.Token); err != nil {
		t.Fatalf("Failed to release lock: %v", err)
	}

	// The node is gone: discovery along the path sees nothing
	locks, err := ls.Discover("/a/b")
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}
	if len(locks) != 0 {
		t.Errorf("Expected no locks after release, got %d", len(locks))
	}
}

func TestUnlockKeepsIntermediateWithChildren(t *testing.T) {
	ls := NewMemLockSystem()

	parent := mustLock(t, ls, "/a", false, false)
	child := mustLock(t, ls, "/a/b", false, false)

	// Releasing the parent lock keeps /a as a bare intermediate node
	if err := ls.Unlock("/a", parent.Token); err != nil {
		t.Fatalf("Failed to release parent lock: %v", err)
	}

	// The child lock is still fully effective
	_, err := ls.Lock("/a/b", nil, 0, false, false)
	assertConflict(t, err, child.Token)

	// And still releasable
	if err := ls.Unlock("/a/b", child.Token); err != nil {
		t.Errorf("Failed to release child lock: %v", err)
	}
}

func TestRefresh(t *testing.T) {
	ls := NewMemLockSystem()

	owner := []byte("alice")
	lock, err := ls.Lock("/a/b", owner, time.Minute, true, true)
	if err != nil {
		t.Fatalf("Failed to acquire lock: %v", err)
	}

	refreshed, err := ls.Refresh("/a/b", lock.Token, time.Hour)
	if err != nil {
		t.Fatalf("Failed to refresh lock: %v", err)
	}

	// Only the expiry changes
	if refreshed.Token != lock.Token {
		t.Errorf("Refresh changed the token")
	}
	if refreshed.Path != lock.Path {
		t.Errorf("Refresh changed the path")
	}
	if refreshed.Shared != lock.Shared || refreshed.Deep != lock.Deep {
		t.Errorf("Refresh changed the lock mode")
	}
	if string(refreshed.Owner) != string(owner) {
		t.Errorf("Refresh changed the owner")
	}
	if refreshed.Timeout != time.Hour {
		t.Errorf("Expected timeout 1h, got %v", refreshed.Timeout)
	}
	if !refreshed.TimeoutAt.After(lock.TimeoutAt) {
		t.Errorf("Expected refreshed expiry to move forward")
	}

	// The lock is still releasable afterwards
	if err := ls.Unlock("/a/b", lock.Token); err != nil {
		t.Errorf("Failed to release refreshed lock: %v", err)
	}
}

func TestRefreshToUnbounded(t *testing.T) {
	ls := NewMemLockSystem()

	lock, err := ls.Lock("/a", nil, time.Minute, false, false)
	if err != nil {
		t.Fatalf("Failed to acquire lock: %v", err)
	}

	refreshed, err := ls.Refresh("/a", lock.Token, 0)
	if err != nil {
		t.Fatalf("Failed to refresh lock: %v", err)
	}
	if refreshed.Timeout != 0 || !refreshed.TimeoutAt.IsZero() {
		t.Errorf("Expected unbounded lock after refresh with 0, got timeout=%v expiry=%v",
			refreshed.Timeout, refreshed.TimeoutAt)
	}
}

func TestRefreshUnknownToken(t *testing.T) {
	ls := NewMemLockSystem()

	_, err := ls.Refresh("/a/b", "urn:uuid:no-such-token", time.Minute)
	if !errors.Is(err, ErrTokenNotFound) {
		t.Errorf("Expected ErrTokenNotFound, got %v", err)
	}
}

func TestCheck(t *testing.T) {
	ls := NewMemLockSystem()

	lock := mustLock(t, ls, "/a/b", false, true)

	// Without the token access is denied
	err := ls.Check("/a/b/c", nil)
	assertConflict(t, err, lock.Token)

	// With the token access is granted
	if err := ls.Check("/a/b/c", []string{lock.Token}); err != nil {
		t.Errorf("Check with the correct token failed: %v", err)
	}

	// An unlocked sibling path is always accessible
	if err := ls.Check("/x/y", nil); err != nil {
		t.Errorf("Check on unlocked path failed: %v", err)
	}
}

func TestCheckSharedRequiresToken(t *testing.T) {
	ls := NewMemLockSystem()

	lock := mustLock(t, ls, "/a", true, true)

	// Check never tolerates shared locks without a matching token
	err := ls.Check("/a/b", nil)
	assertConflict(t, err, lock.Token)

	if err := ls.Check("/a/b", []string{lock.Token}); err != nil {
		t.Errorf("Check with shared lock token failed: %v", err)
	}
}

// Holding a token for any lock along the walk suppresses the shared-lock
// conflict for the whole walk, even when the token belongs to a different
// lock than the blocking one.
func TestTokenAnywhereSuppressesSharedConflict(t *testing.T) {
	ls := NewMemLockSystem()

	shared := mustLock(t, ls, "/a", true, true)
	own := mustLock(t, ls, "/a/b", true, false)

	// Without any token the shared lock on /a blocks
	err := ls.Check("/a/b", nil)
	assertConflict(t, err, shared.Token)

	// Presenting the token of the lock on /a/b also excuses the lock on /a
	if err := ls.Check("/a/b", []string{own.Token}); err != nil {
		t.Errorf("Expected token anywhere along the walk to suppress the shared conflict, got %v", err)
	}
}

func TestDiscover(t *testing.T) {
	ls := NewMemLockSystem()

	rootLock := mustLock(t, ls, "/", true, true)
	aLock := mustLock(t, ls, "/a", true, false)
	mustLock(t, ls, "/x", true, false) // unrelated branch

	locks, err := ls.Discover("/a/b")
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}

	if len(locks) != 2 {
		t.Fatalf("Expected 2 locks along /a/b, got %d", len(locks))
	}
	if locks[0].Token != rootLock.Token {
		t.Errorf("Expected the root lock first, got %s", locks[0].Token)
	}
	if locks[1].Token != aLock.Token {
		t.Errorf("Expected the lock on /a second, got %s", locks[1].Token)
	}
}

func TestDiscoverEmpty(t *testing.T) {
	ls := NewMemLockSystem()

	locks, err := ls.Discover("/does/not/exist")
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}
	if len(locks) != 0 {
		t.Errorf("Expected no locks, got %d", len(locks))
	}
}

func TestDelete(t *testing.T) {
	ls := NewMemLockSystem()

	mustLock(t, ls, "/a/b", true, true)
	mustLock(t, ls, "/a/b/c", true, false)
	sibling := mustLock(t, ls, "/a/x", false, false)

	if err := ls.Delete("/a/b"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	// Everything at and below /a/b is gone
	locks, err := ls.Discover("/a/b/c")
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}
	if len(locks) != 0 {
		t.Errorf("Expected no locks after delete, got %d", len(locks))
	}

	// Acquire under the deleted subtree succeeds unconditionally
	if _, err := ls.Lock("/a/b/c", nil, 0, false, false); err != nil {
		t.Errorf("Acquire under deleted subtree failed: %v", err)
	}

	// The sibling lock is untouched
	_, err = ls.Lock("/a/x", nil, 0, false, false)
	assertConflict(t, err, sibling.Token)
}

func TestDeleteNonexistentPath(t *testing.T) {
	ls := NewMemLockSystem()

	// Deleting a path without locks is not an error
	if err := ls.Delete("/does/not/exist"); err != nil {
		t.Errorf("Delete of nonexistent path failed: %v", err)
	}
}

// Scenario: a deep exclusive lock on an ancestor governs access to the whole
// subtree until it is released.
func TestDeepLockScenario(t *testing.T) {
	ls := NewMemLockSystem()

	lock := mustLock(t, ls, "/a/b", false, true)

	// Acquire below without the token conflicts with the deep lock
	_, err := ls.Lock("/a/b/c", nil, 0, false, false)
	assertConflict(t, err, lock.Token)

	// Verification with the token passes
	if err := ls.Check("/a/b/c", []string{lock.Token}); err != nil {
		t.Errorf("Check with the deep lock token failed: %v", err)
	}

	// Release the deep lock
	if err := ls.Unlock("/a/b", lock.Token); err != nil {
		t.Fatalf("Failed to release deep lock: %v", err)
	}

	// Now the subtree is accessible without any token
	if err := ls.Check("/a/b/c", nil); err != nil {
		t.Errorf("Check after release failed: %v", err)
	}
}

func TestLockProperties(t *testing.T) {
	ls := NewMemLockSystem()

	owner := []byte("<D:href>mailto:user@example.com</D:href>")
	before := time.Now()
	lock, err := ls.Lock("/a/b", owner, time.Hour, true, true)
	if err != nil {
		t.Fatalf("Failed to acquire lock: %v", err)
	}

	if !strings.HasPrefix(lock.Token, "urn:uuid:") {
		t.Errorf("Expected a urn:uuid token, got %s", lock.Token)
	}
	if lock.Path != "/a/b" {
		t.Errorf("Expected path /a/b, got %s", lock.Path)
	}
	if !lock.Shared || !lock.Deep {
		t.Errorf("Lock mode not preserved: shared=%v deep=%v", lock.Shared, lock.Deep)
	}
	if lock.Timeout != time.Hour {
		t.Errorf("Expected timeout 1h, got %v", lock.Timeout)
	}
	if lock.TimeoutAt.Before(before.Add(time.Hour)) {
		t.Errorf("Expected expiry at least 1h from acquisition")
	}

	// The owner descriptor is copied, mutating the caller's slice changes nothing
	owner[0] = 'X'
	locks, _ := ls.Discover("/a/b")
	if len(locks) != 1 {
		t.Fatalf("Expected 1 lock, got %d", len(locks))
	}
	if locks[0].Owner[0] == 'X' {
		t.Errorf("Owner descriptor aliases the caller's slice")
	}
}

func TestUnboundedLock(t *testing.T) {
	ls := NewMemLockSystem()

	lock, err := ls.Lock("/a", nil, 0, false, false)
	if err != nil {
		t.Fatalf("Failed to acquire lock: %v", err)
	}
	if lock.Timeout != 0 || !lock.TimeoutAt.IsZero() {
		t.Errorf("Expected unbounded lock, got timeout=%v expiry=%v", lock.Timeout, lock.TimeoutAt)
	}
}

// Expiry is bookkeeping only: an expired lock stays fully effective until
// it is explicitly released.
func TestExpiredLockStillBlocks(t *testing.T) {
	ls := NewMemLockSystem()

	lock, err := ls.Lock("/a", nil, time.Nanosecond, false, false)
	if err != nil {
		t.Fatalf("Failed to acquire lock: %v", err)
	}

	time.Sleep(time.Millisecond)

	_, err = ls.Lock("/a", nil, 0, false, false)
	assertConflict(t, err, lock.Token)
}

func TestRootTokenLookupExcluded(t *testing.T) {
	ls := NewMemLockSystem()

	// A lock on "/" lives at the root node, which the token walk never
	// visits: release and refresh at "/" report NotFound.
	lock := mustLock(t, ls, "/", false, true)

	if err := ls.Unlock("/", lock.Token); !errors.Is(err, ErrTokenNotFound) {
		t.Errorf("Expected ErrTokenNotFound for release at /, got %v", err)
	}
	if _, err := ls.Refresh("/", lock.Token, time.Minute); !errors.Is(err, ErrTokenNotFound) {
		t.Errorf("Expected ErrTokenNotFound for refresh at /, got %v", err)
	}

	// The root lock is still discoverable and still blocks
	locks, _ := ls.Discover("/anything")
	if len(locks) != 1 || locks[0].Token != lock.Token {
		t.Errorf("Expected the root lock to be discoverable")
	}
}

func TestConcurrentSharedAcquire(t *testing.T) {
	ls := NewMemLockSystem()

	const n = 32
	var wg sync.WaitGroup
	tokens := make([]string, n)
	errs := make([]error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			lock, err := ls.Lock("/shared/doc", nil, 0, true, false)
			tokens[i] = lock.Token
			errs[i] = err
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		if errs[i] != nil {
			t.Fatalf("Concurrent shared acquire %d failed: %v", i, errs[i])
		}
	}

	// All locks are distinct and all of them releasable
	seen := make(map[string]bool, n)
	for _, token := range tokens {
		if seen[token] {
			t.Errorf("Duplicate token %s", token)
		}
		seen[token] = true
		if err := ls.Unlock("/shared/doc", token); err != nil {
			t.Errorf("Failed to release %s: %v", token, err)
		}
	}
}
