package locksys

import (
	"sync"
	"time"

	"github.com/ValentinKolb/davLS/lib/tree"
)

// lockTree is the path trie: every node holds the locks attached at
// exactly that path.
type lockTree = tree.Tree[[]Lock]

// lockSysImpl is the in-memory implementation of ILockSystem. All state
// lives behind one mutex, every public operation is serialized.
type lockSysImpl struct {
	mu   sync.Mutex
	tree *lockTree
}

// NewMemLockSystem creates a new in-memory lock system.
//
// The returned handle is a cheap shared reference: it can be passed to any
// number of goroutines and all of them operate on the same underlying state.
// Create the instance once at startup and hand it out, a fresh instance is
// always empty.
//
// Thread-safety: all methods are safe for concurrent use.
func NewMemLockSystem() ILockSystem {
	return &lockSysImpl{
		tree: tree.New[[]Lock](nil),
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see interface.go)
// --------------------------------------------------------------------------

func (ls *lockSysImpl) Lock(path string, owner []byte, timeout time.Duration, shared, deep bool) (Lock, error) {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	segs := SplitPath(path)

	// Any conflicting locks between the root and the path? A fresh acquire
	// never presents tokens. A shared request tolerates shared locks.
	if err := ls.checkLocksToPath(segs, nil, shared); err != nil {
		return Lock{}, err
	}

	// A deep lock additionally claims everything below the path.
	if deep {
		if err := ls.checkLocksFromPath(segs, shared); err != nil {
			return Lock{}, err
		}
	}

	// No conflict: create intermediate nodes and attach the new lock.
	nodeID := ls.getOrCreatePathNode(segs)

	lock := Lock{
		Token:   generateToken(),
		Path:    path,
		Owner:   append([]byte(nil), owner...),
		Timeout: timeout,
		Shared:  shared,
		Deep:    deep,
	}
	if timeout > 0 {
		lock.TimeoutAt = time.Now().Add(timeout)
	}

	locks := ls.nodeLocks(nodeID)
	*locks = append(*locks, lock)
	return lock, nil
}

func (ls *lockSysImpl) Unlock(path, token string) error {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	nodeID, ok := ls.lookupLock(SplitPath(path), token)
	if !ok {
		return ErrTokenNotFound
	}

	locks := ls.nodeLocks(nodeID)
	for i := range *locks {
		if (*locks)[i].Token == token {
			*locks = append((*locks)[:i], (*locks)[i+1:]...)
			break
		}
	}

	// Prune the node once it holds no locks. DeleteNode refuses when the
	// node still has children, the bare intermediate node is kept then.
	if len(*locks) == 0 {
		_ = ls.tree.DeleteNode(nodeID)
	}
	return nil
}

func (ls *lockSysImpl) Refresh(path, token string, timeout time.Duration) (Lock, error) {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	nodeID, ok := ls.lookupLock(SplitPath(path), token)
	if !ok {
		return Lock{}, ErrTokenNotFound
	}

	locks := ls.nodeLocks(nodeID)
	for i := range *locks {
		lock := &(*locks)[i]
		if lock.Token != token {
			continue
		}
		lock.Timeout = timeout
		if timeout > 0 {
			lock.TimeoutAt = time.Now().Add(timeout)
		} else {
			lock.TimeoutAt = time.Time{}
		}
		return *lock, nil
	}

	// lookupLock reported the token at this node.
	panic("locksys: token vanished between lookup and refresh")
}

func (ls *lockSysImpl) Check(path string, tokens []string) error {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	// Shared tolerance is disabled here: a shared lock is only excused when
	// one of the submitted tokens matches a lock along the path.
	return ls.checkLocksToPath(SplitPath(path), tokens, false)
}

func (ls *lockSysImpl) Discover(path string) ([]Lock, error) {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	locks := make([]Lock, 0)

	nodeID := tree.RootID
	locks = append(locks, *ls.nodeLocks(nodeID)...)
	for _, seg := range SplitPath(path) {
		child, ok := ls.tree.Child(nodeID, seg)
		if !ok {
			break
		}
		nodeID = child
		locks = append(locks, *ls.nodeLocks(nodeID)...)
	}
	return locks, nil
}

func (ls *lockSysImpl) Delete(path string) error {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	if nodeID, ok := ls.lookupNode(SplitPath(path)); ok {
		_ = ls.tree.DeleteSubtree(nodeID)
	}
	return nil
}

// --------------------------------------------------------------------------
// Conflict Checking
// --------------------------------------------------------------------------

// checkLocksToPath walks the ancestor chain from the root down to the path
// and reports the first conflicting lock.
//
// Rules, in walk order:
//   - locks on a node other than the final one only apply if they are deep
//   - a lock matched by a submitted token marks the caller as a holder
//   - an unmatched exclusive lock is an immediate conflict
//   - the first unmatched shared lock is remembered (unless sharedOK) and
//     reported after the walk, but holding a token for any lock anywhere
//     along the walk suppresses that report entirely
func (ls *lockSysImpl) checkLocksToPath(segs []string, submittedTokens []string, sharedOK bool) error {
	holdsLock := false
	var firstSharedSeen *Lock

	nodeID := tree.RootID
	lastDepth := len(segs)
	for depth := 0; depth <= lastDepth; depth++ {
		if depth > 0 {
			child, ok := ls.tree.Child(nodeID, segs[depth-1])
			if !ok {
				break
			}
			nodeID = child
		}

		locks, ok := ls.tree.Value(nodeID)
		if !ok {
			break
		}
		for i := range *locks {
			lock := &(*locks)[i]
			if depth < lastDepth && !lock.Deep {
				continue
			}
			if containsToken(submittedTokens, lock.Token) {
				holdsLock = true
			} else if !lock.Shared {
				return &ConflictError{Lock: *lock}
			} else if !sharedOK && firstSharedSeen == nil {
				firstSharedSeen = lock
			}
		}
	}

	if !holdsLock && firstSharedSeen != nil {
		return &ConflictError{Lock: *firstSharedSeen}
	}
	return nil
}

// checkLocksFromPath reports conflicting locks anywhere in the subtree
// rooted at the path. Granting a deep lock requires exclusivity over
// everything below, a shared lock below is only tolerated when the new
// lock is itself shared.
func (ls *lockSysImpl) checkLocksFromPath(segs []string, sharedOK bool) error {
	nodeID, ok := ls.lookupNode(segs)
	if !ok {
		return nil
	}
	return ls.checkLocksFromNode(nodeID, sharedOK)
}

// checkLocksFromNode recursively checks the node and everything below it.
func (ls *lockSysImpl) checkLocksFromNode(nodeID tree.NodeID, sharedOK bool) error {
	locks, ok := ls.tree.Value(nodeID)
	if !ok {
		return nil
	}
	for i := range *locks {
		lock := &(*locks)[i]
		if !lock.Shared || !sharedOK {
			return &ConflictError{Lock: *lock}
		}
	}
	for _, childID := range ls.tree.Children(nodeID) {
		if err := ls.checkLocksFromNode(childID, sharedOK); err != nil {
			return err
		}
	}
	return nil
}

// --------------------------------------------------------------------------
// Trie Helpers
// --------------------------------------------------------------------------

// nodeLocks returns the mutable lock list of a node that must exist.
func (ls *lockSysImpl) nodeLocks(nodeID tree.NodeID) *[]Lock {
	locks, ok := ls.tree.Value(nodeID)
	if !ok {
		panic("locksys: trie node vanished")
	}
	return locks
}

// getOrCreatePathNode walks the path from the root, creating missing
// intermediate nodes, and returns the node at the full path.
func (ls *lockSysImpl) getOrCreatePathNode(segs []string) tree.NodeID {
	nodeID := tree.RootID
	for _, seg := range segs {
		child, ok := ls.tree.Child(nodeID, seg)
		if !ok {
			created, err := ls.tree.AddChild(nodeID, seg, nil)
			if err != nil {
				panic("locksys: trie parent vanished")
			}
			child = created
		}
		nodeID = child
	}
	return nodeID
}

// lookupLock locates the token along the path and returns the shallowest
// node carrying it, the token is found by proximity to the root.
func (ls *lockSysImpl) lookupLock(segs []string, token string) (tree.NodeID, bool) {
	nodeID := tree.RootID
	for _, seg := range segs {
		child, ok := ls.tree.Child(nodeID, seg)
		if !ok {
			return 0, false
		}
		locks, ok := ls.tree.Value(child)
		if !ok {
			return 0, false
		}
		for i := range *locks {
			if (*locks)[i].Token == token {
				return child, true
			}
		}
		nodeID = child
	}
	return 0, false
}

// lookupNode returns the node ID for the path, if the path exists.
func (ls *lockSysImpl) lookupNode(segs []string) (tree.NodeID, bool) {
	nodeID := tree.RootID
	for _, seg := range segs {
		child, ok := ls.tree.Child(nodeID, seg)
		if !ok {
			return 0, false
		}
		nodeID = child
	}
	return nodeID, true
}

// containsToken reports whether token is in the submitted token set.
func containsToken(tokens []string, token string) bool {
	for _, t := range tokens {
		if t == token {
			return true
		}
	}
	return false
}
