// Package locksys implements an in-memory hierarchical lock system for a
// path-addressed resource namespace with WebDAV-style semantics: shared and
// exclusive locks, depth-0 vs. infinite-depth ("deep") locks, opaque lock
// tokens and optional timeouts.
//
// The lock system arbitrates concurrent access to tree-structured resources
// addressed by slash-separated paths. It tracks which paths are locked, by
// whom and with what scope, and resolves conflicts deterministically.
//
// Core Functionality:
//   - Lock acquisition with ancestor- and subtree-aware conflict detection
//   - Release and refresh keyed by (path, token)
//   - Access verification against a set of already-held tokens
//   - Lock discovery along a path's ancestor chain
//   - Cascading deletion of a path and everything beneath it
//
// Implementation Approach:
//
//	Locks are stored in a path trie built on the tree package: one node per
//	path segment, each node holding the locks attached at exactly that path.
//	A node exists only while it holds a lock or leads to a descendant that
//	does, empty leaves are pruned on release.
//
//	Conflict checking walks the ancestor chain from the root to the target
//	path. Locks on intermediate nodes only bind if they are deep, locks on
//	the final node always bind. An exclusive lock is an immediate conflict,
//	the first shared lock seen is reported after the walk unless the request
//	tolerates shared locks or the caller proved ownership of any lock along
//	the walk by token. Acquiring a deep lock additionally requires the
//	subtree below the target to be free of conflicting locks.
//
//	Timeouts are bookkeeping only: the absolute expiry is computed and
//	stored at creation and refresh time but never enforced. An expired lock
//	remains fully effective until explicitly released.
//
// Thread Safety:
//
//	The whole structure is protected by a single mutex. Every operation
//	acquires it, performs its work and releases it before returning, so
//	operations are strictly serialized and never interleave. The handle
//	returned by NewMemLockSystem is a cheap shared reference: create it once
//	at startup and distribute it, all copies operate on the same state.
//
// State is memory-resident only and does not survive a process restart.
package locksys
