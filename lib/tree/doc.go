// Package tree implements a generic, arena-allocated tree with
// string-labeled edges. It is the backing structure for the path trie of
// the locksys package, where every edge corresponds to one path segment
// and every node carries the list of locks attached at exactly that path.
//
// Design:
//
//	Nodes live in a flat arena and address each other via opaque NodeIDs
//	with explicit parent and children maps instead of intrusive pointers.
//	This avoids ownership cycles and makes it safe to delete nodes while
//	walking the structure, the iteration only ever holds IDs, never
//	references into sibling nodes.
//
// The tree performs no synchronization itself. Callers that share a tree
// between goroutines must serialize access externally.
package tree
