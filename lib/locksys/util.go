package locksys

import (
	"strings"

	"github.com/google/uuid"
)

// SplitPath splits a normalized absolute path into its segments. Empty
// segments are discarded, so repeated and trailing slashes collapse. The
// implicit root segment is not part of the result, callers walking the trie
// always start at the root node.
func SplitPath(path string) []string {
	parts := strings.Split(path, "/")
	segs := parts[:0]
	for _, seg := range parts {
		if seg != "" {
			segs = append(segs, seg)
		}
	}
	return segs
}

// generateToken creates a new globally unique lock token.
// Tokens are UUIDv4 values in URN form (urn:uuid:...).
func generateToken() string {
	return uuid.New().URN()
}
