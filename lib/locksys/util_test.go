package locksys

import (
	"strings"
	"testing"
)

func TestSplitPath(t *testing.T) {
	testCases := []struct {
		name string
		path string
		want []string
	}{
		{"Root", "/", []string{}},
		{"Empty", "", []string{}},
		{"Simple", "/a/b/c", []string{"a", "b", "c"}},
		{"No leading slash", "a/b", []string{"a", "b"}},
		{"Trailing slash", "/a/b/", []string{"a", "b"}},
		{"Repeated slashes", "//a///b", []string{"a", "b"}},
		{"Single segment", "/file.txt", []string{"file.txt"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := SplitPath(tc.path)
			if len(got) != len(tc.want) {
				t.Fatalf("SplitPath(%q) = %v, expected %v", tc.path, got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Errorf("SplitPath(%q)[%d] = %q, expected %q", tc.path, i, got[i], tc.want[i])
				}
			}
		})
	}
}

func TestGenerateToken(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		token := generateToken()
		if !strings.HasPrefix(token, "urn:uuid:") {
			t.Fatalf("Expected urn:uuid prefix, got %s", token)
		}
		if seen[token] {
			t.Fatalf("Duplicate token generated: %s", token)
		}
		seen[token] = true
	}
}
