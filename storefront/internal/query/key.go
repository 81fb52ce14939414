package query

import (
	"fmt"
	"strings"
)

// Key identifies a cached query: a resource name followed by its
// parameters, e.g. Key{"book", 42}. Parts compare by their fmt.Sprint
// form, so Key{"book", 42} and Key{"book", "42"} are the same key.
type Key []any

func (k Key) parts() []string {
	parts := make([]string, len(k))
	for i, p := range k {
		parts[i] = fmt.Sprint(p)
	}
	return parts
}

// id is the map key of the entry.
func (k Key) id() string {
	return strings.Join(k.parts(), "\x1f")
}

func (k Key) String() string {
	return "[" + strings.Join(k.parts(), " ") + "]"
}

// HasPrefix reports whether prefix matches the leading parts of k.
// The empty prefix matches every key.
func (k Key) HasPrefix(prefix Key) bool {
	if len(prefix) > len(k) {
		return false
	}
	for i := range prefix {
		if fmt.Sprint(prefix[i]) != fmt.Sprint(k[i]) {
			return false
		}
	}
	return true
}

func (k Key) Equal(other Key) bool {
	return len(k) == len(other) && k.HasPrefix(other)
}
