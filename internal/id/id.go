package id

import (
	"fmt"
	"strconv"
	"strings"
)

// Parent returns the parent path of a dotted id.
// "1.2.3" -> "1.2"; a root id ("4") has no parent.
func Parent(path string) string {
	i := strings.LastIndex(path, ".")
	if i < 0 {
		return ""
	}
	return path[:i]
}

// LocalIndex returns the trailing numeric segment of a dotted id.
// "1.2.3" -> 3.
func LocalIndex(path string) (int, error) {
	seg := path
	if i := strings.LastIndex(path, "."); i >= 0 {
		seg = path[i+1:]
	}
	n, err := strconv.Atoi(seg)
	if err != nil {
		return 0, fmt.Errorf("invalid id segment in %q: %w", path, err)
	}
	return n, nil
}

// Child joins a parent path with a local index. Child("1.2", 3) -> "1.2.3".
// An empty parent yields a root id.
func Child(parent string, index int) string {
	if parent == "" {
		return strconv.Itoa(index)
	}
	return parent + "." + strconv.Itoa(index)
}

// IsAncestor reports whether ancestor strictly contains path, i.e. path
// begins with ancestor + ".".
func IsAncestor(ancestor, path string) bool {
	return strings.HasPrefix(path, ancestor+".")
}

// Rewrite replaces the oldPrefix ancestry of path with newPrefix.
// Rewrite("1.2.3.4", "1.2", "5.1") -> "5.1.3.4". The path itself maps to
// newPrefix exactly.
func Rewrite(path, oldPrefix, newPrefix string) string {
	if path == oldPrefix {
		return newPrefix
	}
	if IsAncestor(oldPrefix, path) {
		return newPrefix + path[len(oldPrefix):]
	}
	return path
}

// Depth returns the number of segments in a dotted id. "1.2.3" -> 3.
func Depth(path string) int {
	if path == "" {
		return 0
	}
	return strings.Count(path, ".") + 1
}
