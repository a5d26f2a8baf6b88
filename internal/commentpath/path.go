// Package commentpath derives the materialized paths that encode a
// comment's ancestry. A path is an opaque, prefix-matchable string of
// hyphen-joined ids, e.g. "1-2-3" for comment 3 under 2 under 1.
package commentpath

import (
	"strconv"
	"strings"
)

// NoParent is the parent id of a top-level comment. Generated ids start at 1.
const NoParent = 0

// VirtualRootLevel is the level of the virtual root above all top-level
// comments, so that ChildLevel(VirtualRootLevel) == 0.
const VirtualRootLevel = -1

// Separator joins ancestor ids inside a path.
const Separator = "-"

// Root returns the path of a top-level comment.
func Root(id int) string {
	return strconv.Itoa(id)
}

// Child returns the path of comment childID placed under parentPath.
func Child(parentPath string, childID int) string {
	return parentPath + Separator + strconv.Itoa(childID)
}

// Derive returns the path for a new comment given its parent.
func Derive(parentPath string, parentID, childID int) string {
	if parentID == NoParent {
		return Root(childID)
	}
	return Child(parentPath, childID)
}

// ChildLevel returns the depth of a comment whose parent sits at parentLevel.
func ChildLevel(parentLevel int) int {
	return parentLevel + 1
}

// DescendantPattern returns a SQL LIKE pattern matching every strict
// descendant of path. The empty path is the virtual root and matches
// everything.
func DescendantPattern(path string) string {
	if path == "" {
		return "%"
	}
	return path + Separator + "%"
}

// IsDescendant reports whether path lies strictly below ancestor.
func IsDescendant(path, ancestor string) bool {
	if ancestor == "" {
		return path != ""
	}
	return strings.HasPrefix(path, ancestor+Separator)
}
