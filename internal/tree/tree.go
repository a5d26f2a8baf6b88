// Package tree rebuilds nested comment trees from flat, path-ordered rows.
package tree

import (
	"github.com/comment-tree-api/internal/models"
)

// node is one arena slot. Children are arena indexes, not pointers.
type node struct {
	reply    *models.CommentReply
	children []int
}

// top is the arena index of the synthetic container
const top = 0

// Build nests rows under their parents. Rows whose parent is not part of
// the input hang off the returned container, which carries no comment.
// Sibling order follows input order; the input order across levels does
// not matter.
func Build(rows []models.CommentReply) models.NestedCommentReply {
	if len(rows) == 0 {
		return models.NestedCommentReply{}
	}

	arena := make([]node, len(rows)+1)
	slot := make(map[int]int, len(rows))

	for i := range rows {
		arena[i+1].reply = &rows[i]
		slot[rows[i].ID] = i + 1
	}

	for i := range rows {
		parent, ok := slot[rows[i].ParentID]
		if !ok || parent == i+1 {
			parent = top
		}
		arena[parent].children = append(arena[parent].children, i+1)
	}

	return materialize(arena, top)
}

// Page builds a single-level page and records its metadata on the container
func Page(rows []models.CommentReply, pageNo, pageSize int) models.NestedCommentReply {
	return Build(rows).WithPage(pageNo, pageSize, len(rows))
}

func materialize(arena []node, idx int) models.NestedCommentReply {
	n := arena[idx]
	out := models.NestedCommentReply{}
	if n.reply != nil {
		reply := *n.reply
		out.Comment = &reply
	}
	if len(n.children) > 0 {
		out.Comments = make([]models.NestedCommentReply, 0, len(n.children))
		for _, child := range n.children {
			out.Comments = append(out.Comments, materialize(arena, child))
		}
	}
	return out
}
