package models

import (
	"time"
)

// CommentReply is a comment together with its descendant count and
// aggregated reaction counts. It is produced by read queries and never stored.
type CommentReply struct {
	ID           int        `json:"id"`
	User         string     `json:"user"`
	Body         string     `json:"body"`
	ParentID     int        `json:"parentId"`
	Replies      int64      `json:"replies"`
	LikeCount    int64      `json:"likeCount"`
	DislikeCount int64      `json:"dislikeCount"`
	Level        int        `json:"level"`
	Created      *time.Time `json:"created,omitempty"`
	Updated      *time.Time `json:"updated,omitempty"`
	IsDeleted    bool       `json:"isDeleted"`
}

// SetCount stores the aggregated count for one reaction type
func (r *CommentReply) SetCount(t ReactionType, n int64) {
	switch t {
	case ReactionLike:
		r.LikeCount = n
	case ReactionDislike:
		r.DislikeCount = n
	}
}

// Count returns the aggregated count for one reaction type
func (r *CommentReply) Count(t ReactionType) int64 {
	switch t {
	case ReactionLike:
		return r.LikeCount
	case ReactionDislike:
		return r.DislikeCount
	}
	return 0
}

// NestedCommentReply is one node of a comment tree response. Only the
// outermost node carries page or depth metadata.
type NestedCommentReply struct {
	Comment  *CommentReply        `json:"comment,omitempty"`
	Comments []NestedCommentReply `json:"comments,omitempty"`
	PageNo   *int                 `json:"pageNo,omitempty"`
	PageSize *int                 `json:"pageSize,omitempty"`
	Size     *int                 `json:"size,omitempty"`
	MaxDepth *int                 `json:"maxDepth,omitempty"`
}

// IsEmpty reports whether the node holds neither a comment nor children
func (n *NestedCommentReply) IsEmpty() bool {
	return n.Comment == nil && len(n.Comments) == 0
}

// WithMaxDepth records the requested depth on the node
func (n NestedCommentReply) WithMaxDepth(maxDepth int) NestedCommentReply {
	n.MaxDepth = &maxDepth
	return n
}

// WithPage records page metadata on the node
func (n NestedCommentReply) WithPage(pageNo, pageSize, size int) NestedCommentReply {
	n.PageNo = &pageNo
	n.PageSize = &pageSize
	n.Size = &size
	return n
}
