package models

import (
	"strings"
	"time"
)

// ReactionType is the kind of reaction a user attaches to a comment
type ReactionType string

const (
	ReactionLike    ReactionType = "LIKE"
	ReactionDislike ReactionType = "DISLIKE"
)

// ReactionTypes lists every reaction type in aggregation column order
var ReactionTypes = []ReactionType{ReactionLike, ReactionDislike}

// ParseReactionType accepts a reaction type in any letter case
func ParseReactionType(s string) (ReactionType, bool) {
	t := ReactionType(strings.ToUpper(s))
	for _, known := range ReactionTypes {
		if t == known {
			return t, true
		}
	}
	return "", false
}

// Reaction is one user's reaction on one comment
type Reaction struct {
	CommentID    int          `json:"commentId" db:"comment_id"`
	User         string       `json:"user" db:"username"`
	ReactionType ReactionType `json:"reactionType" db:"reaction_type"`
	CreatedAt    time.Time    `json:"created" db:"created_at"`
	UpdatedAt    time.Time    `json:"updated" db:"updated_at"`
}

// ReactionCount is the denormalized number of live reactions per type
type ReactionCount struct {
	CommentID    int          `json:"commentId" db:"comment_id"`
	ReactionType ReactionType `json:"reactionType" db:"reaction_type"`
	Count        int64        `json:"count" db:"count"`
}

// ReactionRequest is the body of POST and PATCH /v1/comment/reaction
type ReactionRequest struct {
	CommentID    int          `json:"commentId" binding:"required,min=1"`
	User         string       `json:"user" binding:"required,not_blank"`
	ReactionType ReactionType `json:"reactionType" binding:"required,reaction_type"`
}

// ReactionReply is returned by reaction endpoints. Mutations fill the
// reaction fields, the users listing fills the page fields.
type ReactionReply struct {
	PageNo       *int         `json:"pageNo,omitempty"`
	PageSize     *int         `json:"pageSize,omitempty"`
	Size         *int         `json:"size,omitempty"`
	CommentID    int          `json:"commentId,omitempty"`
	User         string       `json:"user,omitempty"`
	ReactionType ReactionType `json:"reactionType,omitempty"`
	Created      *time.Time   `json:"created,omitempty"`
	Updated      *time.Time   `json:"updated,omitempty"`
	Users        []string     `json:"users,omitempty"`
}

// NewReactionReply builds the reply for a reaction mutation
func NewReactionReply(r *Reaction) *ReactionReply {
	created := r.CreatedAt
	updated := r.UpdatedAt
	return &ReactionReply{
		CommentID:    r.CommentID,
		User:         r.User,
		ReactionType: r.ReactionType,
		Created:      &created,
		Updated:      &updated,
	}
}

// NewUsersReply builds the reply for a page of reacting users
func NewUsersReply(users []string, pageNo, pageSize int) *ReactionReply {
	if users == nil {
		users = []string{}
	}
	size := len(users)
	return &ReactionReply{
		PageNo:   &pageNo,
		PageSize: &pageSize,
		Size:     &size,
		Users:    users,
	}
}
