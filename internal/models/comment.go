package models

import (
	"time"
)

// Comment represents a stored comment in the hierarchy
type Comment struct {
	ID        int       `json:"id" db:"id"`
	Body      string    `json:"body" db:"body"`
	ParentID  int       `json:"parentId" db:"parent_id"`
	Path      string    `json:"path" db:"path"`
	Level     int       `json:"level" db:"level"`
	User      string    `json:"user" db:"username"`
	IsDeleted bool      `json:"isDeleted" db:"is_deleted"`
	CreatedAt time.Time `json:"created" db:"created_at"`
	UpdatedAt time.Time `json:"updated" db:"updated_at"`
}

// DeletedBody replaces the body of a soft-deleted comment
const DeletedBody = "Deleted by user"

// MaxCommentWords is the maximum allowed words in a comment body
const MaxCommentWords = 500

// CommentPostRequest is the body of POST /v1/comment
type CommentPostRequest struct {
	ParentID *int   `json:"parentId" binding:"required,min=0"`
	User     string `json:"user" binding:"required,not_blank"`
	Body     string `json:"body" binding:"required,max_words"`
}

// CommentPutRequest is the body of PUT /v1/comment
type CommentPutRequest struct {
	CommentID int    `json:"commentId" binding:"required,min=1"`
	User      string `json:"user" binding:"required,not_blank"`
	Body      string `json:"body" binding:"required,max_words"`
}

// ToReply projects a stored comment without aggregates
func (c *Comment) ToReply() *CommentReply {
	created := c.CreatedAt
	updated := c.UpdatedAt
	return &CommentReply{
		ID:        c.ID,
		User:      c.User,
		Body:      c.Body,
		ParentID:  c.ParentID,
		Level:     c.Level,
		Created:   &created,
		Updated:   &updated,
		IsDeleted: c.IsDeleted,
	}
}
