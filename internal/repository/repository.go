package repository

import (
	"context"
	"errors"

	"github.com/comment-tree-api/internal/database"
	"github.com/comment-tree-api/internal/models"
	"github.com/lib/pq"
)

// ErrCommentMissing is returned when a write references a comment row that
// does not exist
var ErrCommentMissing = errors.New("referenced comment does not exist")

// isForeignKeyViolation reports a Postgres foreign_key_violation (23503)
func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23503"
}

// CommentRepository defines the interface for comment data operations
type CommentRepository interface {
	FindByID(ctx context.Context, id int) (*models.Comment, error)
	FindByIDForUpdate(ctx context.Context, id int) (*models.Comment, error)
	Insert(ctx context.Context, comment *models.Comment) error
	PatchPath(ctx context.Context, id int, path string) error
	UpdateBody(ctx context.Context, comment *models.Comment) error
	Reply(ctx context.Context, id int) (*models.CommentReply, error)
	Subtree(ctx context.Context, rootPath string, excludeID, maxLevel int) ([]models.CommentReply, error)
	LevelPage(ctx context.Context, rootPath string, targetLevel, offset, limit int) ([]models.CommentReply, error)
	StreamSubtree(ctx context.Context, rootPath string, callback func(*models.Comment) error) error
	Count(ctx context.Context) (int, error)
}

// ReactionRepository defines the interface for reaction and counter operations
type ReactionRepository interface {
	FindForUpdate(ctx context.Context, commentID int, user string) (*models.Reaction, error)
	Insert(ctx context.Context, reaction *models.Reaction) (bool, error)
	UpdateType(ctx context.Context, reaction *models.Reaction) error
	Delete(ctx context.Context, commentID int, user string) (bool, error)
	IncrementCount(ctx context.Context, commentID int, reactionType models.ReactionType) error
	DecrementCount(ctx context.Context, commentID int, reactionType models.ReactionType) error
	GetCount(ctx context.Context, commentID int, reactionType models.ReactionType) (int64, error)
	ListUsers(ctx context.Context, commentID int, reactionType models.ReactionType, offset, limit int) ([]string, error)
}

// TxManager runs a unit of work inside one transaction carried by ctx
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Repositories holds all repository interfaces
type Repositories struct {
	Comment  CommentRepository
	Reaction ReactionRepository
	Tx       TxManager
}

// New creates all repositories with the given database connection
func New(db *database.DB) *Repositories {
	return &Repositories{
		Comment:  NewCommentRepo(db),
		Reaction: NewReactionRepo(db),
		Tx:       db,
	}
}
