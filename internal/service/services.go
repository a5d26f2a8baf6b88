package service

import (
	"context"
	"net/http"

	"github.com/comment-tree-api/internal/cache"
	"github.com/comment-tree-api/internal/config"
	"github.com/comment-tree-api/internal/models"
	"github.com/comment-tree-api/internal/repository"
	"github.com/rs/zerolog"
)

// CommentService defines the interface for comment operations
type CommentService interface {
	GetComment(ctx context.Context, id int) (*models.CommentReply, error)
	GetCommentTree(ctx context.Context, parentID, maxDepth int) (models.NestedCommentReply, error)
	GetCommentsAtLevel(ctx context.Context, parentID, pageNo, pageSize int) (models.NestedCommentReply, error)
	PostComment(ctx context.Context, req *models.CommentPostRequest) (*models.CommentReply, error)
	EditComment(ctx context.Context, req *models.CommentPutRequest) (*models.CommentReply, error)
	DeleteComment(ctx context.Context, id int, user string) (*models.CommentReply, error)
}

// ReactionService defines the interface for reaction operations
type ReactionService interface {
	GetReactionUsers(ctx context.Context, commentID int, reactionType models.ReactionType, pageNo, pageSize int) (*models.ReactionReply, error)
	PostReaction(ctx context.Context, req *models.ReactionRequest) (*models.ReactionReply, error)
	UpdateReaction(ctx context.Context, req *models.ReactionRequest) (*models.ReactionReply, error)
	DeleteReaction(ctx context.Context, commentID int, user string) (*models.ReactionReply, error)
}

// ExportService defines the interface for thread export
type ExportService interface {
	StreamThread(ctx context.Context, w http.ResponseWriter, rootID int, format string) error
	Count(ctx context.Context) (int, error)
}

// Services holds all service interfaces
type Services struct {
	Comment  CommentService
	Reaction ReactionService
	Export   ExportService
}

// NewServices creates all services. Reads are served through c and every
// successful write invalidates it.
func NewServices(repos *repository.Repositories, c cache.Cache, cfg *config.Config, log zerolog.Logger) *Services {
	commentSvc := newCommentService(repos, cfg.Comments, log)
	reactionSvc := newReactionService(repos, cfg.Comments, log)

	return &Services{
		Comment:  newCachedCommentService(commentSvc, c, log),
		Reaction: newCachedReactionService(reactionSvc, c, log),
		Export:   newExportService(repos, log),
	}
}
