package service

import (
	"context"
	"math"

	"github.com/comment-tree-api/internal/commentpath"
	"github.com/comment-tree-api/internal/config"
	"github.com/comment-tree-api/internal/models"
	"github.com/comment-tree-api/internal/repository"
	"github.com/comment-tree-api/internal/tree"
	"github.com/comment-tree-api/internal/validation"
	"github.com/rs/zerolog"
)

// commentService is the concrete implementation of CommentService
type commentService struct {
	repos *repository.Repositories
	cfg   config.CommentsConfig
	log   zerolog.Logger
}

// newCommentService creates a new CommentService
func newCommentService(repos *repository.Repositories, cfg config.CommentsConfig, log zerolog.Logger) *commentService {
	return &commentService{
		repos: repos,
		cfg:   cfg,
		log:   log.With().Str("service", "comment").Logger(),
	}
}

// subtreeRoot is the anchor of a tree or page query
type subtreeRoot struct {
	path      string
	level     int
	excludeID int
}

// resolveRoot maps a parent id to its path and level. The virtual root
// (parentID 0) has an empty path and sits one level above top-level
// comments. ok is false when a non-zero parent does not exist.
func (s *commentService) resolveRoot(ctx context.Context, parentID int) (subtreeRoot, bool, error) {
	if parentID == commentpath.NoParent {
		return subtreeRoot{level: commentpath.VirtualRootLevel}, true, nil
	}

	parent, err := s.repos.Comment.FindByID(ctx, parentID)
	if err != nil {
		return subtreeRoot{}, false, err
	}
	if parent == nil {
		return subtreeRoot{}, false, nil
	}
	return subtreeRoot{path: parent.Path, level: parent.Level, excludeID: parent.ID}, true, nil
}

// GetComment returns one comment with its aggregates
func (s *commentService) GetComment(ctx context.Context, id int) (*models.CommentReply, error) {
	reply, err := s.repos.Comment.Reply(ctx, id)
	if err != nil {
		return nil, err
	}
	if reply == nil {
		return nil, notFound(ErrCommentNotFound)
	}
	return reply, nil
}

// GetCommentTree returns the descendants of parentID down to maxDepth levels
func (s *commentService) GetCommentTree(ctx context.Context, parentID, maxDepth int) (models.NestedCommentReply, error) {
	if parentID < 0 {
		return models.NestedCommentReply{}, invalid("commentId", "commentId must not be negative")
	}
	if maxDepth < 0 || maxDepth > s.cfg.MaxDepthLimit {
		return models.NestedCommentReply{}, invalid("maxDepth", "maxDepth must be between 0 and %d", s.cfg.MaxDepthLimit)
	}

	root, ok, err := s.resolveRoot(ctx, parentID)
	if err != nil {
		return models.NestedCommentReply{}, err
	}
	if !ok {
		s.log.Debug().Int("parent_id", parentID).Msg("Tree requested for unknown comment")
		return models.NestedCommentReply{}, nil
	}

	// Under the virtual root depth is counted from the top-level comments,
	// so maxDepth 0 still returns them.
	maxLevel := root.level + maxDepth
	if parentID == commentpath.NoParent {
		maxLevel = maxDepth
	}

	rows, err := s.repos.Comment.Subtree(ctx, root.path, root.excludeID, maxLevel)
	if err != nil {
		return models.NestedCommentReply{}, err
	}

	return tree.Build(rows).WithMaxDepth(maxDepth), nil
}

// GetCommentsAtLevel returns one page of the direct children of parentID
func (s *commentService) GetCommentsAtLevel(ctx context.Context, parentID, pageNo, pageSize int) (models.NestedCommentReply, error) {
	if parentID < 0 {
		return models.NestedCommentReply{}, invalid("commentId", "commentId must not be negative")
	}
	if err := s.checkPage(pageNo, pageSize); err != nil {
		return models.NestedCommentReply{}, err
	}

	root, ok, err := s.resolveRoot(ctx, parentID)
	if err != nil {
		return models.NestedCommentReply{}, err
	}
	if !ok {
		s.log.Debug().Int("parent_id", parentID).Msg("Page requested for unknown comment")
		return models.NestedCommentReply{}, nil
	}

	rows, err := s.repos.Comment.LevelPage(ctx, root.path, commentpath.ChildLevel(root.level), pageNo*pageSize, pageSize)
	if err != nil {
		return models.NestedCommentReply{}, err
	}

	return tree.Page(rows, pageNo, pageSize), nil
}

func (s *commentService) checkPage(pageNo, pageSize int) error {
	return checkPage(pageNo, pageSize, s.cfg.MaxPageSize)
}

func checkPage(pageNo, pageSize, maxPageSize int) error {
	if pageNo < 0 {
		return invalid("pageNo", "pageNo must not be negative")
	}
	if pageSize < 1 || pageSize > maxPageSize {
		return invalid("pageSize", "pageSize must be between 1 and %d", maxPageSize)
	}
	// pageNo*pageSize is the row offset and must not wrap
	if pageNo > math.MaxInt/pageSize {
		return invalid("pageNo", "pageNo must not exceed %d", math.MaxInt/pageSize)
	}
	return nil
}

// PostComment creates a top-level comment or a reply
func (s *commentService) PostComment(ctx context.Context, req *models.CommentPostRequest) (*models.CommentReply, error) {
	parentID := commentpath.NoParent
	if req.ParentID != nil {
		parentID = *req.ParentID
	}
	if parentID < 0 {
		return nil, invalid("parentId", "parentId must not be negative")
	}

	body, fieldErrs := validation.ValidateBody(req.Body)
	if len(fieldErrs) > 0 {
		return nil, invalidFields(fieldErrs)
	}

	comment := &models.Comment{
		Body:     body,
		ParentID: parentID,
		User:     req.User,
	}

	err := s.repos.Tx.WithinTx(ctx, func(ctx context.Context) error {
		parentPath, parentLevel := "", commentpath.VirtualRootLevel

		if parentID != commentpath.NoParent {
			parent, err := s.repos.Comment.FindByID(ctx, parentID)
			if err != nil {
				return err
			}
			if parent == nil {
				return notFound(ErrParentNotFound)
			}
			if parent.IsDeleted {
				return notFound(ErrParentDeleted)
			}
			parentPath, parentLevel = parent.Path, parent.Level
		}

		comment.Level = commentpath.ChildLevel(parentLevel)
		if err := s.repos.Comment.Insert(ctx, comment); err != nil {
			return err
		}

		// The path embeds the generated id, so it is written in a second step
		comment.Path = commentpath.Derive(parentPath, parentID, comment.ID)
		return s.repos.Comment.PatchPath(ctx, comment.ID, comment.Path)
	})
	if err != nil {
		s.logFailure(err, "Failed to post comment", parentID, req.User)
		return nil, err
	}

	s.log.Info().
		Int("comment_id", comment.ID).
		Int("parent_id", parentID).
		Str("path", comment.Path).
		Str("user", comment.User).
		Msg("Comment posted")

	return comment.ToReply(), nil
}

// EditComment replaces the body of a live comment owned by the user
func (s *commentService) EditComment(ctx context.Context, req *models.CommentPutRequest) (*models.CommentReply, error) {
	body, fieldErrs := validation.ValidateBody(req.Body)
	if len(fieldErrs) > 0 {
		return nil, invalidFields(fieldErrs)
	}

	reply, err := s.mutateOwned(ctx, req.CommentID, req.User, func(c *models.Comment) {
		c.Body = body
	})
	if err != nil {
		s.logFailure(err, "Failed to edit comment", req.CommentID, req.User)
		return nil, err
	}

	s.log.Info().Int("comment_id", req.CommentID).Str("user", req.User).Msg("Comment edited")
	return reply, nil
}

// DeleteComment tombstones a live comment owned by the user. Replies stay
// attached to it.
func (s *commentService) DeleteComment(ctx context.Context, id int, user string) (*models.CommentReply, error) {
	reply, err := s.mutateOwned(ctx, id, user, func(c *models.Comment) {
		c.Body = models.DeletedBody
		c.IsDeleted = true
	})
	if err != nil {
		s.logFailure(err, "Failed to delete comment", id, user)
		return nil, err
	}

	s.log.Info().Int("comment_id", id).Str("user", user).Msg("Comment deleted")
	return reply, nil
}

// mutateOwned locks the comment, checks it is live and owned by user,
// applies change and persists it
func (s *commentService) mutateOwned(ctx context.Context, id int, user string, change func(*models.Comment)) (*models.CommentReply, error) {
	var reply *models.CommentReply

	err := s.repos.Tx.WithinTx(ctx, func(ctx context.Context) error {
		comment, err := s.repos.Comment.FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if comment == nil || comment.IsDeleted {
			return notFound(ErrCommentNotFound)
		}
		if comment.User != user {
			return notAllowed(ErrNotAllowed)
		}

		change(comment)
		if err := s.repos.Comment.UpdateBody(ctx, comment); err != nil {
			return err
		}

		reply, err = s.repos.Comment.Reply(ctx, id)
		if err != nil {
			return err
		}
		if reply == nil {
			reply = comment.ToReply()
		}
		return nil
	})
	return reply, err
}

// logFailure logs expected rejections at warn and everything else at error
func (s *commentService) logFailure(err error, msg string, id int, user string) {
	event := s.log.Error()
	if KindOf(err) != KindInternal {
		event = s.log.Warn()
	}
	event.Err(err).Int("comment_id", id).Str("user", user).Msg(msg)
}
