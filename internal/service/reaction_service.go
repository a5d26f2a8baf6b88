package service

import (
	"context"
	"errors"

	"github.com/comment-tree-api/internal/config"
	"github.com/comment-tree-api/internal/metrics"
	"github.com/comment-tree-api/internal/models"
	"github.com/comment-tree-api/internal/repository"
	"github.com/rs/zerolog"
)

// reactionService is the concrete implementation of ReactionService
type reactionService struct {
	repos *repository.Repositories
	cfg   config.CommentsConfig
	log   zerolog.Logger
}

// newReactionService creates a new ReactionService
func newReactionService(repos *repository.Repositories, cfg config.CommentsConfig, log zerolog.Logger) *reactionService {
	return &reactionService{
		repos: repos,
		cfg:   cfg,
		log:   log.With().Str("service", "reaction").Logger(),
	}
}

// counterOp is a counter change applied inside a transaction, reported to
// metrics once it commits
type counterOp struct {
	reactionType models.ReactionType
	op           string
}

func parseType(t models.ReactionType) (models.ReactionType, error) {
	parsed, ok := models.ParseReactionType(string(t))
	if !ok {
		return "", invalid("reactionType", "unknown reaction type %q", t)
	}
	return parsed, nil
}

// requireLiveComment fails with comment-not-found for missing or deleted comments
func (s *reactionService) requireLiveComment(ctx context.Context, commentID int) error {
	comment, err := s.repos.Comment.FindByID(ctx, commentID)
	if err != nil {
		return err
	}
	if comment == nil || comment.IsDeleted {
		return notFound(ErrCommentNotFound)
	}
	return nil
}

// GetReactionUsers returns one page of users who reacted with reactionType
func (s *reactionService) GetReactionUsers(ctx context.Context, commentID int, reactionType models.ReactionType, pageNo, pageSize int) (*models.ReactionReply, error) {
	reactionType, err := parseType(reactionType)
	if err != nil {
		return nil, err
	}
	if err := checkPage(pageNo, pageSize, s.cfg.MaxPageSize); err != nil {
		return nil, err
	}

	if err := s.requireLiveComment(ctx, commentID); err != nil {
		return nil, err
	}

	users, err := s.repos.Reaction.ListUsers(ctx, commentID, reactionType, pageNo*pageSize, pageSize)
	if err != nil {
		return nil, err
	}

	return models.NewUsersReply(users, pageNo, pageSize), nil
}

// PostReaction records the user's first reaction on a comment
func (s *reactionService) PostReaction(ctx context.Context, req *models.ReactionRequest) (*models.ReactionReply, error) {
	reactionType, err := parseType(req.ReactionType)
	if err != nil {
		return nil, err
	}

	reaction := &models.Reaction{CommentID: req.CommentID, User: req.User, ReactionType: reactionType}
	var ops []counterOp

	err = s.repos.Tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.requireLiveComment(ctx, req.CommentID); err != nil {
			return err
		}

		inserted, err := s.repos.Reaction.Insert(ctx, reaction)
		if errors.Is(err, repository.ErrCommentMissing) {
			return notFound(ErrCommentNotFound)
		}
		if err != nil {
			return err
		}
		if !inserted {
			return conflict(ErrReactionExists)
		}

		ops = append(ops, counterOp{reactionType, metrics.CounterIncrement})
		return s.repos.Reaction.IncrementCount(ctx, req.CommentID, reactionType)
	})
	if err != nil {
		s.logFailure(err, "Failed to post reaction", req.CommentID, req.User)
		return nil, err
	}
	observe(ops)

	s.log.Info().
		Int("comment_id", req.CommentID).
		Str("user", req.User).
		Str("reaction_type", string(reactionType)).
		Msg("Reaction posted")

	return models.NewReactionReply(reaction), nil
}

// UpdateReaction switches the user's existing reaction to another type
func (s *reactionService) UpdateReaction(ctx context.Context, req *models.ReactionRequest) (*models.ReactionReply, error) {
	reactionType, err := parseType(req.ReactionType)
	if err != nil {
		return nil, err
	}

	var (
		reaction *models.Reaction
		ops      []counterOp
	)

	err = s.repos.Tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.requireLiveComment(ctx, req.CommentID); err != nil {
			return err
		}

		previous, err := s.repos.Reaction.FindForUpdate(ctx, req.CommentID, req.User)
		if err != nil {
			return err
		}
		if previous == nil {
			return notFound(ErrReactionNotFound)
		}
		if previous.ReactionType == reactionType {
			return conflict(ErrReactionUnchanged)
		}

		oldType := previous.ReactionType
		previous.ReactionType = reactionType
		if err := s.repos.Reaction.UpdateType(ctx, previous); err != nil {
			return err
		}

		if err := s.repos.Reaction.IncrementCount(ctx, req.CommentID, reactionType); err != nil {
			return err
		}
		if err := s.repos.Reaction.DecrementCount(ctx, req.CommentID, oldType); err != nil {
			return err
		}
		ops = append(ops,
			counterOp{reactionType, metrics.CounterIncrement},
			counterOp{oldType, metrics.CounterDecrement},
		)
		reaction = previous
		return nil
	})
	if err != nil {
		s.logFailure(err, "Failed to update reaction", req.CommentID, req.User)
		return nil, err
	}
	observe(ops)

	s.log.Info().
		Int("comment_id", req.CommentID).
		Str("user", req.User).
		Str("reaction_type", string(reactionType)).
		Msg("Reaction updated")

	return models.NewReactionReply(reaction), nil
}

// DeleteReaction removes the user's reaction from a comment
func (s *reactionService) DeleteReaction(ctx context.Context, commentID int, user string) (*models.ReactionReply, error) {
	var (
		removed *models.Reaction
		ops     []counterOp
	)

	err := s.repos.Tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.requireLiveComment(ctx, commentID); err != nil {
			return err
		}

		previous, err := s.repos.Reaction.FindForUpdate(ctx, commentID, user)
		if err != nil {
			return err
		}
		if previous == nil {
			return notFound(ErrReactionNotFound)
		}

		deleted, err := s.repos.Reaction.Delete(ctx, commentID, user)
		if err != nil {
			return err
		}
		if !deleted {
			return notFound(ErrReactionNotFound)
		}

		ops = append(ops, counterOp{previous.ReactionType, metrics.CounterDecrement})
		removed = previous
		return s.repos.Reaction.DecrementCount(ctx, commentID, previous.ReactionType)
	})
	if err != nil {
		s.logFailure(err, "Failed to delete reaction", commentID, user)
		return nil, err
	}
	observe(ops)

	s.log.Info().Int("comment_id", commentID).Str("user", user).Msg("Reaction deleted")

	return &models.ReactionReply{
		CommentID:    removed.CommentID,
		User:         removed.User,
		ReactionType: removed.ReactionType,
	}, nil
}

func observe(ops []counterOp) {
	for _, o := range ops {
		metrics.ObserveReactionCounter(string(o.reactionType), o.op)
	}
}

func (s *reactionService) logFailure(err error, msg string, commentID int, user string) {
	event := s.log.Error()
	if KindOf(err) != KindInternal {
		event = s.log.Warn()
	}
	event.Err(err).Int("comment_id", commentID).Str("user", user).Msg(msg)
}
