package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/comment-tree-api/internal/database"
	"github.com/comment-tree-api/internal/models"
)

// reactionRepo is the concrete implementation of ReactionRepository
type reactionRepo struct {
	db *database.DB
}

// NewReactionRepo creates a new reaction repository
func NewReactionRepo(db *database.DB) ReactionRepository {
	return &reactionRepo{db: db}
}

// FindForUpdate retrieves a user's reaction on a comment and locks it
func (r *reactionRepo) FindForUpdate(ctx context.Context, commentID int, user string) (*models.Reaction, error) {
	query := `
		SELECT comment_id, username, reaction_type, created_at, updated_at
		FROM reactions WHERE comment_id = $1 AND username = $2
		FOR UPDATE
	`
	var reaction models.Reaction
	err := r.db.Executor(ctx).QueryRowContext(ctx, query, commentID, user).Scan(
		&reaction.CommentID, &reaction.User, &reaction.ReactionType,
		&reaction.CreatedAt, &reaction.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find reaction: %w", err)
	}
	return &reaction, nil
}

// Insert stores a reaction. It reports false when the user already reacted.
func (r *reactionRepo) Insert(ctx context.Context, reaction *models.Reaction) (bool, error) {
	query := `
		INSERT INTO reactions (comment_id, username, reaction_type)
		VALUES ($1, $2, $3)
		ON CONFLICT (comment_id, username) DO NOTHING
		RETURNING created_at, updated_at
	`
	err := r.db.Executor(ctx).QueryRowContext(ctx, query,
		reaction.CommentID, reaction.User, reaction.ReactionType,
	).Scan(&reaction.CreatedAt, &reaction.UpdatedAt)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if isForeignKeyViolation(err) {
		return false, fmt.Errorf("insert reaction on %d: %w", reaction.CommentID, ErrCommentMissing)
	}
	if err != nil {
		return false, fmt.Errorf("insert reaction: %w", err)
	}
	return true, nil
}

// UpdateType changes the reaction type and bumps updated_at
func (r *reactionRepo) UpdateType(ctx context.Context, reaction *models.Reaction) error {
	query := `
		UPDATE reactions SET reaction_type = $3, updated_at = NOW()
		WHERE comment_id = $1 AND username = $2
		RETURNING created_at, updated_at
	`
	err := r.db.Executor(ctx).QueryRowContext(ctx, query,
		reaction.CommentID, reaction.User, reaction.ReactionType,
	).Scan(&reaction.CreatedAt, &reaction.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update reaction: %w", err)
	}
	return nil
}

// Delete removes a reaction and reports whether a row existed
func (r *reactionRepo) Delete(ctx context.Context, commentID int, user string) (bool, error) {
	res, err := r.db.Executor(ctx).ExecContext(ctx,
		`DELETE FROM reactions WHERE comment_id = $1 AND username = $2`, commentID, user)
	if err != nil {
		return false, fmt.Errorf("delete reaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// IncrementCount atomically adds one to the counter, creating it on first use
func (r *reactionRepo) IncrementCount(ctx context.Context, commentID int, reactionType models.ReactionType) error {
	query := `
		INSERT INTO reaction_counts (comment_id, reaction_type, count)
		VALUES ($1, $2, 1)
		ON CONFLICT (comment_id, reaction_type)
		DO UPDATE SET count = reaction_counts.count + 1
	`
	if _, err := r.db.Executor(ctx).ExecContext(ctx, query, commentID, reactionType); err != nil {
		return fmt.Errorf("increment %s count of comment %d: %w", reactionType, commentID, err)
	}
	return nil
}

// DecrementCount subtracts one from the counter without going below zero
func (r *reactionRepo) DecrementCount(ctx context.Context, commentID int, reactionType models.ReactionType) error {
	query := `
		UPDATE reaction_counts SET count = count - 1
		WHERE comment_id = $1 AND reaction_type = $2 AND count > 0
	`
	if _, err := r.db.Executor(ctx).ExecContext(ctx, query, commentID, reactionType); err != nil {
		return fmt.Errorf("decrement %s count of comment %d: %w", reactionType, commentID, err)
	}
	return nil
}

// GetCount returns the counter value, 0 when no row exists
func (r *reactionRepo) GetCount(ctx context.Context, commentID int, reactionType models.ReactionType) (int64, error) {
	var count int64
	err := r.db.Executor(ctx).QueryRowContext(ctx,
		`SELECT count FROM reaction_counts WHERE comment_id = $1 AND reaction_type = $2`,
		commentID, reactionType,
	).Scan(&count)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get reaction count: %w", err)
	}
	return count, nil
}

// ListUsers returns one page of users who reacted with reactionType, most
// recent first
func (r *reactionRepo) ListUsers(ctx context.Context, commentID int, reactionType models.ReactionType, offset, limit int) ([]string, error) {
	query := `
		SELECT username FROM reactions
		WHERE comment_id = $1 AND reaction_type = $2
		ORDER BY updated_at DESC, username
		OFFSET $3 LIMIT $4
	`
	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, commentID, reactionType, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("list reaction users: %w", err)
	}
	defer rows.Close()

	users := make([]string, 0)
	for rows.Next() {
		var user string
		if err := rows.Scan(&user); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}
