package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/comment-tree-api/internal/commentpath"
	"github.com/comment-tree-api/internal/database"
	"github.com/comment-tree-api/internal/models"
	"github.com/lib/pq"
)

const commentColumns = `id, body, parent_id, path, level, username, is_deleted, created_at, updated_at`

// commentRepo is the concrete implementation of CommentRepository
type commentRepo struct {
	db *database.DB

	// reply projection, built once from models.ReactionTypes
	replySelect string
}

// NewCommentRepo creates a new comment repository
func NewCommentRepo(db *database.DB) CommentRepository {
	return &commentRepo{
		db:          db,
		replySelect: buildReplySelect(models.ReactionTypes),
	}
}

// buildReplySelect returns the aggregation query head: one conditional SUM
// column per reaction type and the descendant count per row
func buildReplySelect(types []models.ReactionType) string {
	var b strings.Builder
	b.WriteString(`SELECT c.id, c.username, c.body, c.parent_id, c.level, c.is_deleted, c.created_at, c.updated_at,
		(SELECT COUNT(*) FROM comments d WHERE d.path LIKE c.path || '-%') AS replies`)
	for _, t := range types {
		fmt.Fprintf(&b, `,
		COALESCE(SUM(CASE WHEN rc.reaction_type = %s THEN rc.count ELSE 0 END), 0) AS %s_count`,
			pq.QuoteLiteral(string(t)), strings.ToLower(string(t)))
	}
	b.WriteString(`
		FROM comments c
		LEFT JOIN reaction_counts rc ON rc.comment_id = c.id`)
	return b.String()
}

func scanComment(row interface{ Scan(...interface{}) error }) (*models.Comment, error) {
	var c models.Comment
	err := row.Scan(
		&c.ID, &c.Body, &c.ParentID, &c.Path, &c.Level, &c.User,
		&c.IsDeleted, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *commentRepo) findOne(ctx context.Context, query string, id int) (*models.Comment, error) {
	c, err := scanComment(r.db.Executor(ctx).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find comment %d: %w", id, err)
	}
	return c, nil
}

// FindByID retrieves a comment by ID
func (r *commentRepo) FindByID(ctx context.Context, id int) (*models.Comment, error) {
	return r.findOne(ctx, `SELECT `+commentColumns+` FROM comments WHERE id = $1`, id)
}

// FindByIDForUpdate retrieves a comment by ID and locks the row until the
// surrounding transaction ends
func (r *commentRepo) FindByIDForUpdate(ctx context.Context, id int) (*models.Comment, error) {
	return r.findOne(ctx, `SELECT `+commentColumns+` FROM comments WHERE id = $1 FOR UPDATE`, id)
}

// Insert stores a new comment and fills its generated id and timestamps
func (r *commentRepo) Insert(ctx context.Context, comment *models.Comment) error {
	query := `
		INSERT INTO comments (body, parent_id, path, level, username, is_deleted)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`
	err := r.db.Executor(ctx).QueryRowContext(ctx, query,
		comment.Body, comment.ParentID, comment.Path, comment.Level, comment.User, comment.IsDeleted,
	).Scan(&comment.ID, &comment.CreatedAt, &comment.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert comment: %w", err)
	}
	return nil
}

// PatchPath writes the materialized path once the id is known
func (r *commentRepo) PatchPath(ctx context.Context, id int, path string) error {
	res, err := r.db.Executor(ctx).ExecContext(ctx, `UPDATE comments SET path = $2 WHERE id = $1`, id, path)
	if err != nil {
		return fmt.Errorf("patch path of comment %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("patch path of comment %d: %w", id, sql.ErrNoRows)
	}
	return nil
}

// UpdateBody writes body and deletion flag and bumps updated_at
func (r *commentRepo) UpdateBody(ctx context.Context, comment *models.Comment) error {
	query := `
		UPDATE comments SET body = $2, is_deleted = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	err := r.db.Executor(ctx).QueryRowContext(ctx, query, comment.ID, comment.Body, comment.IsDeleted).
		Scan(&comment.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update comment %d: %w", comment.ID, err)
	}
	return nil
}

// Reply returns one comment with its aggregates, nil when absent
func (r *commentRepo) Reply(ctx context.Context, id int) (*models.CommentReply, error) {
	replies, err := r.queryReplies(ctx, r.replySelect+`
		WHERE c.id = $1
		GROUP BY c.id`, id)
	if err != nil {
		return nil, err
	}
	if len(replies) == 0 {
		return nil, nil
	}
	return &replies[0], nil
}

// Subtree returns every descendant of rootPath down to maxLevel, in path order
func (r *commentRepo) Subtree(ctx context.Context, rootPath string, excludeID, maxLevel int) ([]models.CommentReply, error) {
	return r.queryReplies(ctx, r.replySelect+`
		WHERE c.path LIKE $1 AND c.id <> $2 AND c.level <= $3
		GROUP BY c.id
		ORDER BY c.path COLLATE "C"`,
		commentpath.DescendantPattern(rootPath), excludeID, maxLevel)
}

// LevelPage returns one page of the descendants of rootPath at targetLevel
func (r *commentRepo) LevelPage(ctx context.Context, rootPath string, targetLevel, offset, limit int) ([]models.CommentReply, error) {
	return r.queryReplies(ctx, r.replySelect+`
		WHERE c.path LIKE $1 AND c.level = $2
		GROUP BY c.id
		ORDER BY c.path COLLATE "C"
		OFFSET $3 LIMIT $4`,
		commentpath.DescendantPattern(rootPath), targetLevel, offset, limit)
}

func (r *commentRepo) queryReplies(ctx context.Context, query string, args ...interface{}) ([]models.CommentReply, error) {
	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query comment replies: %w", err)
	}
	defer rows.Close()

	counts := make([]int64, len(models.ReactionTypes))
	replies := make([]models.CommentReply, 0)
	for rows.Next() {
		var (
			reply            models.CommentReply
			created, updated sql.NullTime
		)
		dest := []interface{}{
			&reply.ID, &reply.User, &reply.Body, &reply.ParentID, &reply.Level,
			&reply.IsDeleted, &created, &updated, &reply.Replies,
		}
		for i := range counts {
			dest = append(dest, &counts[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan comment reply: %w", err)
		}
		for i, t := range models.ReactionTypes {
			reply.SetCount(t, counts[i])
		}
		if created.Valid {
			reply.Created = &created.Time
		}
		if updated.Valid {
			reply.Updated = &updated.Time
		}
		replies = append(replies, reply)
	}

	return replies, rows.Err()
}

// StreamSubtree streams rootPath's descendants in path order for export
func (r *commentRepo) StreamSubtree(ctx context.Context, rootPath string, callback func(*models.Comment) error) error {
	query := `SELECT ` + commentColumns + ` FROM comments WHERE path LIKE $1 ORDER BY path COLLATE "C"`
	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, commentpath.DescendantPattern(rootPath))
	if err != nil {
		return fmt.Errorf("stream subtree: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return err
		}

		if err := callback(comment); err != nil {
			return err
		}
	}

	return rows.Err()
}

// Count returns the total number of comments
func (r *commentRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.Executor(ctx).QueryRowContext(ctx, "SELECT COUNT(*) FROM comments").Scan(&count)
	return count, err
}
