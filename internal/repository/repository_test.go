package repository_test

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/comment-tree-api/internal/commentpath"
	"github.com/comment-tree-api/internal/database"
	"github.com/comment-tree-api/internal/models"
	"github.com/comment-tree-api/internal/repository"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupRepos connects to TEST_DATABASE_URL, migrates and empties the schema
func setupRepos(t *testing.T) (*repository.Repositories, *database.DB) {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping Postgres repository tests")
	}

	sqlDB, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db := database.Wrap(sqlDB, zerolog.Nop())
	require.NoError(t, db.RunMigrations("../../migrations"))

	_, err = db.Exec(`TRUNCATE reaction_counts, reactions, comments RESTART IDENTITY CASCADE`)
	require.NoError(t, err)

	return repository.New(db), db
}

// createComment mirrors the insert-then-patch-path sequence of the service
func createComment(t *testing.T, repos *repository.Repositories, parent *models.Comment, user, body string) *models.Comment {
	t.Helper()
	ctx := context.Background()

	c := &models.Comment{Body: body, User: user, Level: 0}
	parentPath, parentID := "", commentpath.NoParent
	if parent != nil {
		c.ParentID = parent.ID
		c.Level = commentpath.ChildLevel(parent.Level)
		parentPath, parentID = parent.Path, parent.ID
	}

	err := repos.Tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := repos.Comment.Insert(ctx, c); err != nil {
			return err
		}
		c.Path = commentpath.Derive(parentPath, parentID, c.ID)
		return repos.Comment.PatchPath(ctx, c.ID, c.Path)
	})
	require.NoError(t, err)
	return c
}

func TestCommentRepo_InsertAndFind(t *testing.T) {
	repos, _ := setupRepos(t)
	ctx := context.Background()

	root := createComment(t, repos, nil, "alice", "root")
	child := createComment(t, repos, root, "bob", "child")

	stored, err := repos.Comment.FindByID(ctx, child.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, root.ID, stored.ParentID)
	assert.Equal(t, commentpath.Child(root.Path, child.ID), stored.Path)
	assert.Equal(t, 1, stored.Level)
	assert.Equal(t, "bob", stored.User)

	missing, err := repos.Comment.FindByID(ctx, 9999)
	require.NoError(t, err)
	assert.Nil(t, missing)

	count, err := repos.Comment.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestCommentRepo_SubtreeAggregates(t *testing.T) {
	repos, _ := setupRepos(t)
	ctx := context.Background()

	c1 := createComment(t, repos, nil, "u1", "c1")
	c2 := createComment(t, repos, c1, "u2", "c2")
	c3 := createComment(t, repos, c2, "u3", "c3")
	other := createComment(t, repos, nil, "u4", "other")

	for _, user := range []string{"a", "b"} {
		ok, err := repos.Reaction.Insert(ctx, &models.Reaction{CommentID: c2.ID, User: user, ReactionType: models.ReactionLike})
		require.NoError(t, err)
		require.True(t, ok)
		require.NoError(t, repos.Reaction.IncrementCount(ctx, c2.ID, models.ReactionLike))
	}

	rows, err := repos.Comment.Subtree(ctx, "", 0, 10)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []int{c1.ID, c2.ID, c3.ID, other.ID}, replyIDs(rows))
	assert.EqualValues(t, 2, rows[0].Replies)
	assert.EqualValues(t, 2, rows[1].LikeCount)
	assert.EqualValues(t, 0, rows[1].DislikeCount)
	assert.EqualValues(t, 0, rows[3].Replies)

	// Subtree of c1 bounded to level 1 excludes c1 itself and c3
	rows, err = repos.Comment.Subtree(ctx, c1.Path, c1.ID, c1.Level+1)
	require.NoError(t, err)
	assert.Equal(t, []int{c2.ID}, replyIDs(rows))

	rows, err = repos.Comment.Subtree(ctx, c3.Path, c3.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.NotNil(t, rows)

	reply, err := repos.Comment.Reply(ctx, c2.ID)
	require.NoError(t, err)
	require.NotNil(t, reply)
	assert.EqualValues(t, 1, reply.Replies)
	assert.EqualValues(t, 2, reply.LikeCount)
}

func TestCommentRepo_LevelPage(t *testing.T) {
	repos, _ := setupRepos(t)
	ctx := context.Background()

	parent := createComment(t, repos, nil, "p", "parent")
	var children []int
	for i := 0; i < 5; i++ {
		children = append(children, createComment(t, repos, parent, "u", "child").ID)
	}

	page, err := repos.Comment.LevelPage(ctx, parent.Path, 1, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, children[2:4], replyIDs(page))

	page, err = repos.Comment.LevelPage(ctx, parent.Path, 1, 10, 2)
	require.NoError(t, err)
	assert.Empty(t, page)

	roots, err := repos.Comment.LevelPage(ctx, "", 0, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, []int{parent.ID}, replyIDs(roots))
}

func TestCommentRepo_UpdateBodyAndStream(t *testing.T) {
	repos, _ := setupRepos(t)
	ctx := context.Background()

	root := createComment(t, repos, nil, "alice", "first")
	createComment(t, repos, root, "bob", "second")

	root.Body = models.DeletedBody
	root.IsDeleted = true
	require.NoError(t, repos.Comment.UpdateBody(ctx, root))

	var streamed []*models.Comment
	err := repos.Comment.StreamSubtree(ctx, "", func(c *models.Comment) error {
		streamed = append(streamed, c)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, streamed, 2)
	assert.True(t, streamed[0].IsDeleted)
	assert.Equal(t, models.DeletedBody, streamed[0].Body)
	assert.Equal(t, "second", streamed[1].Body)
}

func TestTx_RollbackOnError(t *testing.T) {
	repos, _ := setupRepos(t)
	ctx := context.Background()
	errBoom := errors.New("boom")

	err := repos.Tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := repos.Comment.Insert(ctx, &models.Comment{Body: "x", User: "u"}); err != nil {
			return err
		}
		return errBoom
	})
	assert.ErrorIs(t, err, errBoom)

	count, err := repos.Comment.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestReactionRepo_StateAndCounters(t *testing.T) {
	repos, _ := setupRepos(t)
	ctx := context.Background()
	c := createComment(t, repos, nil, "owner", "body")

	r := &models.Reaction{CommentID: c.ID, User: "alice", ReactionType: models.ReactionLike}
	ok, err := repos.Reaction.Insert(ctx, r)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.False(t, r.CreatedAt.IsZero())

	ok, err = repos.Reaction.Insert(ctx, &models.Reaction{CommentID: c.ID, User: "alice", ReactionType: models.ReactionDislike})
	require.NoError(t, err)
	assert.False(t, ok, "second insert for the same user must conflict")

	found, err := repos.Reaction.FindForUpdate(ctx, c.ID, "alice")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, models.ReactionLike, found.ReactionType)

	found.ReactionType = models.ReactionDislike
	require.NoError(t, repos.Reaction.UpdateType(ctx, found))

	deleted, err := repos.Reaction.Delete(ctx, c.ID, "alice")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = repos.Reaction.Delete(ctx, c.ID, "alice")
	require.NoError(t, err)
	assert.False(t, deleted)

	// Counter never goes below zero and missing rows read as zero
	n, err := repos.Reaction.GetCount(ctx, c.ID, models.ReactionDislike)
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)

	require.NoError(t, repos.Reaction.IncrementCount(ctx, c.ID, models.ReactionDislike))
	require.NoError(t, repos.Reaction.DecrementCount(ctx, c.ID, models.ReactionDislike))
	require.NoError(t, repos.Reaction.DecrementCount(ctx, c.ID, models.ReactionDislike))

	n, err = repos.Reaction.GetCount(ctx, c.ID, models.ReactionDislike)
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)
}

func TestReactionRepo_ConcurrentFirstIncrements(t *testing.T) {
	repos, _ := setupRepos(t)
	ctx := context.Background()
	c := createComment(t, repos, nil, "owner", "body")

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- repos.Tx.WithinTx(ctx, func(ctx context.Context) error {
				return repos.Reaction.IncrementCount(ctx, c.ID, models.ReactionLike)
			})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	n, err := repos.Reaction.GetCount(ctx, c.ID, models.ReactionLike)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}

func TestReactionRepo_ListUsers(t *testing.T) {
	repos, _ := setupRepos(t)
	ctx := context.Background()
	c := createComment(t, repos, nil, "owner", "body")

	for _, user := range []string{"ann", "ben", "cat"} {
		_, err := repos.Reaction.Insert(ctx, &models.Reaction{CommentID: c.ID, User: user, ReactionType: models.ReactionLike})
		require.NoError(t, err)
	}
	_, err := repos.Reaction.Insert(ctx, &models.Reaction{CommentID: c.ID, User: "dan", ReactionType: models.ReactionDislike})
	require.NoError(t, err)

	users, err := repos.Reaction.ListUsers(ctx, c.ID, models.ReactionLike, 0, 10)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"ann", "ben", "cat"}, users)

	users, err = repos.Reaction.ListUsers(ctx, c.ID, models.ReactionLike, 0, 2)
	require.NoError(t, err)
	assert.Len(t, users, 2)

	users, err = repos.Reaction.ListUsers(ctx, c.ID, models.ReactionDislike, 1, 10)
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestReactionRepo_InsertMissingComment(t *testing.T) {
	repos, _ := setupRepos(t)

	inserted, err := repos.Reaction.Insert(context.Background(), &models.Reaction{CommentID: 999, User: "ann", ReactionType: models.ReactionLike})
	assert.False(t, inserted)
	assert.ErrorIs(t, err, repository.ErrCommentMissing)
}

func replyIDs(rows []models.CommentReply) []int {
	ids := make([]int, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	return ids
}
