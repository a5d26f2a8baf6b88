package mocks_test

import (
	"context"
	"errors"
	"testing"

	"github.com/comment-tree-api/internal/mocks"
	"github.com/comment-tree-api/internal/models"
	"github.com/comment-tree-api/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockStore_RollbackOnError(t *testing.T) {
	store := mocks.NewMockStore()
	repos := store.Repositories()
	ctx := context.Background()

	err := repos.Tx.WithinTx(ctx, func(ctx context.Context) error {
		require.NoError(t, repos.Comment.Insert(ctx, &models.Comment{Body: "x", User: "u"}))
		_, err := repos.Reaction.Insert(ctx, &models.Reaction{CommentID: 1, User: "u", ReactionType: models.ReactionLike})
		require.NoError(t, err)
		require.NoError(t, repos.Reaction.IncrementCount(ctx, 1, models.ReactionLike))
		return errors.New("abort")
	})
	require.Error(t, err)

	n, _ := repos.Comment.Count(ctx)
	assert.Equal(t, 0, n)
	assert.EqualValues(t, 0, store.Count(1, models.ReactionLike))
	assert.EqualValues(t, 0, store.LiveReactions(1, models.ReactionLike))
}

func TestMockCommentRepository_PathQueries(t *testing.T) {
	store := mocks.NewMockStore()
	ctx := context.Background()

	store.Comment.Seed(models.Comment{ID: 1, Path: "1", Level: 0, User: "a"})
	store.Comment.Seed(models.Comment{ID: 12, Path: "12", Level: 0, User: "a"})
	store.Comment.Seed(models.Comment{ID: 13, Path: "1-13", ParentID: 1, Level: 1, User: "a"})

	rows, err := store.Comment.Subtree(ctx, "1", 1, 5)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 13, rows[0].ID)

	reply, err := store.Comment.Reply(ctx, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 1, reply.Replies)

	all, err := store.Comment.Subtree(ctx, "", 0, 5)
	require.NoError(t, err)
	ids := []int{}
	for _, r := range all {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []int{1, 13, 12}, ids, "byte order puts 1-13 before 12")
}

func TestMockReactionRepository_MissingComment(t *testing.T) {
	store := mocks.NewMockStore()

	inserted, err := store.Reaction.Insert(context.Background(), &models.Reaction{CommentID: 42, User: "u", ReactionType: models.ReactionLike})
	assert.False(t, inserted)
	assert.ErrorIs(t, err, repository.ErrCommentMissing)
}
