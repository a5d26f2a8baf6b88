package tree

import (
	"encoding/json"
	"math/rand"
	"testing"

	"github.com/comment-tree-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func row(id, parentID, level int) models.CommentReply {
	return models.CommentReply{ID: id, ParentID: parentID, Level: level, User: "u", Body: "b"}
}

// shape renders a tree as nested ids for comparison
func shape(n models.NestedCommentReply) interface{} {
	children := make([]interface{}, 0, len(n.Comments))
	for _, c := range n.Comments {
		children = append(children, shape(c))
	}
	id := 0
	if n.Comment != nil {
		id = n.Comment.ID
	}
	return map[string]interface{}{"id": id, "children": children}
}

func TestBuild_Empty(t *testing.T) {
	out := Build(nil)
	assert.True(t, out.IsEmpty())
	assert.Nil(t, out.Comment)

	body, err := json.Marshal(out)
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(body))
}

func TestBuild_SubtreeUnderQueriedComment(t *testing.T) {
	// Descendants of comment 1: 2 under 1, 3 under 2
	out := Build([]models.CommentReply{row(2, 1, 1), row(3, 2, 2)})

	assert.Nil(t, out.Comment)
	require.Len(t, out.Comments, 1)
	assert.Equal(t, 2, out.Comments[0].Comment.ID)
	require.Len(t, out.Comments[0].Comments, 1)
	assert.Equal(t, 3, out.Comments[0].Comments[0].Comment.ID)
	assert.Empty(t, out.Comments[0].Comments[0].Comments)
}

func TestBuild_Forest(t *testing.T) {
	rows := []models.CommentReply{
		row(1, 0, 0),
		row(2, 1, 1),
		row(4, 2, 2),
		row(3, 1, 1),
		row(5, 0, 0),
	}
	out := Build(rows)

	want := map[string]interface{}{"id": 0, "children": []interface{}{
		map[string]interface{}{"id": 1, "children": []interface{}{
			map[string]interface{}{"id": 2, "children": []interface{}{
				map[string]interface{}{"id": 4, "children": []interface{}{}},
			}},
			map[string]interface{}{"id": 3, "children": []interface{}{}},
		}},
		map[string]interface{}{"id": 5, "children": []interface{}{}},
	}}
	assert.Equal(t, want, shape(out))
}

func TestBuild_ParentAfterChild(t *testing.T) {
	out := Build([]models.CommentReply{row(3, 2, 2), row(2, 1, 1)})

	require.Len(t, out.Comments, 1)
	assert.Equal(t, 2, out.Comments[0].Comment.ID)
	require.Len(t, out.Comments[0].Comments, 1)
	assert.Equal(t, 3, out.Comments[0].Comments[0].Comment.ID)
}

func TestBuild_OrderIndependentStructure(t *testing.T) {
	rows := []models.CommentReply{
		row(1, 0, 0), row(2, 1, 1), row(3, 2, 2), row(4, 2, 2), row(5, 0, 0), row(6, 5, 1),
	}
	parents := func(n models.NestedCommentReply) map[int]int {
		got := map[int]int{}
		var walk func(parent int, n models.NestedCommentReply)
		walk = func(parent int, n models.NestedCommentReply) {
			for _, c := range n.Comments {
				got[c.Comment.ID] = parent
				walk(c.Comment.ID, c)
			}
		}
		walk(0, n)
		return got
	}

	want := parents(Build(rows))
	r := rand.New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		shuffled := append([]models.CommentReply(nil), rows...)
		r.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		assert.Equal(t, want, parents(Build(shuffled)))
	}
}

func TestBuild_DoesNotAliasInput(t *testing.T) {
	rows := []models.CommentReply{row(1, 0, 0)}
	out := Build(rows)
	rows[0].Body = "changed"
	assert.Equal(t, "b", out.Comments[0].Comment.Body)
}

func TestPage(t *testing.T) {
	rows := []models.CommentReply{row(7, 1, 1), row(8, 1, 1)}
	out := Page(rows, 2, 2)

	require.NotNil(t, out.PageNo)
	assert.Equal(t, 2, *out.PageNo)
	assert.Equal(t, 2, *out.PageSize)
	assert.Equal(t, 2, *out.Size)
	assert.Nil(t, out.MaxDepth)
	require.Len(t, out.Comments, 2)
	assert.Equal(t, 7, out.Comments[0].Comment.ID)
	assert.Equal(t, 8, out.Comments[1].Comment.ID)
}

func TestPage_Empty(t *testing.T) {
	out := Page(nil, 3, 10)
	assert.Equal(t, 0, *out.Size)
	assert.Empty(t, out.Comments)

	body, err := json.Marshal(out)
	require.NoError(t, err)
	assert.JSONEq(t, `{"pageNo":3,"pageSize":10,"size":0}`, string(body))
}
