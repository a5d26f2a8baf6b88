package mocks

import (
	"context"
	"net/http"

	"github.com/comment-tree-api/internal/models"
	"github.com/comment-tree-api/internal/service"
)

// MockCommentService is a mock implementation of CommentService
type MockCommentService struct {
	GetCommentFunc         func(ctx context.Context, id int) (*models.CommentReply, error)
	GetCommentTreeFunc     func(ctx context.Context, parentID, maxDepth int) (models.NestedCommentReply, error)
	GetCommentsAtLevelFunc func(ctx context.Context, parentID, pageNo, pageSize int) (models.NestedCommentReply, error)
	PostCommentFunc        func(ctx context.Context, req *models.CommentPostRequest) (*models.CommentReply, error)
	EditCommentFunc        func(ctx context.Context, req *models.CommentPutRequest) (*models.CommentReply, error)
	DeleteCommentFunc      func(ctx context.Context, id int, user string) (*models.CommentReply, error)
}

// Verify interface compliance
var _ service.CommentService = (*MockCommentService)(nil)

func NewMockCommentService() *MockCommentService {
	return &MockCommentService{}
}

func (m *MockCommentService) GetComment(ctx context.Context, id int) (*models.CommentReply, error) {
	if m.GetCommentFunc != nil {
		return m.GetCommentFunc(ctx, id)
	}
	return &models.CommentReply{ID: id}, nil
}

func (m *MockCommentService) GetCommentTree(ctx context.Context, parentID, maxDepth int) (models.NestedCommentReply, error) {
	if m.GetCommentTreeFunc != nil {
		return m.GetCommentTreeFunc(ctx, parentID, maxDepth)
	}
	return models.NestedCommentReply{}.WithMaxDepth(maxDepth), nil
}

func (m *MockCommentService) GetCommentsAtLevel(ctx context.Context, parentID, pageNo, pageSize int) (models.NestedCommentReply, error) {
	if m.GetCommentsAtLevelFunc != nil {
		return m.GetCommentsAtLevelFunc(ctx, parentID, pageNo, pageSize)
	}
	return models.NestedCommentReply{}.WithPage(pageNo, pageSize, 0), nil
}

func (m *MockCommentService) PostComment(ctx context.Context, req *models.CommentPostRequest) (*models.CommentReply, error) {
	if m.PostCommentFunc != nil {
		return m.PostCommentFunc(ctx, req)
	}
	return &models.CommentReply{ID: 1, User: req.User, Body: req.Body, ParentID: *req.ParentID}, nil
}

func (m *MockCommentService) EditComment(ctx context.Context, req *models.CommentPutRequest) (*models.CommentReply, error) {
	if m.EditCommentFunc != nil {
		return m.EditCommentFunc(ctx, req)
	}
	return &models.CommentReply{ID: req.CommentID, User: req.User, Body: req.Body}, nil
}

func (m *MockCommentService) DeleteComment(ctx context.Context, id int, user string) (*models.CommentReply, error) {
	if m.DeleteCommentFunc != nil {
		return m.DeleteCommentFunc(ctx, id, user)
	}
	return &models.CommentReply{ID: id, User: user, Body: models.DeletedBody, IsDeleted: true}, nil
}

// MockReactionService is a mock implementation of ReactionService
type MockReactionService struct {
	GetReactionUsersFunc func(ctx context.Context, commentID int, reactionType models.ReactionType, pageNo, pageSize int) (*models.ReactionReply, error)
	PostReactionFunc     func(ctx context.Context, req *models.ReactionRequest) (*models.ReactionReply, error)
	UpdateReactionFunc   func(ctx context.Context, req *models.ReactionRequest) (*models.ReactionReply, error)
	DeleteReactionFunc   func(ctx context.Context, commentID int, user string) (*models.ReactionReply, error)
}

// Verify interface compliance
var _ service.ReactionService = (*MockReactionService)(nil)

func NewMockReactionService() *MockReactionService {
	return &MockReactionService{}
}

func (m *MockReactionService) GetReactionUsers(ctx context.Context, commentID int, reactionType models.ReactionType, pageNo, pageSize int) (*models.ReactionReply, error) {
	if m.GetReactionUsersFunc != nil {
		return m.GetReactionUsersFunc(ctx, commentID, reactionType, pageNo, pageSize)
	}
	return models.NewUsersReply(nil, pageNo, pageSize), nil
}

func (m *MockReactionService) PostReaction(ctx context.Context, req *models.ReactionRequest) (*models.ReactionReply, error) {
	if m.PostReactionFunc != nil {
		return m.PostReactionFunc(ctx, req)
	}
	return &models.ReactionReply{CommentID: req.CommentID, User: req.User, ReactionType: req.ReactionType}, nil
}

func (m *MockReactionService) UpdateReaction(ctx context.Context, req *models.ReactionRequest) (*models.ReactionReply, error) {
	if m.UpdateReactionFunc != nil {
		return m.UpdateReactionFunc(ctx, req)
	}
	return &models.ReactionReply{CommentID: req.CommentID, User: req.User, ReactionType: req.ReactionType}, nil
}

func (m *MockReactionService) DeleteReaction(ctx context.Context, commentID int, user string) (*models.ReactionReply, error) {
	if m.DeleteReactionFunc != nil {
		return m.DeleteReactionFunc(ctx, commentID, user)
	}
	return &models.ReactionReply{CommentID: commentID, User: user}, nil
}

// MockExportService is a mock implementation of ExportService
type MockExportService struct {
	StreamThreadFunc func(ctx context.Context, w http.ResponseWriter, rootID int, format string) error
	Total            int
}

// Verify interface compliance
var _ service.ExportService = (*MockExportService)(nil)

func NewMockExportService() *MockExportService {
	return &MockExportService{}
}

func (m *MockExportService) StreamThread(ctx context.Context, w http.ResponseWriter, rootID int, format string) error {
	if m.StreamThreadFunc != nil {
		return m.StreamThreadFunc(ctx, w, rootID, format)
	}
	return nil
}

func (m *MockExportService) Count(ctx context.Context) (int, error) {
	return m.Total, nil
}
