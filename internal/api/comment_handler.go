package api

import (
	"net/http"

	"github.com/comment-tree-api/internal/config"
	"github.com/comment-tree-api/internal/models"
	"github.com/comment-tree-api/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// CommentHandler handles comment endpoints
type CommentHandler struct {
	services *service.Services
	cfg      *config.Config
	log      zerolog.Logger
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(services *service.Services, cfg *config.Config, log zerolog.Logger) *CommentHandler {
	return &CommentHandler{
		services: services,
		cfg:      cfg,
		log:      log.With().Str("handler", "comment").Logger(),
	}
}

// GetComment handles GET /v1/comment/:commentId
func (h *CommentHandler) GetComment(c *gin.Context) {
	id, ok := pathInt(c, "commentId")
	if !ok {
		return
	}

	reply, err := h.services.Comment.GetComment(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, reply)
}

// GetCommentTree handles GET /v1/comment/:commentId/fulltree?maxDepth=
// commentId 0 addresses the virtual root.
func (h *CommentHandler) GetCommentTree(c *gin.Context) {
	parentID, ok := pathInt(c, "commentId")
	if !ok {
		return
	}
	maxDepth, ok := queryInt(c, "maxDepth", h.cfg.Comments.DefaultMaxDepth)
	if !ok {
		return
	}

	tree, err := h.services.Comment.GetCommentTree(c.Request.Context(), parentID, maxDepth)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, tree)
}

// GetCommentsAtLevel handles GET /v1/comment/:commentId/nextlevel?pageNo=&pageSize=
func (h *CommentHandler) GetCommentsAtLevel(c *gin.Context) {
	parentID, ok := pathInt(c, "commentId")
	if !ok {
		return
	}
	pageNo, ok := queryInt(c, "pageNo", 0)
	if !ok {
		return
	}
	pageSize, ok := queryInt(c, "pageSize", h.cfg.Comments.DefaultPageSize)
	if !ok {
		return
	}

	page, err := h.services.Comment.GetCommentsAtLevel(c.Request.Context(), parentID, pageNo, pageSize)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// PostComment handles POST /v1/comment
func (h *CommentHandler) PostComment(c *gin.Context) {
	var req models.CommentPostRequest
	if !bindJSON(c, &req) {
		return
	}

	reply, err := h.services.Comment.PostComment(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	h.log.Info().
		Int("comment_id", reply.ID).
		Int("parent_id", reply.ParentID).
		Str("user", reply.User).
		Msg("Comment created")

	c.JSON(http.StatusOK, reply)
}

// EditComment handles PUT /v1/comment
func (h *CommentHandler) EditComment(c *gin.Context) {
	var req models.CommentPutRequest
	if !bindJSON(c, &req) {
		return
	}

	reply, err := h.services.Comment.EditComment(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, reply)
}

// DeleteComment handles DELETE /v1/comment/:commentId?user=
func (h *CommentHandler) DeleteComment(c *gin.Context) {
	id, ok := pathInt(c, "commentId")
	if !ok {
		return
	}
	user, ok := requiredQuery(c, "user")
	if !ok {
		return
	}

	reply, err := h.services.Comment.DeleteComment(c.Request.Context(), id, user)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	h.log.Info().Int("comment_id", id).Str("user", user).Msg("Comment deleted")
	c.JSON(http.StatusOK, reply)
}
