package api

import (
	"net/http"

	"github.com/comment-tree-api/internal/config"
	"github.com/comment-tree-api/internal/models"
	"github.com/comment-tree-api/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// ReactionHandler handles reaction endpoints
type ReactionHandler struct {
	services *service.Services
	cfg      *config.Config
	log      zerolog.Logger
}

// NewReactionHandler creates a new ReactionHandler
func NewReactionHandler(services *service.Services, cfg *config.Config, log zerolog.Logger) *ReactionHandler {
	return &ReactionHandler{
		services: services,
		cfg:      cfg,
		log:      log.With().Str("handler", "reaction").Logger(),
	}
}

// GetReactionUsers handles GET /v1/comment/:commentId/reaction/:reactionType/users
func (h *ReactionHandler) GetReactionUsers(c *gin.Context) {
	commentID, ok := pathInt(c, "commentId")
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

	reactionType := models.ReactionType(c.Param("reactionType"))
	reply, err := h.services.Reaction.GetReactionUsers(c.Request.Context(), commentID, reactionType, pageNo, pageSize)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, reply)
}

// PostReaction handles POST /v1/comment/reaction
func (h *ReactionHandler) PostReaction(c *gin.Context) {
	var req models.ReactionRequest
	if !bindJSON(c, &req) {
		return
	}

	reply, err := h.services.Reaction.PostReaction(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, reply)
}

// UpdateReaction handles PATCH /v1/comment/reaction
func (h *ReactionHandler) UpdateReaction(c *gin.Context) {
	var req models.ReactionRequest
	if !bindJSON(c, &req) {
		return
	}

	reply, err := h.services.Reaction.UpdateReaction(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, reply)
}

// DeleteReaction handles DELETE /v1/comment/:commentId/reaction?user=
func (h *ReactionHandler) DeleteReaction(c *gin.Context) {
	commentID, ok := pathInt(c, "commentId")
	if !ok {
		return
	}
	user, ok := requiredQuery(c, "user")
	if !ok {
		return
	}

	reply, err := h.services.Reaction.DeleteReaction(c.Request.Context(), commentID, user)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, reply)
}
