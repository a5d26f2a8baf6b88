package api

import (
	"github.com/comment-tree-api/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// ExportHandler handles thread export endpoints
type ExportHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewExportHandler creates a new ExportHandler
func NewExportHandler(services *service.Services, log zerolog.Logger) *ExportHandler {
	return &ExportHandler{
		services: services,
		log:      log.With().Str("handler", "export").Logger(),
	}
}

// StreamThread handles GET /v1/comment/:commentId/export?format=...
// Streams the comment and its descendants directly to the response.
func (h *ExportHandler) StreamThread(c *gin.Context) {
	rootID, ok := pathInt(c, "commentId")
	if !ok {
		return
	}

	format := c.Query("format")
	if format == "" {
		format = service.FormatNDJSON // Default to NDJSON for streaming
	}

	err := h.services.Export.StreamThread(c.Request.Context(), c.Writer, rootID, format)
	if err == nil {
		return
	}

	if !c.Writer.Written() {
		respondError(c, h.log, err)
		return
	}
	// Can't return error JSON after streaming has started
	h.log.Error().Err(err).Int("root_id", rootID).Msg("Export failed mid-stream")
}
