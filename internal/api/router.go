package api

import (
	"net/http"
	"time"

	"github.com/comment-tree-api/internal/config"
	"github.com/comment-tree-api/internal/metrics"
	"github.com/comment-tree-api/internal/service"
	"github.com/comment-tree-api/internal/validation"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// NewRouter creates and configures the Gin router
func NewRouter(services *service.Services, cfg *config.Config, log zerolog.Logger) *gin.Engine {
	// Set Gin mode
	gin.SetMode(gin.ReleaseMode)

	if err := validation.RegisterWithGin(); err != nil {
		log.Error().Err(err).Msg("Failed to register request validators")
	}

	router := gin.New()

	// Middleware
	router.Use(recoveryMiddleware(log))
	router.Use(loggingMiddleware(log))
	router.Use(corsMiddleware())
	router.Use(metrics.Middleware())

	// Handlers
	commentHandler := NewCommentHandler(services, cfg, log)
	reactionHandler := NewReactionHandler(services, cfg, log)
	exportHandler := NewExportHandler(services, log)

	// Health check
	router.GET("/health", healthCheck(services))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	// API v1
	v1 := router.Group("/v1")
	{
		comments := v1.Group("/comment")
		{
			comments.POST("", commentHandler.PostComment)
			comments.PUT("", commentHandler.EditComment)
			comments.GET("/:commentId", commentHandler.GetComment)
			comments.DELETE("/:commentId", commentHandler.DeleteComment)
			comments.GET("/:commentId/fulltree", commentHandler.GetCommentTree)
			comments.GET("/:commentId/nextlevel", commentHandler.GetCommentsAtLevel)
			comments.GET("/:commentId/export", exportHandler.StreamThread)

			// Reaction endpoints
			comments.POST("/reaction", reactionHandler.PostReaction)
			comments.PATCH("/reaction", reactionHandler.UpdateReaction)
			comments.DELETE("/:commentId/reaction", reactionHandler.DeleteReaction)
			comments.GET("/:commentId/reaction/:reactionType/users", reactionHandler.GetReactionUsers)
		}
	}

	return router
}

// healthCheck returns the health status along with the stored comment count
func healthCheck(services *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := "healthy"
		code := http.StatusOK

		count, err := services.Export.Count(c.Request.Context())
		if err != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}

		c.JSON(code, gin.H{
			"status":    status,
			"timestamp": time.Now().Format(time.RFC3339),
			"service":   "comment-service",
			"database": gin.H{
				"comments": count,
			},
		})
	}
}

// recoveryMiddleware handles panics
func recoveryMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Error().Interface("error", err).Msg("Panic recovered")
				c.JSON(http.StatusInternalServerError, gin.H{
					"error": "Internal server error",
				})
				c.Abort()
			}
		}()
		c.Next()
	}
}

// loggingMiddleware logs requests
func loggingMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		duration := time.Since(start)
		statusCode := c.Writer.Status()

		event := log.Info()
		if statusCode >= 400 {
			event = log.Warn()
		}
		if statusCode >= 500 {
			event = log.Error()
		}

		event.
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", statusCode).
			Dur("duration", duration).
			Str("client_ip", c.ClientIP()).
			Msg("Request completed")
	}
}

// corsMiddleware handles CORS
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
