package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/comment-tree-api/internal/service"
	"github.com/comment-tree-api/internal/validation"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// statusFor maps a service error kind to an HTTP status
func statusFor(kind service.Kind) int {
	switch kind {
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindNotAllowed:
		return http.StatusForbidden
	case service.KindConflict:
		return http.StatusConflict
	case service.KindValidation:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// respondError writes the error body for err. Internal errors are logged with
// their reference id and never leak their message.
func respondError(c *gin.Context, log zerolog.Logger, err error) {
	ref := uuid.NewString()
	kind := service.KindOf(err)
	status := statusFor(kind)

	body := gin.H{"error_reference_id": ref}
	if kind == service.KindInternal {
		log.Error().Err(err).
			Str("error_reference_id", ref).
			Str("path", c.FullPath()).
			Msg("Request failed")
		body["error"] = "Internal server error"
		c.AbortWithStatusJSON(status, body)
		return
	}

	body["error"] = err.Error()
	var se *service.ServiceError
	if errors.As(err, &se) && len(se.Fields) > 0 {
		body["details"] = se.Fields
	}
	c.AbortWithStatusJSON(status, body)
}

// respondValidation writes a 400 with field details
func respondValidation(c *gin.Context, details []validation.ValidationError) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
		"error":              service.ErrInvalidArgument.Error(),
		"error_reference_id": uuid.NewString(),
		"details":            details,
	})
}

// pathInt parses a non-negative integer path parameter
func pathInt(c *gin.Context, name string) (int, bool) {
	v, err := strconv.Atoi(c.Param(name))
	if err != nil || v < 0 {
		respondValidation(c, []validation.ValidationError{{
			Field:   name,
			Message: name + " must be a non-negative integer",
			Value:   c.Param(name),
		}})
		return 0, false
	}
	return v, true
}

// queryInt parses an optional integer query parameter, returning def when absent
func queryInt(c *gin.Context, name string, def int) (int, bool) {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		respondValidation(c, []validation.ValidationError{{
			Field:   name,
			Message: name + " must be an integer",
			Value:   raw,
		}})
		return 0, false
	}
	return v, true
}

// requiredQuery returns a query parameter that must be present and non-empty
func requiredQuery(c *gin.Context, name string) (string, bool) {
	v := c.Query(name)
	if v == "" {
		respondValidation(c, []validation.ValidationError{{
			Field:   name,
			Message: name + " is required",
		}})
		return "", false
	}
	return v, true
}

// bindJSON binds the request body and reports validation failures
func bindJSON(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		respondValidation(c, validation.FromBindingError(err))
		return false
	}
	return true
}
