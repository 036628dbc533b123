package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"eventscout-backend/attendance"
	"eventscout-backend/cursor"
	"eventscout-backend/logging"
	"eventscout-backend/search"
	"eventscout-backend/store"
)

// Machine-readable error codes returned in the "error" field.
const (
	codeInvalidInput  = "invalid_input"
	codeInvalidCursor = "invalid_cursor"
	codeNotFound      = "not_found"
	codeDuplicate     = "duplicate"
	codeForbidden     = "forbidden"
	codeUnavailable   = "unavailable"
	codeInternal      = "internal"
)

const statusClientClosedRequest = 499

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": codeInvalidInput, "message": msg})
}

// respondError maps domain errors onto status codes. Cursor errors are
// checked before generic invalid input so clients can restart pagination.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, cursor.ErrInvalidCursor):
		c.JSON(http.StatusBadRequest, gin.H{"error": codeInvalidCursor, "message": err.Error()})
	case errors.Is(err, search.ErrInvalidInput), errors.Is(err, attendance.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": codeInvalidInput, "message": err.Error()})
	case errors.Is(err, attendance.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": codeNotFound, "message": err.Error()})
	case errors.Is(err, attendance.ErrDuplicateCheckIn):
		c.JSON(http.StatusConflict, gin.H{"error": codeDuplicate, "message": "Participant has already checked in to this event"})
	case errors.Is(err, store.ErrTransient):
		c.Header("Retry-After", "1")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": codeUnavailable, "message": "Temporarily unavailable, retry shortly"})
	case errors.Is(err, context.Canceled):
		// Client closed the request; nobody reads the body.
		c.AbortWithStatus(statusClientClosedRequest)
	default:
		logging.Ctx(c.Request.Context()).Error().Err(err).Str("path", c.FullPath()).Msg("unhandled error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": codeInternal, "message": "Internal server error"})
	}
}
