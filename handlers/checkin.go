package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"eventscout-backend/logging"
	"eventscout-backend/middleware"
	"eventscout-backend/models"
)

// CheckInLedger is the write side of *attendance.Ledger.
type CheckInLedger interface {
	CheckIn(ctx context.Context, req models.CheckInRequest) (*models.AttendanceRecord, error)
	FindCheckIn(ctx context.Context, eventID int64, participantID string) (*models.AttendanceRecord, error)
	CorrectMetadata(ctx context.Context, eventID int64, participantID string, patch models.CorrectMetadataRequest) (*models.AttendanceRecord, error)
}

type CheckinHandler struct {
	ledger CheckInLedger
}

func NewCheckinHandler(ledger CheckInLedger) *CheckinHandler {
	return &CheckinHandler{ledger: ledger}
}

// CheckIn records a participant's arrival. With participant auth enabled the
// participant is the token subject and a different participant_id in the
// body is refused.
func (h *CheckinHandler) CheckIn(c *gin.Context) {
	var req models.CheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	if sub, ok := middleware.Participant(c); ok {
		if req.ParticipantID != "" && !strings.EqualFold(req.ParticipantID, sub) {
			c.JSON(http.StatusForbidden, gin.H{"error": codeForbidden, "message": "Cannot check in on behalf of another participant"})
			return
		}
		req.ParticipantID = sub
	}

	logging.Ctx(c.Request.Context()).Debug().
		Int64("event_id", req.EventID).
		Str("participant_id", req.ParticipantID).
		Str("method", req.Method).
		Msg("checking in participant")

	rec, err := h.ledger.CheckIn(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

// GetCheckIn returns one participant's record for an event.
func (h *CheckinHandler) GetCheckIn(c *gin.Context) {
	eventID, ok := eventIDParam(c)
	if !ok {
		return
	}
	rec, err := h.ledger.FindCheckIn(c.Request.Context(), eventID, c.Param("participantId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// CorrectMetadata patches the metadata of an existing record.
func (h *CheckinHandler) CorrectMetadata(c *gin.Context) {
	eventID, ok := eventIDParam(c)
	if !ok {
		return
	}
	participantID := c.Param("participantId")
	if sub, ok := middleware.Participant(c); ok && !strings.EqualFold(participantID, sub) {
		c.JSON(http.StatusForbidden, gin.H{"error": codeForbidden, "message": "Cannot modify another participant's check-in"})
		return
	}

	var req models.CorrectMetadataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	rec, err := h.ledger.CorrectMetadata(c.Request.Context(), eventID, participantID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func eventIDParam(c *gin.Context) (int64, bool) {
	eventID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || eventID <= 0 {
		badRequest(c, "Invalid event ID")
		return 0, false
	}
	return eventID, true
}
