package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"eventscout-backend/models"
)

// DefaultRepeatMin applies when min is omitted from /participants/repeat.
const DefaultRepeatMin = 2

// StatsLedger is the read side of *attendance.Ledger.
type StatsLedger interface {
	AttendanceStats(ctx context.Context, eventID int64) (*models.EventAttendanceStats, error)
	VenueStats(ctx context.Context, venueID string, rng *models.DateRange) (*models.VenueStats, error)
	RepeatAttendees(ctx context.Context, minEvents int) ([]models.RepeatAttendee, error)
	TimePatterns(ctx context.Context) (*models.TimePatterns, error)
}

type StatsHandler struct {
	ledger StatsLedger
}

func NewStatsHandler(ledger StatsLedger) *StatsHandler {
	return &StatsHandler{ledger: ledger}
}

func (h *StatsHandler) GetEventStats(c *gin.Context) {
	eventID, ok := eventIDParam(c)
	if !ok {
		return
	}
	stats, err := h.ledger.AttendanceStats(c.Request.Context(), eventID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// GetVenueStats accepts from/to as RFC 3339 timestamps or YYYY-MM-DD dates.
// The range is [from, to); a date-only to covers that whole UTC day.
func (h *StatsHandler) GetVenueStats(c *gin.Context) {
	var rng models.DateRange
	for _, p := range []struct {
		name string
		dst  **time.Time
	}{{"from", &rng.From}, {"to", &rng.To}} {
		raw := c.Query(p.name)
		if raw == "" {
			continue
		}
		t, dateOnly, err := parseDate(raw)
		if err != nil {
			badRequest(c, "Invalid "+p.name+": use RFC 3339 or YYYY-MM-DD")
			return
		}
		if dateOnly && p.name == "to" {
			t = t.AddDate(0, 0, 1)
		}
		*p.dst = &t
	}

	stats, err := h.ledger.VenueStats(c.Request.Context(), c.Param("id"), &rng)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *StatsHandler) GetRepeatAttendees(c *gin.Context) {
	minEvents := DefaultRepeatMin
	if raw := c.Query("min"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			badRequest(c, "min must be an integer")
			return
		}
		minEvents = n
	}
	out, err := h.ledger.RepeatAttendees(c.Request.Context(), minEvents)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"participants": out, "min_events": minEvents})
}

func (h *StatsHandler) GetTimePatterns(c *gin.Context) {
	p, err := h.ledger.TimePatterns(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func parseDate(s string) (t time.Time, dateOnly bool, err error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), false, nil
	}
	t, err = time.Parse(time.DateOnly, s)
	return t, err == nil, err
}
