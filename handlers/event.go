package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/gin-gonic/gin"

	"eventscout-backend/models"
	"eventscout-backend/search"
	"eventscout-backend/weekend"
)

// DefaultRadiusKm applies when radius_km is omitted.
const DefaultRadiusKm = 10

// NearbyFinder is satisfied by *search.Engine.
type NearbyFinder interface {
	FindNearby(ctx context.Context, req search.NearbyRequest, now time.Time) (search.Page, *weekend.Window, error)
}

type EventHandler struct {
	finder NearbyFinder
	now    func() time.Time
}

func NewEventHandler(finder NearbyFinder) *EventHandler {
	return &EventHandler{
		finder: finder,
		now:    time.Now,
	}
}

func (h *EventHandler) nearby(c *gin.Context) (search.Page, *weekend.Window, bool) {
	var q models.NearbyEventsRequest
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, "lon and lat are required; numeric parameters must be numbers: "+err.Error())
		return search.Page{}, nil, false
	}

	radius := float64(DefaultRadiusKm)
	if q.RadiusKm != nil {
		radius = *q.RadiusKm
	}

	page, win, err := h.finder.FindNearby(c.Request.Context(), search.NearbyRequest{
		Longitude:   *q.Longitude,
		Latitude:    *q.Latitude,
		RadiusKm:    radius,
		Category:    q.Category,
		WeekendOnly: q.WeekendOnly,
		PageSize:    q.PageSize,
		Cursor:      q.Cursor,
	}, h.now())
	if err != nil {
		respondError(c, err)
		return search.Page{}, nil, false
	}
	return page, win, true
}

// GetNearby serves findNearby as JSON.
func (h *EventHandler) GetNearby(c *gin.Context) {
	page, win, ok := h.nearby(c)
	if !ok {
		return
	}

	resp := models.NearbyEventsResponse{
		Items:      page.Items,
		NextCursor: page.NextCursor,
		HasMore:    page.HasMore,
	}
	if win != nil {
		resp.Window = &models.WindowInfo{Start: win.Start, End: win.End}
	}
	c.JSON(http.StatusOK, resp)
}

// GetNearbyICS serves the same page as an iCalendar feed. The continuation
// cursor travels in the X-Next-Cursor header.
func (h *EventHandler) GetNearbyICS(c *gin.Context) {
	page, win, ok := h.nearby(c)
	if !ok {
		return
	}

	if page.NextCursor != nil {
		c.Header("X-Next-Cursor", *page.NextCursor)
	}
	c.Header("Content-Disposition", `inline; filename="nearby.ics"`)
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(renderCalendar(page.Items, win, h.now())))
}

func renderCalendar(items []models.SearchResult, win *weekend.Window, stamp time.Time) string {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//eventscout//nearby events//EN")
	if win != nil {
		cal.SetXWRCalName("Events this weekend")
	} else {
		cal.SetXWRCalName("Events nearby")
	}

	for _, it := range items {
		ev := cal.AddEvent(fmt.Sprintf("event-%d@eventscout", it.ID))
		ev.SetDtStampTime(stamp.UTC())
		ev.SetCreatedTime(it.CreatedAt.UTC())
		ev.SetStartAt(it.StartTime.UTC())
		if it.EndTime != nil {
			ev.SetEndAt(it.EndTime.UTC())
		}
		ev.SetSummary(it.Title)
		ev.SetGeo(it.Location.Latitude, it.Location.Longitude)
		if it.VenueID != "" {
			ev.SetLocation(it.VenueID)
		}
		if it.Category != "" {
			ev.SetProperty(ics.ComponentPropertyCategories, it.Category)
		}
		desc := "Distance: " + strconv.FormatFloat(it.DistanceMeters, 'f', 2, 64) + " m"
		if it.Description != nil && *it.Description != "" {
			desc = *it.Description + "\n\n" + desc
		}
		ev.SetDescription(desc)
		if it.ImageURL != nil && *it.ImageURL != "" {
			ev.SetURL(*it.ImageURL)
		}
	}
	return cal.Serialize()
}
