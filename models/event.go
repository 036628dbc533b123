package models

import (
	"math"
	"time"
)

// Event categories are free-form; these are the ones the sample data uses.
const (
	CategoryMusic   = "music"
	CategorySports  = "sports"
	CategoryArts    = "arts"
	CategoryFood    = "food"
	CategoryTech    = "tech"
	CategoryOutdoor = "outdoor"
)

// GeoPoint is a WGS84 coordinate. Longitude comes first, matching GeoJSON and PostGIS.
type GeoPoint struct {
	Longitude float64 `json:"lon" validate:"min=-180,max=180"`
	Latitude  float64 `json:"lat" validate:"min=-90,max=90"`
}

// Valid reports whether both components are finite and inside their ranges.
func (p GeoPoint) Valid() bool {
	if math.IsNaN(p.Longitude) || math.IsNaN(p.Latitude) ||
		math.IsInf(p.Longitude, 0) || math.IsInf(p.Latitude, 0) {
		return false
	}
	return p.Longitude >= -180 && p.Longitude <= 180 &&
		p.Latitude >= -90 && p.Latitude <= 90
}

// Event is a scheduled occurrence at a point. It is read-only to this service.
type Event struct {
	ID          int64      `json:"id" db:"id"`
	Title       string     `json:"title" db:"title"`
	Category    string     `json:"category" db:"category"`
	Location    GeoPoint   `json:"location"`
	VenueID     string     `json:"venue_id" db:"venue_id"`
	StartTime   time.Time  `json:"start_time" db:"start_time"`
	EndTime     *time.Time `json:"end_time,omitempty" db:"end_time"`
	Organizer   string     `json:"organizer" db:"organizer"`
	Capacity    *int32     `json:"capacity,omitempty" db:"capacity"`
	Tags        []string   `json:"tags" db:"tags"`
	Description *string    `json:"description,omitempty" db:"description"`
	ImageURL    *string    `json:"image_url,omitempty" db:"image_url"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
}

// SearchResult is an Event projected for one proximity query.
type SearchResult struct {
	Event
	DistanceMeters float64 `json:"distance_m"`
}

// NearbyEventsResponse is the body of a findNearby call.
type NearbyEventsResponse struct {
	Items      []SearchResult `json:"items"`
	NextCursor *string        `json:"next_cursor"`
	HasMore    bool           `json:"has_more"`
	Window     *WindowInfo    `json:"weekend_window,omitempty"`
}

// WindowInfo echoes the weekend window a search was restricted to.
type WindowInfo struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NearbyEventsRequest holds the query parameters of /events/nearby.
type NearbyEventsRequest struct {
	Longitude   *float64 `form:"lon" binding:"required"`
	Latitude    *float64 `form:"lat" binding:"required"`
	RadiusKm    *float64 `form:"radius_km"`
	Category    string   `form:"category"`
	WeekendOnly bool     `form:"weekend"`
	PageSize    int      `form:"page_size"`
	Cursor      string   `form:"cursor"`
}
