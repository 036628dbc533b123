package models

import "time"

// EventAttendanceStats summarises the ledger for one event.
type EventAttendanceStats struct {
	EventID            int64                   `json:"event_id"`
	TotalCheckins      int64                   `json:"total_checkins"`
	UniqueParticipants int64                   `json:"unique_participants"`
	MethodBreakdown    map[CheckInMethod]int64 `json:"method_breakdown"`
}

// MonthlyCount is one bucket of a venue's monthly breakdown.
type MonthlyCount struct {
	Month    string `json:"month"` // YYYY-MM
	Checkins int64  `json:"checkins"`
}

// VenueStats summarises the ledger for one venue.
type VenueStats struct {
	VenueID          string         `json:"venue_id"`
	TotalCheckins    int64          `json:"total_checkins"`
	MonthlyBreakdown []MonthlyCount `json:"monthly_breakdown"`
}

// DateRange bounds venue statistics; either side may be open.
type DateRange struct {
	From *time.Time
	To   *time.Time
}

// RepeatAttendee is a participant seen at several distinct events.
type RepeatAttendee struct {
	ParticipantID string `json:"participant_id"`
	EventCount    int64  `json:"event_count"`
}

// TimePatterns describes when check-ins happen. PeakHour and PeakDayOfWeek
// are -1 when the ledger is empty.
type TimePatterns struct {
	PeakHour         int       `json:"peak_hour"`
	PeakDayOfWeek    int       `json:"peak_day_of_week"`
	HourHistogram    [24]int64 `json:"hour_histogram"`
	WeekdayHistogram [7]int64  `json:"weekday_histogram"`
	TotalCheckins    int64     `json:"total_checkins"`
}
