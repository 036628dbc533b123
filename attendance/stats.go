package attendance

import (
	"context"
	"fmt"
	"strings"

	"eventscout-backend/models"
)

// AttendanceStats returns totals and the per-method breakdown for one event.
// Every method has an entry, zero when unused.
func (l *Ledger) AttendanceStats(ctx context.Context, eventID int64) (*models.EventAttendanceStats, error) {
	if eventID <= 0 {
		return nil, fmt.Errorf("%w: event id must be positive", ErrInvalidInput)
	}
	rows, err := l.store.EventCheckinCounts(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("attendance stats: %w", err)
	}

	stats := &models.EventAttendanceStats{
		EventID:         eventID,
		MethodBreakdown: make(map[models.CheckInMethod]int64, len(models.AllMethods)),
	}
	for _, m := range models.AllMethods {
		stats.MethodBreakdown[m] = 0
	}
	for _, r := range rows {
		if r.Method == "" {
			stats.TotalCheckins = r.Checkins
			stats.UniqueParticipants = r.Participants
			continue
		}
		stats.MethodBreakdown[models.CheckInMethod(r.Method)] = r.Checkins
	}
	return stats, nil
}

// VenueStats returns a venue's total and its UTC month-by-month breakdown,
// optionally bounded to [From, To).
func (l *Ledger) VenueStats(ctx context.Context, venueID string, rng *models.DateRange) (*models.VenueStats, error) {
	venueID = strings.TrimSpace(venueID)
	if venueID == "" {
		return nil, fmt.Errorf("%w: venue id is required", ErrInvalidInput)
	}
	var r models.DateRange
	if rng != nil {
		r = *rng
	}
	if r.From != nil && r.To != nil && !r.From.Before(*r.To) {
		return nil, fmt.Errorf("%w: range start must precede its end", ErrInvalidInput)
	}

	months, err := l.store.VenueMonthlyCounts(ctx, venueID, r.From, r.To)
	if err != nil {
		return nil, fmt.Errorf("venue stats: %w", err)
	}

	stats := &models.VenueStats{VenueID: venueID, MonthlyBreakdown: make([]models.MonthlyCount, 0, len(months))}
	for _, m := range months {
		stats.TotalCheckins += m.Checkins
		stats.MonthlyBreakdown = append(stats.MonthlyBreakdown, m)
	}
	return stats, nil
}

// RepeatAttendees lists participants checked in to at least minEvents
// distinct events.
func (l *Ledger) RepeatAttendees(ctx context.Context, minEvents int) ([]models.RepeatAttendee, error) {
	if minEvents < 1 {
		return nil, fmt.Errorf("%w: minimum event count must be at least 1", ErrInvalidInput)
	}
	out, err := l.store.RepeatAttendees(ctx, minEvents)
	if err != nil {
		return nil, fmt.Errorf("repeat attendees: %w", err)
	}
	if out == nil {
		out = []models.RepeatAttendee{}
	}
	return out, nil
}

// TimePatterns folds the (hour, weekday) grid into hour and weekday
// histograms. Ties for the peak go to the earliest slot.
func (l *Ledger) TimePatterns(ctx context.Context) (*models.TimePatterns, error) {
	grid, err := l.store.CheckinTimeGrid(ctx)
	if err != nil {
		return nil, fmt.Errorf("time patterns: %w", err)
	}

	p := &models.TimePatterns{PeakHour: -1, PeakDayOfWeek: -1}
	for _, c := range grid {
		if c.Hour < 0 || c.Hour > 23 || c.Weekday < 0 || c.Weekday > 6 {
			continue
		}
		p.HourHistogram[c.Hour] += c.Checkins
		p.WeekdayHistogram[c.Weekday] += c.Checkins
		p.TotalCheckins += c.Checkins
	}
	if p.TotalCheckins == 0 {
		return p, nil
	}
	p.PeakHour = argmax(p.HourHistogram[:])
	p.PeakDayOfWeek = argmax(p.WeekdayHistogram[:])
	return p, nil
}

func argmax(xs []int64) int {
	best := 0
	for i, x := range xs {
		if x > xs[best] {
			best = i
		}
	}
	return best
}
