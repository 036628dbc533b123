package attendance

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"eventscout-backend/models"
)

func TestStatsOnEmptyLedger(t *testing.T) {
	t.Parallel()

	l := newTestLedger(newMemStore(1))
	ctx := context.Background()

	ev, err := l.AttendanceStats(ctx, 1)
	if err != nil {
		t.Fatalf("AttendanceStats: %v", err)
	}
	if ev.TotalCheckins != 0 || ev.UniqueParticipants != 0 || len(ev.MethodBreakdown) != len(models.AllMethods) {
		t.Fatalf("AttendanceStats = %+v", ev)
	}

	venue, err := l.VenueStats(ctx, "hall", nil)
	if err != nil {
		t.Fatalf("VenueStats: %v", err)
	}
	if venue.MonthlyBreakdown == nil || venue.TotalCheckins != 0 {
		t.Fatalf("VenueStats = %+v", venue)
	}

	repeat, err := l.RepeatAttendees(ctx, 2)
	if err != nil {
		t.Fatalf("RepeatAttendees: %v", err)
	}
	if repeat == nil || len(repeat) != 0 {
		t.Fatalf("RepeatAttendees = %#v, want empty non-nil", repeat)
	}

	p, err := l.TimePatterns(ctx)
	if err != nil {
		t.Fatalf("TimePatterns: %v", err)
	}
	if p.PeakHour != -1 || p.PeakDayOfWeek != -1 || p.TotalCheckins != 0 {
		t.Fatalf("TimePatterns = %+v", p)
	}
}

func TestStatsFromLedger(t *testing.T) {
	t.Parallel()

	s := newMemStore(1, 2, 3)
	ctx := context.Background()

	// Friday 2026-10-23 20:xx UTC and Monday 2026-11-02 09:00 UTC.
	fri := time.Date(2026, 10, 23, 20, 5, 0, 0, time.UTC)
	mon := time.Date(2026, 11, 2, 9, 0, 0, 0, time.UTC)
	checkins := []struct {
		at          time.Time
		event       int64
		participant string
		method      string
	}{
		{fri, 1, "alice", "code_scan"},
		{fri.Add(time.Minute), 1, "bob", "code_scan"},
		{fri.Add(2 * time.Minute), 1, "carol", "manual"},
		{mon, 2, "alice", "application"},
		{mon.Add(time.Hour), 3, "alice", "manual"},
		{fri.Add(3 * time.Minute), 3, "bob", "manual"},
	}
	for _, c := range checkins {
		at := c.at
		l := newTestLedger(s, WithClock(func() time.Time { return at }))
		if _, err := l.CheckIn(ctx, models.CheckInRequest{
			EventID: c.event, ParticipantID: c.participant, VenueID: "hall", Method: c.method,
		}); err != nil {
			t.Fatalf("CheckIn(%+v): %v", c, err)
		}
	}
	l := newTestLedger(s)

	ev, err := l.AttendanceStats(ctx, 1)
	if err != nil {
		t.Fatalf("AttendanceStats: %v", err)
	}
	if ev.TotalCheckins != 3 || ev.UniqueParticipants != 3 {
		t.Errorf("totals = %d/%d, want 3/3", ev.TotalCheckins, ev.UniqueParticipants)
	}
	want := map[models.CheckInMethod]int64{models.MethodCodeScan: 2, models.MethodManual: 1, models.MethodApplication: 0}
	if fmt.Sprint(ev.MethodBreakdown) != fmt.Sprint(want) {
		t.Errorf("MethodBreakdown = %v, want %v", ev.MethodBreakdown, want)
	}

	venue, err := l.VenueStats(ctx, "hall", nil)
	if err != nil {
		t.Fatalf("VenueStats: %v", err)
	}
	if venue.TotalCheckins != 6 || fmt.Sprint(venue.MonthlyBreakdown) != "[{2026-10 4} {2026-11 2}]" {
		t.Errorf("VenueStats = %+v", venue)
	}
	nov := time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)
	venue, err = l.VenueStats(ctx, "hall", &models.DateRange{To: &nov})
	if err != nil {
		t.Fatalf("VenueStats(to Nov): %v", err)
	}
	if venue.TotalCheckins != 4 {
		t.Errorf("VenueStats(to Nov) total = %d, want 4", venue.TotalCheckins)
	}

	repeat, err := l.RepeatAttendees(ctx, 2)
	if err != nil {
		t.Fatalf("RepeatAttendees: %v", err)
	}
	if fmt.Sprint(repeat) != "[{alice 3} {bob 2}]" {
		t.Errorf("RepeatAttendees = %v", repeat)
	}

	p, err := l.TimePatterns(ctx)
	if err != nil {
		t.Fatalf("TimePatterns: %v", err)
	}
	if p.TotalCheckins != 6 || p.PeakHour != 20 || p.PeakDayOfWeek != int(time.Friday) {
		t.Errorf("TimePatterns = %+v", p)
	}
	if p.HourHistogram[9] != 1 || p.HourHistogram[10] != 1 || p.WeekdayHistogram[time.Monday] != 2 {
		t.Errorf("histograms = %v / %v", p.HourHistogram, p.WeekdayHistogram)
	}
}

func TestTimePatternsTieGoesToEarliestSlot(t *testing.T) {
	t.Parallel()

	s := newMemStore(1, 2)
	ctx := context.Background()
	// Sunday 08:00 and Saturday 22:00: one check-in each.
	for i, at := range []time.Time{
		time.Date(2026, 10, 25, 8, 0, 0, 0, time.UTC),
		time.Date(2026, 10, 24, 22, 0, 0, 0, time.UTC),
	} {
		at := at
		l := newTestLedger(s, WithClock(func() time.Time { return at }))
		if _, err := l.CheckIn(ctx, models.CheckInRequest{
			EventID: int64(i + 1), ParticipantID: "p", VenueID: "v", Method: "manual",
		}); err != nil {
			t.Fatalf("CheckIn: %v", err)
		}
	}

	p, err := newTestLedger(s).TimePatterns(ctx)
	if err != nil {
		t.Fatalf("TimePatterns: %v", err)
	}
	if p.PeakHour != 8 || p.PeakDayOfWeek != int(time.Sunday) {
		t.Fatalf("peaks = %d/%d, want 8/0", p.PeakHour, p.PeakDayOfWeek)
	}
}

func TestStatsRejectInvalidInput(t *testing.T) {
	t.Parallel()

	l := newTestLedger(newMemStore())
	ctx := context.Background()
	from := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)

	checks := map[string]error{}
	_, checks["event id"] = l.AttendanceStats(ctx, 0)
	_, checks["blank venue"] = l.VenueStats(ctx, " ", nil)
	_, checks["inverted range"] = l.VenueStats(ctx, "hall", &models.DateRange{From: &from, To: &from})
	_, checks["minimum events"] = l.RepeatAttendees(ctx, 0)

	for name, err := range checks {
		if !errors.Is(err, ErrInvalidInput) {
			t.Errorf("%s: err = %v, want ErrInvalidInput", name, err)
		}
	}
}
