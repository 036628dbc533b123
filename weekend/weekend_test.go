package weekend

import (
	"testing"
	"time"
)

func utc(y int, m time.Month, d, h, min, s, ns int) time.Time {
	return time.Date(y, m, d, h, min, s, ns, time.UTC)
}

func TestNext(t *testing.T) {
	t.Parallel()

	edt := time.FixedZone("EDT", -4*3600)
	aest := time.FixedZone("AEST", 10*3600)

	tests := []struct {
		name string
		ref  time.Time
		want time.Time
	}{
		{"monday midnight", utc(2026, 10, 12, 0, 0, 0, 0), utc(2026, 10, 16, 11, 0, 0, 0)},
		{"friday one second before start", utc(2026, 10, 16, 10, 59, 59, 0), utc(2026, 10, 16, 11, 0, 0, 0)},
		{"friday one nanosecond before start", utc(2026, 10, 16, 10, 59, 59, 999999999), utc(2026, 10, 16, 11, 0, 0, 0)},
		{"friday exactly at start", utc(2026, 10, 16, 11, 0, 0, 0), utc(2026, 10, 23, 11, 0, 0, 0)},
		{"friday one nanosecond after start", utc(2026, 10, 16, 11, 0, 0, 1), utc(2026, 10, 23, 11, 0, 0, 0)},
		{"saturday afternoon", utc(2026, 10, 17, 14, 0, 0, 0), utc(2026, 10, 23, 11, 0, 0, 0)},
		{"sunday last second", utc(2026, 10, 18, 23, 59, 59, 0), utc(2026, 10, 23, 11, 0, 0, 0)},
		{"year end rollover", utc(2026, 12, 31, 20, 0, 0, 0), utc(2027, 1, 1, 11, 0, 0, 0)},
		{"new year weekend", utc(2027, 1, 2, 9, 0, 0, 0), utc(2027, 1, 8, 11, 0, 0, 0)},
		{"leap day", utc(2024, 2, 29, 12, 0, 0, 0), utc(2024, 3, 1, 11, 0, 0, 0)},
		{"leap february weekend", utc(2024, 2, 24, 8, 0, 0, 0), utc(2024, 3, 1, 11, 0, 0, 0)},
		// 07:30 EDT is 11:30 UTC, already past the start.
		{"zoned input after start", time.Date(2026, 10, 16, 7, 30, 0, 0, edt), utc(2026, 10, 23, 11, 0, 0, 0)},
		// 20:00 AEST Friday is 10:00 UTC Friday.
		{"zoned input before start", time.Date(2026, 10, 16, 20, 0, 0, 0, aest), utc(2026, 10, 16, 11, 0, 0, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Next(tt.ref)
			if !got.Start.Equal(tt.want) {
				t.Errorf("Next(%s).Start = %s, want %s", tt.ref, got.Start, tt.want)
			}
			if got.Start.Location() != time.UTC {
				t.Errorf("Start location = %s, want UTC", got.Start.Location())
			}
			if d := got.End.Sub(got.Start); d != Length {
				t.Errorf("window length = %s, want %s", d, Length)
			}
		})
	}
}

func TestNextProperties(t *testing.T) {
	t.Parallel()

	base := utc(2026, 10, 12, 0, 0, 0, 0)
	var refs []time.Time
	for h := 0; h < 24*21; h++ {
		refs = append(refs, base.Add(time.Duration(h)*time.Hour))
	}
	// Every boundary of the three weeks, plus neighbours.
	for w := 0; w < 3; w++ {
		start := utc(2026, 10, 16+7*w, 11, 0, 0, 0)
		for _, d := range []time.Duration{-time.Second, 0, time.Second} {
			refs = append(refs, start.Add(d), start.Add(Length+d))
		}
	}

	for _, ref := range refs {
		w := Next(ref)
		if !w.Start.After(ref) {
			t.Fatalf("Next(%s).Start = %s is not after the reference", ref, w.Start)
		}
		if w.Start.Sub(ref) > 7*24*time.Hour {
			t.Fatalf("Next(%s).Start = %s is more than a week away", ref, w.Start)
		}
		if w.Start.Weekday() != StartWeekday || w.Start.Hour() != StartHour || w.Start.Minute() != 0 || w.Start.Second() != 0 {
			t.Fatalf("Next(%s).Start = %s is not Friday %02d:00", ref, w.Start, StartHour)
		}
		if w.End.Sub(w.Start) != Length {
			t.Fatalf("Next(%s) length = %s", ref, w.End.Sub(w.Start))
		}
		if w.End.Weekday() != time.Monday || w.End.Hour() != 0 {
			t.Fatalf("Next(%s).End = %s is not Monday 00:00", ref, w.End)
		}
	}
}

func TestWindowContains(t *testing.T) {
	t.Parallel()

	w := Next(utc(2026, 10, 12, 0, 0, 0, 0))
	tests := []struct {
		at   time.Time
		want bool
	}{
		{w.Start, true},
		{w.Start.Add(-time.Nanosecond), false},
		{utc(2026, 10, 18, 23, 59, 0, 0), true},
		{utc(2026, 10, 18, 23, 59, 59, 999999999), true},
		{w.End, false},
	}
	for _, tt := range tests {
		if got := w.Contains(tt.at); got != tt.want {
			t.Errorf("Contains(%s) = %v, want %v", tt.at, got, tt.want)
		}
	}

	last := w.End.Add(-time.Nanosecond)
	if w.End.Weekday() != time.Monday || last.Weekday() != time.Sunday ||
		last.Hour() != 23 || last.Minute() != 59 || last.Second() != 59 {
		t.Errorf("End = %s, want the instant after Sunday 23:59:59", w.End)
	}
}
