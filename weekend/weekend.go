// Package weekend computes the recurring weekend window used by the
// weekend-only search filter.
//
// A weekend starts Friday 11:00 UTC and runs through Sunday 23:59, modelled
// as the half-open interval [Fri 11:00, Mon 00:00). Next never returns a
// window whose start is at or before the reference instant.
package weekend

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"
)

const (
	StartWeekday = time.Friday
	StartHour    = 11
	// Length is exact: Friday 11:00 to Monday 00:00.
	Length = 61 * time.Hour
)

// Window is one weekend, always in UTC. End is exclusive: it is the Monday
// 00:00 instant, so the last covered moment is Sunday 23:59:59.999999999.
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls in [Start, End).
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

func (w Window) String() string {
	return fmt.Sprintf("[%s, %s)", w.Start.Format(time.RFC3339), w.End.Format(time.RFC3339))
}

// Next returns the first weekend starting strictly after ref. A reference
// instant inside a weekend, or exactly on its start, yields the following
// week's window.
func Next(ref time.Time) Window {
	ref = ref.UTC()
	rule, err := rrule.NewRRule(startRule(ref))
	if err != nil {
		// The rule options are constants; NewRRule only rejects out-of-range values.
		panic(fmt.Sprintf("weekend: invalid recurrence rule: %v", err))
	}
	start := rule.After(ref, false)
	return Window{Start: start, End: start.Add(Length)}
}

// startRule anchors the weekly rule a week before ref so that After only has
// to walk one or two occurrences.
func startRule(ref time.Time) rrule.ROption {
	anchor := time.Date(ref.Year(), ref.Month(), ref.Day()-7, 0, 0, 0, 0, time.UTC)
	return rrule.ROption{
		Freq:      rrule.WEEKLY,
		Dtstart:   anchor,
		Byweekday: []rrule.Weekday{rrule.FR},
		Byhour:    []int{StartHour},
		Byminute:  []int{0},
		Bysecond:  []int{0},
	}
}
