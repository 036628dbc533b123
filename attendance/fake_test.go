package attendance

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"eventscout-backend/models"
	"eventscout-backend/store"
)

// memStore is an in-memory Store with the same uniqueness and error
// semantics as the PostgreSQL implementation.
type memStore struct {
	mu       sync.Mutex
	events   map[int64]bool
	records  map[string]*models.AttendanceRecord
	counters map[int64]int64

	insertErr  error
	counterErr error
}

func newMemStore(eventIDs ...int64) *memStore {
	s := &memStore{
		events:   map[int64]bool{},
		records:  map[string]*models.AttendanceRecord{},
		counters: map[int64]int64{},
	}
	for _, id := range eventIDs {
		s.events[id] = true
	}
	return s
}

func pairKey(eventID int64, participantID string) string {
	return fmt.Sprintf("%d/%s", eventID, participantID)
}

func (s *memStore) InsertCheckIn(_ context.Context, rec *models.AttendanceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertErr != nil {
		return s.insertErr
	}
	if !s.events[rec.EventID] {
		return fmt.Errorf("insert_checkin: %w", store.ErrMissingReference)
	}
	k := pairKey(rec.EventID, rec.ParticipantID)
	if _, ok := s.records[k]; ok {
		return fmt.Errorf("insert_checkin: %w", store.ErrDuplicate)
	}
	cp := *rec
	s.records[k] = &cp
	return nil
}

func (s *memStore) IncrementCounters(_ context.Context, eventID int64, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.counterErr != nil {
		return s.counterErr
	}
	s.counters[eventID]++
	return nil
}

func (s *memStore) FindCheckIn(_ context.Context, eventID int64, participantID string) (*models.AttendanceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[pairKey(eventID, participantID)]
	if !ok {
		return nil, fmt.Errorf("find_checkin: %w", store.ErrNotFound)
	}
	cp := *rec
	return &cp, nil
}

func (s *memStore) UpdateMetadata(_ context.Context, eventID int64, participantID string, md models.CheckInMetadata) (*models.AttendanceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[pairKey(eventID, participantID)]
	if !ok {
		return nil, fmt.Errorf("update_metadata: %w", store.ErrNotFound)
	}
	rec.Metadata = md
	cp := *rec
	return &cp, nil
}

func (s *memStore) all() []*models.AttendanceRecord {
	out := make([]*models.AttendanceRecord, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, r)
	}
	return out
}

func (s *memStore) EventCheckinCounts(_ context.Context, eventID int64) ([]store.MethodCount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	byMethod := map[string]int64{}
	var total int64
	for _, r := range s.all() {
		if r.EventID == eventID {
			byMethod[string(r.Method)]++
			total++
		}
	}
	// One participant per event, so check-ins and participants coincide.
	out := []store.MethodCount{{Method: "", Checkins: total, Participants: total}}
	for m, n := range byMethod {
		out = append(out, store.MethodCount{Method: m, Checkins: n, Participants: n})
	}
	return out, nil
}

func (s *memStore) VenueMonthlyCounts(_ context.Context, venueID string, from, to *time.Time) ([]models.MonthlyCount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	byMonth := map[string]int64{}
	for _, r := range s.all() {
		if r.VenueID != venueID {
			continue
		}
		if from != nil && r.CheckedInAt.Before(*from) {
			continue
		}
		if to != nil && !r.CheckedInAt.Before(*to) {
			continue
		}
		byMonth[r.CheckedInAt.UTC().Format("2006-01")]++
	}
	var out []models.MonthlyCount
	for m, n := range byMonth {
		out = append(out, models.MonthlyCount{Month: m, Checkins: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out, nil
}

func (s *memStore) RepeatAttendees(_ context.Context, minEvents int) ([]models.RepeatAttendee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	events := map[string]map[int64]bool{}
	for _, r := range s.all() {
		if events[r.ParticipantID] == nil {
			events[r.ParticipantID] = map[int64]bool{}
		}
		events[r.ParticipantID][r.EventID] = true
	}
	var out []models.RepeatAttendee
	for p, evs := range events {
		if len(evs) >= minEvents {
			out = append(out, models.RepeatAttendee{ParticipantID: p, EventCount: int64(len(evs))})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].EventCount != out[j].EventCount {
			return out[i].EventCount > out[j].EventCount
		}
		return out[i].ParticipantID < out[j].ParticipantID
	})
	return out, nil
}

func (s *memStore) CheckinTimeGrid(_ context.Context) ([]store.HourWeekdayCount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cells := map[[2]int]int64{}
	for _, r := range s.all() {
		t := r.CheckedInAt.UTC()
		cells[[2]int{t.Hour(), int(t.Weekday())}]++
	}
	var out []store.HourWeekdayCount
	for k, n := range cells {
		out = append(out, store.HourWeekdayCount{Hour: k[0], Weekday: k[1], Checkins: n})
	}
	return out, nil
}
