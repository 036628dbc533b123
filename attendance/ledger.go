// Package attendance is the ledger of confirmed event check-ins and the
// statistics derived from it.
//
// A participant can be checked in to an event at most once. The rule is
// enforced by the store's UNIQUE (event_id, participant_id) constraint as
// part of the insert itself, so it holds under concurrent requests and
// client retries. Records are never deleted; the metadata is the only part
// that can be corrected after the fact.
package attendance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"eventscout-backend/logging"
	"eventscout-backend/metrics"
	"eventscout-backend/models"
	"eventscout-backend/store"
	"eventscout-backend/verify"
)

var (
	ErrInvalidInput     = errors.New("attendance: invalid input")
	ErrDuplicateCheckIn = errors.New("attendance: participant already checked in")
	ErrNotFound         = errors.New("attendance: not found")
)

// Store is the persistence the ledger needs. *store.Store satisfies it.
type Store interface {
	InsertCheckIn(ctx context.Context, rec *models.AttendanceRecord) error
	IncrementCounters(ctx context.Context, eventID int64, venueID string) error
	FindCheckIn(ctx context.Context, eventID int64, participantID string) (*models.AttendanceRecord, error)
	UpdateMetadata(ctx context.Context, eventID int64, participantID string, md models.CheckInMetadata) (*models.AttendanceRecord, error)
	EventCheckinCounts(ctx context.Context, eventID int64) ([]store.MethodCount, error)
	VenueMonthlyCounts(ctx context.Context, venueID string, from, to *time.Time) ([]models.MonthlyCount, error)
	RepeatAttendees(ctx context.Context, minEvents int) ([]models.RepeatAttendee, error)
	CheckinTimeGrid(ctx context.Context) ([]store.HourWeekdayCount, error)
}

// CodeVerifier reports whether code was signed for eventID by participantID.
type CodeVerifier func(eventID int64, participantID, code string) (bool, error)

type Option func(*Ledger)

// WithClock replaces time.Now as the source of check-in timestamps.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		l.now = now
	}
}

// WithVerifier replaces verify.CheckInCode.
func WithVerifier(v CodeVerifier) Option {
	return func(l *Ledger) {
		l.verify = v
	}
}

type Ledger struct {
	store    Store
	now      func() time.Time
	verify   CodeVerifier
	validate *validator.Validate
}

func NewLedger(s Store, opts ...Option) *Ledger {
	l := &Ledger{
		store:    s,
		now:      time.Now,
		verify:   verify.CheckInCode,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

type checkInFields struct {
	EventID       int64  `validate:"gt=0"`
	ParticipantID string `validate:"required,max=128"`
	VenueID       string `validate:"required,max=128"`
	Device        string `validate:"max=256"`
}

// CheckIn records the participant's presence at the event. A second call for
// the same (event, participant) pair returns ErrDuplicateCheckIn and leaves
// the first record untouched.
func (l *Ledger) CheckIn(ctx context.Context, req models.CheckInRequest) (*models.AttendanceRecord, error) {
	method, ok := models.ParseCheckInMethod(strings.TrimSpace(req.Method))
	if !ok {
		metrics.CheckIns.WithLabelValues("unknown", "invalid").Inc()
		return nil, fmt.Errorf("%w: unknown method %q", ErrInvalidInput, req.Method)
	}

	fields := checkInFields{
		EventID:       req.EventID,
		ParticipantID: strings.TrimSpace(req.ParticipantID),
		VenueID:       strings.TrimSpace(req.VenueID),
		Device:        strings.TrimSpace(req.Device),
	}
	if err := l.validate.Struct(fields); err != nil {
		metrics.CheckIns.WithLabelValues(string(method), "invalid").Inc()
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if req.GeoTag != nil && !req.GeoTag.Valid() {
		metrics.CheckIns.WithLabelValues(string(method), "invalid").Inc()
		return nil, fmt.Errorf("%w: geo tag (%g, %g) is out of range", ErrInvalidInput, req.GeoTag.Longitude, req.GeoTag.Latitude)
	}

	verified, err := l.verifyCode(method, fields, strings.TrimSpace(req.Code))
	if err != nil {
		metrics.CheckIns.WithLabelValues(string(method), "invalid").Inc()
		return nil, err
	}

	rec := &models.AttendanceRecord{
		ID:            uuid.New(),
		EventID:       fields.EventID,
		ParticipantID: fields.ParticipantID,
		VenueID:       fields.VenueID,
		CheckedInAt:   l.now().UTC(),
		Method:        method,
		GeoTag:        req.GeoTag,
		Metadata:      models.CheckInMetadata{Device: fields.Device, Verified: verified},
	}

	log := logging.Ctx(ctx).With().
		Int64("event_id", rec.EventID).
		Str("participant_id", rec.ParticipantID).
		Str("method", string(method)).
		Logger()

	if err := l.store.InsertCheckIn(ctx, rec); err != nil {
		switch {
		case errors.Is(err, store.ErrDuplicate):
			metrics.CheckIns.WithLabelValues(string(method), "duplicate").Inc()
			log.Info().Msg("duplicate check-in rejected")
			return nil, fmt.Errorf("%w: event %d participant %s", ErrDuplicateCheckIn, rec.EventID, rec.ParticipantID)
		case errors.Is(err, store.ErrMissingReference):
			metrics.CheckIns.WithLabelValues(string(method), "invalid").Inc()
			return nil, fmt.Errorf("%w: event %d", ErrNotFound, rec.EventID)
		default:
			metrics.CheckIns.WithLabelValues(string(method), "error").Inc()
			log.Error().Err(err).Msg("check-in insert failed")
			return nil, fmt.Errorf("check in: %w", err)
		}
	}
	metrics.CheckIns.WithLabelValues(string(method), "recorded").Inc()

	// The record is committed; counters catch up through the reconciler if this fails.
	if err := l.store.IncrementCounters(ctx, rec.EventID, rec.VenueID); err != nil {
		log.Warn().Err(err).Str("venue_id", rec.VenueID).Msg("attendance counters not updated")
	}

	log.Info().Str("record_id", rec.ID.String()).Bool("verified", verified).Msg("participant checked in")
	return rec, nil
}

func (l *Ledger) verifyCode(method models.CheckInMethod, f checkInFields, code string) (bool, error) {
	if code == "" {
		return false, nil
	}
	if method != models.MethodCodeScan {
		return false, fmt.Errorf("%w: a code is only accepted with the %s method", ErrInvalidInput, models.MethodCodeScan)
	}
	ok, err := l.verify(f.EventID, f.ParticipantID, code)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if !ok {
		return false, fmt.Errorf("%w: code was not signed by participant %s for event %d", ErrInvalidInput, f.ParticipantID, f.EventID)
	}
	return true, nil
}

// FindCheckIn returns the record for the pair. Callers whose CheckIn timed
// out use it to learn whether the write landed.
func (l *Ledger) FindCheckIn(ctx context.Context, eventID int64, participantID string) (*models.AttendanceRecord, error) {
	participantID = strings.TrimSpace(participantID)
	if eventID <= 0 || participantID == "" {
		return nil, fmt.Errorf("%w: event id and participant id are required", ErrInvalidInput)
	}
	rec, err := l.store.FindCheckIn(ctx, eventID, participantID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: no check-in for participant %s at event %d", ErrNotFound, participantID, eventID)
	}
	if err != nil {
		return nil, fmt.Errorf("find check-in: %w", err)
	}
	return rec, nil
}

// CorrectMetadata applies the non-nil fields of patch to the record's
// metadata. Verification can be withdrawn here but only granted by a signed
// code at check-in.
func (l *Ledger) CorrectMetadata(ctx context.Context, eventID int64, participantID string, patch models.CorrectMetadataRequest) (*models.AttendanceRecord, error) {
	if patch.Device == nil && patch.Verified == nil && patch.Notes == nil {
		return nil, fmt.Errorf("%w: nothing to correct", ErrInvalidInput)
	}
	if patch.Verified != nil && *patch.Verified {
		return nil, fmt.Errorf("%w: verified can only be cleared", ErrInvalidInput)
	}
	if patch.Notes != nil && len(*patch.Notes) > 1024 {
		return nil, fmt.Errorf("%w: notes exceed 1024 bytes", ErrInvalidInput)
	}

	rec, err := l.FindCheckIn(ctx, eventID, participantID)
	if err != nil {
		return nil, err
	}

	md := rec.Metadata
	if patch.Device != nil {
		md.Device = strings.TrimSpace(*patch.Device)
	}
	if patch.Verified != nil {
		md.Verified = *patch.Verified
	}
	if patch.Notes != nil {
		md.Notes = *patch.Notes
	}

	updated, err := l.store.UpdateMetadata(ctx, rec.EventID, rec.ParticipantID, md)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: no check-in for participant %s at event %d", ErrNotFound, rec.ParticipantID, rec.EventID)
	}
	if err != nil {
		return nil, fmt.Errorf("correct metadata: %w", err)
	}
	logging.Ctx(ctx).Info().
		Int64("event_id", rec.EventID).
		Str("participant_id", rec.ParticipantID).
		Msg("check-in metadata corrected")
	return updated, nil
}
