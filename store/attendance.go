package store

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"eventscout-backend/models"
)

// InsertCheckIn stores rec if no record exists for its (event, participant)
// pair. The uniqueness check and the insert are one statement, so concurrent
// or retried calls for the same pair leave exactly one row; the losers get
// ErrDuplicate.
func (s *Store) InsertCheckIn(ctx context.Context, rec *models.AttendanceRecord) error {
	var lon, lat *float64
	if rec.GeoTag != nil {
		lon, lat = &rec.GeoTag.Longitude, &rec.GeoTag.Latitude
	}

	return s.run(ctx, "insert_checkin", func(ctx context.Context) error {
		var id string
		err := s.pool.QueryRow(ctx, `
			INSERT INTO attendance (id, event_id, participant_id, venue_id, checked_in_at,
				method, geo_tag, metadata)
			VALUES ($1, $2, $3, $4, $5, $6,
				ST_SetSRID(ST_MakePoint($7::float8, $8::float8), 4326)::geography, $9)
			ON CONFLICT (event_id, participant_id) DO NOTHING
			RETURNING id::text`,
			rec.ID,
			rec.EventID,
			rec.ParticipantID,
			rec.VenueID,
			rec.CheckedInAt,
			string(rec.Method),
			lon,
			lat,
			rec.Metadata,
		).Scan(&id)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrDuplicate
		}
		return err
	})
}

// IncrementCounters bumps the denormalised per-event and per-venue totals.
func (s *Store) IncrementCounters(ctx context.Context, eventID int64, venueID string) error {
	return s.run(ctx, "increment_counters", func(ctx context.Context) error {
		batch := &pgx.Batch{}
		batch.Queue(`
			INSERT INTO event_attendance_counters (event_id, checkins, updated_at)
			VALUES ($1, 1, now())
			ON CONFLICT (event_id) DO UPDATE
			SET checkins = event_attendance_counters.checkins + 1, updated_at = now()`, eventID)
		batch.Queue(`
			INSERT INTO venue_attendance_counters (venue_id, checkins, updated_at)
			VALUES ($1, 1, now())
			ON CONFLICT (venue_id) DO UPDATE
			SET checkins = venue_attendance_counters.checkins + 1, updated_at = now()`, venueID)
		return s.pool.SendBatch(ctx, batch).Close()
	})
}

// ReconcileCounters rewrites both counter tables from the ledger and returns
// the number of counter rows written.
func (s *Store) ReconcileCounters(ctx context.Context) (int64, error) {
	var total int64
	err := s.run(ctx, "reconcile_counters", func(ctx context.Context) error {
		tag, err := s.pool.Exec(ctx, `
			INSERT INTO event_attendance_counters (event_id, checkins, updated_at)
			SELECT event_id, COUNT(*), now() FROM attendance GROUP BY event_id
			ON CONFLICT (event_id) DO UPDATE
			SET checkins = EXCLUDED.checkins, updated_at = now()
			WHERE event_attendance_counters.checkins IS DISTINCT FROM EXCLUDED.checkins`)
		if err != nil {
			return err
		}
		total = tag.RowsAffected()

		tag, err = s.pool.Exec(ctx, `
			INSERT INTO venue_attendance_counters (venue_id, checkins, updated_at)
			SELECT venue_id, COUNT(*), now() FROM attendance GROUP BY venue_id
			ON CONFLICT (venue_id) DO UPDATE
			SET checkins = EXCLUDED.checkins, updated_at = now()
			WHERE venue_attendance_counters.checkins IS DISTINCT FROM EXCLUDED.checkins`)
		if err != nil {
			return err
		}
		total += tag.RowsAffected()
		return nil
	})
	return total, err
}

const recordColumns = `id, event_id, participant_id, venue_id, checked_in_at, method,
	ST_X(geo_tag::geometry), ST_Y(geo_tag::geometry), metadata`

func scanRecord(row pgx.Row) (*models.AttendanceRecord, error) {
	var (
		rec      models.AttendanceRecord
		method   string
		lon, lat *float64
	)
	if err := row.Scan(
		&rec.ID,
		&rec.EventID,
		&rec.ParticipantID,
		&rec.VenueID,
		&rec.CheckedInAt,
		&method,
		&lon,
		&lat,
		&rec.Metadata,
	); err != nil {
		return nil, err
	}
	rec.Method = models.CheckInMethod(method)
	if lon != nil && lat != nil {
		rec.GeoTag = &models.GeoPoint{Longitude: *lon, Latitude: *lat}
	}
	return &rec, nil
}

// FindCheckIn returns the record for the pair or ErrNotFound.
func (s *Store) FindCheckIn(ctx context.Context, eventID int64, participantID string) (*models.AttendanceRecord, error) {
	var rec *models.AttendanceRecord
	err := s.run(ctx, "find_checkin", func(ctx context.Context) error {
		var err error
		rec, err = scanRecord(s.pool.QueryRow(ctx,
			`SELECT `+recordColumns+` FROM attendance WHERE event_id = $1 AND participant_id = $2`,
			eventID, participantID))
		return err
	})
	return rec, err
}

// UpdateMetadata replaces the metadata of an existing record.
func (s *Store) UpdateMetadata(ctx context.Context, eventID int64, participantID string, md models.CheckInMetadata) (*models.AttendanceRecord, error) {
	var rec *models.AttendanceRecord
	err := s.run(ctx, "update_metadata", func(ctx context.Context) error {
		var err error
		rec, err = scanRecord(s.pool.QueryRow(ctx,
			`UPDATE attendance SET metadata = $3
			WHERE event_id = $1 AND participant_id = $2
			RETURNING `+recordColumns,
			eventID, participantID, md))
		return err
	})
	return rec, err
}

// MethodCount is one row of an event's per-method breakdown.
type MethodCount struct {
	Method       string
	Checkins     int64
	Participants int64
}

// EventCheckinCounts returns the total row (Method "") followed by one row per method.
func (s *Store) EventCheckinCounts(ctx context.Context, eventID int64) ([]MethodCount, error) {
	var out []MethodCount
	err := s.run(ctx, "event_checkin_counts", func(ctx context.Context) error {
		rows, err := s.pool.Query(ctx, `
			SELECT COALESCE(method, ''), COUNT(*), COUNT(DISTINCT participant_id)
			FROM attendance
			WHERE event_id = $1
			GROUP BY GROUPING SETS ((method), ())
			ORDER BY GROUPING(method) DESC, method`, eventID)
		if err != nil {
			return err
		}
		defer rows.Close()

		out = out[:0]
		for rows.Next() {
			var mc MethodCount
			if err := rows.Scan(&mc.Method, &mc.Checkins, &mc.Participants); err != nil {
				return err
			}
			out = append(out, mc)
		}
		return rows.Err()
	})
	return out, err
}

// VenueMonthlyCounts groups a venue's check-ins by UTC calendar month.
func (s *Store) VenueMonthlyCounts(ctx context.Context, venueID string, from, to *time.Time) ([]models.MonthlyCount, error) {
	args := []any{venueID}
	var where strings.Builder
	where.WriteString("venue_id = $1")
	if from != nil {
		args = append(args, *from)
		where.WriteString(" AND checked_in_at >= $" + strconv.Itoa(len(args)))
	}
	if to != nil {
		args = append(args, *to)
		where.WriteString(" AND checked_in_at < $" + strconv.Itoa(len(args)))
	}

	var out []models.MonthlyCount
	err := s.run(ctx, "venue_monthly_counts", func(ctx context.Context) error {
		rows, err := s.pool.Query(ctx, `
			SELECT to_char(date_trunc('month', checked_in_at AT TIME ZONE 'UTC'), 'YYYY-MM') AS month,
				COUNT(*)
			FROM attendance
			WHERE `+where.String()+`
			GROUP BY month
			ORDER BY month`, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		out = out[:0]
		for rows.Next() {
			var mc models.MonthlyCount
			if err := rows.Scan(&mc.Month, &mc.Checkins); err != nil {
				return err
			}
			out = append(out, mc)
		}
		return rows.Err()
	})
	return out, err
}

// RepeatAttendees lists participants seen at minEvents or more distinct events,
// most frequent first.
func (s *Store) RepeatAttendees(ctx context.Context, minEvents int) ([]models.RepeatAttendee, error) {
	var out []models.RepeatAttendee
	err := s.run(ctx, "repeat_attendees", func(ctx context.Context) error {
		rows, err := s.pool.Query(ctx, `
			SELECT participant_id, COUNT(DISTINCT event_id) AS events
			FROM attendance
			GROUP BY participant_id
			HAVING COUNT(DISTINCT event_id) >= $1
			ORDER BY events DESC, participant_id`, minEvents)
		if err != nil {
			return err
		}
		defer rows.Close()

		out = out[:0]
		for rows.Next() {
			var ra models.RepeatAttendee
			if err := rows.Scan(&ra.ParticipantID, &ra.EventCount); err != nil {
				return err
			}
			out = append(out, ra)
		}
		return rows.Err()
	})
	return out, err
}

// HourWeekdayCount is one cell of the check-in time grid. Weekday follows
// time.Weekday (0 = Sunday).
type HourWeekdayCount struct {
	Hour     int
	Weekday  int
	Checkins int64
}

// CheckinTimeGrid counts check-ins per (UTC hour, UTC weekday).
func (s *Store) CheckinTimeGrid(ctx context.Context) ([]HourWeekdayCount, error) {
	var out []HourWeekdayCount
	err := s.run(ctx, "checkin_time_grid", func(ctx context.Context) error {
		rows, err := s.pool.Query(ctx, `
			SELECT EXTRACT(HOUR FROM checked_in_at AT TIME ZONE 'UTC')::int AS hour,
				EXTRACT(DOW FROM checked_in_at AT TIME ZONE 'UTC')::int AS dow,
				COUNT(*)
			FROM attendance
			GROUP BY hour, dow`)
		if err != nil {
			return err
		}
		defer rows.Close()

		out = out[:0]
		for rows.Next() {
			var c HourWeekdayCount
			if err := rows.Scan(&c.Hour, &c.Weekday, &c.Checkins); err != nil {
				return err
			}
			out = append(out, c)
		}
		return rows.Err()
	})
	return out, err
}
