package store

import (
	"context"
	"strconv"
	"strings"
	"time"

	"eventscout-backend/models"
)

// SeekKey positions a keyset page after the row with this ordering key.
type SeekKey struct {
	Distance  float64
	StartTime *time.Time
	ID        int64
}

// NearbyQuery is one composite proximity query. When OrderByStart is set the
// order is (distance, start_time, id), otherwise (distance, id).
type NearbyQuery struct {
	Point        models.GeoPoint
	RadiusMeters float64
	Category     *string
	From, To     *time.Time // half-open [From, To) on start_time
	OrderByStart bool
	After        *SeekKey
	Limit        int
}

const eventColumns = `e.id, e.title, e.category,
		ST_X(e.location::geometry) AS lon, ST_Y(e.location::geometry) AS lat,
		e.venue_id, e.start_time, e.end_time, e.organizer, e.capacity, e.tags,
		e.description, e.image_url, e.created_at`

// buildNearbyQuery assembles the SQL and positional args for q, in the
// `$N` + args slice style used throughout the handlers.
func buildNearbyQuery(q NearbyQuery) (string, []any) {
	args := []any{q.Point.Longitude, q.Point.Latitude, q.RadiusMeters}
	next := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	var b strings.Builder
	b.WriteString(`
	WITH candidates AS (
		SELECT ` + eventColumns + `,
			ST_Distance(e.location, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography) AS distance
		FROM events e
		WHERE ST_DWithin(e.location, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography, $3)`)

	if q.Category != nil {
		b.WriteString("\n\t\t\tAND e.category = " + next(*q.Category))
	}
	if q.From != nil {
		b.WriteString("\n\t\t\tAND e.start_time >= " + next(*q.From))
	}
	if q.To != nil {
		b.WriteString("\n\t\t\tAND e.start_time < " + next(*q.To))
	}
	b.WriteString(`
	)
	SELECT id, title, category, lon, lat, venue_id, start_time, end_time,
		organizer, capacity, tags, description, image_url, created_at, distance
	FROM candidates`)

	if q.After != nil {
		if q.OrderByStart && q.After.StartTime != nil {
			b.WriteString("\n\tWHERE (distance, start_time, id) > (" +
				next(q.After.Distance) + "::float8, " +
				next(*q.After.StartTime) + "::timestamptz, " +
				next(q.After.ID) + "::bigint)")
		} else {
			b.WriteString("\n\tWHERE (distance, id) > (" +
				next(q.After.Distance) + "::float8, " +
				next(q.After.ID) + "::bigint)")
		}
	}

	if q.OrderByStart {
		b.WriteString("\n\tORDER BY distance, start_time, id")
	} else {
		b.WriteString("\n\tORDER BY distance, id")
	}
	b.WriteString("\n\tLIMIT " + next(q.Limit))

	return b.String(), args
}

// NearbyEvents runs q and returns events with their raw distance in meters.
func (s *Store) NearbyEvents(ctx context.Context, q NearbyQuery) ([]models.SearchResult, error) {
	query, args := buildNearbyQuery(q)

	var results []models.SearchResult
	err := s.run(ctx, "nearby_events", func(ctx context.Context) error {
		rows, err := s.pool.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		results = results[:0]
		for rows.Next() {
			var r models.SearchResult
			if err := rows.Scan(
				&r.ID,
				&r.Title,
				&r.Category,
				&r.Location.Longitude,
				&r.Location.Latitude,
				&r.VenueID,
				&r.StartTime,
				&r.EndTime,
				&r.Organizer,
				&r.Capacity,
				&r.Tags,
				&r.Description,
				&r.ImageURL,
				&r.CreatedAt,
				&r.DistanceMeters,
			); err != nil {
				return err
			}
			results = append(results, r)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// CreateEvent inserts an event and returns its assigned id. Events normally
// arrive from the event-management service; this is used for imports and tests.
func (s *Store) CreateEvent(ctx context.Context, e *models.Event) (int64, error) {
	tags := e.Tags
	if tags == nil {
		tags = []string{}
	}

	var id int64
	err := s.run(ctx, "create_event", func(ctx context.Context) error {
		return s.pool.QueryRow(ctx, `
			INSERT INTO events (title, category, location, venue_id, start_time, end_time,
				organizer, capacity, tags, description, image_url)
			VALUES ($1, $2, ST_SetSRID(ST_MakePoint($3, $4), 4326)::geography, $5, $6, $7,
				$8, $9, $10, $11, $12)
			RETURNING id, created_at`,
			e.Title,
			e.Category,
			e.Location.Longitude,
			e.Location.Latitude,
			e.VenueID,
			e.StartTime,
			e.EndTime,
			e.Organizer,
			e.Capacity,
			tags,
			e.Description,
			e.ImageURL,
		).Scan(&id, &e.CreatedAt)
	})
	if err != nil {
		return 0, err
	}
	e.ID = id
	return id, nil
}
