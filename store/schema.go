package store

import (
	"context"
	"fmt"
)

// schema is idempotent and applied at start-up when database.migrate_on_start is set.
const schema = `
CREATE EXTENSION IF NOT EXISTS postgis;

CREATE TABLE IF NOT EXISTS events (
	id          BIGSERIAL PRIMARY KEY,
	title       TEXT NOT NULL,
	category    TEXT NOT NULL DEFAULT '',
	location    GEOGRAPHY(Point, 4326) NOT NULL,
	venue_id    TEXT NOT NULL DEFAULT '',
	start_time  TIMESTAMPTZ NOT NULL,
	end_time    TIMESTAMPTZ,
	organizer   TEXT NOT NULL DEFAULT '',
	capacity    INTEGER CHECK (capacity IS NULL OR capacity > 0),
	tags        TEXT[] NOT NULL DEFAULT '{}',
	description TEXT,
	image_url   TEXT,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	CONSTRAINT events_end_after_start CHECK (end_time IS NULL OR end_time >= start_time)
);
CREATE INDEX IF NOT EXISTS events_location_gist ON events USING GIST (location);
CREATE INDEX IF NOT EXISTS events_category_start_idx ON events (category, start_time);
CREATE INDEX IF NOT EXISTS events_start_time_idx ON events (start_time);

CREATE TABLE IF NOT EXISTS attendance (
	id             UUID PRIMARY KEY,
	event_id       BIGINT NOT NULL REFERENCES events (id),
	participant_id TEXT NOT NULL,
	venue_id       TEXT NOT NULL,
	checked_in_at  TIMESTAMPTZ NOT NULL,
	method         TEXT NOT NULL CHECK (method IN ('code_scan', 'manual', 'application')),
	geo_tag        GEOGRAPHY(Point, 4326),
	metadata       JSONB NOT NULL DEFAULT '{}',
	CONSTRAINT attendance_event_participant_key UNIQUE (event_id, participant_id)
);
CREATE INDEX IF NOT EXISTS attendance_venue_time_idx ON attendance (venue_id, checked_in_at);
CREATE INDEX IF NOT EXISTS attendance_participant_idx ON attendance (participant_id);

CREATE TABLE IF NOT EXISTS event_attendance_counters (
	event_id   BIGINT PRIMARY KEY,
	checkins   BIGINT NOT NULL DEFAULT 0,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS venue_attendance_counters (
	venue_id   TEXT PRIMARY KEY,
	checkins   BIGINT NOT NULL DEFAULT 0,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// Migrate creates the extension, tables and indexes if they are missing.
func (s *Store) Migrate(ctx context.Context) error {
	// DDL can be slow on a cold database; don't apply the per-query timeout.
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
