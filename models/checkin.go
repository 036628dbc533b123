package models

import (
	"time"

	"github.com/google/uuid"
)

// CheckInMethod is how a participant's presence was recorded.
type CheckInMethod string

const (
	MethodCodeScan    CheckInMethod = "code_scan"
	MethodManual      CheckInMethod = "manual"
	MethodApplication CheckInMethod = "application"
)

// AllMethods lists every accepted check-in method in display order.
var AllMethods = []CheckInMethod{MethodCodeScan, MethodManual, MethodApplication}

// ParseCheckInMethod accepts the canonical names plus the hyphenated and
// camel-cased spellings older clients send.
func ParseCheckInMethod(s string) (CheckInMethod, bool) {
	switch s {
	case "code_scan", "code-scan", "qr", "qr_code":
		return MethodCodeScan, true
	case "manual":
		return MethodManual, true
	case "application", "app":
		return MethodApplication, true
	}
	return "", false
}

// CheckInMetadata is the free-form part of a record, the only part that may be corrected.
type CheckInMetadata struct {
	Device   string `json:"device,omitempty"`
	Verified bool   `json:"verified"`
	Notes    string `json:"notes,omitempty"`
}

// AttendanceRecord is one participant's confirmed presence at one event.
// (EventID, ParticipantID) is unique.
type AttendanceRecord struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	EventID       int64           `json:"event_id" db:"event_id"`
	ParticipantID string          `json:"participant_id" db:"participant_id"`
	VenueID       string          `json:"venue_id" db:"venue_id"`
	CheckedInAt   time.Time       `json:"checked_in_at" db:"checked_in_at"`
	Method        CheckInMethod   `json:"method" db:"method"`
	GeoTag        *GeoPoint       `json:"geo_tag,omitempty"`
	Metadata      CheckInMetadata `json:"metadata" db:"metadata"`
}

// CheckInRequest is the body of POST /checkins.
type CheckInRequest struct {
	EventID       int64     `json:"event_id" binding:"required"`
	ParticipantID string    `json:"participant_id"`
	VenueID       string    `json:"venue_id" binding:"required"`
	Method        string    `json:"method" binding:"required"`
	GeoTag        *GeoPoint `json:"geo_tag"`
	Device        string    `json:"device"`
	Code          string    `json:"code"`
}

// CorrectMetadataRequest is the body of PATCH .../metadata.
type CorrectMetadataRequest struct {
	Device   *string `json:"device"`
	Verified *bool   `json:"verified"`
	Notes    *string `json:"notes"`
}
