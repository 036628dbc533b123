// Package cursor encodes the opaque continuation tokens handed out with
// search pages.
//
// A token carries the ordering key of the last item of a page: the event id
// (a monotonically assigned BIGSERIAL), the raw distance and, for weekend
// searches, the start time. It also carries a scope fingerprint of the filter
// set it was produced under so that a token replayed against a different
// query is rejected instead of silently skipping or repeating rows.
package cursor

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

var (
	// ErrInvalidCursor means the token could not be decoded.
	ErrInvalidCursor = errors.New("cursor: invalid token")
	// ErrStaleCursor means the token decoded but belongs to another filter set.
	ErrStaleCursor = fmt.Errorf("%w: produced under a different query", ErrInvalidCursor)
)

const version = 1

// Key is the position of the last item returned in a page.
type Key struct {
	ID        int64
	Distance  float64
	StartTime *time.Time
	Scope     string
}

type token struct {
	V     int        `json:"v"`
	ID    int64      `json:"id"`
	D     float64    `json:"d"`
	S     *time.Time `json:"s,omitempty"`
	Scope string     `json:"q"`
}

// Encode returns the opaque token for k.
func Encode(k Key) (string, error) {
	if k.ID <= 0 {
		return "", fmt.Errorf("cursor: id must be positive, got %d", k.ID)
	}
	if math.IsNaN(k.Distance) || math.IsInf(k.Distance, 0) || k.Distance < 0 {
		return "", fmt.Errorf("cursor: distance must be finite and non-negative, got %g", k.Distance)
	}
	t := token{V: version, ID: k.ID, D: k.Distance, Scope: k.Scope}
	if k.StartTime != nil {
		s := k.StartTime.UTC()
		t.S = &s
	}
	data, err := json.Marshal(t)
	if err != nil {
		return "", fmt.Errorf("cursor: marshal: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

// Decode parses a token produced by Encode. scope must be the fingerprint of
// the current query; a mismatch yields ErrStaleCursor. Every failure wraps
// ErrInvalidCursor.
func Decode(encoded, scope string) (Key, error) {
	if encoded == "" {
		return Key{}, fmt.Errorf("%w: empty", ErrInvalidCursor)
	}
	data, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return Key{}, fmt.Errorf("%w: bad encoding", ErrInvalidCursor)
	}
	var t token
	if err := json.Unmarshal(data, &t); err != nil {
		return Key{}, fmt.Errorf("%w: bad payload", ErrInvalidCursor)
	}
	if t.V != version {
		return Key{}, fmt.Errorf("%w: unsupported version %d", ErrInvalidCursor, t.V)
	}
	if t.ID <= 0 || math.IsNaN(t.D) || math.IsInf(t.D, 0) || t.D < 0 {
		return Key{}, fmt.Errorf("%w: bad ordering key", ErrInvalidCursor)
	}
	if t.Scope != scope {
		return Key{}, ErrStaleCursor
	}
	return Key{ID: t.ID, Distance: t.D, StartTime: t.S, Scope: t.Scope}, nil
}

// Scope fingerprints the parts of a query that define its result order.
func Scope(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "\x1f")))
	return hex.EncodeToString(sum[:8])
}
