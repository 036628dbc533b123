// Package search implements the proximity search over events: nearest
// within a radius, optionally narrowed to a category and a weekend window,
// paged with opaque keyset cursors.
//
// Result order is ascending distance; with a weekend window the order is
// (distance, start_time, id), otherwise (distance, id). The event id makes the
// order total, which is what lets a cursor resume strictly after the last
// row of the previous page. Pages are read independently, so an event
// inserted between two page requests may appear on a later page or not at
// all; no snapshot is held across calls.
package search

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"eventscout-backend/cursor"
	"eventscout-backend/logging"
	"eventscout-backend/metrics"
	"eventscout-backend/models"
	"eventscout-backend/store"
	"eventscout-backend/weekend"
)

// ErrInvalidInput is returned before any store access for bad coordinates,
// radii or page sizes. Cursor problems wrap cursor.ErrInvalidCursor instead.
var ErrInvalidInput = errors.New("search: invalid input")

// EventFinder runs one composite proximity query.
type EventFinder interface {
	NearbyEvents(ctx context.Context, q store.NearbyQuery) ([]models.SearchResult, error)
}

// Options bound what a caller may ask for.
type Options struct {
	DefaultPageSize int
	MaxPageSize     int
	MaxRadiusMeters float64
}

// Filters are the optional narrowing predicates. A nil field is not applied.
type Filters struct {
	Category *string
	Window   *weekend.Window
}

// Query is one page request.
type Query struct {
	Point        models.GeoPoint
	RadiusMeters float64 `validate:"gt=0"`
	Filters      Filters
	PageSize     int `validate:"gte=0"`
	Cursor       string
}

// Page is one page of results. NextCursor is set iff HasMore.
type Page struct {
	Items      []models.SearchResult
	NextCursor *string
	HasMore    bool
}

type Engine struct {
	finder   EventFinder
	opts     Options
	validate *validator.Validate
}

func NewEngine(finder EventFinder, opts Options) *Engine {
	if opts.DefaultPageSize <= 0 {
		opts.DefaultPageSize = 20
	}
	if opts.MaxPageSize < opts.DefaultPageSize {
		opts.MaxPageSize = opts.DefaultPageSize
	}
	return &Engine{
		finder:   finder,
		opts:     opts,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Search returns one page of events ordered by distance from q.Point.
//
// The store is asked for one row more than the page size; HasMore is true
// only when that extra row exists, so the last page never advertises a
// continuation.
func (e *Engine) Search(ctx context.Context, q Query) (Page, error) {
	q, err := e.normalize(q)
	if err != nil {
		metrics.SearchRequests.WithLabelValues(filterLabel(q.Filters), "invalid").Inc()
		return Page{}, err
	}

	orderByStart := q.Filters.Window != nil
	scope := scopeOf(q)

	sq := store.NearbyQuery{
		Point:        q.Point,
		RadiusMeters: q.RadiusMeters,
		Category:     q.Filters.Category,
		OrderByStart: orderByStart,
		Limit:        q.PageSize + 1,
	}
	if w := q.Filters.Window; w != nil {
		sq.From, sq.To = &w.Start, &w.End
	}

	if q.Cursor != "" {
		key, err := cursor.Decode(q.Cursor, scope)
		if err == nil && orderByStart && key.StartTime == nil {
			err = fmt.Errorf("%w: missing start time", cursor.ErrInvalidCursor)
		}
		if err != nil {
			metrics.SearchRequests.WithLabelValues(filterLabel(q.Filters), "bad_cursor").Inc()
			return Page{}, err
		}
		sq.After = &store.SeekKey{Distance: key.Distance, StartTime: key.StartTime, ID: key.ID}
	}

	items, err := e.finder.NearbyEvents(ctx, sq)
	if err != nil {
		metrics.SearchRequests.WithLabelValues(filterLabel(q.Filters), "error").Inc()
		logging.Ctx(ctx).Warn().Err(err).Str("filters", filterLabel(q.Filters)).Msg("nearby search failed")
		return Page{}, fmt.Errorf("search: %w", err)
	}

	page := Page{Items: items}
	if len(page.Items) > q.PageSize {
		page.HasMore = true
		page.Items = page.Items[:q.PageSize]
	}
	if page.Items == nil {
		page.Items = []models.SearchResult{}
	}

	if page.HasMore {
		last := page.Items[len(page.Items)-1]
		key := cursor.Key{ID: last.ID, Distance: last.DistanceMeters, Scope: scope}
		if orderByStart {
			st := last.StartTime
			key.StartTime = &st
		}
		tok, err := cursor.Encode(key)
		if err != nil {
			return Page{}, fmt.Errorf("search: %w", err)
		}
		page.NextCursor = &tok
	}

	// Cursors keep the raw distance; responses get the rounded one.
	for i := range page.Items {
		page.Items[i].DistanceMeters = math.Min(roundMeters(page.Items[i].DistanceMeters), q.RadiusMeters)
	}

	metrics.SearchRequests.WithLabelValues(filterLabel(q.Filters), "ok").Inc()
	metrics.SearchResults.Observe(float64(len(page.Items)))
	return page, nil
}

// FindNearby is the request-facing form of Search: radius in kilometres and
// a weekend flag resolved against now.
func (e *Engine) FindNearby(ctx context.Context, req NearbyRequest, now time.Time) (Page, *weekend.Window, error) {
	q := Query{
		Point:        models.GeoPoint{Longitude: req.Longitude, Latitude: req.Latitude},
		RadiusMeters: req.RadiusKm * 1000,
		PageSize:     req.PageSize,
		Cursor:       req.Cursor,
	}
	if c := strings.TrimSpace(req.Category); c != "" {
		q.Filters.Category = &c
	}
	var w *weekend.Window
	if req.WeekendOnly {
		next := weekend.Next(now)
		w = &next
		q.Filters.Window = w
	}
	page, err := e.Search(ctx, q)
	return page, w, err
}

// NearbyRequest mirrors findNearby(lon, lat, radiusKm, category?, weekendOnly?, pageSize, cursor?).
type NearbyRequest struct {
	Longitude   float64
	Latitude    float64
	RadiusKm    float64
	Category    string
	WeekendOnly bool
	PageSize    int
	Cursor      string
}

func (e *Engine) normalize(q Query) (Query, error) {
	if !q.Point.Valid() {
		return q, fmt.Errorf("%w: coordinate (%g, %g) is out of range", ErrInvalidInput, q.Point.Longitude, q.Point.Latitude)
	}
	if math.IsNaN(q.RadiusMeters) || math.IsInf(q.RadiusMeters, 0) {
		return q, fmt.Errorf("%w: radius must be a finite number", ErrInvalidInput)
	}
	if err := e.validate.Struct(q); err != nil {
		return q, fmt.Errorf("%w: %s", ErrInvalidInput, describe(err))
	}
	if e.opts.MaxRadiusMeters > 0 && q.RadiusMeters > e.opts.MaxRadiusMeters {
		return q, fmt.Errorf("%w: radius %gm exceeds the maximum of %gm", ErrInvalidInput, q.RadiusMeters, e.opts.MaxRadiusMeters)
	}
	if c := q.Filters.Category; c != nil && strings.TrimSpace(*c) == "" {
		q.Filters.Category = nil
	}
	if w := q.Filters.Window; w != nil && !w.Start.Before(w.End) {
		return q, fmt.Errorf("%w: window start must precede its end", ErrInvalidInput)
	}

	switch {
	case q.PageSize == 0:
		q.PageSize = e.opts.DefaultPageSize
	case q.PageSize > e.opts.MaxPageSize:
		q.PageSize = e.opts.MaxPageSize
	}
	return q, nil
}

func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "min", "gte":
			msgs = append(msgs, fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param()))
		case "max", "lte":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param()))
		case "gt":
			msgs = append(msgs, fmt.Sprintf("%s must be greater than %s", fe.Field(), fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}

// scopeOf fingerprints everything that determines the result order.
func scopeOf(q Query) string {
	parts := []string{
		strconv.FormatFloat(q.Point.Longitude, 'g', -1, 64),
		strconv.FormatFloat(q.Point.Latitude, 'g', -1, 64),
		strconv.FormatFloat(q.RadiusMeters, 'g', -1, 64),
		"",
		"",
		"",
	}
	if c := q.Filters.Category; c != nil {
		parts[3] = "c:" + *c
	}
	if w := q.Filters.Window; w != nil {
		parts[4] = w.Start.UTC().Format(time.RFC3339Nano)
		parts[5] = w.End.UTC().Format(time.RFC3339Nano)
	}
	return cursor.Scope(parts...)
}

func filterLabel(f Filters) string {
	label := "geo"
	if f.Category != nil {
		label += "+category"
	}
	if f.Window != nil {
		label += "+weekend"
	}
	return label
}

func roundMeters(d float64) float64 {
	return math.Round(d*100) / 100
}
