package caldav

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

// defaultQueryWindow bounds open-ended time-range queries and object
// listings: now to one year ahead.
const defaultQueryWindow = 365 * 24 * time.Hour

// TextMatch describes a <text-match> constraint.
type TextMatch struct {
	Collation string
	MatchType string // "equals", "contains", ...
	Negate    bool
	Value     string
}

// PropFilter describes a <prop-filter> inside a comp-filter.
type PropFilter struct {
	Name         string
	IsNotDefined bool
	TextMatch    *TextMatch
}

// TimeRange describes a <time-range> in a comp-filter. Nil bounds are
// open ends.
type TimeRange struct {
	Start *time.Time
	End   *time.Time
}

// CompFilter describes one <comp-filter> node.
type CompFilter struct {
	Name         string
	IsNotDefined bool
	TimeRange    *TimeRange
	PropFilters  []PropFilter
	Children     []CompFilter
}

// Filter is a calendar-query filter description: the ordered component
// filters found below the VCALENDAR level.
type Filter struct {
	CompFilters []CompFilter
}

// Query narrows a filter description to a concrete interval query.
//
// Exactly one shape is optimized, because it is what clients send:
// a VEVENT comp-filter carrying a time range. A missing range start
// defaults to now, a missing end to one year ahead. Every other filter
// shape yields an empty result rather than a guessed one; there is no
// general property/text filter evaluator here.
func (b *Backend) Query(ctx context.Context, calendarID string, filter Filter) ([]string, error) {
	u, err := b.user(ctx, calendarID)
	if err != nil {
		return nil, err
	}
	user, ok := u.Get()
	if !ok {
		return nil, nil
	}

	if len(filter.CompFilters) == 0 {
		return nil, nil
	}
	cf := filter.CompFilters[0]
	if cf.IsNotDefined || cf.Name != "VEVENT" || cf.TimeRange == nil {
		return nil, nil
	}

	start := b.now()
	if cf.TimeRange.Start != nil {
		start = *cf.TimeRange.Start
	}
	end := b.now().Add(defaultQueryWindow)
	if cf.TimeRange.End != nil {
		end = *cf.TimeRange.End
	}

	events, err := b.store.EventsInInterval(ctx, user.ID, start, end)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}

	uris := make([]string, 0, len(events))
	for _, ev := range events {
		uris = append(uris, strconv.FormatInt(ev.ID, 10))
	}
	b.logger.Debug("calendar query", "calendar", calendarID, "matches", len(uris))
	return uris, nil
}
