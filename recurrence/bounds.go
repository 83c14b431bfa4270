// Package recurrence computes the occurrence bounds of calendar
// components: the first and last timestamps at which a (possibly
// recurring) event is active.
package recurrence

import (
	"errors"
	"fmt"
	"time"

	"github.com/emersion/go-ical"
	"github.com/teambition/rrule-go"
)

// DefaultHorizon caps the expansion of unbounded recurrence rules. On a
// 32-bit system the maximum signed epoch timestamp corresponds to
// 2038-01-19, so the horizon must stay strictly before that boundary to
// remain representable once converted.
var DefaultHorizon = time.Date(2038, time.January, 1, 0, 0, 0, 0, time.UTC)

// ErrMissingStart is returned when a component lacks a DTSTART property.
var ErrMissingStart = errors.New("component has no DTSTART")

// Evaluator computes occurrence bounds for VEVENT components.
type Evaluator struct {
	// Horizon bounds otherwise-infinite expansion. Zero means DefaultHorizon.
	Horizon time.Time
}

// NewEvaluator returns an Evaluator with the default horizon.
func NewEvaluator() *Evaluator {
	return &Evaluator{Horizon: DefaultHorizon}
}

func (e *Evaluator) horizon() time.Time {
	if e.Horizon.IsZero() {
		return DefaultHorizon
	}
	return e.Horizon
}

// Bounds returns the first and last occurrence timestamps of comp.
//
// Without a recurrence rule the last occurrence is, in order of
// precedence: DTEND, DTSTART+DURATION, DTSTART+1d for date-valued
// (all-day) starts, or DTSTART itself for zero-length events. With a
// rule, occurrences are expanded up to the horizon; unbounded rules
// yield the horizon itself.
func (e *Evaluator) Bounds(comp *ical.Component) (first, last time.Time, err error) {
	startProp := comp.Props.Get(ical.PropDateTimeStart)
	if startProp == nil {
		return time.Time{}, time.Time{}, ErrMissingStart
	}
	first, err = startProp.DateTime(time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parse DTSTART: %w", err)
	}

	duration, err := componentDuration(comp, first, allDay(startProp))
	if err != nil {
		return time.Time{}, time.Time{}, err
	}

	rruleProp := comp.Props.Get(ical.PropRecurrenceRule)
	if rruleProp == nil || rruleProp.Value == "" {
		return first, first.Add(duration), nil
	}

	last, err = e.lastRecurrence(rruleProp.Value, first, duration)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return first, last, nil
}

// componentDuration resolves the length of a single occurrence.
func componentDuration(comp *ical.Component, start time.Time, allDay bool) (time.Duration, error) {
	if endProp := comp.Props.Get(ical.PropDateTimeEnd); endProp != nil {
		end, err := endProp.DateTime(time.UTC)
		if err != nil {
			return 0, fmt.Errorf("parse DTEND: %w", err)
		}
		return end.Sub(start), nil
	}
	if durProp := comp.Props.Get(ical.PropDuration); durProp != nil {
		d, err := durProp.Duration()
		if err != nil {
			return 0, fmt.Errorf("parse DURATION: %w", err)
		}
		return d, nil
	}
	if allDay {
		return 24 * time.Hour, nil
	}
	return 0, nil
}

// lastRecurrence expands the rule until exhaustion or the horizon.
func (e *Evaluator) lastRecurrence(rruleStr string, start time.Time, duration time.Duration) (time.Time, error) {
	r, err := rrule.StrToRRule(rruleStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse RRULE %q: %w", rruleStr, err)
	}
	r.DTStart(start.UTC())

	horizon := e.horizon()
	if r.OrigOptions.Until.IsZero() && r.OrigOptions.Count == 0 {
		// Infinite rule; stop *somewhere*.
		return horizon, nil
	}

	next := r.Iterator()
	last := start.Add(duration)
	for {
		occ, ok := next()
		if !ok {
			break
		}
		end := occ.Add(duration)
		if end.After(horizon) {
			break
		}
		last = end
	}
	if last.After(horizon) {
		last = horizon
	}
	return last, nil
}

// allDay reports whether a DTSTART property carries a date value
// (VALUE=DATE), i.e. the event has no time of day.
func allDay(prop *ical.Prop) bool {
	return prop.Params.Get(ical.ParamValue) == string(ical.ValueDate)
}
