package caldav

import (
	"fmt"
	"strings"
	"time"

	"github.com/emersion/go-ical"
)

// objectSummary is the transient result of parsing an inbound payload
// before it is written to the event store. It exists only for the
// duration of a create or update call.
type objectSummary struct {
	ETag            string
	Size            int
	Component       string
	FirstOccurrence time.Time
	LastOccurrence  time.Time
	Summary         string
	Description     string
	UID             string
}

// denormalize parses calendar data into the fields the event store
// keeps. The first non-VTIMEZONE component decides the component type;
// payloads without a VEVENT, VTODO or VJOURNAL component are rejected.
func (b *Backend) denormalize(data string) (*objectSummary, error) {
	cal, err := ical.NewDecoder(strings.NewReader(data)).Decode()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedObject, err)
	}

	var comp *ical.Component
	for _, child := range cal.Children {
		if child.Name != ical.CompTimezone {
			comp = child
			break
		}
	}
	if comp == nil {
		return nil, fmt.Errorf("%w: must contain a VEVENT, VTODO or VJOURNAL component", ErrMalformedObject)
	}
	switch comp.Name {
	case ical.CompEvent, ical.CompToDo, ical.CompJournal:
	default:
		return nil, fmt.Errorf("%w: unsupported component %s", ErrMalformedObject, comp.Name)
	}

	sum := &objectSummary{
		ETag:      ETag(data),
		Size:      len(data),
		Component: comp.Name,
	}
	if prop := comp.Props.Get(ical.PropUID); prop != nil {
		sum.UID = prop.Value
	}

	if comp.Name == ical.CompEvent {
		first, last, err := b.eval.Bounds(comp)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedObject, err)
		}
		sum.FirstOccurrence = first
		sum.LastOccurrence = last

		if prop := comp.Props.Get(ical.PropSummary); prop != nil {
			sum.Summary = prop.Value
		}
		if prop := comp.Props.Get(ical.PropDescription); prop != nil {
			sum.Description = prop.Value
		}
	}

	return sum, nil
}
