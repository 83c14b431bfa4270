/*
Package caldav bridges a DMS event store to the CalDAV object model.

Every principal owns exactly two synthetic calendars, "events" and
"todos", identified as "<kind>-<userid>". The events calendar projects
the user's event records into iCalendar objects; the todos calendar has
no backing store yet and always reads empty. Calendars are structural:
create, update and delete requests are accepted but change nothing.

	st, err := store.OpenSQLite("dms.db")
	if err != nil {
		log.Fatal(err)
	}
	backend := caldav.New(st)
	cals, err := backend.ListCalendars(ctx, "principals/alice")
*/
package caldav

import (
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/docdms/calbridge/recurrence"
	"github.com/docdms/calbridge/store"
)

// ErrMalformedObject is returned when an inbound payload cannot be
// parsed or contains no supported calendar component. Callers should
// surface it as a bad-request condition.
var ErrMalformedObject = errors.New("malformed calendar object")

// Backend exposes a DMS event store through CalDAV-shaped operations.
// There is exactly one backend; no interface hierarchy is needed.
type Backend struct {
	store  store.Store
	eval   *recurrence.Evaluator
	logger *slog.Logger
	now    func() time.Time

	eventCalendarName        string
	eventCalendarDescription string
	todoCalendarName         string
	todoCalendarDescription  string
}

// Option configures a Backend.
type Option func(*Backend)

// WithLogger sets the backend logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(b *Backend) { b.logger = l }
}

// WithHorizon overrides the recurrence expansion horizon.
func WithHorizon(t time.Time) Option {
	return func(b *Backend) { b.eval.Horizon = t }
}

// WithClock overrides the time source used for ctags and query
// defaults. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(b *Backend) { b.now = now }
}

// WithCalendarNames overrides the display metadata of the two synthetic
// calendars.
func WithCalendarNames(eventName, eventDescription, todoName, todoDescription string) Option {
	return func(b *Backend) {
		b.eventCalendarName = eventName
		b.eventCalendarDescription = eventDescription
		b.todoCalendarName = todoName
		b.todoCalendarDescription = todoDescription
	}
}

// New creates a backend on top of the given DMS store.
func New(st store.Store, opts ...Option) *Backend {
	b := &Backend{
		store:  st,
		eval:   recurrence.NewEvaluator(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:    time.Now,

		eventCalendarName:        "Kalendar",
		eventCalendarDescription: "Events added in the DMS",
		todoCalendarName:         "Todo",
		todoCalendarDescription:  "List of open tasks in the DMS",
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}
