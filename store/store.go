// Package store defines the contracts for the DMS-side collaborators the
// CalDAV bridge talks to: a read-only user directory and a per-user event
// store. Both are usually backed by the same database handle.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/samber/mo"
)

var (
	// ErrNotFound is returned by mutations that target a missing record.
	// Lookups never return it; they yield an empty Option instead.
	ErrNotFound = errors.New("record not found")
	// ErrInvalidInput is returned when the input parameters are invalid.
	ErrInvalidInput = errors.New("invalid input parameters")
)

// User is one entry of the DMS user directory.
type User struct {
	ID    int64
	Login string
	Name  string
}

// Event is one row of the DMS calendar table. Start and Stop bound the
// event's occurrence window; Modified is the record's change stamp.
type Event struct {
	ID          int64
	UserID      int64
	Summary     string
	Description string
	Start       time.Time
	Stop        time.Time
	Modified    time.Time
}

// Directory resolves principals to users. Read-only to the bridge.
type Directory interface {
	UserByLogin(ctx context.Context, login string) (mo.Option[User], error)
	User(ctx context.Context, id int64) (mo.Option[User], error)
}

// EventStore is the per-user event table of the DMS. Every operation is
// scoped to a single user; cross-user queries are never exposed.
type EventStore interface {
	// EventsInInterval lists the user's events whose [Start, Stop] window
	// overlaps [start, end], ordered by start time.
	EventsInInterval(ctx context.Context, userID int64, start, end time.Time) ([]Event, error)
	Event(ctx context.Context, userID, id int64) (mo.Option[Event], error)
	AddEvent(ctx context.Context, userID int64, start, stop time.Time, summary, description string) (int64, error)
	// EditEvent returns ErrNotFound when the event does not exist or is
	// owned by another user.
	EditEvent(ctx context.Context, userID, id int64, start, stop time.Time, summary, description string) error
	// DeleteEvent silently no-ops when the event is already gone.
	DeleteEvent(ctx context.Context, userID, id int64) error
}

// Store combines the two collaborators, the way a single DMS handle
// exposes them.
type Store interface {
	Directory
	EventStore
}
