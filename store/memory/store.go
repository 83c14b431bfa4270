// In-memory store implementation for testing purposes.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/samber/mo"

	"github.com/docdms/calbridge/store"
)

// Store implements store.Store using maps guarded by a RWMutex.
type Store struct {
	mu         sync.RWMutex
	users      map[int64]store.User
	events     map[int64]store.Event
	nextUserID int64
	nextID     int64
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		users:      make(map[int64]store.User),
		events:     make(map[int64]store.Event),
		nextUserID: 1,
		nextID:     1,
	}
}

// AddUser inserts a directory entry and returns its id.
func (s *Store) AddUser(login, name string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextUserID
	s.nextUserID++
	s.users[id] = store.User{ID: id, Login: login, Name: name}
	return id
}

func (s *Store) UserByLogin(_ context.Context, login string) (mo.Option[store.User], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Login == login {
			return mo.Some(u), nil
		}
	}
	return mo.None[store.User](), nil
}

func (s *Store) User(_ context.Context, id int64) (mo.Option[store.User], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return mo.None[store.User](), nil
	}
	return mo.Some(u), nil
}

func (s *Store) EventsInInterval(_ context.Context, userID int64, start, end time.Time) ([]store.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var events []store.Event
	for _, ev := range s.events {
		if ev.UserID != userID {
			continue
		}
		if ev.Start.After(end) || ev.Stop.Before(start) {
			continue
		}
		events = append(events, ev)
	}
	sort.Slice(events, func(i, j int) bool { return events[i].Start.Before(events[j].Start) })
	return events, nil
}

func (s *Store) Event(_ context.Context, userID, id int64) (mo.Option[store.Event], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ev, ok := s.events[id]
	if !ok || ev.UserID != userID {
		return mo.None[store.Event](), nil
	}
	return mo.Some(ev), nil
}

func (s *Store) AddEvent(_ context.Context, userID int64, start, stop time.Time, summary, description string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.events[id] = store.Event{
		ID:          id,
		UserID:      userID,
		Summary:     summary,
		Description: description,
		Start:       start,
		Stop:        stop,
		Modified:    time.Now().UTC(),
	}
	return id, nil
}

func (s *Store) EditEvent(_ context.Context, userID, id int64, start, stop time.Time, summary, description string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ev, ok := s.events[id]
	if !ok || ev.UserID != userID {
		return store.ErrNotFound
	}
	ev.Summary = summary
	ev.Description = description
	ev.Start = start
	ev.Stop = stop
	ev.Modified = time.Now().UTC()
	s.events[id] = ev
	return nil
}

func (s *Store) DeleteEvent(_ context.Context, userID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ev, ok := s.events[id]
	if ok && ev.UserID == userID {
		delete(s.events, id)
	}
	return nil
}
