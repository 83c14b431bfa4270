package caldav

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// Kind distinguishes the two synthetic calendars of a principal.
type Kind string

const (
	KindEvent Kind = "event"
	KindTodo  Kind = "todo"
)

// CalendarID identifies one synthetic calendar: "<kind>-<userid>".
type CalendarID struct {
	Kind   Kind
	UserID int64
}

func (id CalendarID) String() string {
	return fmt.Sprintf("%s-%d", id.Kind, id.UserID)
}

// ParseCalendarID decomposes "<kind>-<userid>". Anything else is
// treated as an unknown resource by the callers, not an error.
func ParseCalendarID(s string) (CalendarID, bool) {
	kind, rest, found := strings.Cut(s, "-")
	if !found {
		return CalendarID{}, false
	}
	if Kind(kind) != KindEvent && Kind(kind) != KindTodo {
		return CalendarID{}, false
	}
	userID, err := strconv.ParseInt(rest, 10, 64)
	if err != nil {
		return CalendarID{}, false
	}
	return CalendarID{Kind: Kind(kind), UserID: userID}, true
}

// Calendar describes one synthetic calendar collection.
type Calendar struct {
	ID           CalendarID
	URI          string
	PrincipalURI string
	DisplayName  string
	Description  string
	// CTag is a freshness stamp derived from the current time, not a
	// true version vector; two calls may differ with no change.
	CTag string
	// SyncToken is constant: the backend reports no changes.
	SyncToken           string
	SupportedComponents []string
	Transparent         bool
}

// calendarPropertyMap maps protocol property names to event store field
// names. Consulted when acknowledging property updates; the read path
// projects fixed metadata instead.
var calendarPropertyMap = map[string]string{
	"{DAV:}displayname":                                   "displayname",
	"{urn:ietf:params:xml:ns:caldav}calendar-description": "description",
	"{urn:ietf:params:xml:ns:caldav}calendar-timezone":    "timezone",
	"{http://apple.com/ns/ical/}calendar-order":           "calendarorder",
	"{http://apple.com/ns/ical/}calendar-color":           "calendarcolor",
}

const syncToken = "46"

// parsePrincipalURI extracts the login from "principals/<login>".
func parsePrincipalURI(principalURI string) (string, bool) {
	parts := strings.Split(principalURI, "/")
	if len(parts) != 2 || parts[0] != "principals" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// ListCalendars returns the two synthetic calendars of the principal.
// An unrecognized principal URI or unknown login yields an empty list.
func (b *Backend) ListCalendars(ctx context.Context, principalURI string) ([]Calendar, error) {
	login, ok := parsePrincipalURI(principalURI)
	if !ok {
		return nil, nil
	}
	u, err := b.store.UserByLogin(ctx, login)
	if err != nil {
		return nil, fmt.Errorf("look up principal %q: %w", login, err)
	}
	user, ok := u.Get()
	if !ok {
		return nil, nil
	}

	ctag := b.ctag()
	b.logger.Debug("listing calendars", "principal", principalURI, "user", user.ID)
	return []Calendar{
		{
			ID:                  CalendarID{Kind: KindEvent, UserID: user.ID},
			URI:                 "events",
			PrincipalURI:        principalURI,
			DisplayName:         b.eventCalendarName,
			Description:         b.eventCalendarDescription,
			CTag:                ctag,
			SyncToken:           syncToken,
			SupportedComponents: []string{"VEVENT"},
			Transparent:         true,
		},
		{
			ID:                  CalendarID{Kind: KindTodo, UserID: user.ID},
			URI:                 "todos",
			PrincipalURI:        principalURI,
			DisplayName:         b.todoCalendarName,
			Description:         b.todoCalendarDescription,
			CTag:                ctag,
			SyncToken:           syncToken,
			SupportedComponents: []string{"VTODO"},
			Transparent:         true,
		},
	}, nil
}

// CreateCalendar is accepted but ignored: the two calendars per
// principal are structural, not user-managed.
func (b *Backend) CreateCalendar(ctx context.Context, principalURI, calendarURI string, props map[string]string) error {
	b.logger.Debug("ignoring calendar creation", "principal", principalURI, "uri", calendarURI)
	return nil
}

// UpdateCalendar acknowledges mutations of mapped properties without
// changing anything, and returns the property names it handled.
func (b *Backend) UpdateCalendar(ctx context.Context, calendarID string, props map[string]string) []string {
	var handled []string
	for name := range props {
		if _, ok := calendarPropertyMap[name]; ok {
			handled = append(handled, name)
		}
	}
	b.logger.Debug("ignoring calendar update", "calendar", calendarID, "handled", len(handled))
	return handled
}

// DeleteCalendar is accepted but ignored.
func (b *Backend) DeleteCalendar(ctx context.Context, calendarID string) error {
	b.logger.Debug("ignoring calendar deletion", "calendar", calendarID)
	return nil
}

func (b *Backend) ctag() string {
	return `"` + strconv.FormatInt(b.now().Unix(), 10) + `"`
}

// Changes reports the change set since syncToken. Change tracking is
// not implemented; the set is always empty.
func (b *Backend) Changes(ctx context.Context, calendarID, token string) (ChangeSet, error) {
	return ChangeSet{SyncToken: syncToken}, nil
}

// ChangeSet is the sync report for one calendar.
type ChangeSet struct {
	SyncToken string
	Added     []string
	Modified  []string
	Deleted   []string
}
