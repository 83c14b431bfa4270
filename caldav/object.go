package caldav

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/emersion/go-ical"
	"github.com/samber/mo"

	"github.com/docdms/calbridge/store"
)

// Object is the protocol-facing projection of one event. It is derived
// on every read and lives for a single request; nothing here is cached.
type Object struct {
	ID           int64
	URI          string
	CalendarID   string
	LastModified time.Time
	ETag         string
	Size         int
	Data         string
	Component    string // "vevent", "vtodo", ...
}

// ETag computes the content fingerprint of a serialized payload: the
// md5 of its bytes, double-quoted. Identical payload bytes always yield
// identical etags.
func ETag(data string) string {
	sum := md5.Sum([]byte(data))
	return `"` + hex.EncodeToString(sum[:]) + `"`
}

// objectUID derives the stable iCalendar UID of an event from its
// owning user and event id.
func objectUID(userID, eventID int64) string {
	sum := md5.Sum([]byte(fmt.Sprintf("%d%d", userID, eventID)))
	return hex.EncodeToString(sum[:])
}

// serializeEvent projects an event record into an iCalendar payload.
// This is a one-way projection of the fields the store keeps; it is
// field-identical, not byte-identical, to whatever payload produced the
// record.
func serializeEvent(ev store.Event) (string, error) {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, "-//calbridge//CalDAV bridge//EN")

	comp := ical.NewComponent(ical.CompEvent)
	comp.Props.SetText(ical.PropUID, objectUID(ev.UserID, ev.ID))
	comp.Props.SetDateTime(ical.PropLastModified, ev.Modified.UTC())
	comp.Props.SetDateTime(ical.PropDateTimeStamp, ev.Modified.UTC())
	comp.Props.SetText(ical.PropSummary, ev.Summary)
	comp.Props.SetText(ical.PropDescription, ev.Description)
	comp.Props.SetDate(ical.PropDateTimeStart, ev.Start.UTC())
	comp.Props.SetDate(ical.PropDateTimeEnd, ev.Stop.UTC())
	cal.Children = append(cal.Children, comp)

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return "", fmt.Errorf("encode calendar object: %w", err)
	}
	return buf.String(), nil
}

func (b *Backend) projectEvent(calendarID string, ev store.Event) (Object, error) {
	data, err := serializeEvent(ev)
	if err != nil {
		return Object{}, err
	}
	return Object{
		ID:           ev.ID,
		URI:          strconv.FormatInt(ev.ID, 10),
		CalendarID:   calendarID,
		LastModified: ev.Modified,
		ETag:         ETag(data),
		Size:         len(data),
		Data:         data,
		Component:    "vevent",
	}, nil
}

// user resolves the owner of an event calendar id. Malformed ids,
// todo-kind calendars and unknown users all come back None: the caller
// treats them as an absent resource.
func (b *Backend) user(ctx context.Context, calendarID string) (mo.Option[store.User], error) {
	id, ok := ParseCalendarID(calendarID)
	if !ok || id.Kind != KindEvent {
		return mo.None[store.User](), nil
	}
	u, err := b.store.User(ctx, id.UserID)
	if err != nil {
		return mo.None[store.User](), fmt.Errorf("look up user %d: %w", id.UserID, err)
	}
	return u, nil
}

// ListObjects returns the calendar's objects within the default
// listing window, now to one year ahead.
func (b *Backend) ListObjects(ctx context.Context, calendarID string) ([]Object, error) {
	u, err := b.user(ctx, calendarID)
	if err != nil {
		return nil, err
	}
	user, ok := u.Get()
	if !ok {
		return nil, nil
	}

	now := b.now()
	events, err := b.store.EventsInInterval(ctx, user.ID, now, now.Add(defaultQueryWindow))
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	objects := make([]Object, 0, len(events))
	for _, ev := range events {
		obj, err := b.projectEvent(calendarID, ev)
		if err != nil {
			return nil, err
		}
		objects = append(objects, obj)
	}
	b.logger.Debug("listed calendar objects", "calendar", calendarID, "count", len(objects))
	return objects, nil
}

// GetObject returns a single object by uri, or None if the calendar or
// object does not exist.
func (b *Backend) GetObject(ctx context.Context, calendarID, objectURI string) (mo.Option[Object], error) {
	u, err := b.user(ctx, calendarID)
	if err != nil {
		return mo.None[Object](), err
	}
	user, ok := u.Get()
	if !ok {
		return mo.None[Object](), nil
	}

	eventID, err := strconv.ParseInt(objectURI, 10, 64)
	if err != nil {
		return mo.None[Object](), nil
	}
	e, err := b.store.Event(ctx, user.ID, eventID)
	if err != nil {
		return mo.None[Object](), fmt.Errorf("get event %d: %w", eventID, err)
	}
	ev, ok := e.Get()
	if !ok {
		return mo.None[Object](), nil
	}

	obj, err := b.projectEvent(calendarID, ev)
	if err != nil {
		return mo.None[Object](), err
	}
	return mo.Some(obj), nil
}

// GetObjects resolves several uris at once; absent ones are skipped.
func (b *Backend) GetObjects(ctx context.Context, calendarID string, objectURIs []string) ([]Object, error) {
	var objects []Object
	for _, uri := range objectURIs {
		o, err := b.GetObject(ctx, calendarID, uri)
		if err != nil {
			return nil, err
		}
		if obj, ok := o.Get(); ok {
			objects = append(objects, obj)
		}
	}
	return objects, nil
}

// CreateObject parses the payload, computes its occurrence bounds and
// stores a new event. The returned etag is the hash of the *input*
// payload; a subsequent read re-serializes the stored fields and may
// differ in byte content, so its etag may differ too. Clients depend on
// this asymmetry for cache validation.
func (b *Backend) CreateObject(ctx context.Context, calendarID, objectURI, data string) (mo.Option[string], error) {
	u, err := b.user(ctx, calendarID)
	if err != nil {
		return mo.None[string](), err
	}
	user, ok := u.Get()
	if !ok {
		return mo.None[string](), nil
	}

	sum, err := b.denormalize(data)
	if err != nil {
		return mo.None[string](), err
	}

	eventID, err := b.store.AddEvent(ctx, user.ID, sum.FirstOccurrence, sum.LastOccurrence, sum.Summary, sum.Description)
	if err != nil {
		return mo.None[string](), fmt.Errorf("add event: %w", err)
	}
	b.logger.Debug("created calendar object", "calendar", calendarID, "event", eventID)
	return mo.Some(sum.ETag), nil
}

// UpdateObject edits the event addressed by uri. Like CreateObject it
// returns the input payload's etag; editing an absent event yields
// None.
func (b *Backend) UpdateObject(ctx context.Context, calendarID, objectURI, data string) (mo.Option[string], error) {
	u, err := b.user(ctx, calendarID)
	if err != nil {
		return mo.None[string](), err
	}
	user, ok := u.Get()
	if !ok {
		return mo.None[string](), nil
	}

	eventID, err := strconv.ParseInt(objectURI, 10, 64)
	if err != nil {
		return mo.None[string](), nil
	}

	sum, err := b.denormalize(data)
	if err != nil {
		return mo.None[string](), err
	}

	err = b.store.EditEvent(ctx, user.ID, eventID, sum.FirstOccurrence, sum.LastOccurrence, sum.Summary, sum.Description)
	if errors.Is(err, store.ErrNotFound) {
		return mo.None[string](), nil
	}
	if err != nil {
		return mo.None[string](), fmt.Errorf("edit event %d: %w", eventID, err)
	}
	b.logger.Debug("updated calendar object", "calendar", calendarID, "event", eventID)
	return mo.Some(sum.ETag), nil
}

// DeleteObject removes the event addressed by uri. Deleting an absent
// object is not an error; the operation is idempotent.
func (b *Backend) DeleteObject(ctx context.Context, calendarID, objectURI string) error {
	u, err := b.user(ctx, calendarID)
	if err != nil {
		return err
	}
	user, ok := u.Get()
	if !ok {
		return nil
	}

	eventID, err := strconv.ParseInt(objectURI, 10, 64)
	if err != nil {
		return nil
	}
	if err := b.store.DeleteEvent(ctx, user.ID, eventID); err != nil {
		return fmt.Errorf("delete event %d: %w", eventID, err)
	}
	b.logger.Debug("deleted calendar object", "calendar", calendarID, "event", eventID)
	return nil
}

// ObjectPathByUID searches the principal's calendars for an object with
// the given UID. Never found in the current scope.
func (b *Backend) ObjectPathByUID(ctx context.Context, principalURI, uid string) mo.Option[string] {
	return mo.None[string]()
}
