package caldav

import (
	"context"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/emersion/go-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docdms/calbridge/store/memory"
)

func newTestBackend(t *testing.T) (*Backend, *memory.Store, string) {
	t.Helper()
	st := memory.New()
	userID := st.AddUser("alice", "Alice")
	backend := New(st)
	return backend, st, "event-" + strconv.FormatInt(userID, 10)
}

func vevent(uid, summary string, start, end time.Time) string {
	var b strings.Builder
	b.WriteString("BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:-//test//EN\r\n")
	b.WriteString("BEGIN:VEVENT\r\n")
	b.WriteString("UID:" + uid + "\r\n")
	b.WriteString("DTSTAMP:20240101T000000Z\r\n")
	b.WriteString("DTSTART:" + start.UTC().Format("20060102T150405Z") + "\r\n")
	b.WriteString("DTEND:" + end.UTC().Format("20060102T150405Z") + "\r\n")
	b.WriteString("SUMMARY:" + summary + "\r\n")
	b.WriteString("END:VEVENT\r\nEND:VCALENDAR\r\n")
	return b.String()
}

func TestETag(t *testing.T) {
	data := vevent("uid-1", "Standup", time.Now(), time.Now().Add(time.Hour))

	assert.Equal(t, ETag(data), ETag(data), "etag must be stable for identical bytes")
	assert.NotEqual(t, ETag(data), ETag(data+" "), "any byte change must change the etag")
	assert.True(t, strings.HasPrefix(ETag(data), `"`))
	assert.True(t, strings.HasSuffix(ETag(data), `"`))
}

func TestCreateThenGetObject(t *testing.T) {
	backend, st, calID := newTestBackend(t)
	ctx := context.Background()

	// start=1700000000, stop=1700003600: one hour on 2023-11-14 UTC.
	start := time.Unix(1700000000, 0).UTC()
	stop := time.Unix(1700003600, 0).UTC()
	eventID, err := st.AddEvent(ctx, 1, start, stop, "Standup", "")
	require.NoError(t, err)

	o, err := backend.GetObject(ctx, calID, strconv.FormatInt(eventID, 10))
	require.NoError(t, err)
	obj, ok := o.Get()
	require.True(t, ok)

	assert.Equal(t, calID, obj.CalendarID)
	assert.Equal(t, "vevent", obj.Component)
	assert.Equal(t, len(obj.Data), obj.Size)
	assert.Equal(t, ETag(obj.Data), obj.ETag, "etag is the hash of the serialized payload")

	cal, err := ical.NewDecoder(strings.NewReader(obj.Data)).Decode()
	require.NoError(t, err)
	events := cal.Events()
	require.Len(t, events, 1)

	dtstart, err := events[0].Props.DateTime(ical.PropDateTimeStart, time.UTC)
	require.NoError(t, err)
	dtend, err := events[0].Props.DateTime(ical.PropDateTimeEnd, time.UTC)
	require.NoError(t, err)
	// The projection emits date-valued DTSTART/DTEND.
	assert.Equal(t, start.Format("20060102"), dtstart.Format("20060102"))
	assert.Equal(t, stop.Format("20060102"), dtend.Format("20060102"))

	summary := events[0].Props.Get(ical.PropSummary)
	require.NotNil(t, summary)
	assert.Equal(t, "Standup", summary.Value)
}

func TestCreateObjectReturnsInputETag(t *testing.T) {
	backend, _, calID := newTestBackend(t)
	ctx := context.Background()

	start := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	data := vevent("uid-create", "Planning", start, start.Add(time.Hour))

	etag, err := backend.CreateObject(ctx, calID, "", data)
	require.NoError(t, err)
	tag, ok := etag.Get()
	require.True(t, ok)
	assert.Equal(t, ETag(data), tag, "create returns the hash of the input payload")

	// The read-back payload is an independent re-serialization; it is
	// field-identical, not byte-identical, so its etag may differ.
	objects, err := backend.GetObjects(ctx, calID, []string{"1"})
	require.NoError(t, err)
	require.Len(t, objects, 1)
	assert.Equal(t, ETag(objects[0].Data), objects[0].ETag)
}

func TestCreateObjectStoresOccurrenceBounds(t *testing.T) {
	backend, st, calID := newTestBackend(t)
	ctx := context.Background()

	start := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	data := vevent("uid-bounds", "Planning", start, start.Add(2*time.Hour))

	_, err := backend.CreateObject(ctx, calID, "", data)
	require.NoError(t, err)

	e, err := st.Event(ctx, 1, 1)
	require.NoError(t, err)
	ev, ok := e.Get()
	require.True(t, ok)
	assert.True(t, start.Equal(ev.Start))
	assert.True(t, start.Add(2*time.Hour).Equal(ev.Stop))
	assert.Equal(t, "Planning", ev.Summary)
}

func TestCreateObjectRejectsMalformedPayload(t *testing.T) {
	backend, _, calID := newTestBackend(t)
	ctx := context.Background()

	for name, data := range map[string]string{
		"not ical":     "this is not a calendar",
		"no component": "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:-//test//EN\r\nEND:VCALENDAR\r\n",
	} {
		_, err := backend.CreateObject(ctx, calID, "", data)
		assert.ErrorIs(t, err, ErrMalformedObject, name)
	}
}

func TestUpdateObject(t *testing.T) {
	backend, st, calID := newTestBackend(t)
	ctx := context.Background()

	start := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	eventID, err := st.AddEvent(ctx, 1, start, start.Add(time.Hour), "Old", "")
	require.NoError(t, err)

	data := vevent("uid-update", "New title", start, start.Add(3*time.Hour))
	etag, err := backend.UpdateObject(ctx, calID, strconv.FormatInt(eventID, 10), data)
	require.NoError(t, err)
	tag, ok := etag.Get()
	require.True(t, ok)
	assert.Equal(t, ETag(data), tag)

	e, err := st.Event(ctx, 1, eventID)
	require.NoError(t, err)
	ev, ok := e.Get()
	require.True(t, ok)
	assert.Equal(t, "New title", ev.Summary)
	assert.True(t, start.Add(3*time.Hour).Equal(ev.Stop))
}

func TestUpdateObject_AbsentEvent(t *testing.T) {
	backend, _, calID := newTestBackend(t)

	start := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	data := vevent("uid-absent", "Ghost", start, start.Add(time.Hour))
	etag, err := backend.UpdateObject(context.Background(), calID, "999", data)
	require.NoError(t, err)
	assert.True(t, etag.IsAbsent())
}

func TestDeleteObjectIsIdempotent(t *testing.T) {
	backend, st, calID := newTestBackend(t)
	ctx := context.Background()

	start := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	eventID, err := st.AddEvent(ctx, 1, start, start.Add(time.Hour), "Doomed", "")
	require.NoError(t, err)
	uri := strconv.FormatInt(eventID, 10)

	require.NoError(t, backend.DeleteObject(ctx, calID, uri))
	o, err := backend.GetObject(ctx, calID, uri)
	require.NoError(t, err)
	assert.True(t, o.IsAbsent())

	// Deleting again changes nothing and raises nothing.
	require.NoError(t, backend.DeleteObject(ctx, calID, uri))
	require.NoError(t, backend.DeleteObject(ctx, calID, "not-a-number"))
}

func TestGetObjects_SkipsAbsent(t *testing.T) {
	backend, st, calID := newTestBackend(t)
	ctx := context.Background()

	start := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	eventID, err := st.AddEvent(ctx, 1, start, start.Add(time.Hour), "Here", "")
	require.NoError(t, err)

	objects, err := backend.GetObjects(ctx, calID, []string{strconv.FormatInt(eventID, 10), "999"})
	require.NoError(t, err)
	require.Len(t, objects, 1)
	assert.Equal(t, eventID, objects[0].ID)
}

func TestTodoCalendarYieldsNothing(t *testing.T) {
	backend, st, _ := newTestBackend(t)
	ctx := context.Background()

	start := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	_, err := st.AddEvent(ctx, 1, start, start.Add(time.Hour), "Event", "")
	require.NoError(t, err)

	objects, err := backend.ListObjects(ctx, "todo-1")
	require.NoError(t, err)
	assert.Empty(t, objects)

	o, err := backend.GetObject(ctx, "todo-1", "1")
	require.NoError(t, err)
	assert.True(t, o.IsAbsent())

	etag, err := backend.CreateObject(ctx, "todo-1", "", vevent("u", "s", start, start.Add(time.Hour)))
	require.NoError(t, err)
	assert.True(t, etag.IsAbsent())

	require.NoError(t, backend.DeleteObject(ctx, "todo-1", "1"))
}

func TestMalformedCalendarIDTreatedAsAbsent(t *testing.T) {
	backend, _, _ := newTestBackend(t)
	ctx := context.Background()

	objects, err := backend.ListObjects(ctx, "bogus")
	require.NoError(t, err)
	assert.Empty(t, objects)

	o, err := backend.GetObject(ctx, "event-notanumber", "1")
	require.NoError(t, err)
	assert.True(t, o.IsAbsent())
}

func TestObjectPathByUIDAlwaysAbsent(t *testing.T) {
	backend, _, _ := newTestBackend(t)
	assert.True(t, backend.ObjectPathByUID(context.Background(), "principals/alice", "some-uid").IsAbsent())
}

func TestListObjectsUsesDefaultWindow(t *testing.T) {
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	st := memory.New()
	st.AddUser("alice", "Alice")
	backend := New(st, WithClock(func() time.Time { return now }))
	ctx := context.Background()

	_, err := st.AddEvent(ctx, 1, now.Add(24*time.Hour), now.Add(25*time.Hour), "soon", "")
	require.NoError(t, err)
	_, err = st.AddEvent(ctx, 1, now.Add(-48*time.Hour), now.Add(-47*time.Hour), "past", "")
	require.NoError(t, err)
	_, err = st.AddEvent(ctx, 1, now.Add(400*24*time.Hour), now.Add(401*24*time.Hour), "far future", "")
	require.NoError(t, err)

	objects, err := backend.ListObjects(ctx, "event-1")
	require.NoError(t, err)
	require.Len(t, objects, 1)
	assert.Equal(t, int64(1), objects[0].ID)
}
