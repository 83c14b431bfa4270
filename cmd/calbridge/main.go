// Command calbridge inspects and seeds a DMS event store through the
// CalDAV bridge backend.
//
// Usage:
//
//	calbridge [-config calbridge.yaml] seed
//	calbridge [-config calbridge.yaml] calendars principals/<login>
//	calbridge [-config calbridge.yaml] objects <calendar-id>
//	calbridge [-config calbridge.yaml] get <calendar-id> <object-uri>
//	calbridge [-config calbridge.yaml] add <calendar-id> <summary> <start> <end>
//	calbridge [-config calbridge.yaml] delete <calendar-id> <object-uri>
//
// Timestamps are RFC 3339.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/docdms/calbridge/caldav"
	"github.com/docdms/calbridge/config"
	"github.com/docdms/calbridge/store"
)

func main() {
	configPath := flag.String("config", "calbridge.yaml", "path to the configuration file")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: calbridge [-config file] <seed|calendars|objects|get|add|delete> ...")
		os.Exit(2)
	}

	if err := run(*configPath, flag.Args()); err != nil {
		fmt.Fprintln(os.Stderr, "calbridge:", err)
		os.Exit(1)
	}
}

func run(configPath string, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel(cfg.LogLevel),
	}))

	st, err := store.OpenSQLite(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer st.Close()

	horizon, err := cfg.HorizonTime()
	if err != nil {
		return err
	}
	backend := caldav.New(st,
		caldav.WithLogger(logger),
		caldav.WithHorizon(horizon),
		caldav.WithCalendarNames(
			cfg.Calendars.EventName, cfg.Calendars.EventDescription,
			cfg.Calendars.TodoName, cfg.Calendars.TodoDescription,
		),
	)

	ctx := context.Background()
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "seed":
		return seed(ctx, st)
	case "calendars":
		return listCalendars(ctx, backend, rest)
	case "objects":
		return listObjects(ctx, backend, rest)
	case "get":
		return getObject(ctx, backend, rest)
	case "add":
		return addObject(ctx, backend, rest)
	case "delete":
		return deleteObject(ctx, backend, rest)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func logLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// seed creates a demo user with a couple of upcoming events.
func seed(ctx context.Context, st *store.SQLite) error {
	userID, err := st.AddUser(ctx, "alice", "Alice Example")
	if err != nil {
		return err
	}

	now := time.Now().Truncate(time.Hour)
	for i, summary := range []string{"Standup", "Design review", "Release planning"} {
		start := now.Add(time.Duration(i+1) * 24 * time.Hour)
		if _, err := st.AddEvent(ctx, userID, start, start.Add(time.Hour), summary, "seeded "+uuid.NewString()); err != nil {
			return err
		}
	}

	fmt.Printf("seeded user alice (id %d) with 3 events; calendar id event-%d\n", userID, userID)
	return nil
}

func listCalendars(ctx context.Context, backend *caldav.Backend, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: calendars principals/<login>")
	}
	cals, err := backend.ListCalendars(ctx, args[0])
	if err != nil {
		return err
	}
	for _, cal := range cals {
		fmt.Printf("%-12s %-8s %-20s %s\n", cal.ID, cal.URI, cal.DisplayName, cal.Description)
	}
	return nil
}

func listObjects(ctx context.Context, backend *caldav.Backend, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: objects <calendar-id>")
	}
	objects, err := backend.ListObjects(ctx, args[0])
	if err != nil {
		return err
	}
	for _, obj := range objects {
		fmt.Printf("%-8s %-36s %6dB %s\n", obj.URI, obj.ETag, obj.Size, obj.LastModified.Format(time.RFC3339))
	}
	return nil
}

func getObject(ctx context.Context, backend *caldav.Backend, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: get <calendar-id> <object-uri>")
	}
	o, err := backend.GetObject(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	obj, ok := o.Get()
	if !ok {
		return fmt.Errorf("object %s/%s not found", args[0], args[1])
	}
	fmt.Print(obj.Data)
	return nil
}

func addObject(ctx context.Context, backend *caldav.Backend, args []string) error {
	if len(args) != 4 {
		return fmt.Errorf("usage: add <calendar-id> <summary> <start> <end>")
	}
	start, err := time.Parse(time.RFC3339, args[2])
	if err != nil {
		return fmt.Errorf("parse start: %w", err)
	}
	end, err := time.Parse(time.RFC3339, args[3])
	if err != nil {
		return fmt.Errorf("parse end: %w", err)
	}

	data := fmt.Sprintf("BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:-//calbridge//CLI//EN\r\nBEGIN:VEVENT\r\nUID:%s\r\nDTSTAMP:%s\r\nDTSTART:%s\r\nDTEND:%s\r\nSUMMARY:%s\r\nEND:VEVENT\r\nEND:VCALENDAR\r\n",
		uuid.NewString(),
		time.Now().UTC().Format("20060102T150405Z"),
		start.UTC().Format("20060102T150405Z"),
		end.UTC().Format("20060102T150405Z"),
		args[1])

	etag, err := backend.CreateObject(ctx, args[0], "", data)
	if err != nil {
		return err
	}
	tag, ok := etag.Get()
	if !ok {
		return fmt.Errorf("calendar %s not found", args[0])
	}
	fmt.Println("created, etag", tag)
	return nil
}

func deleteObject(ctx context.Context, backend *caldav.Backend, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: delete <calendar-id> <object-uri>")
	}
	return backend.DeleteObject(ctx, args[0], args[1])
}
