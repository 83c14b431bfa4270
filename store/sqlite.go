package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/samber/mo"

	_ "github.com/mattn/go-sqlite3"
)

// SQLite implements Store on top of a sqlite database, mirroring the
// users/events tables of the DMS.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (and if needed creates) the database at dbPath and runs
// the schema migrations.
func OpenSQLite(dbPath string) (*SQLite, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping db: %w", err)
	}

	s := &SQLite{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			login TEXT UNIQUE NOT NULL,
			name TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			name TEXT NOT NULL DEFAULT '',
			comment TEXT NOT NULL DEFAULT '',
			start INTEGER NOT NULL,
			stop INTEGER NOT NULL,
			date INTEGER NOT NULL,
			FOREIGN KEY (user_id) REFERENCES users(id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_events_user_id ON events(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_events_start ON events(start)`,
		`CREATE INDEX IF NOT EXISTS idx_events_stop ON events(stop)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("exec %q: %w", m[:30], err)
		}
	}
	return nil
}

// AddUser inserts a directory entry. Not part of the Directory contract
// (the directory is read-only to the bridge); used by seeding and tests.
func (s *SQLite) AddUser(ctx context.Context, login, name string) (int64, error) {
	if login == "" {
		return 0, fmt.Errorf("%w: empty login", ErrInvalidInput)
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (login, name) VALUES (?, ?)`, login, name)
	if err != nil {
		return 0, fmt.Errorf("insert user: %w", err)
	}
	return res.LastInsertId()
}

func (s *SQLite) UserByLogin(ctx context.Context, login string) (mo.Option[User], error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, login, name FROM users WHERE login = ?`, login))
}

func (s *SQLite) User(ctx context.Context, id int64) (mo.Option[User], error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, login, name FROM users WHERE id = ?`, id))
}

func (s *SQLite) scanUser(row *sql.Row) (mo.Option[User], error) {
	var u User
	err := row.Scan(&u.ID, &u.Login, &u.Name)
	if err == sql.ErrNoRows {
		return mo.None[User](), nil
	}
	if err != nil {
		return mo.None[User](), fmt.Errorf("scan user: %w", err)
	}
	return mo.Some(u), nil
}

func (s *SQLite) EventsInInterval(ctx context.Context, userID int64, start, end time.Time) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, name, comment, start, stop, date
		 FROM events
		 WHERE user_id = ? AND start <= ? AND stop >= ?
		 ORDER BY start`,
		userID, end.Unix(), start.Unix())
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

func (s *SQLite) Event(ctx context.Context, userID, id int64) (mo.Option[Event], error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, comment, start, stop, date
		 FROM events WHERE user_id = ? AND id = ?`, userID, id)
	ev, err := scanEvent(row)
	if err == sql.ErrNoRows {
		return mo.None[Event](), nil
	}
	if err != nil {
		return mo.None[Event](), err
	}
	return mo.Some(ev), nil
}

func (s *SQLite) AddEvent(ctx context.Context, userID int64, start, stop time.Time, summary, description string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO events (user_id, name, comment, start, stop, date)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		userID, summary, description, start.Unix(), stop.Unix(), time.Now().Unix())
	if err != nil {
		return 0, fmt.Errorf("insert event: %w", err)
	}
	return res.LastInsertId()
}

func (s *SQLite) EditEvent(ctx context.Context, userID, id int64, start, stop time.Time, summary, description string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE events SET name = ?, comment = ?, start = ?, stop = ?, date = ?
		 WHERE user_id = ? AND id = ?`,
		summary, description, start.Unix(), stop.Unix(), time.Now().Unix(), userID, id)
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLite) DeleteEvent(ctx context.Context, userID, id int64) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM events WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (Event, error) {
	var ev Event
	var start, stop, date int64
	if err := row.Scan(&ev.ID, &ev.UserID, &ev.Summary, &ev.Description, &start, &stop, &date); err != nil {
		return Event{}, err
	}
	ev.Start = time.Unix(start, 0).UTC()
	ev.Stop = time.Unix(stop, 0).UTC()
	ev.Modified = time.Unix(date, 0).UTC()
	return ev, nil
}
