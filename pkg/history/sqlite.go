package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS request_history (
	id               TEXT PRIMARY KEY,
	user_id          TEXT NOT NULL,
	url              TEXT NOT NULL,
	method           TEXT NOT NULL,
	status_code      INTEGER NOT NULL,
	response_time    INTEGER NOT NULL,
	response_body    TEXT NOT NULL,
	response_headers TEXT NOT NULL,
	created_at       INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS request_history_user_created
	ON request_history (user_id, created_at DESC);
`

// SQLiteStore keeps history in a single SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the history database at path.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, errors.New("history path is empty")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}

	params := url.Values{
		"_pragma": []string{"journal_mode(WAL)", "busy_timeout(5000)", "synchronous(NORMAL)"},
	}
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?%s", path, params.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping history database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create history table: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Append inserts e.
func (s *SQLiteStore) Append(ctx context.Context, e Entry) error {
	headers, err := json.Marshal(e.ResponseHeaders)
	if err != nil {
		return fmt.Errorf("failed to encode headers: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO request_history
			(id, user_id, url, method, status_code, response_time, response_body, response_headers, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.UserID, e.URL, e.Method, e.StatusCode, e.ResponseTimeMS, e.ResponseBody, string(headers), e.Timestamp.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert history entry: %w", err)
	}
	return nil
}

// List returns up to limit entries for userID, newest first. A limit of
// zero or less returns everything.
func (s *SQLiteStore) List(ctx context.Context, userID string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, url, method, status_code, response_time, response_body, response_headers, created_at
		 FROM request_history
		 WHERE user_id = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	return entries, nil
}

// Get returns the entry with the given ID.
func (s *SQLiteStore) Get(ctx context.Context, id string) (Entry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, url, method, status_code, response_time, response_body, response_headers, created_at
		 FROM request_history WHERE id = ?`, id)

	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return e, err
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(sc scanner) (Entry, error) {
	var (
		e       Entry
		headers string
		created int64
	)
	err := sc.Scan(&e.ID, &e.UserID, &e.URL, &e.Method, &e.StatusCode, &e.ResponseTimeMS, &e.ResponseBody, &headers, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entry{}, err
		}
		return Entry{}, fmt.Errorf("failed to scan history entry: %w", err)
	}
	if err := json.Unmarshal([]byte(headers), &e.ResponseHeaders); err != nil {
		return Entry{}, fmt.Errorf("failed to decode headers: %w", err)
	}
	e.Timestamp = time.Unix(0, created).UTC()
	return e, nil
}
