// Package sqliterepo persists the session record as a single SQLite row.
package sqliterepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/jrsteele09/restaurant-console/sessions"
)

var _ sessions.Repo = (*Repo)(nil)

const schema = `CREATE TABLE IF NOT EXISTS session_records (
	name       TEXT PRIMARY KEY,
	data       BLOB NOT NULL,
	updated_at INTEGER NOT NULL
)`

// Repo keeps one row per record name; Save upserts that row.
type Repo struct {
	sqlDB   *sql.DB
	name    string
	nowTime func() time.Time
}

// Open opens (or creates) the database at path and ensures the schema.
// An empty name uses sessions.StorageKey.
func Open(path, name string) (*Repo, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	if name == "" {
		name = sessions.StorageKey
	}
	dsn := filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create session schema: %w", err)
	}
	return &Repo{sqlDB: sqlDB, name: name, nowTime: time.Now}, nil
}

// Close closes the SQLite handle.
func (r *Repo) Close() error {
	if r == nil || r.sqlDB == nil {
		return nil
	}
	return r.sqlDB.Close()
}

func (r *Repo) Load(ctx context.Context) (sessions.State, error) {
	var data []byte
	err := r.sqlDB.QueryRowContext(ctx, `SELECT data FROM session_records WHERE name = ?`, r.name).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return sessions.State{}, sessions.ErrNotFound
		}
		return sessions.State{}, fmt.Errorf("select session record: %w", err)
	}
	return sessions.Unmarshal(data)
}

func (r *Repo) Save(ctx context.Context, state sessions.State) error {
	data, err := sessions.Marshal(state)
	if err != nil {
		return err
	}
	_, err = r.sqlDB.ExecContext(ctx,
		`INSERT INTO session_records (name, data, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		r.name, data, r.nowTime().UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("upsert session record: %w", err)
	}
	return nil
}
