// Package filerepo persists the session record as a JSON file.
package filerepo

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/jrsteele09/restaurant-console/sessions"
)

var _ sessions.Repo = (*Repo)(nil)

// Repo stores the record at <dir>/<name>.json. Writes go to a temp file that
// is synced and renamed over the record, so the record is never partial.
type Repo struct {
	path string
	mu   sync.Mutex
}

// New returns a Repo for the record called name inside dir, creating dir
// with owner only permissions when missing.
func New(dir, name string) (*Repo, error) {
	if dir == "" {
		return nil, fmt.Errorf("session directory is required")
	}
	if name == "" {
		name = sessions.StorageKey
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create session directory: %w", err)
	}
	return &Repo{path: filepath.Join(dir, name+".json")}, nil
}

// Path returns the record location
func (r *Repo) Path() string {
	return r.path
}

func (r *Repo) Load(ctx context.Context) (sessions.State, error) {
	if err := ctx.Err(); err != nil {
		return sessions.State{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return sessions.State{}, sessions.ErrNotFound
		}
		return sessions.State{}, fmt.Errorf("read session file: %w", err)
	}
	return sessions.Unmarshal(data)
}

func (r *Repo) Save(ctx context.Context, state sessions.State) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := sessions.Marshal(state)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	tmpPath := r.path + ".tmp"
	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("create temp session file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write temp session file: %w", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("sync temp session file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close temp session file: %w", err)
	}
	if err := os.Rename(tmpPath, r.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename session file: %w", err)
	}
	return nil
}
