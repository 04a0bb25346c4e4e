package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by Repo.Load when nothing has been persisted yet
	ErrNotFound = errors.New("session record not found")
	// ErrInvariant marks a State that breaks the session invariants
	ErrInvariant = errors.New("session invariant violated")
	// ErrCorrupt marks a persisted record that cannot be decoded
	ErrCorrupt = errors.New("session record corrupt")
)

// Repo persists the single session record. Implementations must replace the
// whole record on Save so a reader never observes a partial write.
type Repo interface {
	// Load returns the persisted state or ErrNotFound
	Load(ctx context.Context) (State, error)

	// Save replaces the persisted state
	Save(ctx context.Context, state State) error
}

// recordVersion is bumped when the persisted layout changes
const recordVersion = 0

// record is the persisted envelope around a State
type record struct {
	State   State `json:"state"`
	Version int   `json:"version"`
}

// Marshal encodes a state into the persisted record layout
func Marshal(state State) ([]byte, error) {
	data, err := json.Marshal(record{State: state, Version: recordVersion})
	if err != nil {
		return nil, fmt.Errorf("marshal session record: %w", err)
	}
	return data, nil
}

// Unmarshal decodes a persisted record. A record that decodes but breaks the
// invariants is returned together with an error wrapping ErrInvariant.
func Unmarshal(data []byte) (State, error) {
	var r record
	if err := json.Unmarshal(data, &r); err != nil {
		return State{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if r.Version != recordVersion {
		return State{}, fmt.Errorf("%w: unsupported version %d", ErrCorrupt, r.Version)
	}
	if err := r.State.Validate(); err != nil {
		return r.State, err
	}
	return r.State, nil
}
