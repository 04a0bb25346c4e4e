package fakesessionrepo

import (
	"context"
	"sync"

	"github.com/jrsteele09/restaurant-console/sessions"
)

var _ sessions.Repo = (*FakeSessionRepo)(nil)

// FakeSessionRepo keeps the encoded session record in memory. SaveErr and
// LoadErr are returned from the next calls when set.
type FakeSessionRepo struct {
	data    []byte
	saves   int
	SaveErr error
	LoadErr error
	lock    sync.RWMutex
}

func NewFakeSessionRepo() *FakeSessionRepo {
	return &FakeSessionRepo{}
}

// NewFakeSessionRepoWith returns a repo that already holds state, as if a
// previous run had persisted it.
func NewFakeSessionRepoWith(state sessions.State) (*FakeSessionRepo, error) {
	data, err := sessions.Marshal(state)
	if err != nil {
		return nil, err
	}
	return &FakeSessionRepo{data: data}, nil
}

// NewFakeSessionRepoRaw holds an arbitrary record, for corrupt record tests
func NewFakeSessionRepoRaw(data []byte) *FakeSessionRepo {
	return &FakeSessionRepo{data: append([]byte(nil), data...)}
}

func (sr *FakeSessionRepo) Load(_ context.Context) (sessions.State, error) {
	sr.lock.RLock()
	defer sr.lock.RUnlock()

	if sr.LoadErr != nil {
		return sessions.State{}, sr.LoadErr
	}
	if sr.data == nil {
		return sessions.State{}, sessions.ErrNotFound
	}
	return sessions.Unmarshal(sr.data)
}

func (sr *FakeSessionRepo) Save(_ context.Context, state sessions.State) error {
	sr.lock.Lock()
	defer sr.lock.Unlock()

	if sr.SaveErr != nil {
		return sr.SaveErr
	}
	data, err := sessions.Marshal(state)
	if err != nil {
		return err
	}
	sr.data = data
	sr.saves++
	return nil
}

// Persisted decodes what was last saved
func (sr *FakeSessionRepo) Persisted() (sessions.State, bool) {
	sr.lock.RLock()
	defer sr.lock.RUnlock()

	if sr.data == nil {
		return sessions.State{}, false
	}
	state, err := sessions.Unmarshal(sr.data)
	if err != nil {
		return sessions.State{}, false
	}
	return state, true
}

// Saves returns how many successful saves have been made
func (sr *FakeSessionRepo) Saves() int {
	sr.lock.RLock()
	defer sr.lock.RUnlock()
	return sr.saves
}

func (sr *FakeSessionRepo) SetSaveErr(err error) {
	sr.lock.Lock()
	defer sr.lock.Unlock()
	sr.SaveErr = err
}
