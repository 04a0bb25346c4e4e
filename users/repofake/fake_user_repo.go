package fakeuserrepo

import (
	"errors"
	"sort"
	"sync"

	"github.com/jrsteele09/restaurant-console/users"
)

var _ users.UserRepo = (*FakeUserRepo)(nil)

var ErrNotFound = errors.New("not found")

type FakeUserRepo struct {
	users       map[int64]*users.Account
	usernameIDs map[string]int64 // username to user id
	nextID      int64
	lock        sync.RWMutex
}

func NewFakeUserRepo() users.UserRepo {
	return &FakeUserRepo{
		users:       make(map[int64]*users.Account),
		usernameIDs: make(map[string]int64),
	}
}

func (ur *FakeUserRepo) Upsert(account *users.Account) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	if account.ID == 0 {
		if id, ok := ur.usernameIDs[account.Username]; ok {
			account.ID = id
		} else {
			ur.nextID++
			account.ID = ur.nextID
		}
	}
	if account.ID > ur.nextID {
		ur.nextID = account.ID
	}
	stored := *account
	ur.users[account.ID] = &stored
	ur.usernameIDs[account.Username] = account.ID
	return nil
}

func (ur *FakeUserRepo) GetByUsername(username string) (*users.Account, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	id, ok := ur.usernameIDs[username]
	if !ok {
		return nil, ErrNotFound
	}
	account := *ur.users[id]
	return &account, nil
}

func (ur *FakeUserRepo) GetByID(id int64) (*users.Account, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	stored, ok := ur.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	account := *stored
	return &account, nil
}

func (ur *FakeUserRepo) List() ([]*users.Account, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	accounts := make([]*users.Account, 0, len(ur.users))
	for _, v := range ur.users {
		account := *v
		accounts = append(accounts, &account)
	}

	sort.Slice(accounts, func(i, j int) bool {
		return accounts[i].ID < accounts[j].ID
	})
	return accounts, nil
}
