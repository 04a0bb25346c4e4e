package users

type UserRepo interface {
	Upsert(account *Account) error
	GetByUsername(username string) (*Account, error)
	GetByID(id int64) (*Account, error)
	List() ([]*Account, error)
}
