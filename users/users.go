package users

import (
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// RoleType is the role the remote API assigns to a console user
type RoleType string

const (
	RoleAdmin   RoleType = "ADMIN"   // Full access, including employee management
	RoleManager RoleType = "MANAGER" // Manages reservations and staff rotas
	RoleStaff   RoleType = "STAFF"   // Front of house
)

// Valid reports whether r is one of the roles the API issues
func (r RoleType) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleStaff:
		return true
	}
	return false
}

// User is the profile returned by the remote profile endpoint. It is never
// constructed locally by the console, only decoded from the server.
type User struct {
	ID       int64    `json:"id"`       // Server assigned identifier
	Username string   `json:"username"` // Login name
	Role     RoleType `json:"role"`     // One of ADMIN, MANAGER, STAFF
}

// Validate checks that a decoded profile is usable
func (u *User) Validate() error {
	if u == nil {
		return fmt.Errorf("profile is empty")
	}
	if strings.TrimSpace(u.Username) == "" {
		return fmt.Errorf("profile has no username")
	}
	if !u.Role.Valid() {
		return fmt.Errorf("profile has unknown role %q", u.Role)
	}
	return nil
}

// HasRole reports whether the user holds any of the given roles
func (u *User) HasRole(roles ...RoleType) bool {
	if u == nil {
		return false
	}
	for _, r := range roles {
		if u.Role == r {
			return true
		}
	}
	return false
}

// Account is a user as held by a server side directory, with the credential
// material that never leaves it.
type Account struct {
	User
	Name         string `json:"name,omitempty"`
	Email        string `json:"email,omitempty"`
	PasswordHash string `json:"-"`
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
