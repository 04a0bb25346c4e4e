package sessions

import (
	"fmt"

	"github.com/jrsteele09/restaurant-console/users"
)

// StorageKey names the single durable record holding the session
const StorageKey = "auth-storage"

// Tokens is the opaque bearer/refresh credential pair issued by the remote API
type Tokens struct {
	AccessToken  string `json:"accessToken"`  // Short lived bearer credential
	RefreshToken string `json:"refreshToken"` // Long lived credential for obtaining a new access token
}

// SameSession reports whether t and other were issued for the same login.
// The refresh token is not rotated by the server, so it identifies the login
// across access token refreshes.
func (t Tokens) SameSession(other Tokens) bool {
	if t.RefreshToken != "" || other.RefreshToken != "" {
		return t.RefreshToken == other.RefreshToken
	}
	return t.AccessToken == other.AccessToken
}

// Status is the explicit three way view of a State
type Status int

const (
	StatusLoggedOut      Status = iota // No usable credentials
	StatusPendingProfile               // Authenticated, profile not yet resolved
	StatusReady                        // Authenticated with a resolved profile
)

func (s Status) String() string {
	switch s {
	case StatusLoggedOut:
		return "logged_out"
	case StatusPendingProfile:
		return "pending_profile"
	case StatusReady:
		return "ready"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// State is the persisted identity of the console. The zero value is the
// logged out state.
//
// Invariants:
//   - IsAuthenticated implies Tokens != nil
//   - User != nil implies Tokens != nil
//   - Tokens == nil implies User == nil and !IsAuthenticated
type State struct {
	Tokens          *Tokens     `json:"tokens"`
	User            *users.User `json:"user"`
	IsAuthenticated bool        `json:"isAuthenticated"`
}

// Status derives the session status. Anything not authenticated is logged
// out, regardless of what else is held.
func (s State) Status() Status {
	switch {
	case !s.IsAuthenticated || s.Tokens == nil:
		return StatusLoggedOut
	case s.User == nil:
		return StatusPendingProfile
	default:
		return StatusReady
	}
}

// Validate returns an error wrapping ErrInvariant when s breaks one of the
// State invariants.
func (s State) Validate() error {
	if s.IsAuthenticated && s.Tokens == nil {
		return fmt.Errorf("%w: authenticated without tokens", ErrInvariant)
	}
	if s.User != nil && s.Tokens == nil {
		return fmt.Errorf("%w: profile held without tokens", ErrInvariant)
	}
	return nil
}

// NeedsProfile reports whether tokens survived without a resolved profile
func (s State) NeedsProfile() bool {
	return s.Tokens != nil && s.User == nil
}

// Clone returns a deep copy so callers can never mutate a held state
func (s State) Clone() State {
	c := State{IsAuthenticated: s.IsAuthenticated}
	if s.Tokens != nil {
		t := *s.Tokens
		c.Tokens = &t
	}
	if s.User != nil {
		u := *s.User
		c.User = &u
	}
	return c
}

// Equal compares two states field by field
func (s State) Equal(other State) bool {
	if s.IsAuthenticated != other.IsAuthenticated {
		return false
	}
	if (s.Tokens == nil) != (other.Tokens == nil) || (s.User == nil) != (other.User == nil) {
		return false
	}
	if s.Tokens != nil && *s.Tokens != *other.Tokens {
		return false
	}
	if s.User != nil && *s.User != *other.User {
		return false
	}
	return true
}
