package auth

import (
	"errors"
	"fmt"
)

const defaultCredentialMessage = "Invalid username or password"

// NoRefreshTokenErr is returned by RefreshAccessToken when no refresh token is
// held. The session is left untouched.
var NoRefreshTokenErr = errors.New("no refresh token")

var (
	NotAuthenticatedErr = errors.New("not authenticated")
	InvalidTokensErr    = errors.New("access token is required")
	SessionChangedErr   = errors.New("session changed while the request was in flight")
	InvalidProfileErr   = errors.New("invalid profile")
)

// CredentialError is a rejected login exchange. No session state changes.
type CredentialError struct {
	StatusCode int    // 0 when no response was received
	Message    string // Server supplied message, if any
	Err        error
}

func (e *CredentialError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("login failed: %v", e.Err)
	}
	return fmt.Sprintf("login failed with status %d: %s", e.StatusCode, e.UserMessage())
}

func (e *CredentialError) Unwrap() error {
	return e.Err
}

// UserMessage is what a login form shows
func (e *CredentialError) UserMessage() string {
	if e.Message != "" {
		return e.Message
	}
	return defaultCredentialMessage
}

// ProfileFetchError is a failed profile lookup for held tokens. The session
// service absorbs it by logging out.
type ProfileFetchError struct {
	Err error
}

func (e *ProfileFetchError) Error() string {
	return fmt.Sprintf("profile fetch failed: %v", e.Err)
}

func (e *ProfileFetchError) Unwrap() error {
	return e.Err
}

// RefreshError is a failed access token refresh. The session has already
// been logged out when it is returned.
type RefreshError struct {
	Err error
}

func (e *RefreshError) Error() string {
	return fmt.Sprintf("token refresh failed: %v", e.Err)
}

func (e *RefreshError) Unwrap() error {
	return e.Err
}
