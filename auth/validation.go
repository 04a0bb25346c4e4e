package auth

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/jrsteele09/restaurant-console/internal/validation"
	"github.com/jrsteele09/restaurant-console/sessions"
	"github.com/jrsteele09/restaurant-console/users"
)

// Validate checks both fields are present. Usernames are trimmed, passwords
// are sent as entered.
func (c *Credentials) Validate() error {
	c.Username = strings.TrimSpace(c.Username)
	if err := validation.Struct(c); err != nil {
		return errors.Wrap(err, "[Credentials.Validate]")
	}
	return nil
}

func validateTokens(tokens sessions.Tokens) error {
	if strings.TrimSpace(tokens.AccessToken) == "" {
		return InvalidTokensErr
	}
	return nil
}

func validateProfile(user *users.User) error {
	if err := user.Validate(); err != nil {
		return errors.Wrap(InvalidProfileErr, err.Error())
	}
	return nil
}
