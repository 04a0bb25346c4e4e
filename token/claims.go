// Package token inspects and issues the bearer credentials exchanged with the
// restaurant API.
package token

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims carried by access tokens issued for console users
type Claims struct {
	Username string `json:"username,omitempty"`
	Role     string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Expiry returns the exp claim of a JWT access token without verifying its
// signature. The console only holds the token; the API is the one that
// verifies it. ok is false for opaque or malformed tokens and for tokens
// without an exp claim.
func Expiry(rawToken string) (exp time.Time, ok bool) {
	if strings.TrimSpace(rawToken) == "" {
		return time.Time{}, false
	}
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(rawToken, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// ExpiresWithin reports whether the token expires before now+skew. Tokens
// without a readable expiry never expire from the console's point of view.
func ExpiresWithin(rawToken string, now time.Time, skew time.Duration) bool {
	exp, ok := Expiry(rawToken)
	if !ok {
		return false
	}
	return !now.Add(skew).Before(exp)
}
