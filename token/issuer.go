package token

import (
	"crypto/rand"
	"encoding/hex"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const refreshTokenLength = 32 // 32 bytes = 256 bits

// Issuer signs and verifies HS256 access tokens
type Issuer struct {
	secret  []byte
	ttl     time.Duration
	nowTime func() time.Time
}

// IssuerOption defines a function type to modify the Issuer instance.
type IssuerOption func(*Issuer)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) IssuerOption {
	return func(i *Issuer) {
		i.nowTime = nowFunc
	}
}

// NewIssuer creates an Issuer signing with secret and stamping tokens with ttl
func NewIssuer(secret []byte, ttl time.Duration, options ...IssuerOption) (*Issuer, error) {
	if len(secret) == 0 {
		return nil, errors.New("[NewIssuer] secret is required")
	}
	if ttl <= 0 {
		return nil, errors.New("[NewIssuer] ttl must be positive")
	}
	i := &Issuer{secret: secret, ttl: ttl, nowTime: time.Now}
	for _, opt := range options {
		opt(i)
	}
	return i, nil
}

// Issue creates a signed access token for a user
func (i *Issuer) Issue(userID int64, username, role string) (string, error) {
	now := i.nowTime()
	claims := Claims{
		Username: username,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
			ID:        uuid.New().String(), // Unique token ID
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", errors.Wrap(err, "failed to sign token with HMAC")
	}
	return signed, nil
}

// Verify checks the signature and expiry of an access token and returns its claims
func (i *Issuer) Verify(rawToken string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(rawToken, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(i.nowTime), jwt.WithExpirationRequired())
	if err != nil {
		return nil, errors.Wrap(err, "[Issuer.Verify]")
	}
	if !parsed.Valid {
		return nil, errors.New("[Issuer.Verify] token invalid")
	}
	return claims, nil
}

// NewRefreshToken generates an opaque random refresh token
func NewRefreshToken() (string, error) {
	tokenBytes := make([]byte, refreshTokenLength)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", errors.Wrap(err, "failed to generate random bytes")
	}
	return hex.EncodeToString(tokenBytes), nil
}
