package auth

// Remote endpoints the session lifecycle depends on
const (
	LoginPath   = "/v1/public/auth/login"
	ProfilePath = "/v1/public/auth/profile"
	RefreshPath = "/auth/refresh"
)

// Credentials are submitted once to the login endpoint and never stored.
type Credentials struct {
	// Username is the login name of the console user.
	// Required: Yes
	Username string `json:"username" validate:"required"`

	// Password is sent as entered; the API compares it against its own hash.
	// Required: Yes
	Password string `json:"password" validate:"required"`
}

// LoginResponse is the body of a successful login exchange
type LoginResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// RefreshRequest is the body sent to the refresh endpoint
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// RefreshResponse carries the replacement access token. The refresh token
// is not rotated.
type RefreshResponse struct {
	AccessToken string `json:"accessToken"`
}
