package auth

import (
	"errors"
)

// Error definitions
var (
	// ErrMissingUsername credentials were constructed without a username
	ErrMissingUsername = errors.New("username is required")
	// ErrMissingPassword credentials were constructed without a password
	ErrMissingPassword = errors.New("password is required")
)

// Credentials holds one account's login pair. It is immutable after
// construction and deliberately has no Stringer that exposes the secret:
// formatting a Credentials value prints a redacted placeholder.
type Credentials struct {
	username string
	password string
}

// NewCredentials validates and wraps a username/password pair.
// Empty values are a configuration error reported at startup, never at
// poll time.
func NewCredentials(username, password string) (*Credentials, error) {
	if username == "" {
		return nil, ErrMissingUsername
	}
	if password == "" {
		return nil, ErrMissingPassword
	}
	return &Credentials{
		username: username,
		password: password,
	}, nil
}

// Username returns the account username.
func (c *Credentials) Username() string {
	return c.username
}

// Password returns the account password.
func (c *Credentials) Password() string {
	return c.password
}

// String implements fmt.Stringer with the password redacted so credentials
// can never leak through logging.
func (c *Credentials) String() string {
	return "Credentials{username:" + c.username + ", password:***}"
}
