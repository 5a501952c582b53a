package sec

import (
	"crypto/subtle"

	"golang.org/x/crypto/bcrypt"
)

// ComparePassword returns an error if the provided password does not resolve to
// the given hash.
func ComparePassword[T ~string | ~[]byte](password T, hash []byte) error {
	return bcrypt.CompareHashAndPassword(hash, []byte(password))
}

// HashPassword generates the hash for a given password. It errors if the
// password is longer than 72 bytes.
func HashPassword[T ~string | ~[]byte](password T) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
}

// Credentials are the login details of the single administrator.
type Credentials struct {
	username string
	hash     []byte
}

// NewCredentials creates the admin Credentials from a username and a bcrypt
// password hash.
func NewCredentials(username string, hash []byte) *Credentials {
	return &Credentials{username: username, hash: hash}
}

// Username returns the admin username.
func (c *Credentials) Username() string {
	return c.username
}

// Check verifies a login attempt. The password hash is only compared when the
// username matches the admin. Any failure, including missing fields, returns
// [ErrInvalidCredentials].
func (c *Credentials) Check(username, password string) (Identity, error) {
	if username == "" || password == "" {
		return Identity{}, ErrInvalidCredentials
	}
	if subtle.ConstantTimeCompare([]byte(username), []byte(c.username)) != 1 {
		return Identity{}, ErrInvalidCredentials
	}
	if err := ComparePassword(password, c.hash); err != nil {
		return Identity{}, ErrInvalidCredentials
	}
	return Identity{Username: c.username}, nil
}
