package domain

import (
	"errors"
	"time"
)

// MaxUsernameLength is the maximum number of characters in a username.
const MaxUsernameLength = 50

// MaxPasswordBytes is the longest password the hasher accepts.
const MaxPasswordBytes = 72

var (
	// ErrUserAlreadyExists is returned when trying to create a user with an existing username.
	ErrUserAlreadyExists = errors.New("user already exists")
	// ErrUserNotFound is returned when looking up a non-existent user.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidCredentials is returned when the username/password combination is incorrect.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrMissingCredentials is returned when a username or password is empty.
	ErrMissingCredentials = errors.New("missing credentials")
	// ErrUsernameTooLong is returned when a username exceeds MaxUsernameLength.
	ErrUsernameTooLong = errors.New("username too long")
	// ErrPasswordTooLong is returned when a password exceeds MaxPasswordBytes.
	ErrPasswordTooLong = errors.New("password too long")
)

// Identity is implemented by anything that can be authenticated.
type Identity interface {
	UserID() int64
}

// User represents a registered account in the system.
type User struct {
	ID           int64     // Unique identifier
	Username     string    // Login username
	PasswordHash []byte    // Hashed password
	CreatedAt    time.Time // Account creation time (UTC)
}

var _ Identity = (*User)(nil)

// UserID implements Identity.
func (u *User) UserID() int64 {
	return u.ID
}
