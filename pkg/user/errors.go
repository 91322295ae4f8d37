package user

import "errors"

var (
	// ErrUserExists is returned by AddUser when the username is already taken.
	ErrUserExists = errors.New("ticketdb: user already exists")
	// ErrUserNotFound is returned when a referenced username has no account.
	ErrUserNotFound = errors.New("ticketdb: user not found")
	// ErrNotLoggedIn is returned when the acting user has no active session.
	ErrNotLoggedIn = errors.New("ticketdb: not logged in")
	// ErrAlreadyLoggedIn is returned by Login when the username already has
	// an active session.
	ErrAlreadyLoggedIn = errors.New("ticketdb: already logged in")
	// ErrPermissionDenied is returned when the acting user's privilege is
	// too low for the requested operation.
	ErrPermissionDenied = errors.New("ticketdb: permission denied")
	// ErrBadCredentials is returned by Login on a username/password mismatch.
	ErrBadCredentials = errors.New("ticketdb: bad credentials")
)
