package service

import "errors"

var (
	// ErrDuplicateAccount means the username or email is already taken.
	ErrDuplicateAccount = errors.New("email or username already exists")
	// ErrInvalidCredentials covers both an unknown email and a wrong
	// password; callers cannot and must not tell the two apart.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrNotFound is returned by GetProfile when no account backs the id.
	ErrNotFound = errors.New("user not found")
)
