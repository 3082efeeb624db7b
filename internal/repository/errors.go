// Package repository defines error types that are reused across
// repositories.  These sentinel values allow higher layers such as the
// account service to distinguish between failure scenarios without
// looking at driver specific errors.
package repository

import "errors"

// ErrNotFound is returned when no row matches the lookup.  The service
// layer translates it into its own not-found or invalid-credentials result.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert violates the unique index on
// username or email.  The unique index is the final arbiter when two
// registrations race past the service's pre-check.
var ErrDuplicate = errors.New("duplicate entry")
