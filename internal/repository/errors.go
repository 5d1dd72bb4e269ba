// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios. For
// example, ErrNotFound indicates that a requested user or attendance
// row does not exist, while ErrConflict signals that an operation
// cannot proceed because of conflicting existing state.
package repository

import "errors"

// ErrNotFound is returned when a lookup or mutation matches no row.
// Handlers should translate this into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when an insert cannot be performed because
// of conflicting state, such as a duplicate attendance record for one
// user and day. Handlers should translate this into an HTTP 409
// response.
var ErrConflict = errors.New("conflict")
