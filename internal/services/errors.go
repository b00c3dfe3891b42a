package services

import "errors"

var (
	// ErrRequestCancelled is returned when the caller's context was cancelled,
	// usually because a newer request superseded this one.
	ErrRequestCancelled = errors.New("request cancelled")

	// ErrRequestFailed covers network errors, non-2xx responses and bodies
	// that could not be read or decoded.
	ErrRequestFailed = errors.New("request failed")

	// ErrNotFound is returned when the catalog has no record for an id.
	ErrNotFound = errors.New("anime not found")

	// ErrEmptyQuery rejects a blank search before anything is sent.
	ErrEmptyQuery = errors.New("search query cannot be empty")
)
