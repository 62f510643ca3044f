package model

import "errors"

// Common errors used across the application
var (
	// ErrPlayerNotFound is returned for an id the lobby does not know
	ErrPlayerNotFound = errors.New("player not found")

	// ErrMalformedUpdate is returned for updates with missing or invalid fields
	ErrMalformedUpdate = errors.New("malformed update")
)
