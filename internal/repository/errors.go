package repository

import "errors"

var (
	// ErrNotFound is returned when the requested document doesn't exist
	ErrNotFound = errors.New("not found")
)
