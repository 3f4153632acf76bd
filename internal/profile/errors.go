package profile

import "errors"

// Repository errors.
var (
	ErrLocationNotFound = errors.New("saved location not found")
	ErrNoteNotFound     = errors.New("note not found")
)

// Validation errors.
var (
	ErrInvalidZip = errors.New("zip code must be 5 digits")
)
