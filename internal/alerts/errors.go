package alerts

import "errors"

// Validation errors.
var (
	ErrInvalidSeverity = errors.New("minimum severity must be advisory, watch or warning")
	ErrInvalidZip      = errors.New("zip code must be exactly 5 digits")
)
