package domain

import "time"

// SavedLocation is a user's home zip code, used as the fallback when a
// request or subscription does not name one.
type SavedLocation struct {
	UserID    int64
	Zip       string
	UpdatedAt time.Time
}
