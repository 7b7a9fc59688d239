package domain

import (
	"errors"
	"time"
)

var ErrInvalidMood = errors.New("mood must be between 1 and 5")

// JournalEntry is a single mood-journal note.
type JournalEntry struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Mood      int       `json:"mood"`
	Note      string    `json:"note"`
	Tags      []string  `json:"tags"`
	CreatedAt time.Time `json:"created_at"`
}

// ValidMood reports whether m is on the 1..5 scale.
func ValidMood(m int) bool {
	return m >= 1 && m <= 5
}
