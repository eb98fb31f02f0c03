package models

import "time"

// Mention is one tweet mentioning the bot account, as returned by the
// platform mention timeline (newest first).
type Mention struct {
	ID             string
	Text           string
	AuthorID       string
	AuthorUsername string
	CreatedAt      time.Time
}
