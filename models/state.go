package models

import "time"

// RecentPostLimit is how many previously published texts are kept on the
// state record for duplicate detection. Oldest entries drop off.
const RecentPostLimit = 3

// BotState is the single persistent state record for the bot account.
// All timestamps are stored as epoch milliseconds in the database; a zero
// time means "never".
type BotState struct {
	ID              int64
	LastPostTime    time.Time
	LastMentionID   string
	PostsThisWeek   int
	RepliesThisWeek int
	WeekStart       time.Time
	RecentPosts     []string
	MetricsLastRun  time.Time
}

// PostKind distinguishes a standalone post from a multi-post thread.
type PostKind string

const (
	KindSingle PostKind = "single"
	KindThread PostKind = "thread"
)

// PublishedItem is one confirmed publish. For threads the ID is the
// platform id of the root post and Content is the concatenation of all
// parts, which is what duplicate detection compares against.
type PublishedItem struct {
	ID              string
	Kind            PostKind
	Content         string
	PostedAt        time.Time
	Likes           *int
	Reposts         *int
	Replies         *int
	LastMetricsSync *time.Time
}

// Engagement holds the counters fetched from the platform for one item.
type Engagement struct {
	Likes   int
	Reposts int
	Replies int
}

// WeekStart returns 00:00 UTC on the Sunday of the week containing t,
// the boundary at which the weekly counters reset.
func WeekStart(t time.Time) time.Time {
	t = t.UTC()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return day.AddDate(0, 0, -int(day.Weekday()))
}
