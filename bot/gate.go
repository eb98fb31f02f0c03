package bot

import (
	"fmt"
	"time"
)

// Decision is the outcome of a gate check. Reason is human-readable and
// only set on skip.
type Decision struct {
	Proceed bool
	Reason  string
}

// PostGate decides whether a post may happen now. Both the minimum
// inter-post interval and the weekly quota must allow it. A zero
// lastPostTime (never posted) always satisfies the interval check.
func PostGate(now, lastPostTime time.Time, postsThisWeek int, minInterval time.Duration, maxPosts int) Decision {
	if !lastPostTime.IsZero() {
		if elapsed := now.Sub(lastPostTime); elapsed < minInterval {
			return Decision{Reason: fmt.Sprintf("next post in %.1fh", (minInterval - elapsed).Hours())}
		}
	}
	if postsThisWeek >= maxPosts {
		return Decision{Reason: fmt.Sprintf("weekly post quota exhausted (%d/%d)", postsThisWeek, maxPosts)}
	}
	return Decision{Proceed: true}
}

// ReplyGate returns how many replies may be sent this run, bounded by both
// the remaining weekly quota and the per-run cap. A zero result carries the
// skip reason.
func ReplyGate(repliesThisWeek, maxReplies, perRunCap int) (int, string) {
	remaining := maxReplies - repliesThisWeek
	if remaining <= 0 {
		return 0, fmt.Sprintf("weekly reply quota exhausted (%d/%d)", repliesThisWeek, maxReplies)
	}
	if perRunCap < remaining {
		return perRunCap, ""
	}
	return remaining, ""
}
