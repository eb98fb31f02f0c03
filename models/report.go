package models

import (
	"fmt"
	"strings"
	"time"
)

// RunReport summarizes what one invocation of the pipeline did. It is
// purely observational; building it never fails.
type RunReport struct {
	RunID            string
	StartedAt        time.Time
	Posted           bool
	PostSkipReason   string
	RepliesSent      int
	MetricsRefreshed int
	PostsThisWeek    int
	MaxPostsPerWeek  int
	RepliesThisWeek  int
	MaxRepliesWeek   int
	Errors           []string
}

// Failed reports whether anything went wrong that the operator should see.
func (r *RunReport) Failed() bool {
	return len(r.Errors) > 0
}

// Summary renders the human-readable run summary.
func (r *RunReport) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "run %s complete\n", r.RunID)
	if r.Posted {
		b.WriteString("posted: yes\n")
	} else if r.PostSkipReason != "" {
		fmt.Fprintf(&b, "posted: no (%s)\n", r.PostSkipReason)
	} else {
		b.WriteString("posted: no\n")
	}
	fmt.Fprintf(&b, "replies sent: %d\n", r.RepliesSent)
	fmt.Fprintf(&b, "metrics refreshed: %d\n", r.MetricsRefreshed)
	fmt.Fprintf(&b, "budget: posts %d/%d, replies %d/%d, total %d/%d",
		r.PostsThisWeek, r.MaxPostsPerWeek,
		r.RepliesThisWeek, r.MaxRepliesWeek,
		r.PostsThisWeek+r.RepliesThisWeek, r.MaxPostsPerWeek+r.MaxRepliesWeek)
	for _, e := range r.Errors {
		fmt.Fprintf(&b, "\nerror: %s", e)
	}
	return b.String()
}
