// Package bot implements the per-invocation orchestration pipeline:
// load state, gate, generate, publish, reply to mentions, refresh
// metrics, report.
package bot

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/LLMtheism-AI/Ai-Religion-Agent/config"
	"github.com/LLMtheism-AI/Ai-Religion-Agent/models"
	"github.com/LLMtheism-AI/Ai-Religion-Agent/utils"
)

// Brain generates post and reply text. Implementations give no format
// guarantee beyond best effort; the pipeline normalizes and validates
// everything it gets back.
type Brain interface {
	GeneratePost(ctx context.Context, recentPosts []string) (string, error)
	GenerateReply(ctx context.Context, mentionText string) (string, error)
}

// Platform is the social platform the bot publishes to. An error from any
// method means the operation did not happen.
type Platform interface {
	PostTweet(ctx context.Context, text string) (string, error)
	PostReply(ctx context.Context, parentID, text string) (string, error)
	PostThread(ctx context.Context, texts []string) ([]string, error)
	FetchMentions(ctx context.Context, sinceID string, limit int) ([]models.Mention, error)
	FetchEngagement(ctx context.Context, tweetID string) (models.Engagement, error)
}

// Store owns the persistent bot state and published-item records. Writes
// are only issued after the external side effect they record has succeeded.
type Store interface {
	Load(ctx context.Context, now time.Time) (models.BotState, error)
	RecordPublish(ctx context.Context, item models.PublishedItem, postCount int) error
	RecordReplies(ctx context.Context, watermark string, count int, now time.Time) error
	UpdateMetrics(ctx context.Context, itemID string, eng models.Engagement, syncedAt time.Time) error
	StaleItems(ctx context.Context, now time.Time, window time.Duration, limit int) ([]models.PublishedItem, error)
	StampMetricsRun(ctx context.Context, now time.Time) error
}

// Runner executes one pipeline invocation at a time. The external
// scheduler is expected to trigger runs serially; a cheap reentrancy
// guard turns an overlapping trigger into a no-op run.
type Runner struct {
	store    Store
	brain    Brain
	platform Platform
	cfg      config.Bot
	now      func() time.Time
	running  atomic.Bool
}

// NewRunner wires the pipeline to its collaborators.
func NewRunner(store Store, brain Brain, platform Platform, cfg config.Bot) *Runner {
	return &Runner{
		store:    store,
		brain:    brain,
		platform: platform,
		cfg:      cfg,
		now:      time.Now,
	}
}

// Run executes the full pipeline once and always returns a report, even
// when every stage reports that nothing happened. Stage failures are
// converted to skip outcomes; nothing escapes as a panic or a returned
// error.
func (r *Runner) Run(ctx context.Context) *models.RunReport {
	now := r.now()
	report := &models.RunReport{
		RunID:           uuid.NewString()[:8],
		StartedAt:       now,
		MaxPostsPerWeek: r.cfg.MaxPostsPerWeek,
		MaxRepliesWeek:  r.cfg.MaxRepliesPerWeek,
	}

	if !r.running.CompareAndSwap(false, true) {
		report.PostSkipReason = "previous run still in progress"
		utils.Warn("runner", "run", "overlapping invocation, skipping")
		return report
	}
	defer r.running.Store(false)

	state, err := r.store.Load(ctx, now)
	if err != nil {
		// Proceed as if no prior state existed. A transient read failure
		// should not stop the run; the accepted risk is re-initializing
		// counters once.
		utils.Warn("state", "load", "falling back to fresh state: "+err.Error())
		state = models.BotState{WeekStart: models.WeekStart(now)}
	}

	r.runPublish(ctx, &state, report)
	r.runReplies(ctx, &state, report)
	r.runMetrics(ctx, &state, report)
	r.finishReport(&state, report)

	return report
}
