package bot

import (
	"context"
	"errors"
	"fmt"

	"github.com/LLMtheism-AI/Ai-Religion-Agent/models"
	"github.com/LLMtheism-AI/Ai-Religion-Agent/utils"
)

// runPublish is the generate-and-post stage. Only a confirmed platform
// publish mutates persistent state; any earlier exit leaves state
// untouched.
func (r *Runner) runPublish(ctx context.Context, state *models.BotState, report *models.RunReport) {
	dec := PostGate(r.now(), state.LastPostTime, state.PostsThisWeek, r.cfg.PostInterval, r.cfg.MaxPostsPerWeek)
	if !dec.Proceed {
		report.PostSkipReason = dec.Reason
		utils.Info("publisher", "gate", "skipping: "+dec.Reason)
		return
	}

	cand, attempts, err := attemptGenerate(ctx, r.brain, state.RecentPosts, r.cfg.GenerateAttempts)
	if errors.Is(err, ErrExhausted) {
		report.PostSkipReason = fmt.Sprintf("no unique content after %d attempts", attempts)
		utils.Warn("publisher", "generate", report.PostSkipReason)
		return
	}
	if err != nil {
		report.PostSkipReason = "generation failed"
		utils.Error("publisher", "generate", err.Error())
		return
	}
	if attempts > 1 {
		utils.Info("publisher", "generate", fmt.Sprintf("accepted candidate on attempt %d", attempts))
	}

	now := r.now()
	var ids []string
	if cand.IsThread() {
		ids, err = r.platform.PostThread(ctx, cand.Parts)
	} else {
		var id string
		id, err = r.platform.PostTweet(ctx, cand.Parts[0])
		ids = []string{id}
	}
	if err != nil {
		report.PostSkipReason = "platform publish failed"
		utils.Error("publisher", "post", err.Error())
		return
	}

	item := models.PublishedItem{
		ID:       ids[0],
		Kind:     cand.Kind(),
		Content:  cand.Content(),
		PostedAt: now,
	}
	if err := r.store.RecordPublish(ctx, item, len(ids)); err != nil {
		// The content is live but unrecorded. Surface it; never try to
		// delete the post to compensate.
		report.Posted = true
		report.Errors = append(report.Errors,
			fmt.Sprintf("post %s is live but state update failed: %v", item.ID, err))
		utils.Error("publisher", "record", report.Errors[len(report.Errors)-1])
		return
	}

	report.Posted = true
	state.LastPostTime = now
	state.PostsThisWeek += len(ids)
	state.RecentPosts = append([]string{item.Content}, state.RecentPosts...)
	if len(state.RecentPosts) > models.RecentPostLimit {
		state.RecentPosts = state.RecentPosts[:models.RecentPostLimit]
	}
	utils.Info("publisher", "post", fmt.Sprintf("published %s %s (%d/%d this week)",
		item.Kind, item.ID, state.PostsThisWeek, r.cfg.MaxPostsPerWeek))
}
