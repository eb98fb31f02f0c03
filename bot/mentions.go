package bot

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/LLMtheism-AI/Ai-Religion-Agent/models"
	"github.com/LLMtheism-AI/Ai-Religion-Agent/twitter"
	"github.com/LLMtheism-AI/Ai-Religion-Agent/utils"
)

// fillerPatterns match the conversational preambles the generator likes to
// put in front of a reply. They are stripped repeatedly until none match.
var fillerPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^(sure|certainly|of course|absolutely|got it|okay|ok)[,!.:]?\s+`),
	regexp.MustCompile(`(?i)^here(?:'s| is) (?:a |my |the )?(?:reply|response|answer|tweet)[:,.]?\s*`),
	regexp.MustCompile(`(?i)^(?:great|good) question[,!.:]?\s*`),
}

// normalizeReply strips leading filler phrases and caps the reply to the
// platform limit.
func normalizeReply(text string) string {
	text = strings.TrimSpace(text)
	for {
		stripped := text
		for _, p := range fillerPatterns {
			stripped = p.ReplaceAllString(stripped, "")
		}
		stripped = strings.TrimSpace(stripped)
		if stripped == text {
			break
		}
		text = stripped
	}
	return truncate(text, twitter.PostMaxLen)
}

// mentionIDLess orders two platform mention ids. Ids are decimal snowflakes,
// so both sides normally parse as integers and compare numerically; if
// either does not, a longer decimal string still means a larger id, with
// lexical order breaking ties.
func mentionIDLess(a, b string) bool {
	ai, errA := strconv.ParseUint(a, 10, 64)
	bi, errB := strconv.ParseUint(b, 10, 64)
	if errA == nil && errB == nil {
		return ai < bi
	}
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}

// runReplies is the mention-responder stage. It fetches mentions past the
// stored watermark, replies to up to the per-run cap, and advances the
// watermark to the greatest id among the mentions that were successfully
// replied to. One state write happens after the loop, and only when at
// least one reply went out.
func (r *Runner) runReplies(ctx context.Context, state *models.BotState, report *models.RunReport) {
	allowed, reason := ReplyGate(state.RepliesThisWeek, r.cfg.MaxRepliesPerWeek, r.cfg.RepliesPerRun)
	if allowed == 0 {
		utils.Info("mentions", "gate", "skipping: "+reason)
		return
	}

	mentions, err := r.platform.FetchMentions(ctx, state.LastMentionID, allowed)
	if err != nil {
		utils.Error("mentions", "fetch", err.Error())
		return
	}
	if len(mentions) == 0 {
		utils.Info("mentions", "fetch", "no new mentions")
		return
	}

	sent := 0
	watermark := state.LastMentionID
	for _, m := range mentions {
		if sent >= allowed {
			break
		}

		raw, err := r.brain.GenerateReply(ctx, m.Text)
		if err != nil {
			utils.Warn("mentions", "generate", fmt.Sprintf("skipping %s: %v", m.ID, err))
			continue
		}
		reply := normalizeReply(raw)
		if reply == "" {
			utils.Warn("mentions", "generate", "empty reply for "+m.ID)
			continue
		}

		if _, err := r.platform.PostReply(ctx, m.ID, reply); err != nil {
			utils.Warn("mentions", "reply", fmt.Sprintf("skipping %s: %v", m.ID, err))
			continue
		}

		sent++
		if watermark == "" || mentionIDLess(watermark, m.ID) {
			watermark = m.ID
		}
	}

	if sent == 0 {
		return
	}

	if err := r.store.RecordReplies(ctx, watermark, sent, r.now()); err != nil {
		report.RepliesSent = sent
		report.Errors = append(report.Errors,
			fmt.Sprintf("%d replies are live but state update failed: %v", sent, err))
		utils.Error("mentions", "record", report.Errors[len(report.Errors)-1])
		return
	}

	state.LastMentionID = watermark
	state.RepliesThisWeek += sent
	report.RepliesSent = sent
	utils.Info("mentions", "reply", fmt.Sprintf("sent %d replies, watermark %s", sent, watermark))
}
