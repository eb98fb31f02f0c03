package bot

import (
	"github.com/LLMtheism-AI/Ai-Religion-Agent/models"
	"github.com/LLMtheism-AI/Ai-Religion-Agent/utils"
)

// finishReport fills in the weekly consumption figures and delivers the
// summary. Purely observational; it never mutates persistent state.
func (r *Runner) finishReport(state *models.BotState, report *models.RunReport) {
	report.PostsThisWeek = state.PostsThisWeek
	report.RepliesThisWeek = state.RepliesThisWeek
	utils.Summary(report.Summary(), report.Failed())
}
