package bot

import (
	"context"
	"fmt"

	"github.com/LLMtheism-AI/Ai-Religion-Agent/models"
	"github.com/LLMtheism-AI/Ai-Religion-Agent/utils"
)

// runMetrics refreshes engagement counters for recently published items on
// a coarse cadence. Per-item failures are skipped; the cadence stamp is
// written exactly once per pass regardless of how many fetches succeeded.
func (r *Runner) runMetrics(ctx context.Context, state *models.BotState, report *models.RunReport) {
	now := r.now()
	if !state.MetricsLastRun.IsZero() && now.Sub(state.MetricsLastRun) < r.cfg.MetricsInterval {
		return
	}

	items, err := r.store.StaleItems(ctx, now, r.cfg.MetricsWindow, r.cfg.MetricsBatch)
	if err != nil {
		// Nothing was attempted, so leave the cadence stamp alone and
		// let the next run retry.
		utils.Error("metrics", "select", err.Error())
		return
	}

	refreshed := 0
	for _, item := range items {
		eng, err := r.platform.FetchEngagement(ctx, item.ID)
		if err != nil {
			utils.Warn("metrics", "fetch", fmt.Sprintf("skipping %s: %v", item.ID, err))
			continue
		}
		if err := r.store.UpdateMetrics(ctx, item.ID, eng, now); err != nil {
			utils.Warn("metrics", "update", fmt.Sprintf("skipping %s: %v", item.ID, err))
			continue
		}
		refreshed++
	}

	if err := r.store.StampMetricsRun(ctx, now); err != nil {
		utils.Error("metrics", "stamp", err.Error())
	} else {
		state.MetricsLastRun = now
	}

	report.MetricsRefreshed = refreshed
	if len(items) > 0 {
		utils.Info("metrics", "refresh", fmt.Sprintf("refreshed %d/%d items", refreshed, len(items)))
	}
}
