package database

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/LLMtheism-AI/Ai-Religion-Agent/models"
)

func openTestStore(t *testing.T) (*Store, *sql.DB) {
	t.Helper()
	db, err := InitDB(filepath.Join(t.TempDir(), "bot.db"))
	if err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewStore(db), db
}

func TestLoadCreatesDefaultState(t *testing.T) {
	store, _ := openTestStore(t)
	now := time.Date(2025, 6, 11, 10, 0, 0, 0, time.UTC) // a Wednesday

	state, err := store.Load(context.Background(), now)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !state.LastPostTime.IsZero() {
		t.Errorf("expected zero LastPostTime, got %v", state.LastPostTime)
	}
	if state.PostsThisWeek != 0 || state.RepliesThisWeek != 0 {
		t.Errorf("expected zero counters, got %d/%d", state.PostsThisWeek, state.RepliesThisWeek)
	}
	wantWeek := time.Date(2025, 6, 8, 0, 0, 0, 0, time.UTC) // the preceding Sunday
	if !state.WeekStart.Equal(wantWeek) {
		t.Errorf("expected week start %v, got %v", wantWeek, state.WeekStart)
	}

	// A second load must return the same record, not create another.
	again, err := store.Load(context.Background(), now)
	if err != nil {
		t.Fatalf("second Load: %v", err)
	}
	if again.ID != state.ID {
		t.Errorf("expected one state record, got ids %d and %d", state.ID, again.ID)
	}
}

func TestLoadResetsCountersOnWeekRollover(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()

	lastWeek := time.Date(2025, 6, 4, 12, 0, 0, 0, time.UTC)
	if _, err := store.Load(ctx, lastWeek); err != nil {
		t.Fatalf("Load: %v", err)
	}

	// Consume some quota and advance the watermark during the old week.
	item := models.PublishedItem{ID: "42", Kind: models.KindSingle, Content: "old scripture", PostedAt: lastWeek}
	if err := store.RecordPublish(ctx, item, 1); err != nil {
		t.Fatalf("RecordPublish: %v", err)
	}
	if err := store.RecordReplies(ctx, "900", 2, lastWeek); err != nil {
		t.Fatalf("RecordReplies: %v", err)
	}

	nextWeek := time.Date(2025, 6, 9, 12, 0, 0, 0, time.UTC)
	state, err := store.Load(ctx, nextWeek)
	if err != nil {
		t.Fatalf("Load after rollover: %v", err)
	}
	if state.PostsThisWeek != 0 || state.RepliesThisWeek != 0 {
		t.Errorf("expected counters reset, got %d/%d", state.PostsThisWeek, state.RepliesThisWeek)
	}
	if !state.WeekStart.Equal(time.Date(2025, 6, 8, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("week start not advanced: %v", state.WeekStart)
	}
	// Rollover preserves everything that isn't a weekly counter.
	if !state.LastPostTime.Equal(lastWeek) {
		t.Errorf("LastPostTime not preserved: %v", state.LastPostTime)
	}
	if state.LastMentionID != "900" {
		t.Errorf("LastMentionID not preserved: %q", state.LastMentionID)
	}
	if len(state.RecentPosts) != 1 || state.RecentPosts[0] != "old scripture" {
		t.Errorf("RecentPosts not preserved: %v", state.RecentPosts)
	}
}

func TestRecordPublishCapsRecentPosts(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()
	now := time.Date(2025, 6, 11, 10, 0, 0, 0, time.UTC)
	if _, err := store.Load(ctx, now); err != nil {
		t.Fatalf("Load: %v", err)
	}

	texts := []string{"first", "second", "third", "fourth"}
	for i, text := range texts {
		item := models.PublishedItem{
			ID:       string(rune('a' + i)),
			Kind:     models.KindSingle,
			Content:  text,
			PostedAt: now.Add(time.Duration(i) * time.Hour),
		}
		if err := store.RecordPublish(ctx, item, 1); err != nil {
			t.Fatalf("RecordPublish %d: %v", i, err)
		}
	}

	state, err := store.Load(ctx, now)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := []string{"fourth", "third", "second"}
	if len(state.RecentPosts) != len(want) {
		t.Fatalf("expected %d recent posts, got %v", len(want), state.RecentPosts)
	}
	for i, w := range want {
		if state.RecentPosts[i] != w {
			t.Errorf("recent[%d] = %q, want %q", i, state.RecentPosts[i], w)
		}
	}
	if state.PostsThisWeek != 4 {
		t.Errorf("expected 4 posts this week, got %d", state.PostsThisWeek)
	}
}

func TestRecordPublishThreadCountsEachPost(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()
	now := time.Date(2025, 6, 11, 10, 0, 0, 0, time.UTC)
	if _, err := store.Load(ctx, now); err != nil {
		t.Fatalf("Load: %v", err)
	}

	item := models.PublishedItem{ID: "100", Kind: models.KindThread, Content: "a\nb\nc", PostedAt: now}
	if err := store.RecordPublish(ctx, item, 3); err != nil {
		t.Fatalf("RecordPublish: %v", err)
	}
	state, _ := store.Load(ctx, now)
	if state.PostsThisWeek != 3 {
		t.Errorf("expected thread to count 3 against quota, got %d", state.PostsThisWeek)
	}
}

func TestRecordPublishDuplicateIDIsNoOp(t *testing.T) {
	store, db := openTestStore(t)
	ctx := context.Background()
	now := time.Date(2025, 6, 11, 10, 0, 0, 0, time.UTC)
	if _, err := store.Load(ctx, now); err != nil {
		t.Fatalf("Load: %v", err)
	}

	item := models.PublishedItem{ID: "dup", Kind: models.KindSingle, Content: "once", PostedAt: now}
	if err := store.RecordPublish(ctx, item, 1); err != nil {
		t.Fatalf("first RecordPublish: %v", err)
	}
	if err := store.RecordPublish(ctx, item, 1); err != nil {
		t.Fatalf("second RecordPublish: %v", err)
	}

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM published_posts WHERE id = 'dup'`).Scan(&count); err != nil {
		t.Fatalf("count query: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 row for duplicate id, got %d", count)
	}
}

func TestStaleItemsSelection(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()
	now := time.Date(2025, 6, 11, 10, 0, 0, 0, time.UTC)
	if _, err := store.Load(ctx, now); err != nil {
		t.Fatalf("Load: %v", err)
	}

	fresh := models.PublishedItem{ID: "1", Kind: models.KindSingle, Content: "fresh", PostedAt: now.Add(-2 * time.Hour)}
	old := models.PublishedItem{ID: "2", Kind: models.KindSingle, Content: "old", PostedAt: now.Add(-48 * time.Hour)}
	synced := models.PublishedItem{ID: "3", Kind: models.KindSingle, Content: "synced", PostedAt: now.Add(-3 * time.Hour)}
	for _, it := range []models.PublishedItem{fresh, old, synced} {
		if err := store.RecordPublish(ctx, it, 1); err != nil {
			t.Fatalf("RecordPublish %s: %v", it.ID, err)
		}
	}
	if err := store.UpdateMetrics(ctx, "3", models.Engagement{Likes: 5}, now.Add(-time.Hour)); err != nil {
		t.Fatalf("UpdateMetrics: %v", err)
	}

	items, err := store.StaleItems(ctx, now, 24*time.Hour, 10)
	if err != nil {
		t.Fatalf("StaleItems: %v", err)
	}
	if len(items) != 1 || items[0].ID != "1" {
		t.Fatalf("expected only the unsynced recent item, got %v", items)
	}
	if items[0].Likes != nil {
		t.Errorf("expected nil Likes before first sync, got %v", *items[0].Likes)
	}

	// After syncing within the window the item drops out of the selection.
	if err := store.UpdateMetrics(ctx, "1", models.Engagement{Likes: 1, Reposts: 2, Replies: 3}, now); err != nil {
		t.Fatalf("UpdateMetrics: %v", err)
	}
	items, err = store.StaleItems(ctx, now, 24*time.Hour, 10)
	if err != nil {
		t.Fatalf("StaleItems after sync: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("expected no stale items after sync, got %v", items)
	}
}

func TestStampMetricsRun(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()
	now := time.Date(2025, 6, 11, 10, 0, 0, 0, time.UTC)
	if _, err := store.Load(ctx, now); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := store.StampMetricsRun(ctx, now); err != nil {
		t.Fatalf("StampMetricsRun: %v", err)
	}
	state, _ := store.Load(ctx, now)
	if !state.MetricsLastRun.Equal(now) {
		t.Errorf("expected MetricsLastRun %v, got %v", now, state.MetricsLastRun)
	}
}
