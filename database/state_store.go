package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/LLMtheism-AI/Ai-Religion-Agent/models"
)

// Store owns all reads and writes of the bot_state and published_posts
// tables. Every other component goes through it; callers receive value
// copies and never hold a live reference across an external side effect.
type Store struct {
	db *sql.DB
}

// NewStore wraps an initialized database handle.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Load returns the current bot state, creating a default record if none
// exists. If the stored week start is older than the week containing now,
// both weekly counters are reset and the week start advanced before the
// state is returned.
func (s *Store) Load(ctx context.Context, now time.Time) (models.BotState, error) {
	currentWeek := models.WeekStart(now)

	row := s.db.QueryRowContext(ctx, `
        SELECT id, last_post_time, last_mention_id, posts_this_week,
               replies_this_week, week_start, recent_posts, metrics_last_run
        FROM bot_state ORDER BY id DESC LIMIT 1`)

	var (
		state       models.BotState
		lastPost    int64
		mentionID   sql.NullString
		weekStart   int64
		recentJSON  string
		metricsLast int64
	)
	err := row.Scan(&state.ID, &lastPost, &mentionID, &state.PostsThisWeek,
		&state.RepliesThisWeek, &weekStart, &recentJSON, &metricsLast)
	if err == sql.ErrNoRows {
		return s.createInitialState(ctx, now, currentWeek)
	}
	if err != nil {
		return models.BotState{}, fmt.Errorf("failed to load bot state: %w", err)
	}

	state.LastPostTime = fromMillis(lastPost)
	state.LastMentionID = mentionID.String
	state.WeekStart = fromMillis(weekStart)
	state.MetricsLastRun = fromMillis(metricsLast)
	if err := json.Unmarshal([]byte(recentJSON), &state.RecentPosts); err != nil {
		log.Printf("Failed to parse recent_posts, using empty list: %v", err)
		state.RecentPosts = nil
	}

	if state.WeekStart.Before(currentWeek) {
		_, err := s.db.ExecContext(ctx, `
            UPDATE bot_state
            SET posts_this_week = 0, replies_this_week = 0, week_start = ?, updated_at = ?
            WHERE id = ?`,
			toMillis(currentWeek), toMillis(now), state.ID)
		if err != nil {
			return models.BotState{}, fmt.Errorf("failed to reset weekly counters: %w", err)
		}
		state.PostsThisWeek = 0
		state.RepliesThisWeek = 0
		state.WeekStart = currentWeek
	}

	return state, nil
}

func (s *Store) createInitialState(ctx context.Context, now, weekStart time.Time) (models.BotState, error) {
	res, err := s.db.ExecContext(ctx, `
        INSERT INTO bot_state (last_post_time, last_mention_id, posts_this_week,
                               replies_this_week, week_start, recent_posts,
                               metrics_last_run, updated_at)
        VALUES (0, NULL, 0, 0, ?, '[]', 0, ?)`,
		toMillis(weekStart), toMillis(now))
	if err != nil {
		return models.BotState{}, fmt.Errorf("failed to create initial bot state: %w", err)
	}
	id, _ := res.LastInsertId()
	return models.BotState{ID: id, WeekStart: weekStart}, nil
}

// RecordPublish inserts the published item and updates last_post_time,
// posts_this_week and recent_posts as one unit. A duplicate item id is a
// no-op for the published_posts table. postCount is the number of platform
// posts actually created, so a thread counts each part against the quota.
func (s *Store) RecordPublish(ctx context.Context, item models.PublishedItem, postCount int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin publish transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
        INSERT OR IGNORE INTO published_posts (id, kind, content, posted_at)
        VALUES (?, ?, ?, ?)`,
		item.ID, string(item.Kind), item.Content, toMillis(item.PostedAt))
	if err != nil {
		return fmt.Errorf("failed to insert published post %s: %w", item.ID, err)
	}

	var recentJSON string
	err = tx.QueryRowContext(ctx,
		`SELECT recent_posts FROM bot_state ORDER BY id DESC LIMIT 1`).Scan(&recentJSON)
	if err != nil {
		return fmt.Errorf("failed to read recent posts: %w", err)
	}
	var recent []string
	if err := json.Unmarshal([]byte(recentJSON), &recent); err != nil {
		recent = nil
	}
	recent = append([]string{item.Content}, recent...)
	if len(recent) > models.RecentPostLimit {
		recent = recent[:models.RecentPostLimit]
	}
	updated, err := json.Marshal(recent)
	if err != nil {
		return fmt.Errorf("failed to encode recent posts: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
        UPDATE bot_state
        SET last_post_time = ?, posts_this_week = posts_this_week + ?,
            recent_posts = ?, updated_at = ?
        WHERE id = (SELECT id FROM bot_state ORDER BY id DESC LIMIT 1)`,
		toMillis(item.PostedAt), postCount, string(updated), toMillis(item.PostedAt))
	if err != nil {
		return fmt.Errorf("failed to update bot state after publish: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit publish record: %w", err)
	}
	return nil
}

// RecordReplies advances the mention watermark and adds count to the weekly
// reply counter as one unit.
func (s *Store) RecordReplies(ctx context.Context, watermark string, count int, now time.Time) error {
	_, err := s.db.ExecContext(ctx, `
        UPDATE bot_state
        SET last_mention_id = ?, replies_this_week = replies_this_week + ?, updated_at = ?
        WHERE id = (SELECT id FROM bot_state ORDER BY id DESC LIMIT 1)`,
		watermark, count, toMillis(now))
	if err != nil {
		return fmt.Errorf("failed to record replies: %w", err)
	}
	return nil
}

// UpdateMetrics writes engagement counters and the sync timestamp for one
// published item.
func (s *Store) UpdateMetrics(ctx context.Context, itemID string, eng models.Engagement, syncedAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
        UPDATE published_posts
        SET likes = ?, reposts = ?, replies = ?, last_metrics_sync = ?
        WHERE id = ?`,
		eng.Likes, eng.Reposts, eng.Replies, toMillis(syncedAt), itemID)
	if err != nil {
		return fmt.Errorf("failed to update metrics for %s: %w", itemID, err)
	}
	return nil
}

// StaleItems returns up to limit published items posted within the window
// before now whose metrics have never been synced or were synced before the
// same window. Newest first.
func (s *Store) StaleItems(ctx context.Context, now time.Time, window time.Duration, limit int) ([]models.PublishedItem, error) {
	cutoff := toMillis(now.Add(-window))
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, kind, content, posted_at, likes, reposts, replies, last_metrics_sync
        FROM published_posts
        WHERE posted_at >= ? AND (last_metrics_sync IS NULL OR last_metrics_sync < ?)
        ORDER BY posted_at DESC LIMIT ?`,
		cutoff, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query stale items: %w", err)
	}
	defer rows.Close()

	var items []models.PublishedItem
	for rows.Next() {
		var (
			item     models.PublishedItem
			kind     string
			postedAt int64
			likes    sql.NullInt64
			reposts  sql.NullInt64
			replies  sql.NullInt64
			synced   sql.NullInt64
		)
		if err := rows.Scan(&item.ID, &kind, &item.Content, &postedAt,
			&likes, &reposts, &replies, &synced); err != nil {
			return nil, fmt.Errorf("failed to scan published post: %w", err)
		}
		item.Kind = models.PostKind(kind)
		item.PostedAt = fromMillis(postedAt)
		if likes.Valid {
			v := int(likes.Int64)
			item.Likes = &v
		}
		if reposts.Valid {
			v := int(reposts.Int64)
			item.Reposts = &v
		}
		if replies.Valid {
			v := int(replies.Int64)
			item.Replies = &v
		}
		if synced.Valid {
			t := fromMillis(synced.Int64)
			item.LastMetricsSync = &t
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// StampMetricsRun records that a metrics refresh pass completed at now.
func (s *Store) StampMetricsRun(ctx context.Context, now time.Time) error {
	_, err := s.db.ExecContext(ctx, `
        UPDATE bot_state SET metrics_last_run = ?, updated_at = ?
        WHERE id = (SELECT id FROM bot_state ORDER BY id DESC LIMIT 1)`,
		toMillis(now), toMillis(now))
	if err != nil {
		return fmt.Errorf("failed to stamp metrics run: %w", err)
	}
	return nil
}

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
