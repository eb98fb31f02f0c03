package database

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3" // Import the SQLite3 driver
)

// InitDB initializes the database connection. It takes the database path as input.
func InitDB(dbPath string) (*sql.DB, error) {
	// Ensure the directory for the database file exists.
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Open the SQLite database. It will be created if it doesn't exist.
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Ping the database to verify the connection.
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	log.Println("Successfully connected to the database at", dbPath)
	return db, nil
}

// createTables creates the bot_state and published_posts tables if they
// don't exist. Timestamps are epoch milliseconds; 0 means never.
func createTables(db *sql.DB) error {
	stateQuery := `
    CREATE TABLE IF NOT EXISTS bot_state (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        last_post_time INTEGER NOT NULL DEFAULT 0,
        last_mention_id TEXT,
        posts_this_week INTEGER NOT NULL DEFAULT 0,
        replies_this_week INTEGER NOT NULL DEFAULT 0,
        week_start INTEGER NOT NULL,
        recent_posts TEXT NOT NULL DEFAULT '[]',
        metrics_last_run INTEGER NOT NULL DEFAULT 0,
        updated_at INTEGER NOT NULL
    );`
	if _, err := db.Exec(stateQuery); err != nil {
		return fmt.Errorf("failed to create bot_state table: %w", err)
	}

	postsQuery := `
    CREATE TABLE IF NOT EXISTS published_posts (
        id TEXT PRIMARY KEY,
        kind TEXT NOT NULL,
        content TEXT NOT NULL,
        posted_at INTEGER NOT NULL,
        likes INTEGER,
        reposts INTEGER,
        replies INTEGER,
        last_metrics_sync INTEGER
    );`
	if _, err := db.Exec(postsQuery); err != nil {
		return fmt.Errorf("failed to create published_posts table: %w", err)
	}

	return nil
}
