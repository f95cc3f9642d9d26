// Package history provides the append-only conversation log, backed by SQLite.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/wattmonk/ragchat/internal/models"
)

// Store persists conversation turns.
type Store interface {
	Append(ctx context.Context, turn *models.ConversationTurn) error
	Recent(ctx context.Context, limit int) ([]*models.ConversationTurn, error)
	Clear(ctx context.Context) error
	Count(ctx context.Context) (int64, error)
	Close() error
}

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates a SQLite database at dbPath and initializes
// the schema. Parent directories are created if they do not exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS conversation_turns (
		id TEXT PRIMARY KEY,
		role TEXT NOT NULL,
		text TEXT NOT NULL,
		intent TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_turns_created_at ON conversation_turns(created_at);
	`
	_, err := db.Exec(schema)
	return err
}

// Append inserts a turn. A missing ID or timestamp is filled in.
func (s *SQLiteStore) Append(ctx context.Context, turn *models.ConversationTurn) error {
	if turn.ID == "" {
		turn.ID = uuid.New().String()
	}
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO conversation_turns (id, role, text, intent, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		turn.ID, turn.Role, turn.Text, turn.Intent, turn.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append turn: %w", err)
	}
	return nil
}

// Recent returns the most recent limit turns in chronological order.
func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]*models.ConversationTurn, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, role, text, intent, created_at FROM (
			SELECT id, role, text, intent, created_at
			FROM conversation_turns ORDER BY created_at DESC, id LIMIT ?
		 ) ORDER BY created_at ASC, id`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query turns: %w", err)
	}
	defer rows.Close()

	var turns []*models.ConversationTurn
	for rows.Next() {
		var t models.ConversationTurn
		var intent sql.NullString
		if err := rows.Scan(&t.ID, &t.Role, &t.Text, &intent, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan turn: %w", err)
		}
		t.Intent = intent.String
		turns = append(turns, &t)
	}
	return turns, rows.Err()
}

// Clear deletes all turns.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM conversation_turns`); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}

// Count returns the number of stored turns.
func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM conversation_turns`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count turns: %w", err)
	}
	return n, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
