package state

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/mikey/mail-triage/internal/core"
)

// SQLiteStore is a SQLite implementation of the StateStore interface
type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLiteStore creates a new SQLite state store
func NewSQLiteStore(dbPath string, logger *zap.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// Create table if it doesn't exist
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS classifier_state (
			user_id TEXT NOT NULL,
			label TEXT NOT NULL,
			model BLOB NOT NULL,
			correction_count INTEGER NOT NULL,
			updated_at TIMESTAMP NOT NULL,
			PRIMARY KEY (user_id, label)
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		logger: logger,
	}, nil
}

// Load retrieves the state for a user/label
func (s *SQLiteStore) Load(ctx context.Context, userID string, label core.LabelType) (*core.ClassifierState, error) {
	state := &core.ClassifierState{
		UserID: userID,
		Label:  label,
	}
	var updatedAt string

	err := s.db.QueryRowContext(ctx, `
		SELECT model, correction_count, updated_at
		FROM classifier_state
		WHERE user_id = ? AND label = ?
	`, userID, string(label)).Scan(&state.Model, &state.CorrectionCount, &updatedAt)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, core.ErrStateNotFound
		}
		return nil, fmt.Errorf("failed to query classifier state: %w", err)
	}

	if ts, err := time.Parse(time.RFC3339, updatedAt); err == nil {
		state.UpdatedAt = ts
	}
	return state, nil
}

// Save stores the state for a user/label
func (s *SQLiteStore) Save(ctx context.Context, state *core.ClassifierState) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO classifier_state (user_id, label, model, correction_count, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, state.UserID, string(state.Label), state.Model, state.CorrectionCount,
		state.UpdatedAt.Format(time.RFC3339))

	if err != nil {
		return fmt.Errorf("failed to save classifier state: %w", err)
	}
	return nil
}

// Reset removes the state for a user/label
func (s *SQLiteStore) Reset(ctx context.Context, userID string, label core.LabelType) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM classifier_state
		WHERE user_id = ? AND label = ?
	`, userID, string(label))

	if err != nil {
		return fmt.Errorf("failed to reset classifier state: %w", err)
	}

	s.logger.Debug("Classifier state reset",
		zap.String("user_id", userID),
		zap.String("label", string(label)))
	return nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
