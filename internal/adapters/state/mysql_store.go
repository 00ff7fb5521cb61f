package state

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	"github.com/mikey/mail-triage/internal/core"
)

// MySQLStore is a MySQL implementation of the StateStore interface
type MySQLStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewMySQLStore creates a new MySQL state store
func NewMySQLStore(dsn string, logger *zap.Logger) (*MySQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to MySQL database: %w", err)
	}

	// Create table if it doesn't exist
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS classifier_state (
			user_id VARCHAR(255) NOT NULL,
			label VARCHAR(32) NOT NULL,
			model MEDIUMBLOB NOT NULL,
			correction_count INT NOT NULL,
			updated_at TIMESTAMP NOT NULL,
			PRIMARY KEY (user_id, label)
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	return &MySQLStore{
		db:     db,
		logger: logger,
	}, nil
}

// Load retrieves the state for a user/label
func (s *MySQLStore) Load(ctx context.Context, userID string, label core.LabelType) (*core.ClassifierState, error) {
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

	if ts, err := time.Parse("2006-01-02 15:04:05", updatedAt); err == nil {
		state.UpdatedAt = ts
	}
	return state, nil
}

// Save stores the state for a user/label
func (s *MySQLStore) Save(ctx context.Context, state *core.ClassifierState) error {
	updatedAt := state.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO classifier_state (user_id, label, model, correction_count, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			model = VALUES(model),
			correction_count = VALUES(correction_count),
			updated_at = VALUES(updated_at)
	`, state.UserID, string(state.Label), state.Model, state.CorrectionCount, updatedAt)

	if err != nil {
		return fmt.Errorf("failed to save classifier state: %w", err)
	}
	return nil
}

// Reset removes the state for a user/label
func (s *MySQLStore) Reset(ctx context.Context, userID string, label core.LabelType) error {
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
func (s *MySQLStore) Close() error {
	return s.db.Close()
}
