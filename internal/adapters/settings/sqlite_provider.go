package settings

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/mikey/mail-triage/internal/core"
)

// SQLiteProvider serves per-user settings from a SQLite database owned by
// the surrounding system's editing UI. A row with an empty account_id is
// the user's global fallback; account-specific rows win.
type SQLiteProvider struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLiteProvider opens the settings database and ensures the schema
func NewSQLiteProvider(dbPath string, logger *zap.Logger) (*SQLiteProvider, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	schema := []string{
		`CREATE TABLE IF NOT EXISTS keyword_sets (
			user_id TEXT NOT NULL,
			account_id TEXT NOT NULL DEFAULT '',
			set_name TEXT NOT NULL,
			lemma TEXT NOT NULL,
			PRIMARY KEY (user_id, account_id, set_name, lemma)
		)`,
		`CREATE TABLE IF NOT EXISTS scoring_config (
			user_id TEXT NOT NULL,
			account_id TEXT NOT NULL DEFAULT '',
			deadline_critical_hours REAL NOT NULL,
			deadline_urgent_hours REAL NOT NULL,
			deadline_soon_hours REAL NOT NULL,
			deadline_critical_points INTEGER NOT NULL,
			deadline_urgent_points INTEGER NOT NULL,
			deadline_soon_points INTEGER NOT NULL,
			urgency_keyword_cap INTEGER NOT NULL,
			importance_keyword_cap INTEGER NOT NULL,
			imperative_points INTEGER NOT NULL,
			invoice_bonus INTEGER NOT NULL,
			newsletter_urgency_penalty INTEGER NOT NULL,
			newsletter_importance_penalty INTEGER NOT NULL,
			auto_reply_urgency_penalty INTEGER NOT NULL,
			auto_reply_importance_penalty INTEGER NOT NULL,
			informational_importance_penalty INTEGER NOT NULL,
			urgency_high_threshold INTEGER NOT NULL,
			importance_high_threshold INTEGER NOT NULL,
			PRIMARY KEY (user_id, account_id)
		)`,
		`CREATE TABLE IF NOT EXISTS vip_senders (
			user_id TEXT NOT NULL,
			account_id TEXT NOT NULL DEFAULT '',
			pattern TEXT NOT NULL,
			match_mode TEXT NOT NULL,
			boost INTEGER NOT NULL,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			PRIMARY KEY (user_id, account_id, pattern, match_mode)
		)`,
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create settings schema: %w", err)
		}
	}

	return &SQLiteProvider{
		db:     db,
		logger: logger,
	}, nil
}

// KeywordConfiguration returns the keyword sets for a user/account,
// falling back to the user's global rows
func (p *SQLiteProvider) KeywordConfiguration(ctx context.Context, userID, accountID string) (*core.KeywordConfiguration, error) {
	for _, account := range accountScope(accountID) {
		sets, err := p.keywordSets(ctx, userID, account)
		if err != nil {
			return nil, err
		}
		if len(sets) > 0 {
			return &core.KeywordConfiguration{
				UserID:    userID,
				AccountID: account,
				Sets:      sets,
			}, nil
		}
	}
	return nil, core.ErrConfigurationMissing
}

func (p *SQLiteProvider) keywordSets(ctx context.Context, userID, accountID string) (map[string][]string, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT set_name, lemma
		FROM keyword_sets
		WHERE user_id = ? AND account_id = ?
		ORDER BY set_name, lemma
	`, userID, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to query keyword sets: %w", err)
	}
	defer rows.Close()

	sets := make(map[string][]string)
	for rows.Next() {
		var name, lemma string
		if err := rows.Scan(&name, &lemma); err != nil {
			return nil, fmt.Errorf("failed to scan keyword row: %w", err)
		}
		sets[name] = append(sets[name], lemma)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read keyword rows: %w", err)
	}
	return sets, nil
}

// ScoringConfiguration returns the thresholds for a user/account, falling
// back to the user's global row
func (p *SQLiteProvider) ScoringConfiguration(ctx context.Context, userID, accountID string) (*core.ScoringConfiguration, error) {
	for _, account := range accountScope(accountID) {
		cfg := &core.ScoringConfiguration{}
		err := p.db.QueryRowContext(ctx, `
			SELECT deadline_critical_hours, deadline_urgent_hours, deadline_soon_hours,
				deadline_critical_points, deadline_urgent_points, deadline_soon_points,
				urgency_keyword_cap, importance_keyword_cap,
				imperative_points, invoice_bonus,
				newsletter_urgency_penalty, newsletter_importance_penalty,
				auto_reply_urgency_penalty, auto_reply_importance_penalty,
				informational_importance_penalty,
				urgency_high_threshold, importance_high_threshold
			FROM scoring_config
			WHERE user_id = ? AND account_id = ?
		`, userID, account).Scan(
			&cfg.DeadlineCriticalHours, &cfg.DeadlineUrgentHours, &cfg.DeadlineSoonHours,
			&cfg.DeadlineCriticalPoints, &cfg.DeadlineUrgentPoints, &cfg.DeadlineSoonPoints,
			&cfg.UrgencyKeywordCap, &cfg.ImportanceKeywordCap,
			&cfg.ImperativePoints, &cfg.InvoiceBonus,
			&cfg.NewsletterUrgencyPenalty, &cfg.NewsletterImportancePenalty,
			&cfg.AutoReplyUrgencyPenalty, &cfg.AutoReplyImportancePenalty,
			&cfg.InformationalImportancePenalty,
			&cfg.UrgencyHighThreshold, &cfg.ImportanceHighThreshold,
		)
		if err == sql.ErrNoRows {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to query scoring configuration: %w", err)
		}
		return cfg, nil
	}
	return nil, core.ErrConfigurationMissing
}

// VIPSenders returns the VIP registry for a user/account plus the user's
// global entries
func (p *SQLiteProvider) VIPSenders(ctx context.Context, userID, accountID string) ([]core.VIPSenderEntry, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT pattern, match_mode, boost, active
		FROM vip_senders
		WHERE user_id = ? AND account_id IN (?, '')
	`, userID, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to query vip senders: %w", err)
	}
	defer rows.Close()

	var entries []core.VIPSenderEntry
	for rows.Next() {
		var e core.VIPSenderEntry
		var mode string
		if err := rows.Scan(&e.Pattern, &mode, &e.Boost, &e.Active); err != nil {
			return nil, fmt.Errorf("failed to scan vip sender row: %w", err)
		}
		e.Mode = core.VIPMatchMode(mode)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read vip sender rows: %w", err)
	}
	return entries, nil
}

// Close closes the database connection
func (p *SQLiteProvider) Close() error {
	return p.db.Close()
}

// accountScope lists the account IDs to try, most specific first.
func accountScope(accountID string) []string {
	if accountID == "" {
		return []string{""}
	}
	return []string{accountID, ""}
}
